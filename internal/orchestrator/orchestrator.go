package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DanielBelovol/ThumbnailTester/internal/logger"
	"github.com/DanielBelovol/ThumbnailTester/internal/metrics"
	"github.com/DanielBelovol/ThumbnailTester/internal/models"
	"github.com/DanielBelovol/ThumbnailTester/internal/queue"

	"github.com/cenkalti/backoff/v4"
)

type Config struct {
	// MaxApplyAttempts bounds apply/sample retries, first attempt included.
	MaxApplyAttempts int
	// BackoffInitial is the first retry delay; subsequent delays grow
	// exponentially.
	BackoffInitial time.Duration
	// ConfirmPollInterval and ConfirmTimeout bound the title confirmation
	// poll after an ApplyText.
	ConfirmPollInterval time.Duration
	ConfirmTimeout      time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxApplyAttempts <= 0 {
		c.MaxApplyAttempts = 3
	}
	if c.BackoffInitial <= 0 {
		c.BackoffInitial = 500 * time.Millisecond
	}
	if c.ConfirmPollInterval <= 0 {
		c.ConfirmPollInterval = 5 * time.Second
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = time.Minute
	}
	return c
}

// Deps are the collaborators a session run needs. All of them are interfaces
// so tests can drive a full run with fakes and a simulated clock.
type Deps struct {
	Queues    *queue.Registry
	Applier   Applier
	Collector Collector
	Images    ImageStore
	Validator ImageValidator
	Owners    OwnershipChecker
	Store     Store
	Events    EventSink
	Clock     Clock
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// Orchestrator runs test sessions: it validates a session, claims the
// per-video queue and drains it one variant at a time, applying the variant,
// dwelling, sampling a delta measurement and reporting progress, then selects
// a winner. Sessions for different videos run concurrently; variants for one
// video never overlap.
type Orchestrator struct {
	cfg       Config
	queues    *queue.Registry
	applier   Applier
	collector Collector
	images    ImageStore
	validator ImageValidator
	owners    OwnershipChecker
	store     Store
	events    EventSink
	clock     Clock
	metrics   *metrics.Metrics
	log       *logger.Logger
}

func New(cfg Config, deps Deps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = NewClock()
	}
	return &Orchestrator{
		cfg:       cfg.withDefaults(),
		queues:    deps.Queues,
		applier:   deps.Applier,
		collector: deps.Collector,
		images:    deps.Images,
		validator: deps.Validator,
		owners:    deps.Owners,
		store:     deps.Store,
		events:    deps.Events,
		clock:     deps.Clock,
		metrics:   deps.Metrics,
		log:       deps.Logger,
	}
}

// Run executes one session to completion. It returns the error that failed
// the session, or nil when the session completed (even without a winner).
func (o *Orchestrator) Run(ctx context.Context, sess *models.TestSession) error {
	o.metrics.IncSessionsStarted()
	o.metrics.AddActiveSessions(1)
	defer o.metrics.AddActiveSessions(-1)

	sess.State = models.SessionValidating
	imageBytes, kind, err := o.validate(ctx, sess)
	if err != nil {
		return o.fail(ctx, sess, kind, err)
	}

	if !o.queues.Claim(sess.VideoID) {
		return o.fail(ctx, sess, KindValidation, ErrVideoBusy)
	}
	defer o.queues.Release(sess.VideoID)

	started := o.clock.Now()
	sess.StartedAt = &started
	sess.State = models.SessionRunning
	if err := o.store.SaveSession(ctx, sess); err != nil {
		return o.fail(ctx, sess, KindInternal, fmt.Errorf("persist session: %w", err))
	}
	o.log.Info("Session %s running: video=%s mode=%s variants=%d", sess.ID, sess.VideoID, sess.Mode, len(sess.Variants))

	q := o.queues.GetOrCreate(sess.VideoID)
	pending := make([]*models.Variant, 0, len(sess.Variants))
	for i := range sess.Variants {
		pending = append(pending, &sess.Variants[i])
	}
	q.EnqueueAll(pending)

	// Analytics queries are cumulative from the session start; deltas come
	// from differencing consecutive absolute readings.
	windowStart := started

	for {
		if err := ctx.Err(); err != nil {
			return o.fail(ctx, sess, KindCanceled, err)
		}
		v, ok := q.TakeNext()
		if !ok {
			break
		}
		kind, err := o.runVariant(ctx, sess, v, imageBytes, windowStart)
		q.ReleaseActive()
		if err != nil {
			return o.fail(ctx, sess, kind, err)
		}
		if err := o.store.SaveSession(ctx, sess); err != nil {
			o.log.Error("Failed to persist session %s after variant %d: %v", sess.ID, v.Position, err)
		}
		o.events.Progress(sess.ID, v)
	}

	sess.State = models.SessionFinalizing
	if i := SelectWinner(sess.Variants, sess.Criterion); i >= 0 {
		o.log.Info("Session %s winner: variant %d", sess.ID, i)
	} else {
		o.log.Info("Session %s completed without a winner", sess.ID)
	}

	ended := o.clock.Now()
	sess.EndedAt = &ended
	sess.State = models.SessionCompleted
	if err := o.store.SaveSession(ctx, sess); err != nil {
		return o.fail(ctx, sess, KindInternal, fmt.Errorf("persist final session: %w", err))
	}
	o.events.Final(sess.ID, sess.Variants)
	o.metrics.IncSessionsCompleted()
	return nil
}

// validate runs the pre-flight checks: variant contract, ownership and the
// image policy for every candidate. No live mutation happens before all of
// them pass. Fetched image bytes are returned keyed by variant position so
// the apply step does not download them twice.
func (o *Orchestrator) validate(ctx context.Context, sess *models.TestSession) (map[int][]byte, string, error) {
	if len(sess.Variants) == 0 {
		return nil, KindValidation, models.ErrNoVariants
	}
	if sess.DwellMinutes <= 0 {
		return nil, KindValidation, models.ErrDwellNotPositive
	}

	owns, err := o.owners.IsOwner(ctx, sess.UserID, sess.VideoID)
	if err != nil {
		return nil, KindOwnership, fmt.Errorf("ownership check: %w", err)
	}
	if !owns {
		return nil, KindOwnership, errors.New("user does not own the target video")
	}

	imageBytes := make(map[int][]byte)
	if sess.NeedsImage() {
		for i := range sess.Variants {
			v := &sess.Variants[i]
			data, err := o.images.Fetch(ctx, v.ImageRef)
			if err != nil {
				return nil, KindValidation, fmt.Errorf("fetch image %q: %w", v.ImageRef, err)
			}
			if err := o.validator.Validate(data); err != nil {
				return nil, KindValidation, fmt.Errorf("image %q: %w", v.ImageRef, err)
			}
			imageBytes[v.Position] = data
		}
	}
	return imageBytes, "", nil
}

// runVariant drives one apply/dwell/sample cycle. A non-empty kind with an
// error means the session must abort; a nil error means the variant is done,
// possibly with a zero measurement.
func (o *Orchestrator) runVariant(ctx context.Context, sess *models.TestSession, v *models.Variant, imageBytes map[int][]byte, windowStart time.Time) (string, error) {
	// The absolute reading taken just before this variant goes live anchors
	// its delta; without it the measurement would be cumulative.
	baseline, err := o.sample(ctx, sess.UserID, sess.VideoID, windowStart)
	if err != nil {
		if errors.Is(err, ErrAuthFailure) {
			return KindCollector, err
		}
		// No analytics rows yet, or transient failures exhausted: anchor at
		// zero rather than aborting.
		baseline = &models.MetricsSnapshot{}
	}

	if err := o.apply(ctx, sess, v, imageBytes); err != nil {
		if sessionFatal(err) {
			return KindApply, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return KindCanceled, err
		}
		// Isolated to this variant: a zero measurement keeps the rest of the
		// session's data usable.
		o.log.Warn("Variant %d of session %s failed to apply: %v", v.Position, sess.ID, err)
		v.Stats = models.ZeroSnapshot(o.clock.Now())
		v.Stats.VariantID = v.ID
		o.events.SessionError(sess.ID, KindApply, fmt.Sprintf("variant %d: %v", v.Position, err))
		return "", nil
	}
	o.metrics.IncVariantsApplied()
	o.events.Success(sess.ID, v)

	// The thumbnail is live; release the transient image copy.
	if sess.NeedsImage() {
		delete(imageBytes, v.Position)
		if err := o.images.Remove(ctx, v.ImageRef); err != nil {
			o.log.Warn("Failed to remove image %q: %v", v.ImageRef, err)
		}
	}

	// Dwell: the variant stays live for the configured window.
	select {
	case <-ctx.Done():
		return KindCanceled, ctx.Err()
	case <-o.clock.After(sess.DwellDuration()):
	}

	current, err := o.sample(ctx, sess.UserID, sess.VideoID, windowStart)
	switch {
	case err == nil:
		v.Stats = Diff(current, baseline)
		v.Stats.VariantID = v.ID
	case errors.Is(err, ErrAuthFailure):
		return KindCollector, err
	default:
		v.Stats = models.ZeroSnapshot(o.clock.Now())
		v.Stats.VariantID = v.ID
		o.events.SessionError(sess.ID, KindCollector, fmt.Sprintf("variant %d: %v", v.Position, err))
	}
	return "", nil
}

// apply performs the mutations the session mode asks for, with bounded
// retries for rate limits and transient failures. Title updates are
// confirmed by polling the live title; confirmation runs once, after the
// apply call itself succeeded.
func (o *Orchestrator) apply(ctx context.Context, sess *models.TestSession, v *models.Variant, imageBytes map[int][]byte) error {
	op := func() error {
		if sess.NeedsImage() {
			data, ok := imageBytes[v.Position]
			if !ok {
				fetched, err := o.images.Fetch(ctx, v.ImageRef)
				if err != nil {
					return fmt.Errorf("fetch image: %w", err)
				}
				data = fetched
				imageBytes[v.Position] = fetched
			}
			if err := o.applier.ApplyImage(ctx, sess.UserID, sess.VideoID, data); err != nil {
				return classifyRetry(err)
			}
		}
		if sess.NeedsText() {
			if err := o.applier.ApplyText(ctx, sess.UserID, sess.VideoID, v.Text); err != nil {
				return classifyRetry(err)
			}
		}
		return nil
	}
	if err := o.retry(ctx, op); err != nil {
		return err
	}
	if sess.NeedsText() {
		return o.confirmTitle(ctx, sess.UserID, sess.VideoID, v.Text)
	}
	return nil
}

// confirmTitle polls the live title until it matches or the confirmation
// window closes.
func (o *Orchestrator) confirmTitle(ctx context.Context, userID, videoID, want string) error {
	deadline := o.clock.Now().Add(o.cfg.ConfirmTimeout)
	for {
		title, err := o.applier.CurrentTitle(ctx, userID, videoID)
		if err == nil && title == want {
			return nil
		}
		if err != nil && sessionFatal(err) {
			return err
		}
		if !o.clock.Now().Before(deadline) {
			return ErrConfirmationTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.clock.After(o.cfg.ConfirmPollInterval):
		}
	}
}

// sample reads an absolute snapshot, retrying transient failures. ErrNoData
// and ErrAuthFailure pass through for the caller to interpret.
func (o *Orchestrator) sample(ctx context.Context, userID, videoID string, windowStart time.Time) (*models.MetricsSnapshot, error) {
	var snap *models.MetricsSnapshot
	op := func() error {
		s, err := o.collector.Sample(ctx, userID, videoID, windowStart)
		switch {
		case err == nil:
			snap = s
			return nil
		case errors.Is(err, ErrAuthFailure), errors.Is(err, ErrNoData):
			return backoff.Permanent(err)
		default:
			return err
		}
	}
	if err := o.retry(ctx, op); err != nil {
		return nil, err
	}
	return snap, nil
}

func (o *Orchestrator) retry(ctx context.Context, op backoff.Operation) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = o.cfg.BackoffInitial
	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(o.cfg.MaxApplyAttempts-1)), ctx)
	return backoff.RetryNotify(op, b, func(err error, next time.Duration) {
		o.metrics.IncApplyRetries()
		o.log.Debug("Retrying in %s after: %v", next, err)
	})
}

func classifyRetry(err error) error {
	if sessionFatal(err) {
		return backoff.Permanent(err)
	}
	// RateLimited and Transient are retried with backoff.
	return err
}

// fail moves the session to FAILED, persists what was measured so far and
// emits exactly one sessionError plus the final event. Measurements already
// attached to earlier variants are preserved for partial reporting.
func (o *Orchestrator) fail(ctx context.Context, sess *models.TestSession, kind string, cause error) error {
	o.log.Error("Session %s failed (%s): %v", sess.ID, kind, cause)

	ended := o.clock.Now()
	sess.EndedAt = &ended
	sess.State = models.SessionFailed
	sess.FailureKind = kind
	if err := o.store.SaveSession(context.WithoutCancel(ctx), sess); err != nil {
		o.log.Error("Failed to persist failed session %s: %v", sess.ID, err)
	}

	o.events.SessionError(sess.ID, kind, cause.Error())
	o.events.Final(sess.ID, sess.Variants)
	o.metrics.IncSessionsFailed()
	return cause
}

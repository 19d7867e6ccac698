package orchestrator

import (
	"context"
	"time"

	"github.com/DanielBelovol/ThumbnailTester/internal/models"
)

// Applier mutates the live video resource for one variant, acting as the
// given user. It owns no timing; retry and confirmation polling are the
// orchestrator's job. Implementations classify failures with the sentinels
// in errors.go.
type Applier interface {
	// ApplyImage uploads image bytes as the video's thumbnail.
	ApplyImage(ctx context.Context, userID, videoID string, image []byte) error
	// ApplyText sets the video title.
	ApplyText(ctx context.Context, userID, videoID, title string) error
	// CurrentTitle reads the video's live title, used to confirm ApplyText.
	CurrentTitle(ctx context.Context, userID, videoID string) (string, error)
}

// Collector samples cumulative engagement metrics for a video from
// windowStart to now, acting as the given user. Deltas are computed by Diff,
// not by the collector.
type Collector interface {
	Sample(ctx context.Context, userID, videoID string, windowStart time.Time) (*models.MetricsSnapshot, error)
}

// ImageStore resolves a variant's image reference to bytes and releases the
// transient copy once the thumbnail is live.
type ImageStore interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
	Remove(ctx context.Context, ref string) error
}

// ImageValidator enforces the platform's thumbnail contract (format, size,
// dimensions) before any mutation happens.
type ImageValidator interface {
	Validate(image []byte) error
}

// OwnershipChecker verifies the requesting user controls the target video.
// Consulted once, during validation.
type OwnershipChecker interface {
	IsOwner(ctx context.Context, userID, videoID string) (bool, error)
}

// EventSink receives test lifecycle notifications. Delivery is
// fire-and-forget; the orchestrator never waits for acknowledgement. Success
// fires when a variant's mutation is live; Progress when its measurement is
// in.
type EventSink interface {
	Progress(sessionID string, variant *models.Variant)
	Success(sessionID string, variant *models.Variant)
	SessionError(sessionID, kind, detail string)
	Final(sessionID string, variants []models.Variant)
}

// Store persists session state. Called after validation, after every variant
// completion and after finalization so measurements survive a restart.
type Store interface {
	SaveSession(ctx context.Context, sess *models.TestSession) error
}

// Diff computes the delta snapshot attributable to one variant from two
// absolute snapshots. Counter fields are subtracted and clamped at zero so a
// platform-side correction never yields a negative delta. Average fields
// (view duration, view percentage, CTR) are carried through from the current
// reading; differencing an average is meaningless.
func Diff(current, previous *models.MetricsSnapshot) *models.MetricsSnapshot {
	if current == nil {
		return models.ZeroSnapshot(time.Time{})
	}
	if previous == nil {
		previous = &models.MetricsSnapshot{}
	}
	return &models.MetricsSnapshot{
		Views:                 clamp(current.Views - previous.Views),
		Comments:              clamp(current.Comments - previous.Comments),
		Shares:                clamp(current.Shares - previous.Shares),
		Likes:                 clamp(current.Likes - previous.Likes),
		SubscribersGained:     clamp(current.SubscribersGained - previous.SubscribersGained),
		Impressions:           clamp(current.Impressions - previous.Impressions),
		TotalWatchTime:        clamp(current.TotalWatchTime - previous.TotalWatchTime),
		AverageViewDuration:   current.AverageViewDuration,
		AverageViewPercentage: current.AverageViewPercentage,
		CTR:                   current.CTR,
		SampledAt:             current.SampledAt,
	}
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

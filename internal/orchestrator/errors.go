package orchestrator

import "errors"

// Apply/collect failures, classified with errors.Is. Platform clients wrap
// whatever the wire gave them around one of these sentinels.
var (
	// ErrRateLimited is a 429 from the platform; retryable with backoff.
	ErrRateLimited = errors.New("rate limited by platform")

	// ErrVideoNotFound aborts the whole session: there is nothing to test.
	ErrVideoNotFound = errors.New("video not found")

	// ErrUnauthorized means the credential is invalid or expired; aborts the
	// whole session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConfirmationTimeout means a title update was accepted but never
	// observed live within the confirmation window. Fatal for the variant,
	// not the session.
	ErrConfirmationTimeout = errors.New("title confirmation timed out")

	// ErrTransient is a network/IO level failure; retryable a bounded number
	// of times.
	ErrTransient = errors.New("transient platform error")

	// ErrNoData means the analytics backend has no rows for the video yet.
	// Degrades to a zero-delta measurement.
	ErrNoData = errors.New("no analytics data")

	// ErrAuthFailure is an analytics credential failure; aborts the session.
	ErrAuthFailure = errors.New("analytics auth failure")

	// ErrVideoBusy means another session already owns the video's queue.
	ErrVideoBusy = errors.New("a test is already running for this video")
)

// Event kinds carried by sessionError events.
const (
	KindValidation = "ValidationError"
	KindOwnership  = "OwnershipError"
	KindApply      = "ApplyError"
	KindCollector  = "CollectorError"
	KindInternal   = "InternalError"
	KindCanceled   = "Canceled"
)

// sessionFatal reports whether an apply error must abort the whole session
// rather than just the current variant.
func sessionFatal(err error) bool {
	return errors.Is(err, ErrVideoNotFound) || errors.Is(err, ErrUnauthorized)
}

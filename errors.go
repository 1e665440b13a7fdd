package ambient

import "errors"

// Error kinds reported by the pipeline. Failure sites wrap these with
// fmt.Errorf and %w so callers can test with errors.Is.
var (
	// ErrInvalidConfiguration is returned by Initialize when any of the
	// configured sizes is not positive.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrCaptureUnavailable is returned by Initialize when no capture
	// source could be acquired.
	ErrCaptureUnavailable = errors.New("capture source unavailable")

	// ErrCaptureFailure is returned by Sample when the frame grab fails.
	ErrCaptureFailure = errors.New("capture failed")

	// ErrNotInitialized is returned by Sample outside an
	// Initialize/Uninitialize bracket.
	ErrNotInitialized = errors.New("pipeline not initialized")

	// ErrEmptyBuffer guards the averaging step against a zero-length
	// frame buffer.
	ErrEmptyBuffer = errors.New("empty frame buffer")
)

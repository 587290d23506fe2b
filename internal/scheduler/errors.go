package scheduler

import (
	"errors"
	"fmt"
	"time"

	"whisperd/internal/gpu"
	"whisperd/pkg/types"
)

// unknownModelError signals a submission referencing a model absent from the
// footprint table; rejected before queuing.
type unknownModelError struct{ name string }

func (e unknownModelError) Error() string { return "unknown model: " + e.name }

// ErrUnknownModel constructs an unknown-model error.
func ErrUnknownModel(name string) error { return unknownModelError{name: name} }

// IsUnknownModel reports whether err indicates a model missing from the
// footprint table.
func IsUnknownModel(err error) bool {
	var t unknownModelError
	return errors.As(err, &t)
}

// resourceExhaustedError signals a failed admission check, at submission or
// at dispatch time. It carries the detail the API surfaces.
type resourceExhaustedError struct {
	model        string
	insufficient []types.DeviceShortfall
	recommended  []string
}

func (e resourceExhaustedError) Error() string {
	return "insufficient device memory for model " + e.model
}

// ErrResourceExhausted constructs an admission rejection with its detail.
func ErrResourceExhausted(model string, insufficient []types.DeviceShortfall, recommended []string) error {
	return resourceExhaustedError{model: model, insufficient: insufficient, recommended: recommended}
}

// IsResourceExhausted reports whether err indicates a failed admission check.
func IsResourceExhausted(err error) bool {
	var t resourceExhaustedError
	return errors.As(err, &t)
}

// RejectionDetail extracts the admission detail (short devices, models that
// would fit) from a resource-exhausted error.
func RejectionDetail(err error) (insufficient []types.DeviceShortfall, recommended []string, ok bool) {
	var t resourceExhaustedError
	if !errors.As(err, &t) {
		return nil, nil, false
	}
	return t.insufficient, t.recommended, true
}

// loadFailedError signals that the engine could not materialize a model on a
// device despite admission passing (race with another process, driver error).
type loadFailedError struct {
	model  string
	device int
	cause  error
}

func (e loadFailedError) Error() string {
	return fmt.Sprintf("load model %s on device %d: %v", e.model, e.device, e.cause)
}

func (e loadFailedError) Unwrap() error { return e.cause }

// IsLoadFailed reports whether err indicates a model load failure.
func IsLoadFailed(err error) bool {
	var t loadFailedError
	return errors.As(err, &t)
}

// engineFailureError signals an engine error during execution.
type engineFailureError struct{ cause error }

func (e engineFailureError) Error() string { return "engine failure: " + e.cause.Error() }
func (e engineFailureError) Unwrap() error { return e.cause }

// IsEngineFailure reports whether err indicates an engine execution error.
func IsEngineFailure(err error) bool {
	var t engineFailureError
	return errors.As(err, &t)
}

// timeoutError signals that the per-job wall-clock budget was exceeded.
type timeoutError struct{ after time.Duration }

func (e timeoutError) Error() string { return "job timed out after " + e.after.String() }

// IsTimeout reports whether err indicates the job timeout elapsed.
func IsTimeout(err error) bool {
	var t timeoutError
	return errors.As(err, &t)
}

// cancelledError signals an honored cancellation. A distinct failure reason
// so callers can tell a user-initiated stop from a genuine failure.
type cancelledError struct{}

func (cancelledError) Error() string { return "cancelled" }

// IsCancelled reports whether err indicates an explicit cancellation.
func IsCancelled(err error) bool {
	var t cancelledError
	return errors.As(err, &t)
}

// queueFullError signals queue overflow on submission.
type queueFullError struct{ depth int }

func (e queueFullError) Error() string { return fmt.Sprintf("queue full: %d pending", e.depth) }

// ErrQueueFull constructs a queue-overflow error.
func ErrQueueFull(depth int) error { return queueFullError{depth: depth} }

// IsQueueFull reports whether err indicates queue overflow (return 429).
func IsQueueFull(err error) bool {
	var t queueFullError
	return errors.As(err, &t)
}

// shuttingDownError signals a submission arriving after drain began.
type shuttingDownError struct{}

func (shuttingDownError) Error() string { return "scheduler is shutting down" }

// ErrShuttingDown constructs a drain-in-progress error.
func ErrShuttingDown() error { return shuttingDownError{} }

// IsShuttingDown reports whether err indicates the scheduler is draining.
func IsShuttingDown(err error) bool {
	var t shuttingDownError
	return errors.As(err, &t)
}

// jobNotFoundError signals an unknown job id.
type jobNotFoundError struct{ id string }

func (e jobNotFoundError) Error() string { return "job not found: " + e.id }

// ErrJobNotFound constructs an unknown-job error.
func ErrJobNotFound(id string) error { return jobNotFoundError{id: id} }

// IsJobNotFound reports whether err indicates an unknown job id.
func IsJobNotFound(err error) bool {
	var t jobNotFoundError
	return errors.As(err, &t)
}

// jobDoneError signals a cancel against a job already in a terminal state.
type jobDoneError struct{ id string }

func (e jobDoneError) Error() string { return "job already finished: " + e.id }

// ErrJobDone constructs an already-terminal error.
func ErrJobDone(id string) error { return jobDoneError{id: id} }

// IsJobDone reports whether err indicates the job already reached a terminal
// state.
func IsJobDone(err error) bool {
	var t jobDoneError
	return errors.As(err, &t)
}

// IsDeviceNotFound reports whether err, anywhere in its chain, indicates a
// referenced device is unknown or vanished.
func IsDeviceNotFound(err error) bool {
	for err != nil {
		if gpu.IsDeviceNotFound(err) {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

package hostbridge

import "errors"

var (
	// ErrInvalidPayload is returned for host messages that are not JSON or
	// do not match their schema. The message is dropped.
	ErrInvalidPayload = errors.New("hostbridge: invalid payload")

	// ErrWorldMismatch is returned when a world event's payload names a
	// different world than its topic.
	ErrWorldMismatch = errors.New("hostbridge: payload world does not match topic")

	// ErrStopped is returned by Start after Stop.
	ErrStopped = errors.New("hostbridge: bridge stopped")
)

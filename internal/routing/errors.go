package routing

import "errors"

// Domain-specific errors for routing operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidPattern is returned when a pattern string cannot be compiled.
	// Pattern errors are rejected at registration time, never at match time.
	ErrInvalidPattern = errors.New("routing: invalid topic pattern")

	// ErrDuplicateLabel is returned when registering a label that already exists.
	ErrDuplicateLabel = errors.New("routing: label already registered")

	// ErrUnknownLabel is returned when an operation names an unregistered label.
	ErrUnknownLabel = errors.New("routing: unknown label")

	// ErrParameterCount is returned by Publish and BuildTopic when the number
	// of supplied parameter values differs from the pattern's parameter count.
	ErrParameterCount = errors.New("routing: parameter count mismatch")

	// ErrMissingParameter is returned when a required parameter name is absent
	// from the supplied values.
	ErrMissingParameter = errors.New("routing: missing parameter")

	// ErrInvalidParameterValue is returned when a supplied parameter value has
	// the wrong shape: an empty string, a string containing the segment
	// separator, an empty multi-level sequence, or a non-string value.
	ErrInvalidParameterValue = errors.New("routing: invalid parameter value")

	// ErrAlreadySubscribed is returned when subscribing a label whose topic
	// filter is already in the active subscription set.
	ErrAlreadySubscribed = errors.New("routing: label already subscribed")

	// ErrNotSubscribed is returned when unsubscribing a label that is not
	// currently subscribed.
	ErrNotSubscribed = errors.New("routing: label not subscribed")

	// ErrAlreadyConnected is returned by Connect when the coordinator is
	// already connected or reconnecting.
	ErrAlreadyConnected = errors.New("routing: already connected")

	// ErrNotConnected is returned when an operation requires an active
	// connection and there is none.
	ErrNotConnected = errors.New("routing: not connected")
)

package metrics

import "errors"

// Domain-specific errors for metrics operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDisabled is returned when metrics recording is disabled in config.
	ErrDisabled = errors.New("metrics: recording disabled in configuration")

	// ErrConnectionFailed is returned when the InfluxDB connection cannot be established.
	ErrConnectionFailed = errors.New("metrics: connection failed")

	// ErrNotConnected is returned when attempting operations on a closed recorder.
	ErrNotConnected = errors.New("metrics: recorder not connected")
)

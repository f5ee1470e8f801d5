package metrics

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDispatch records a message dispatched to a matched route.
//
// The write is non-blocking; data is batched and sent asynchronously.
// All write methods are safe to call on a nil or closed recorder.
//
// Parameters:
//   - label: The route label that matched
//   - topic: The concrete topic the message arrived on
//   - listenerCount: Number of listeners the message was delivered to
func (r *Recorder) WriteDispatch(label string, topic string, listenerCount int) {
	if !r.IsConnected() {
		return
	}

	point := write.NewPoint(
		"dispatch",
		map[string]string{
			"label": label,
		},
		map[string]interface{}{
			"topic":     topic,
			"listeners": listenerCount,
		},
		time.Now(),
	)

	r.writeAPI.WritePoint(point)
}

// WriteDrop records a message that matched no registered pattern.
//
// A rising drop count usually means a subscription filter is broader
// than the registered patterns.
func (r *Recorder) WriteDrop(topic string) {
	if !r.IsConnected() {
		return
	}

	point := write.NewPoint(
		"drop",
		map[string]string{},
		map[string]interface{}{
			"topic": topic,
		},
		time.Now(),
	)

	r.writeAPI.WritePoint(point)
}

// WriteStatus records a connection status transition.
//
// Parameters:
//   - status: The new status name (e.g., "connected", "offline")
//   - hasError: Whether the transition carried an error
func (r *Recorder) WriteStatus(status string, hasError bool) {
	if !r.IsConnected() {
		return
	}

	point := write.NewPoint(
		"status",
		map[string]string{
			"status": status,
		},
		map[string]interface{}{
			"has_error": hasError,
		},
		time.Now(),
	)

	r.writeAPI.WritePoint(point)
}

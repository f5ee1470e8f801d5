package metrics

import (
	"context"
	"errors"
	"testing"

	"topicmux/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.MetricsConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want %v", err, ErrDisabled)
	}
}

func TestConnectUnreachable(t *testing.T) {
	cfg := config.MetricsConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1", // nothing listens here
		Token:   "token",
		Org:     "org",
		Bucket:  "bucket",
	}

	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want %v", err, ErrConnectionFailed)
	}
}

// The daemon keeps a nil recorder when metrics are disabled, so every
// write path must tolerate one.
func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder

	if r.IsConnected() {
		t.Error("nil recorder should report not connected")
	}

	r.WriteDispatch("devices", "devices/d1/config/http", 2)
	r.WriteDrop("devices/d1/unknown")
	r.WriteStatus("connected", false)
	r.Flush()
}

func TestHealthCheckNotConnected(t *testing.T) {
	r := &Recorder{}

	if err := r.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want %v", err, ErrNotConnected)
	}
}

func TestClosedRecorderDropsWrites(t *testing.T) {
	r := &Recorder{connected: false}

	// Writes on a disconnected recorder are silently dropped.
	r.WriteDispatch("devices", "devices/d1/config/http", 1)
	r.WriteDrop("devices/d1/unknown")
	r.Flush()
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes a temporary config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topicmux.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("broker host = %q, want localhost", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("broker port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.QoS != 1 {
		t.Errorf("qos = %d, want 1", cfg.MQTT.QoS)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %q/%q, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics enabled by default, want disabled")
	}
}

func TestLoadFileValues(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker:
    host: "broker.example"
    port: 8883
    tls: true
    client_id: "mux-01"
  qos: 2

routes:
  - label: "device-config"
    pattern: "devices/+deviceId/config/#keys"
    qos: 1
    subscribe: true
  - label: "device-state"
    pattern: "devices/+deviceId/state"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.example" || cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("broker = %s:%d, want broker.example:8883", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port)
	}
	if !cfg.MQTT.Broker.TLS {
		t.Error("tls = false, want true")
	}
	if len(cfg.Routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(cfg.Routes))
	}
	if cfg.Routes[0].Label != "device-config" || !cfg.Routes[0].Subscribe {
		t.Errorf("routes[0] = %+v", cfg.Routes[0])
	}
	if cfg.Routes[1].Subscribe {
		t.Error("routes[1].subscribe defaulted to true, want false")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TOPICMUX_MQTT_HOST", "env-broker")
	t.Setenv("TOPICMUX_MQTT_PASSWORD", "env-secret")
	t.Setenv("TOPICMUX_METRICS_TOKEN", "env-token")

	path := writeConfig(t, `
mqtt:
  broker:
    host: "file-broker"
  auth:
    username: "mux"
    password: "file-secret"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("broker host = %q, want env-broker", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Auth.Password != "env-secret" {
		t.Errorf("password = %q, want env override", cfg.MQTT.Auth.Password)
	}
	if cfg.Metrics.Token != "env-token" {
		t.Errorf("metrics token = %q, want env-token", cfg.Metrics.Token)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantFrag string
	}{
		{
			name:     "invalid qos",
			mutate:   func(c *Config) { c.MQTT.QoS = 3 },
			wantFrag: "mqtt.qos",
		},
		{
			name:     "invalid port",
			mutate:   func(c *Config) { c.MQTT.Broker.Port = 0 },
			wantFrag: "mqtt.broker.port",
		},
		{
			name:     "empty host",
			mutate:   func(c *Config) { c.MQTT.Broker.Host = "" },
			wantFrag: "mqtt.broker.host",
		},
		{
			name:     "max delay below initial",
			mutate:   func(c *Config) { c.MQTT.Reconnect.MaxDelay = 0 },
			wantFrag: "max_delay",
		},
		{
			name: "metrics enabled without url",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Org = "org"
				c.Metrics.Bucket = "bucket"
			},
			wantFrag: "metrics.url",
		},
		{
			name: "route without label",
			mutate: func(c *Config) {
				c.Routes = []RouteConfig{{Pattern: "a/+b"}}
			},
			wantFrag: "routes[0].label",
		},
		{
			name: "duplicate route labels",
			mutate: func(c *Config) {
				c.Routes = []RouteConfig{
					{Label: "x", Pattern: "a/+b"},
					{Label: "x", Pattern: "c/+d"},
				}
			},
			wantFrag: "duplicated",
		},
		{
			name: "route without pattern",
			mutate: func(c *Config) {
				c.Routes = []RouteConfig{{Label: "x"}}
			},
			wantFrag: "routes[0].pattern",
		},
		{
			name: "route qos out of range",
			mutate: func(c *Config) {
				c.Routes = []RouteConfig{{Label: "x", Pattern: "a/+b", QoS: 5}}
			},
			wantFrag: "routes[0].qos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantFrag) {
				t.Errorf("Validate() error = %q, want mention of %q", err, tt.wantFrag)
			}
		})
	}
}

func TestValidateOK(t *testing.T) {
	cfg := defaultConfig()
	cfg.Routes = []RouteConfig{
		{Label: "device-config", Pattern: "devices/+deviceId/config/#keys", QoS: 1, Subscribe: true},
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestReconnectDurations(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.MQTT.GetInitialReconnectDelay().Seconds(); got != 1 {
		t.Errorf("GetInitialReconnectDelay() = %vs, want 1s", got)
	}
	if got := cfg.MQTT.GetMaxReconnectDelay().Seconds(); got != 60 {
		t.Errorf("GetMaxReconnectDelay() = %vs, want 60s", got)
	}
}

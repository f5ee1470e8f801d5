// topicmuxd - label-based MQTT topic routing daemon
//
// topicmuxd connects to an MQTT broker, registers the routes declared in
// its configuration file, subscribes their wildcard filters and logs
// (optionally also records to InfluxDB) every message dispatched through
// them. It doubles as a reference for wiring the routing package into an
// application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"topicmux/internal/infrastructure/config"
	"topicmux/internal/infrastructure/logging"
	"topicmux/internal/infrastructure/metrics"
	"topicmux/internal/infrastructure/mqtt"
	"topicmux/internal/routing"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/topicmux.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting topicmuxd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "routes", len(cfg.Routes))

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to InfluxDB (optional)
	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder, err = metrics.Connect(cfg.Metrics)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing metrics recorder")
			if closeErr := recorder.Close(); closeErr != nil {
				log.Error("error closing metrics recorder", "error", closeErr)
			}
		}()
		recorder.SetOnError(func(err error) {
			log.Error("metrics write error", "error", err)
		})
		log.Info("metrics recorder connected",
			"url", cfg.Metrics.URL,
			"org", cfg.Metrics.Org,
			"bucket", cfg.Metrics.Bucket,
		)
	} else {
		log.Info("metrics recording disabled")
	}

	// Build the transport and coordinator
	transport := mqtt.New(cfg.MQTT)
	transport.SetLogger(log)

	coord := routing.New(transport,
		routing.WithLogger(log),
		routing.WithDropHandler(func(topic string) {
			recorder.WriteDrop(topic)
		}),
	)

	coord.OnStatusChange(func(status routing.Status, err error) {
		if err != nil {
			log.Warn("connection status changed", "status", string(status), "error", err)
		} else {
			log.Info("connection status changed", "status", string(status))
		}
		recorder.WriteStatus(string(status), err != nil)
	})

	// Register configured routes before connecting so listeners are in
	// place when the first messages arrive.
	for _, route := range cfg.Routes {
		if regErr := coord.RegisterPattern(route.Label, route.Pattern); regErr != nil {
			return fmt.Errorf("registering route %q: %w", route.Label, regErr)
		}

		label := route.Label
		if _, addErr := coord.AddListener(label, func(msg routing.Message) {
			log.Debug("message dispatched",
				"label", msg.Label,
				"topic", msg.Topic,
				"bytes", len(msg.Payload),
			)
			recorder.WriteDispatch(label, msg.Topic, 1)
		}); addErr != nil {
			return fmt.Errorf("adding listener for route %q: %w", label, addErr)
		}
	}
	log.Info("routes registered", "count", len(cfg.Routes))

	// Connect to the broker
	if err := coord.Connect(); err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("ending MQTT session")
		if endErr := coord.End(false); endErr != nil {
			log.Error("error ending MQTT session", "error", endErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
	)

	// Subscribe routes flagged for subscription
	for _, route := range cfg.Routes {
		if !route.Subscribe {
			continue
		}
		// Route QoS is validated to 0..2 by config.Validate.
		// #nosec G115
		if subErr := coord.Subscribe(route.Label, routing.SubscribeOptions{QoS: byte(route.QoS)}); subErr != nil {
			return fmt.Errorf("subscribing route %q: %w", route.Label, subErr)
		}
		log.Info("route subscribed", "label", route.Label, "qos", route.QoS)
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"subscriptions", len(coord.Subscriptions()),
	)

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. End MQTT session
	// 2. Close metrics recorder (if enabled)

	log.Info("topicmuxd stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses TOPICMUX_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TOPICMUX_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// Package logging provides structured logging for topicmux.
//
// This package wraps Go's standard log/slog package to provide consistent,
// structured logging across the daemon and its infrastructure.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("connected", "broker", "localhost:1883")
//	logger.Error("subscribe failed", "error", err)
//
// Never log secrets: broker passwords and metrics tokens stay out of log
// fields.
package logging

// Package metrics records route activity to InfluxDB.
//
// The daemon uses it to track which labels receive traffic, how many
// messages fall through without matching any pattern, and connection
// status transitions. Recording is optional; when metrics.enabled is
// false the daemon runs without a recorder.
//
// Writes are non-blocking and batched by the InfluxDB client. Async
// write failures are surfaced through SetOnError.
package metrics

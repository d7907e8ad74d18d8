// Package history records accepted telemetry snapshots to InfluxDB.
//
// The recorder is optional and disabled by default: the bridge's state
// cache is deliberately ephemeral, but operators who want to chart LED
// duty cycle, heap pressure, or signal strength over time can enable the
// InfluxDB sink in config.yaml.
//
// Writes are non-blocking and batched; failures surface through an async
// error callback and never touch the telemetry ingest path.
package history

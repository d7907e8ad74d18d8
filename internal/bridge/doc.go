// Package bridge contains the connection-state synchronization core of
// Lumen Bridge: the supervisor that owns the broker session, the cache
// holding the device's last-known state, and the dispatcher that serialises
// command delivery.
//
// # Architecture
//
// The supervisor runs as one background task for the process lifetime,
// independent of HTTP request timing:
//
//	Supervisor ──owns──> broker session ──topics──> device
//	    │ telemetry                         ▲ commands
//	    ▼                                   │
//	StateCache <──read── HTTP facade ──send──> Dispatcher
//
// HTTP-triggered calls synchronise with the supervisor only through the
// cache's atomic snapshot swap and the dispatcher's guarded session access.
// No request handler ever blocks on device liveness: reads tolerate
// staleness, and command publishes fail fast when no session is live.
//
// # Failure philosophy
//
// Nothing in this package is fatal to the process. Connection and auth
// failures are retried indefinitely; malformed telemetry is logged and
// dropped without touching the last good snapshot; command-path failures
// are surfaced to the caller because the caller needs to know the command
// did not go out.
package bridge

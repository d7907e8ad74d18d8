package bridge

import "errors"

// Domain-specific errors for the bridge core.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMalformedTelemetry is returned by StateCache.Replace when a payload
	// cannot be decoded. The previous snapshot is left untouched.
	ErrMalformedTelemetry = errors.New("bridge: malformed telemetry payload")

	// ErrEmptyCommand is returned when a raw command is empty or
	// whitespace-only. No publish is attempted.
	ErrEmptyCommand = errors.New("bridge: command cannot be empty")

	// ErrPublish is returned when a command could not be delivered to the
	// broker — either no session is live or the broker did not acknowledge
	// in time. It says nothing about device-side receipt.
	ErrPublish = errors.New("bridge: command publish failed")
)

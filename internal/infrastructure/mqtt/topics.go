package mqtt

import "fmt"

// topicPrefix is the root of the device topic namespace.
// Full scheme: device/{deviceID}/{data|command|status}
const topicPrefix = "device"

// TopicSet holds the three logical channels for one device. It is derived
// once from the configured device ID and immutable for the process lifetime.
type TopicSet struct {
	// Data carries periodic telemetry, device → bridge (JSON).
	Data string

	// Command carries actuator commands, bridge → device (plain text).
	Command string

	// Status carries liveness strings, device → bridge (log-only).
	Status string
}

// TopicsFor builds the TopicSet for a device.
//
// Pure and deterministic; no failure mode. The device ID must already be a
// transport-safe token (no '/', '+', '#') — config validation guarantees
// this, and no re-validation happens here.
func TopicsFor(deviceID string) TopicSet {
	return TopicSet{
		Data:    fmt.Sprintf("%s/%s/data", topicPrefix, deviceID),
		Command: fmt.Sprintf("%s/%s/command", topicPrefix, deviceID),
		Status:  fmt.Sprintf("%s/%s/status", topicPrefix, deviceID),
	}
}

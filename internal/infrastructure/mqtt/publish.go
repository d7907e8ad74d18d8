package mqtt

import (
	"fmt"
)

// maxPayloadSize caps outbound MQTT payloads (1MB).
// Aligns with typical broker limits and keeps a runaway caller from
// exhausting the session.
const maxPayloadSize = 1 << 20

// Publish sends a message to the specified MQTT topic and waits for
// broker acknowledgment (for QoS > 0) or local dispatch (QoS 0).
//
// Success means the broker acknowledged the publish — it says nothing about
// device-side receipt. That distinction is deliberate: the bridge's delivery
// contract ends at the broker.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "device/esp-led-01/command")
//   - payload: The message payload (max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message for new subscribers
//
// Returns:
//   - error: nil on success; ErrNotConnected or wrapped ErrPublishFailed otherwise
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishString is a convenience method that publishes a string payload.
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// Package mqtt provides the MQTT session layer for Lumen Bridge.
//
// This package manages:
//   - The authenticated broker connection with auto-reconnect
//   - Message publishing with broker-acknowledged QoS
//   - Topic subscriptions, reissued on every reconnect
//   - The device topic namespace (data / command / status channels)
//
// # Architecture
//
// One bridge instance owns one session to the broker, spanning possibly
// many reconnect cycles. The session is the only path between HTTP-facing
// components and the device:
//
//	HTTP clients ↔ Lumen Bridge ↔ MQTT Broker ↔ device firmware
//
// The paho client serialises callbacks per connection; handlers registered
// via Subscribe run on paho's router goroutines and should not block.
//
// # Security
//
//   - TLS is expected for any non-local broker (broker.tls: true)
//   - An optional CA file pins the broker's root certificate
//   - Credentials are validated by the broker, not by this package
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    // broker unreachable right now; caller decides whether to retry
//	}
//	defer client.Close()
//
//	topics := mqtt.TopicsFor("esp-led-01")
//	err = client.Subscribe(topics.Data, 1, func(topic string, payload []byte) error {
//	    return cache.Replace(payload)
//	})
package mqtt

package mqtt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nerrad567/lumen-bridge/internal/infrastructure/config"
)

// Tests in this file do not require a broker; connection behaviour against
// a live Mosquitto instance is covered by integration_test.go.

// disconnectedClient returns a client that was never connected.
// IsConnected() short-circuits on the connected flag, so no paho client
// is needed for validation and not-connected paths.
func disconnectedClient() *Client {
	return &Client{
		subscriptions: make(map[string]subscription),
	}
}

func TestConnect_InvalidCAFile(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     8883,
			TLS:      true,
			ClientID: "lumen-test",
			CAFile:   "/nonexistent/ca.pem",
		},
		Reconnect: config.MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 5},
	}

	_, err := Connect(cfg)
	if err == nil {
		t.Fatal("Connect() expected error for missing CA file")
	}
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on never-connected client error = %v, want nil", err)
	}
}

func TestPublish_Validation(t *testing.T) {
	c := disconnectedClient()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "device/d/command", []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", "device/d/command", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "device/d/command", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := disconnectedClient()
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{"empty topic", "", 1, noop, ErrInvalidTopic},
		{"invalid qos", "device/d/data", 3, noop, ErrInvalidQoS},
		{"nil handler", "device/d/data", 1, nil, ErrSubscribeFailed},
		{"not connected", "device/d/data", 1, noop, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if n := c.SubscriptionCount(); n != 0 {
		t.Errorf("SubscriptionCount() = %d after failed subscribes, want 0", n)
	}
}

func TestHealthCheck_Disconnected(t *testing.T) {
	c := disconnectedClient()

	err := c.HealthCheck(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheck_Cancelled(t *testing.T) {
	c := disconnectedClient()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.HealthCheck(ctx)
	if err == nil || !strings.Contains(err.Error(), "health check") {
		t.Errorf("HealthCheck() error = %v, want context error", err)
	}
}

func TestBuildClientOptions_BrokerURL(t *testing.T) {
	tests := []struct {
		name string
		tls  bool
		want string
	}{
		{"plaintext", false, "tcp://broker.local:1883"},
		{"tls", true, "ssl://broker.local:1883"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.MQTTConfig{
				Broker: config.MQTTBrokerConfig{
					Host:     "broker.local",
					Port:     1883,
					TLS:      tt.tls,
					ClientID: "lumen-test",
				},
				Reconnect: config.MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 5},
			}

			opts, err := buildClientOptions(cfg)
			if err != nil {
				t.Fatalf("buildClientOptions() error = %v", err)
			}
			if len(opts.Servers) != 1 {
				t.Fatalf("got %d broker URLs, want 1", len(opts.Servers))
			}
			if got := opts.Servers[0].String(); got != tt.want {
				t.Errorf("broker URL = %q, want %q", got, tt.want)
			}
		})
	}
}

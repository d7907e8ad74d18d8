package history

import (
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/lumen-bridge/internal/bridge"
	"github.com/nerrad567/lumen-bridge/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false}, "led-01")
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want %v", err, ErrDisabled)
	}
}

func TestRecordSnapshotWhenDisconnected(t *testing.T) {
	// A zero-value client reports disconnected, so the write path must be a
	// no-op rather than a panic on the nil write API.
	c := &Client{}
	c.RecordSnapshot(bridge.DeviceState{LEDOn: true, ObservedAt: time.Now()})
}

func TestCloseIsIdempotentOnZeroValue(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
}

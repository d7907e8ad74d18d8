package bridge

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// DeviceState is the last-known snapshot reported by the device.
//
// ObservedAt is always the bridge's receipt time, never the device's
// self-reported time: the device clock is untrusted and may be unsynced.
// Optional health fields are pointers so an absent field stays "unknown"
// instead of being coerced to a misleading zero.
type DeviceState struct {
	LEDOn             bool      `json:"ledState"`
	ObservedAt        time.Time `json:"observedAt"`
	UptimeSeconds     *uint64   `json:"uptimeSeconds,omitempty"`
	FreeHeapBytes     *uint64   `json:"freeHeapBytes,omitempty"`
	SignalStrengthDBM *int      `json:"signalStrengthDbm,omitempty"`
}

// telemetryPayload is the wire shape the device publishes on its data topic.
//
// LEDState is a pointer so a payload that parses as JSON but omits the one
// required field is rejected rather than defaulted to false.
type telemetryPayload struct {
	LEDState *bool   `json:"ledState"`
	Uptime   *uint64 `json:"uptime"`
	FreeHeap *uint64 `json:"freeHeap"`
	RSSI     *int    `json:"rssi"`
}

// StateCache holds the single most recent DeviceState.
//
// Read and Replace may be called concurrently from any goroutine. The
// snapshot is swapped atomically as a whole, so a reader never observes a
// half-written state, and Replace never stalls concurrent reads.
type StateCache struct {
	snapshot atomic.Pointer[DeviceState]

	// now is the receipt-time clock; overridable in tests.
	now func() time.Time
}

// NewStateCache creates a cache holding the startup placeholder: LED off,
// observed at startup time, health fields unknown. The placeholder is a
// deliberate stand-in, not a real observation; it is replaced wholesale by
// the first successfully parsed telemetry message.
func NewStateCache() *StateCache {
	c := &StateCache{now: time.Now}
	c.snapshot.Store(&DeviceState{ObservedAt: c.now()})
	return c
}

// Read returns the current snapshot. It never blocks and never fails.
func (c *StateCache) Read() DeviceState {
	return *c.snapshot.Load()
}

// Replace parses raw as a telemetry payload and atomically swaps in a new
// snapshot with ObservedAt set to the receipt time.
//
// On any decode failure — invalid JSON, wrong field types, or a missing
// ledState field — the existing snapshot is left untouched and
// ErrMalformedTelemetry is returned. Replacement is wholesale: fields absent
// from the payload become unknown in the new snapshot, they are never merged
// forward from the previous one.
func (c *StateCache) Replace(raw []byte) error {
	var p telemetryPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedTelemetry, err)
	}
	if p.LEDState == nil {
		return fmt.Errorf("%w: missing ledState field", ErrMalformedTelemetry)
	}

	c.snapshot.Store(&DeviceState{
		LEDOn:             *p.LEDState,
		ObservedAt:        c.now(),
		UptimeSeconds:     p.Uptime,
		FreeHeapBytes:     p.FreeHeap,
		SignalStrengthDBM: p.RSSI,
	})

	return nil
}

package bridge

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewStateCache_Placeholder(t *testing.T) {
	before := time.Now()
	cache := NewStateCache()
	after := time.Now()

	got := cache.Read()

	if got.LEDOn {
		t.Error("placeholder LEDOn = true, want false")
	}
	if got.ObservedAt.Before(before) || got.ObservedAt.After(after) {
		t.Errorf("placeholder ObservedAt = %v, want between %v and %v", got.ObservedAt, before, after)
	}
	if got.UptimeSeconds != nil || got.FreeHeapBytes != nil || got.SignalStrengthDBM != nil {
		t.Error("placeholder health fields should be unknown (nil)")
	}
}

func TestReplace_FullPayload(t *testing.T) {
	cache := NewStateCache()
	receipt := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return receipt }

	raw := []byte(`{"ledState":true,"uptime":120,"freeHeap":30000,"rssi":-55}`)
	if err := cache.Replace(raw); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	got := cache.Read()
	if !got.LEDOn {
		t.Error("LEDOn = false, want true")
	}
	if !got.ObservedAt.Equal(receipt) {
		t.Errorf("ObservedAt = %v, want receipt time %v", got.ObservedAt, receipt)
	}
	if got.UptimeSeconds == nil || *got.UptimeSeconds != 120 {
		t.Errorf("UptimeSeconds = %v, want 120", got.UptimeSeconds)
	}
	if got.FreeHeapBytes == nil || *got.FreeHeapBytes != 30000 {
		t.Errorf("FreeHeapBytes = %v, want 30000", got.FreeHeapBytes)
	}
	if got.SignalStrengthDBM == nil || *got.SignalStrengthDBM != -55 {
		t.Errorf("SignalStrengthDBM = %v, want -55", got.SignalStrengthDBM)
	}
}

func TestReplace_PartialPayloadIsWholesale(t *testing.T) {
	cache := NewStateCache()

	// First payload carries full health telemetry.
	if err := cache.Replace([]byte(`{"ledState":true,"uptime":120,"freeHeap":30000,"rssi":-55}`)); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	// Second payload (older firmware) omits the health fields. They must
	// become unknown, never merged forward from the previous snapshot.
	if err := cache.Replace([]byte(`{"ledState":false}`)); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	got := cache.Read()
	if got.LEDOn {
		t.Error("LEDOn = true, want false")
	}
	if got.UptimeSeconds != nil {
		t.Errorf("UptimeSeconds = %v, want nil after wholesale replacement", *got.UptimeSeconds)
	}
	if got.FreeHeapBytes != nil || got.SignalStrengthDBM != nil {
		t.Error("stale health fields survived replacement")
	}
}

func TestReplace_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{"ledState":tru`},
		{"not an object", `[1,2,3]`},
		{"missing ledState", `{"uptime":120}`},
		{"ledState wrong type", `{"ledState":"on"}`},
		{"negative uptime", `{"ledState":true,"uptime":-5}`},
		{"empty payload", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewStateCache()
			if err := cache.Replace([]byte(`{"ledState":true,"rssi":-40}`)); err != nil {
				t.Fatalf("seed Replace() error = %v", err)
			}
			want := cache.Read()

			err := cache.Replace([]byte(tt.raw))
			if !errors.Is(err, ErrMalformedTelemetry) {
				t.Errorf("Replace() error = %v, want ErrMalformedTelemetry", err)
			}

			got := cache.Read()
			if got.LEDOn != want.LEDOn || !got.ObservedAt.Equal(want.ObservedAt) {
				t.Error("failed Replace() mutated the snapshot")
			}
			if got.SignalStrengthDBM == nil || *got.SignalStrengthDBM != -40 {
				t.Error("failed Replace() blanked the last good state")
			}
		})
	}
}

func TestReplace_SequenceLastWriteWins(t *testing.T) {
	cache := NewStateCache()

	payloads := []string{
		`{"ledState":true,"uptime":10}`,
		`{"ledState":false,"uptime":20}`,
		`{"ledState":true,"uptime":30}`,
	}
	for _, p := range payloads {
		if err := cache.Replace([]byte(p)); err != nil {
			t.Fatalf("Replace(%s) error = %v", p, err)
		}
	}

	got := cache.Read()
	if !got.LEDOn {
		t.Error("LEDOn = false, want value from last payload")
	}
	if got.UptimeSeconds == nil || *got.UptimeSeconds != 30 {
		t.Errorf("UptimeSeconds = %v, want 30 from last payload", got.UptimeSeconds)
	}
}

func TestStateCache_ConcurrentReadReplace(t *testing.T) {
	cache := NewStateCache()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Writers alternate two full payloads.
	wg.Add(1)
	go func() {
		defer wg.Done()
		payloads := [][]byte{
			[]byte(`{"ledState":true,"uptime":1,"freeHeap":100,"rssi":-10}`),
			[]byte(`{"ledState":false,"uptime":2,"freeHeap":200,"rssi":-20}`),
		}
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			_ = cache.Replace(payloads[i%2])
		}
	}()

	// Readers must only ever observe one of the two complete snapshots.
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				got := cache.Read()
				if got.UptimeSeconds == nil {
					continue // startup placeholder
				}
				up := *got.UptimeSeconds
				if got.LEDOn && up != 1 || !got.LEDOn && up != 2 {
					t.Errorf("torn snapshot observed: ledOn=%v uptime=%d", got.LEDOn, up)
					return
				}
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(stop)
	wg.Wait()
}

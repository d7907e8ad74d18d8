package mqtt

import "testing"

func TestTopicsFor(t *testing.T) {
	tests := []struct {
		deviceID    string
		wantData    string
		wantCommand string
		wantStatus  string
	}{
		{
			deviceID:    "esp-led-01",
			wantData:    "device/esp-led-01/data",
			wantCommand: "device/esp-led-01/command",
			wantStatus:  "device/esp-led-01/status",
		},
		{
			deviceID:    "bench-07",
			wantData:    "device/bench-07/data",
			wantCommand: "device/bench-07/command",
			wantStatus:  "device/bench-07/status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.deviceID, func(t *testing.T) {
			got := TopicsFor(tt.deviceID)
			if got.Data != tt.wantData {
				t.Errorf("Data = %q, want %q", got.Data, tt.wantData)
			}
			if got.Command != tt.wantCommand {
				t.Errorf("Command = %q, want %q", got.Command, tt.wantCommand)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
		})
	}
}

func TestTopicsFor_Deterministic(t *testing.T) {
	a := TopicsFor("same-id")
	b := TopicsFor("same-id")
	if a != b {
		t.Errorf("TopicsFor() not deterministic: %+v vs %+v", a, b)
	}
}

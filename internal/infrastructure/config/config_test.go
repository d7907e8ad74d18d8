package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTestConfig writes YAML content to a temp file and returns its path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
device:
  id: "bench-led-07"
mqtt:
  broker:
    host: "broker.example.net"
    port: 8883
    tls: true
    client_id: "lumen-test"
  auth:
    username: "bridge"
    password: "secret"
  qos: 1
api:
  host: "127.0.0.1"
  port: 9090
`
	cfg, err := Load(writeTestConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ID != "bench-led-07" {
		t.Errorf("Device.ID = %q, want %q", cfg.Device.ID, "bench-led-07")
	}
	if cfg.MQTT.Broker.Host != "broker.example.net" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.example.net")
	}
	if !cfg.MQTT.Broker.TLS {
		t.Error("MQTT.Broker.TLS = false, want true")
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	// Minimal file: everything not specified falls back to defaults.
	cfg, err := Load(writeTestConfig(t, `device: {id: "d1"}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("default MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.QoS != 1 {
		t.Errorf("default MQTT.QoS = %d, want 1", cfg.MQTT.QoS)
	}
	if cfg.MQTT.Reconnect.InitialDelay != 5 {
		t.Errorf("default Reconnect.InitialDelay = %d, want 5", cfg.MQTT.Reconnect.InitialDelay)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Audit.Enabled {
		t.Error("default Audit.Enabled = true, want false")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeTestConfig(t, "device: [not: valid"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LUMEN_DEVICE_ID", "env-device")
	t.Setenv("LUMEN_MQTT_HOST", "env-broker")
	t.Setenv("LUMEN_MQTT_PASSWORD", "env-pass")
	t.Setenv("LUMEN_API_PORT", "8181")

	cfg, err := Load(writeTestConfig(t, `device: {id: "file-device"}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ID != "env-device" {
		t.Errorf("Device.ID = %q, want env override %q", cfg.Device.ID, "env-device")
	}
	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("MQTT.Broker.Host = %q, want env override %q", cfg.MQTT.Broker.Host, "env-broker")
	}
	if cfg.MQTT.Auth.Password != "env-pass" {
		t.Errorf("MQTT.Auth.Password = %q, want env override", cfg.MQTT.Auth.Password)
	}
	if cfg.API.Port != 8181 {
		t.Errorf("API.Port = %d, want env override 8181", cfg.API.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(*Config) {}, false},
		{"empty device id", func(c *Config) { c.Device.ID = "" }, true},
		{"device id with slash", func(c *Config) { c.Device.ID = "a/b" }, true},
		{"device id with plus wildcard", func(c *Config) { c.Device.ID = "a+b" }, true},
		{"device id with hash wildcard", func(c *Config) { c.Device.ID = "a#" }, true},
		{"empty broker host", func(c *Config) { c.MQTT.Broker.Host = "" }, true},
		{"broker port zero", func(c *Config) { c.MQTT.Broker.Port = 0 }, true},
		{"broker port too large", func(c *Config) { c.MQTT.Broker.Port = 70000 }, true},
		{"empty client id", func(c *Config) { c.MQTT.Broker.ClientID = "" }, true},
		{"qos out of range", func(c *Config) { c.MQTT.QoS = 3 }, true},
		{"zero reconnect delay", func(c *Config) { c.MQTT.Reconnect.InitialDelay = 0 }, true},
		{"max delay below initial", func(c *Config) { c.MQTT.Reconnect.MaxDelay = 1 }, true},
		{"api port zero", func(c *Config) { c.API.Port = 0 }, true},
		{"audit enabled without path", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.Database.Path = ""
		}, true},
		{"influx enabled without url", func(c *Config) { c.InfluxDB.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
service:
  id: "test-service"
socket:
  host: "127.0.0.1"
  port: 9999
gpio:
  backends: ["chardev"]
  chips: ["gpiochip0"]
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
api:
  enabled: true
  host: "0.0.0.0"
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.ID != "test-service" {
		t.Errorf("Service.ID = %q, want %q", cfg.Service.ID, "test-service")
	}

	if cfg.Socket.Port != 9999 {
		t.Errorf("Socket.Port = %d, want %d", cfg.Socket.Port, 9999)
	}

	if cfg.SocketAddr() != "127.0.0.1:9999" {
		t.Errorf("SocketAddr() = %q, want %q", cfg.SocketAddr(), "127.0.0.1:9999")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_Defaults(t *testing.T) {
	// An empty document should yield pure defaults.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("{}\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Socket.Port != 8888 {
		t.Errorf("default Socket.Port = %d, want %d", cfg.Socket.Port, 8888)
	}
	if cfg.Socket.ReadBuffer != 1024 {
		t.Errorf("default Socket.ReadBuffer = %d, want %d", cfg.Socket.ReadBuffer, 1024)
	}
	if cfg.MQTT.TopicPrefix != "hardware/gpio" {
		t.Errorf("default MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "hardware/gpio")
	}
	if got := len(cfg.GPIO.Backends); got != 2 {
		t.Errorf("default GPIO.Backends length = %d, want 2", got)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
service:
  id: ""
database:
  path: "/tmp/test.db"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty service.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing service ID",
			mutate:  func(c *Config) { c.Service.ID = "" },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "socket port low",
			mutate:  func(c *Config) { c.Socket.Port = 0 },
			wantErr: true,
		},
		{
			name:    "socket port high",
			mutate:  func(c *Config) { c.Socket.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero read buffer",
			mutate:  func(c *Config) { c.Socket.ReadBuffer = 0 },
			wantErr: true,
		},
		{
			name:    "unknown gpio backend",
			mutate:  func(c *Config) { c.GPIO.Backends = []string{"sysfs"} },
			wantErr: true,
		},
		{
			name:    "empty gpio backends",
			mutate:  func(c *Config) { c.GPIO.Backends = nil },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "wildcard in topic prefix",
			mutate:  func(c *Config) { c.MQTT.TopicPrefix = "hardware/+/gpio" },
			wantErr: true,
		},
		{
			name: "mqtt disabled skips broker validation",
			mutate: func(c *Config) {
				c.MQTT.Enabled = false
				c.MQTT.Broker.Host = ""
				c.MQTT.TopicPrefix = ""
			},
			wantErr: false,
		},
		{
			name:    "api port invalid when enabled",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name: "api disabled skips port validation",
			mutate: func(c *Config) {
				c.API.Enabled = false
				c.API.Port = 0
			},
			wantErr: false,
		},
		{
			name: "influxdb enabled requires url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = ""
			},
			wantErr: true,
		},
		{
			name: "tsdb enabled requires url",
			mutate: func(c *Config) {
				c.TSDB.Enabled = true
				c.TSDB.URL = ""
			},
			wantErr: true,
		},
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

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("PINWARDEN_DATABASE_PATH", "/custom/path.db")
	t.Setenv("PINWARDEN_SOCKET_HOST", "10.0.0.5")
	t.Setenv("PINWARDEN_SOCKET_PORT", "7500")
	t.Setenv("PINWARDEN_MQTT_HOST", "mqtt.example.com")
	t.Setenv("PINWARDEN_MQTT_USERNAME", "testuser")
	t.Setenv("PINWARDEN_MQTT_PASSWORD", "testpass")
	t.Setenv("PINWARDEN_API_HOST", "192.168.1.1")
	t.Setenv("PINWARDEN_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("PINWARDEN_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.Socket.Host != "10.0.0.5" {
		t.Errorf("Socket.Host = %q, want %q", cfg.Socket.Host, "10.0.0.5")
	}

	if cfg.Socket.Port != 7500 {
		t.Errorf("Socket.Port = %d, want %d", cfg.Socket.Port, 7500)
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestApplyEnvOverrides_MalformedInt(t *testing.T) {
	cfg := defaultConfig()
	cfg.Socket.Port = 9000

	t.Setenv("PINWARDEN_SOCKET_PORT", "not-a-number")

	applyEnvOverrides(cfg)

	if cfg.Socket.Port != 9000 {
		t.Errorf("Socket.Port = %d, want %d (malformed env ignored)", cfg.Socket.Port, 9000)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Service.ID == "" {
		t.Error("defaultConfig should have non-empty Service.ID")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig should validate cleanly, got %v", err)
	}
}

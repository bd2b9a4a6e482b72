package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// minimalConfig returns a config that starts the daemon with only the
// socket transport enabled, bound to the given port.
func minimalConfig(dbPath string, socketPort string) string {
	return `
service:
  id: test-pinwarden

socket:
  host: "127.0.0.1"
  port: ` + socketPort + `
  read_buffer: 1024

gpio:
  backends: ["chardev"]
  chips: ["gpiochip-does-not-exist"]
  consumer: "pinwarden-test"

mqtt:
  enabled: false

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

influxdb:
  enabled: false

tsdb:
  enabled: false

api:
  enabled: false

logging:
  level: info
  format: text
  output: stdout
`
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("PINWARDEN_CONFIG")
	defer os.Setenv("PINWARDEN_CONFIG", originalEnv)

	os.Setenv("PINWARDEN_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabasePath verifies run fails when the database path
// is empty (rejected during config validation).
func TestRun_MissingDatabasePath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	if err := os.WriteFile(configPath, []byte(minimalConfig("", "18891")), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("PINWARDEN_CONFIG")
	defer os.Setenv("PINWARDEN_CONFIG", originalEnv)
	os.Setenv("PINWARDEN_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("PINWARDEN_CONFIG")
	defer os.Setenv("PINWARDEN_CONFIG", originalEnv)

	os.Unsetenv("PINWARDEN_CONFIG")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("PINWARDEN_CONFIG")
	defer os.Setenv("PINWARDEN_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("PINWARDEN_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_StartupAndShutdown tests a full startup with MQTT, the API,
// and telemetry disabled. On hosts with no GPIO hardware the daemon
// starts degraded, which is still a clean startup.
func TestRun_StartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	dbPath := filepath.Join(tmpDir, "test.db")

	if err := os.WriteFile(configPath, []byte(minimalConfig(dbPath, "18892")), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("PINWARDEN_CONFIG")
	defer os.Setenv("PINWARDEN_CONFIG", originalEnv)
	os.Setenv("PINWARDEN_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() returned error on clean startup: %v", err)
	}

	// The journal database should exist after shutdown
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

// TestRun_SocketBindFailure verifies a socket bind failure is fatal.
func TestRun_SocketBindFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "first-config.yaml")
	dbPath := filepath.Join(tmpDir, "first.db")

	if err := os.WriteFile(configPath, []byte(minimalConfig(dbPath, "18893")), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("PINWARDEN_CONFIG")
	defer os.Setenv("PINWARDEN_CONFIG", originalEnv)
	os.Setenv("PINWARDEN_CONFIG", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hold the port so the daemon cannot bind it
	firstDone := make(chan error, 1)
	go func() {
		runCtx, runCancel := context.WithTimeout(ctx, 10*time.Second)
		defer runCancel()
		firstDone <- run(runCtx)
	}()

	// Give the first instance time to bind, then start a second one
	// against the same port with its own database.
	time.Sleep(500 * time.Millisecond)

	secondConfig := filepath.Join(tmpDir, "second-config.yaml")
	secondDB := filepath.Join(tmpDir, "second.db")
	if err := os.WriteFile(secondConfig, []byte(minimalConfig(secondDB, "18893")), 0600); err != nil {
		t.Fatalf("failed to write second config: %v", err)
	}
	os.Setenv("PINWARDEN_CONFIG", secondConfig)

	secondCtx, secondCancel := context.WithTimeout(ctx, 5*time.Second)
	defer secondCancel()

	if err := run(secondCtx); err == nil {
		t.Error("run() should fail when the socket port is already bound")
	}

	cancel()
	<-firstDone
}

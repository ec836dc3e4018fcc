package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SockPath != "/tmp/bbus.sock" {
		t.Errorf("SockPath = %q, want /tmp/bbus.sock", cfg.SockPath)
	}
	if cfg.PollTimeout != 500*time.Millisecond {
		t.Errorf("PollTimeout = %v, want 500ms", cfg.PollTimeout)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bbusd.yaml")
	content := "sock_path: /tmp/custom.sock\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SockPath != "/tmp/custom.sock" {
		t.Errorf("SockPath = %q, want /tmp/custom.sock", cfg.SockPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BBUS_SOCKPATH", "/tmp/env.sock")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SockPath != "/tmp/env.sock" {
		t.Errorf("SockPath = %q, want /tmp/env.sock", cfg.SockPath)
	}
}

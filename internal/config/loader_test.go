package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfigWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	def := Default()
	if cfg.Addr != def.Addr || cfg.ShutdownTimeout != def.ShutdownTimeout || cfg.Auth.TokenTTL != def.Auth.TokenTTL {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
addr: ":9000"
log_level: warn
shutdown_timeout: 10s
auth:
  dev_mode: false
  jwt_secret: from-file
video:
  enabled: true
  api_key: key
  api_secret: secret
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SPEECHROOM_LOG_LEVEL", "debug")
	t.Setenv("SPEECHROOM_AUTH_JWT_SECRET", "from-env")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":9000" {
		t.Fatalf("file value not applied: %q", cfg.Addr)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("duration not decoded: %v", cfg.ShutdownTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("env must override file, got %q", cfg.LogLevel)
	}
	if cfg.Auth.JWTSecret != "from-env" || cfg.Auth.DevMode {
		t.Fatalf("unexpected auth config: %+v", cfg.Auth)
	}
	if !cfg.Video.Enabled || cfg.Video.URL != Default().Video.URL {
		t.Fatalf("unexpected video config: %+v", cfg.Video)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	cfg.Auth.JWTSecret = ""
	cfg.Video.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestUpdateFromKeepsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":7000"})

	if cfg.Addr != ":7000" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected config after update: %+v", cfg)
	}
}

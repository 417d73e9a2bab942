package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRead_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
jwt:
  secret: s3cret
security:
  encryption_key: k
app:
  timezone: Asia/Tokyo
`)
	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Address != "127.0.0.1" || cfg.JWT.ExpireHours != 24 || cfg.Security.BcryptCost != 12 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if got := cfg.Location().String(); got != "Asia/Tokyo" {
		t.Errorf("Location = %s, want Asia/Tokyo", got)
	}
}

// TestRead_EnvOverride uses the TL_ prefix for nested keys
func TestRead_EnvOverride(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: a\nsecurity:\n  encryption_key: b\n")
	t.Setenv("TL_SERVER_PORT", "7070")
	t.Setenv("TL_DATABASE_PATH", "/tmp/x.db")

	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/x.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
}

func TestRead_MissingSecrets(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 1\n")
	if _, err := Read(path); err == nil {
		t.Error("Read() without secrets error = nil, want error")
	}
}

func TestRead_MissingExplicitFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Read(missing file) error = nil, want error")
	}
}

func TestLocation_Fallback(t *testing.T) {
	c := &Config{App: AppSubConfig{Timezone: "Not/AZone"}}
	if c.Location() == nil {
		t.Error("Location() = nil")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	f := Flags("test")
	// Keep a developer's .env out of the tests.
	args = append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...)
	if err := f.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return Load(f)
}

func TestDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := load(t)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.Reconcile.Strategy != "positional" {
		t.Errorf("Reconcile.Strategy = %q, want positional", cfg.Reconcile.Strategy)
	}
	if cfg.Generator.Timeout != 60*time.Second {
		t.Errorf("Generator.Timeout = %v, want 60s", cfg.Generator.Timeout)
	}
	if cfg.Sync.Concurrency != 4 {
		t.Errorf("Sync.Concurrency = %d, want 4", cfg.Sync.Concurrency)
	}
}

func TestPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "http:\n  addr: \":9000\"\ndatabase:\n  path: from-file.db\nlog:\n  mode: production\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ZEITSTRAHL_DATABASE__PATH", "from-env.db")
	t.Setenv("ZEITSTRAHL_GENERATOR__API_KEY", "env-key")
	t.Setenv("GEMINI_API_KEY", "fallback-key")

	cfg, err := load(t, "--config", path, "--http.addr", ":7000")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != ":7000" {
		t.Errorf("HTTP.Addr = %q, want the flag value :7000", cfg.HTTP.Addr)
	}
	if cfg.Database.Path != "from-env.db" {
		t.Errorf("Database.Path = %q, want the env value", cfg.Database.Path)
	}
	if cfg.Log.Mode != "production" {
		t.Errorf("Log.Mode = %q, want the file value", cfg.Log.Mode)
	}
	if cfg.Generator.APIKey != "env-key" {
		t.Errorf("Generator.APIKey = %q, want env-key", cfg.Generator.APIKey)
	}
}

func TestGeminiKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "fallback-key")
	cfg, err := load(t)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Generator.APIKey != "fallback-key" {
		t.Errorf("Generator.APIKey = %q, want fallback-key", cfg.Generator.APIKey)
	}
}

func TestDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ZEITSTRAHL_MEDIA__DIR=/srv/media\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides a set variable; register cleanup for the one it sets.
	t.Setenv("ZEITSTRAHL_MEDIA__DIR", "")
	os.Unsetenv("ZEITSTRAHL_MEDIA__DIR")

	f := Flags("test")
	if err := f.Parse([]string{"--env-file", path}); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Media.Dir != "/srv/media" {
		t.Errorf("Media.Dir = %q, want /srv/media", cfg.Media.Dir)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown strategy", []string{"--reconcile.strategy", "fuzzy"}},
		{"unknown log mode", []string{"--log.mode", "verbose"}},
		{"zero concurrency", []string{"--sync.concurrency", "0"}},
		{"empty database path", []string{"--database.path", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := load(t, tt.args...); err == nil {
				t.Error("Load() error = nil, want a validation error")
			}
		})
	}
}

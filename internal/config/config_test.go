package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bridgit/internal/config"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if path == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Poller.MaxAttempts != 30 {
		t.Fatalf("expected default max attempts 30, got %d", cfg.Poller.MaxAttempts)
	}
	if cfg.Results.RetentionSeconds != 300 {
		t.Fatalf("expected default retention 300, got %d", cfg.Results.RetentionSeconds)
	}
	if cfg.Queue.VoiceIDRetries != 2 {
		t.Fatalf("expected voice-id retry budget 2, got %d", cfg.Queue.VoiceIDRetries)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridgit.toml")
	content := `
[paths]
data_dir = "` + dir + `/data"
log_dir = "` + dir + `/logs"
base_url = "https://relay.example.com/"

[tts]
default_voice = "adam"

[tts.voices]
es = " mateo "
` // lowercase key and padded value on purpose
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if got := cfg.VoiceForLanguage("es"); got != "mateo" {
		t.Fatalf("expected normalized voice mapping, got %q", got)
	}
	if got := cfg.VoiceForLanguage("DE"); got != "adam" {
		t.Fatalf("expected default voice fallback, got %q", got)
	}
	if got := cfg.CallbackURL("callbacks/translate"); got != "https://relay.example.com/callbacks/translate" {
		t.Fatalf("unexpected callback URL %q", got)
	}
}

func TestCallbackURLFallsBackToBind(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.APIBind = "127.0.0.1:7910"
	got := cfg.CallbackURL("/callbacks/synthesize")
	if got != "http://127.0.0.1:7910/callbacks/synthesize" {
		t.Fatalf("unexpected callback URL %q", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"negative retries", func(c *config.Config) { c.Queue.DispatchRetries = -1 }, "dispatch_retries"},
		{"zero retention", func(c *config.Config) { c.Results.RetentionSeconds = 0 }, "retention_seconds"},
		{"zero poll interval", func(c *config.Config) { c.Poller.IntervalSeconds = 0 }, "interval_seconds"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tc := range cases {
		cfg := config.Default()
		cfg.Logging.Format = "console"
		cfg.Logging.Level = "info"
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error mentioning %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample config to load, exists=%v err=%v", exists, err)
	}
}

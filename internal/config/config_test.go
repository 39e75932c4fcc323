package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"log/slog"
)

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != defaultPort {
		t.Errorf("expected default port %q, got %q", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Errorf("expected default read timeout %v, got %v", defaultReadTimeout, cfg.Server.ReadTimeout)
	}
	if cfg.Logging.Level != slog.LevelInfo {
		t.Errorf("expected default log level %v, got %v", slog.LevelInfo, cfg.Logging.Level)
	}
	if cfg.Logging.Format != defaultLogFormat {
		t.Errorf("expected default log format %q, got %q", defaultLogFormat, cfg.Logging.Format)
	}
	if cfg.Storage.Backend != defaultStorageBackend {
		t.Errorf("expected default storage backend %q, got %q", defaultStorageBackend, cfg.Storage.Backend)
	}
	if cfg.RateLimit.Capacity != defaultRateCapacity {
		t.Errorf("expected default rate capacity %d, got %d", defaultRateCapacity, cfg.RateLimit.Capacity)
	}
	if cfg.RateLimit.Window() != time.Duration(defaultRateWindowSeconds)*time.Second {
		t.Errorf("unexpected rate window %v", cfg.RateLimit.Window())
	}
}

func TestLoadWithOverrides(t *testing.T) {
	clearConfigEnv(t)

	overrides := map[string]string{
		"SERVER_PORT":                 "9090",
		"SERVER_READ_TIMEOUT_SECONDS": "30",
		"LOG_LEVEL":                   "debug",
		"LOG_FORMAT":                  "text",
		"STORAGE_BACKEND":             "memory",
		"TWITTER_BEARER_TOKEN":        "token",
		"TWITTER_QUERY":               "golang",
		"OPENAI_API_KEY":              "sk-test",
		"RATE_LIMIT_CAPACITY":         "3",
		"RATE_LIMIT_WINDOW_SECONDS":   "30",
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected overridden port, got %q", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected read timeout %v, got %v", 30*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Logging.Level != slog.LevelDebug {
		t.Errorf("expected log level %v, got %v", slog.LevelDebug, cfg.Logging.Level)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("expected storage backend memory, got %q", cfg.Storage.Backend)
	}
	if cfg.Twitter.BearerToken != "token" || cfg.Twitter.Query != "golang" {
		t.Errorf("unexpected twitter config: %+v", cfg.Twitter)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("unexpected openai config: %+v", cfg.OpenAI)
	}
	if cfg.RateLimit.Capacity != 3 || cfg.RateLimit.WindowSeconds != 30 {
		t.Errorf("unexpected rate limit config: %+v", cfg.RateLimit)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
server:
  port: "9999"
storage:
  backend: postgres
  postgres_url: postgres://localhost/sentipulse
twitter:
  query: climate
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != "9999" {
		t.Errorf("expected port from file, got %q", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "postgres" {
		t.Errorf("expected postgres backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Twitter.Query != "climate" {
		t.Errorf("expected query from file, got %q", cfg.Twitter.Query)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STORAGE_BACKEND", "memory")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  backend: sqlite\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.Backend != "memory" {
		t.Errorf("expected env to win over file, got %q", cfg.Storage.Backend)
	}
}

func TestLoadWithInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SERVER_READ_TIMEOUT_SECONDS":  "-1",
		"SERVER_WRITE_TIMEOUT_SECONDS": "abc",
		"LOG_LEVEL":                    "verbose",
		"LOG_FORMAT":                   "xml",
		"STORAGE_BACKEND":              "dynamo",
		"RATE_LIMIT_CAPACITY":          "0",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(key, value)

			if _, err := Load(""); err == nil {
				t.Fatalf("expected error when %s=%q", key, value)
			}
		})
	}
}

func TestCollectionRange(t *testing.T) {
	twitter := TwitterConfig{
		RangeStart: "2025-05-01T00:00:00Z",
		RangeEnd:   "2025-05-08T00:00:00Z",
	}

	start, end, err := twitter.CollectionRange()
	if err != nil {
		t.Fatalf("CollectionRange returned error: %v", err)
	}
	if !end.After(start) {
		t.Errorf("expected end after start, got %v / %v", start, end)
	}
	if end.Sub(start) != 7*24*time.Hour {
		t.Errorf("expected a 7-day range, got %v", end.Sub(start))
	}
}

func TestCollectionRangeRejectsInvalid(t *testing.T) {
	cases := []TwitterConfig{
		{},
		{RangeStart: "2025-05-01T00:00:00Z"},
		{RangeStart: "not-a-time", RangeEnd: "2025-05-08T00:00:00Z"},
		{RangeStart: "2025-05-08T00:00:00Z", RangeEnd: "2025-05-01T00:00:00Z"},
	}

	for i, tc := range cases {
		if _, _, err := tc.CollectionRange(); err == nil {
			t.Errorf("case %d: expected error, got nil", i)
		}
	}
}

func TestParseLogLevelAliases(t *testing.T) {
	tests := map[string]slog.Level{
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
	}

	for input, expected := range tests {
		level, err := parseLogLevel(input)
		if err != nil {
			t.Fatalf("parseLogLevel(%q) returned error: %v", input, err)
		}

		if level != expected {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, level, expected)
		}
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT",
		"SERVER_PORT",
		"SERVER_READ_TIMEOUT_SECONDS",
		"SERVER_WRITE_TIMEOUT_SECONDS",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"STORAGE_BACKEND",
		"SQLITE_PATH",
		"DATABASE_URL",
		"TWITTER_BEARER_TOKEN",
		"TWITTER_QUERY",
		"COLLECT_RANGE_START",
		"COLLECT_RANGE_END",
		"OPENAI_API_KEY",
		"OPENAI_MODEL",
		"RATE_LIMIT_CAPACITY",
		"RATE_LIMIT_WINDOW_SECONDS",
	}

	for _, key := range keys {
		t.Setenv(key, "")
	}
}

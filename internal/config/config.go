package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents runtime configuration. Values come from an optional YAML
// file first, then environment variables, with defaults for everything that
// is not deployment-specific.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Twitter   TwitterConfig   `yaml:"twitter"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"-"`
	WriteTimeout    time.Duration `yaml:"-"`
	ShutdownTimeout time.Duration `yaml:"-"`
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level `yaml:"-"`
	Format string     `yaml:"format"`
}

// StorageConfig selects and configures the key-value backend.
type StorageConfig struct {
	// Backend is one of memory, sqlite, postgres.
	Backend     string `yaml:"backend"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresURL string `yaml:"postgres_url"`
}

// TwitterConfig holds the search provider credentials and the collection
// query and range. RangeStart/RangeEnd are RFC 3339 UTC instants.
type TwitterConfig struct {
	BearerToken string `yaml:"bearer_token"`
	Query       string `yaml:"query"`
	RangeStart  string `yaml:"range_start"`
	RangeEnd    string `yaml:"range_end"`
}

// OpenAIConfig holds the enrichment provider credentials.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// RateLimitConfig configures the token bucket guarding enrichment calls.
type RateLimitConfig struct {
	Capacity      int `yaml:"capacity"`
	WindowSeconds int `yaml:"window_seconds"`
}

// Window returns the refill window as a duration.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultStorageBackend = "sqlite"
	defaultSQLitePath     = "sentipulse.db"

	defaultQuery = `"artificial intelligence" lang:en -is:retweet`

	defaultRateCapacity      = 10
	defaultRateWindowSeconds = 60
)

// Load reads configuration from the optional YAML file at path (empty means
// no file) and environment variables, applying defaults when values are not
// provided.
func Load(path string) (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Port:            defaultPort,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Storage: StorageConfig{
			Backend:    defaultStorageBackend,
			SQLitePath: defaultSQLitePath,
		},
		Twitter: TwitterConfig{
			Query: defaultQuery,
		},
		RateLimit: RateLimitConfig{
			Capacity:      defaultRateCapacity,
			WindowSeconds: defaultRateWindowSeconds,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	} else if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.PostgresURL = v
	}

	if v := os.Getenv("TWITTER_BEARER_TOKEN"); v != "" {
		cfg.Twitter.BearerToken = v
	}
	if v := os.Getenv("TWITTER_QUERY"); v != "" {
		cfg.Twitter.Query = v
	}
	if v := os.Getenv("COLLECT_RANGE_START"); v != "" {
		cfg.Twitter.RangeStart = v
	}
	if v := os.Getenv("COLLECT_RANGE_END"); v != "" {
		cfg.Twitter.RangeEnd = v
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}

	if v := os.Getenv("RATE_LIMIT_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid RATE_LIMIT_CAPACITY: must be a positive integer")
		}
		cfg.RateLimit.Capacity = n
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid RATE_LIMIT_WINDOW_SECONDS: must be a positive integer")
		}
		cfg.RateLimit.WindowSeconds = n
	}

	return nil
}

func validate(cfg Config) error {
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
	}

	switch cfg.Storage.Backend {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND: must be 'memory', 'sqlite' or 'postgres'")
	}

	return nil
}

// CollectionRange parses the configured collection range. Both bounds are
// required; the end must follow the start.
func (t TwitterConfig) CollectionRange() (time.Time, time.Time, error) {
	if t.RangeStart == "" || t.RangeEnd == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("collection range start and end are required")
	}

	start, err := time.Parse(time.RFC3339, t.RangeStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid range start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, t.RangeEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid range end: %w", err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("range end must follow range start")
	}

	return start.UTC(), end.UTC(), nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("must be one of debug, info, warn, error")
}

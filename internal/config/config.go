package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/congo-pay/txengine/internal/account"
	"github.com/congo-pay/txengine/internal/report"
)

const (
	defaultAppName        = "txengine"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultWorkers        = 1
	defaultBatchRateLimit = 60
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	BatchRateLimit int
	AccessLog      bool

	Rounding        account.Rounding
	Workers         int
	ReportSinks     []string
	ReportKeyPrefix string
	ReportTTL       time.Duration

	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		AppEnv:          strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		ReportKeyPrefix: getEnv("REPORT_KEY_PREFIX", report.DefaultKeyPrefix),
		Workers:         defaultWorkers,
		BatchRateLimit:  defaultBatchRateLimit,
		KafkaBrokers:    splitList(os.Getenv("NOTIFY_KAFKA_BROKERS")),
		KafkaTopic:      os.Getenv("NOTIFY_KAFKA_TOPIC"),
	}

	var err error
	if cfg.ShutdownPeriod, err = getDuration("SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.ReportTTL, err = getDuration("REPORT_TTL", 0); err != nil {
		return Config{}, err
	}

	if cfg.Rounding, err = account.ParseRounding(os.Getenv("ROUNDING_MODE")); err != nil {
		return Config{}, fmt.Errorf("invalid ROUNDING_MODE: %w", err)
	}

	if v := os.Getenv("LEDGER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LEDGER_WORKERS: %w", err)
		}
		if n < 1 {
			return Config{}, fmt.Errorf("LEDGER_WORKERS must be at least 1, got %d", n)
		}
		cfg.Workers = n
	}

	if v := os.Getenv("BATCH_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BATCH_RATE_LIMIT: %w", err)
		}
		cfg.BatchRateLimit = n
	}

	if v := os.Getenv("ACCESS_LOG"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ACCESS_LOG: %w", err)
		}
		cfg.AccessLog = on
	}

	if cfg.ReportSinks, err = report.ParseSinks(os.Getenv("REPORT_SINKS")); err != nil {
		return Config{}, fmt.Errorf("invalid REPORT_SINKS: %w", err)
	}
	for _, sink := range cfg.ReportSinks {
		switch {
		case sink == report.SinkRedis && cfg.RedisURL == "":
			return Config{}, fmt.Errorf("REDIS_URL must be set for the redis report sink")
		case sink == report.SinkPostgres && cfg.DatabaseURL == "":
			return Config{}, fmt.Errorf("DATABASE_URL must be set for the postgres report sink")
		}
	}

	return cfg, nil
}

// LoadDotEnv copies variables from the given files (".env" by default) into
// the process environment without overriding values already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a development-like environment.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// HasSink reports whether the named report sink is enabled.
func (c Config) HasSink(name string) bool {
	for _, s := range c.ReportSinks {
		if s == name {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDuration reads <key>_SECONDS as an integer count of seconds, falling
// back to <key> as a Go duration string.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	secondsKey := key + "_SECONDS"
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

// Package config loads runtime settings from the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/npi-validator/internal/cache"
	"github.com/gyeh/npi-validator/internal/registry"
)

// Config aggregates application configuration values.
type Config struct {
	Registry RegistryConfig
	Cache    CacheConfig
	Batch    BatchConfig
	HTTP     HTTPConfig
	Logging  LoggingConfig
}

// RegistryConfig governs the NPPES client.
type RegistryConfig struct {
	URL             string
	Timeout         time.Duration
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// Cache backends.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendS3     = "s3"
)

// CacheConfig selects and tunes the validation cache.
type CacheConfig struct {
	TTL      time.Duration // 0 disables reads; cache.NoExpiry never expires
	Backend  string
	Path     string // bolt file
	S3Bucket string
	S3Prefix string
	Region   string
}

// BatchConfig tunes batch runs.
type BatchConfig struct {
	Concurrency int
	MaxRetries  int
}

// HTTPConfig governs the API server.
type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string
	Format string // text|json
}

const (
	defaultCacheTTL        = 24 * time.Hour
	defaultCachePath       = "npi-cache.db"
	defaultCachePrefix     = "npi-cache"
	defaultRegion          = "us-east-1"
	defaultConcurrency     = 2
	defaultAddr            = ":8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
)

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Registry: RegistryConfig{
			URL:             registry.DefaultBaseURL,
			Timeout:         registry.DefaultTimeout,
			RateLimitMax:    registry.DefaultRateLimit,
			RateLimitWindow: registry.DefaultRateWindow,
		},
		Cache: CacheConfig{
			TTL:      defaultCacheTTL,
			Backend:  BackendMemory,
			Path:     defaultCachePath,
			S3Prefix: defaultCachePrefix,
			Region:   defaultRegion,
		},
		Batch: BatchConfig{
			Concurrency: defaultConcurrency,
		},
		HTTP: HTTPConfig{
			Addr:            defaultAddr,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  defaultLoggingLevel,
			Format: defaultLoggingFormat,
		},
	}
}

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Defaults()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadFile reads a YAML file over the defaults, then applies environment
// variables on top.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := fc.apply(&cfg); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks that the settings are usable together.
func (c Config) Validate() error {
	var errs []error
	if c.Registry.RateLimitMax < 1 {
		errs = append(errs, fmt.Errorf("rate limit max must be at least 1, got %d", c.Registry.RateLimitMax))
	}
	if c.Registry.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	if c.Batch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("batch concurrency must be at least 1, got %d", c.Batch.Concurrency))
	}
	if c.Batch.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max retries must not be negative, got %d", c.Batch.MaxRetries))
	}
	switch c.Cache.Backend {
	case BackendMemory:
	case BackendBolt:
		if c.Cache.Path == "" {
			errs = append(errs, errors.New("bolt cache requires NPI_CACHE_PATH"))
		}
	case BackendS3:
		if c.Cache.S3Bucket == "" {
			errs = append(errs, errors.New("s3 cache requires NPI_CACHE_S3_BUCKET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q (want memory, bolt or s3)", c.Cache.Backend))
	}
	return errors.Join(errs...)
}

// ParseTTL parses a cache freshness window. "inf", "never" and "forever"
// mean no expiry; "0" disables cache reads.
func ParseTTL(s string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inf", "infinite", "never", "forever":
		return cache.NoExpiry, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative ttl %s", d)
	}
	return d, nil
}

func applyEnv(cfg *Config) error {
	cfg.Registry.URL = valueOrDefault("NPI_REGISTRY_URL", cfg.Registry.URL)
	cfg.Cache.Backend = strings.ToLower(valueOrDefault("NPI_CACHE_BACKEND", cfg.Cache.Backend))
	cfg.Cache.Path = valueOrDefault("NPI_CACHE_PATH", cfg.Cache.Path)
	cfg.Cache.S3Bucket = valueOrDefault("NPI_CACHE_S3_BUCKET", cfg.Cache.S3Bucket)
	cfg.Cache.S3Prefix = valueOrDefault("NPI_CACHE_S3_PREFIX", cfg.Cache.S3Prefix)
	cfg.Cache.Region = valueOrDefault("AWS_REGION", cfg.Cache.Region)
	cfg.HTTP.Addr = valueOrDefault("SERVER_ADDR", cfg.HTTP.Addr)
	cfg.Logging.Level = valueOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = valueOrDefault("LOG_FORMAT", cfg.Logging.Format)

	var err error
	if cfg.Registry.Timeout, err = parseDuration("NPI_REGISTRY_TIMEOUT", cfg.Registry.Timeout); err != nil {
		return err
	}
	if cfg.Registry.RateLimitWindow, err = parseDuration("NPI_RATE_LIMIT_WINDOW", cfg.Registry.RateLimitWindow); err != nil {
		return err
	}
	if cfg.Registry.RateLimitMax, err = parseInt("NPI_RATE_LIMIT_MAX", cfg.Registry.RateLimitMax); err != nil {
		return err
	}
	if cfg.Batch.Concurrency, err = parseInt("NPI_BATCH_CONCURRENCY", cfg.Batch.Concurrency); err != nil {
		return err
	}
	if cfg.Batch.MaxRetries, err = parseInt("NPI_MAX_RETRIES", cfg.Batch.MaxRetries); err != nil {
		return err
	}

	if v := os.Getenv("NPI_CACHE_TTL"); v != "" {
		ttl, err := ParseTTL(v)
		if err != nil {
			return fmt.Errorf("invalid NPI_CACHE_TTL: %w", err)
		}
		cfg.Cache.TTL = ttl
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		return n, nil
	}
	return fallback, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

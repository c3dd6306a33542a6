package config

import (
	"fmt"
	"time"
)

// fileConfig mirrors Config in YAML. Durations are strings so the cache
// window can say "never". Unset fields keep their current value.
type fileConfig struct {
	Registry struct {
		URL             string `yaml:"url"`
		Timeout         string `yaml:"timeout"`
		RateLimitMax    *int   `yaml:"rate_limit_max"`
		RateLimitWindow string `yaml:"rate_limit_window"`
	} `yaml:"registry"`

	Cache struct {
		TTL      string `yaml:"ttl"`
		Backend  string `yaml:"backend"`
		Path     string `yaml:"path"`
		S3Bucket string `yaml:"s3_bucket"`
		S3Prefix string `yaml:"s3_prefix"`
		Region   string `yaml:"region"`
	} `yaml:"cache"`

	Batch struct {
		Concurrency *int `yaml:"concurrency"`
		MaxRetries  *int `yaml:"max_retries"`
	} `yaml:"batch"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.Registry.URL, fc.Registry.URL)
	setString(&cfg.Cache.Backend, fc.Cache.Backend)
	setString(&cfg.Cache.Path, fc.Cache.Path)
	setString(&cfg.Cache.S3Bucket, fc.Cache.S3Bucket)
	setString(&cfg.Cache.S3Prefix, fc.Cache.S3Prefix)
	setString(&cfg.Cache.Region, fc.Cache.Region)
	setString(&cfg.HTTP.Addr, fc.Server.Addr)
	setString(&cfg.Logging.Level, fc.Logging.Level)
	setString(&cfg.Logging.Format, fc.Logging.Format)
	setInt(&cfg.Registry.RateLimitMax, fc.Registry.RateLimitMax)
	setInt(&cfg.Batch.Concurrency, fc.Batch.Concurrency)
	setInt(&cfg.Batch.MaxRetries, fc.Batch.MaxRetries)

	if err := setDuration(&cfg.Registry.Timeout, "registry.timeout", fc.Registry.Timeout); err != nil {
		return err
	}
	if err := setDuration(&cfg.Registry.RateLimitWindow, "registry.rate_limit_window", fc.Registry.RateLimitWindow); err != nil {
		return err
	}
	if fc.Cache.TTL != "" {
		ttl, err := ParseTTL(fc.Cache.TTL)
		if err != nil {
			return fmt.Errorf("cache.ttl: %w", err)
		}
		cfg.Cache.TTL = ttl
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, field, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}

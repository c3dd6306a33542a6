package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gyeh/npi-validator/internal/cache"
	"github.com/gyeh/npi-validator/internal/cloud"
	"github.com/gyeh/npi-validator/internal/config"
	"github.com/gyeh/npi-validator/internal/input"
	"github.com/gyeh/npi-validator/internal/logging"
	"github.com/gyeh/npi-validator/internal/ratelimit"
	"github.com/gyeh/npi-validator/internal/registry"
	"github.com/gyeh/npi-validator/internal/validation"
)

// app holds the components every command builds from config.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	limiter *ratelimit.Limiter
	client  *registry.Client
	cache   *cache.ValidationCache
	service *validation.Service
	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	return newAppWithLogger(ctx, cfg, logging.New(cfg.Logging))
}

func newAppWithLogger(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	limiter := ratelimit.New(cfg.Registry.RateLimitMax, cfg.Registry.RateLimitWindow)
	client := registry.NewClient(cfg.Registry.URL,
		registry.WithLimiter(limiter),
		registry.WithTimeout(cfg.Registry.Timeout),
		registry.WithLogger(logger))

	a := &app{cfg: cfg, logger: logger, limiter: limiter, client: client}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.cache = cache.New(store, cfg.Cache.TTL)
	a.service = validation.NewService(client,
		validation.WithCache(a.cache),
		validation.WithLogger(logger))

	logger.Debug("validator configured", a.settings()...)
	return a, nil
}

// settings describes the effective runtime settings as log attributes.
func (a *app) settings() []any {
	ttl := a.cache.TTL().String()
	if a.cache.TTL() == cache.NoExpiry {
		ttl = "never"
	}
	return []any{
		"registry", a.client.BaseURL(),
		"rate_max", a.limiter.Max(),
		"rate_window", a.limiter.Window(),
		"cache_backend", a.cfg.Cache.Backend,
		"cache_ttl", ttl,
		"roster_parser", input.ParserName(),
	}
}

// openStore builds the configured cache backend. A zero freshness window
// still gets a store so writes land for later runs with a longer window.
func (a *app) openStore(ctx context.Context) (cache.Store, error) {
	cc := a.cfg.Cache
	switch cc.Backend {
	case config.BackendBolt:
		store, err := cache.NewBoltStore(cc.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		a.logger.Debug("using bolt cache", "path", cc.Path, "ttl", cc.TTL)
		return store, nil
	case config.BackendS3:
		client, err := cloud.NewS3Client(ctx, cc.S3Bucket, cc.Region)
		if err != nil {
			return nil, fmt.Errorf("creating S3 cache client: %w", err)
		}
		a.logger.Debug("using s3 cache", "bucket", cc.S3Bucket, "prefix", cc.S3Prefix, "ttl", cc.TTL)
		return cache.NewS3Store(client, cc.S3Prefix), nil
	default:
		return cache.NewMemoryStore(), nil
	}
}

func (a *app) batchValidator() *validation.BatchValidator {
	policy := validation.RetryPolicy{
		MaxRetries: a.cfg.Batch.MaxRetries,
		OnRetry: func(err error, wait time.Duration) {
			a.logger.Info("retrying registry lookup", "error", err, "wait", wait)
		},
	}
	return validation.NewBatchValidator(a.service,
		validation.WithRetry(policy),
		validation.WithBatchLogger(a.logger))
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

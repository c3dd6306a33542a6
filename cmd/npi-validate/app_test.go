package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gyeh/npi-validator/internal/cache"
	"github.com/gyeh/npi-validator/internal/config"
)

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Registry.URL = "http://127.0.0.1:1/api/"
	cfg.Registry.RateLimitMax = 3
	cfg.Registry.RateLimitWindow = 2 * time.Second
	return cfg
}

func TestNewApp_LogsSettings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a, err := newAppWithLogger(context.Background(), testConfig(), logger)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	out := buf.String()
	for _, want := range []string{
		"rate_max=3",
		"rate_window=2s",
		"cache_backend=memory",
		"cache_ttl=24h0m0s",
		"roster_parser=",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("startup log missing %q:\n%s", want, out)
		}
	}
}

func TestApp_SettingsNoExpiry(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.TTL = cache.NoExpiry

	a, err := newAppWithLogger(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	attrs := a.settings()
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == "cache_ttl" && attrs[i+1] != "never" {
			t.Errorf("cache_ttl = %v, want never", attrs[i+1])
		}
	}
}

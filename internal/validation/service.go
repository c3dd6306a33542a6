// Package validation orchestrates NPI checks: checksum, cache, registry
// lookup and classification, for single identifiers and batches.
package validation

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gyeh/npi-validator/internal/npi"
	"github.com/gyeh/npi-validator/internal/registry"
)

// Registry resolves a well-formed NPI to its raw registry record. A nil
// result with a nil error means the registry has no such NPI.
type Registry interface {
	Lookup(ctx context.Context, number string) (*registry.Result, error)
}

// Cache stores validation results by NPI.
type Cache interface {
	Get(ctx context.Context, key string) (npi.ValidationResult, bool, error)
	Set(ctx context.Context, key string, result npi.ValidationResult) error
}

// Service validates single NPIs.
type Service struct {
	registry Registry
	cache    Cache
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables result caching.
func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithClock replaces time.Now for ValidatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a Service backed by reg.
func NewService(reg Registry, opts ...Option) *Service {
	s := &Service{
		registry: reg,
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateOne checks number and, if it is well-formed, resolves it against
// the cache or the registry. Malformed and unknown NPIs are reported as
// StatusInvalid results, not errors. Registry failures are returned as
// *registry.RegistryError so callers can tell "invalid" from "unreachable".
func (s *Service) ValidateOne(ctx context.Context, number string) (npi.ValidationResult, error) {
	number = npi.Normalize(number)

	if check := npi.Validate(number); !check.Valid {
		return npi.ValidationResult{
			NPI:         number,
			Status:      npi.StatusInvalid,
			Reason:      check.Error,
			ValidatedAt: s.now(),
		}, nil
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, number)
		switch {
		case err != nil:
			s.logger.Warn("cache read failed", "npi", number, "error", err)
		case ok:
			s.logger.Debug("cache hit", "npi", number, "status", cached.Status)
			return cached, nil
		}
	}

	raw, err := s.registry.Lookup(ctx, number)
	if err != nil {
		s.logger.Debug("registry lookup failed", "npi", number, "error", err)
		return npi.ValidationResult{}, err
	}

	result := s.classify(number, raw)

	if s.cache != nil {
		if err := s.cache.Set(ctx, number, result); err != nil {
			s.logger.Warn("cache write failed", "npi", number, "error", err)
		}
	}
	return result, nil
}

// classify maps a registry outcome to a result. Organization takes priority
// over the active flag.
func (s *Service) classify(number string, raw *registry.Result) npi.ValidationResult {
	result := npi.ValidationResult{
		NPI:         number,
		ValidatedAt: s.now(),
	}
	if raw == nil {
		result.Status = npi.StatusInvalid
		result.Reason = npi.ReasonNotFound
		return result
	}

	rec := registry.ToProviderRecord(*raw)
	result.Provider = &rec

	switch {
	case rec.IsOrganization():
		result.Status = npi.StatusOrganization
		result.Reason = "NPI belongs to an organization"
		if name := strings.TrimSpace(rec.OrganizationName); name != "" {
			result.Reason += ": " + name
		}
		if rec.Status == npi.Deactivated {
			result.Reason += " (deactivated)"
		}
	case rec.Status == npi.Active:
		result.Status = npi.StatusValidated
		result.Reason = "Active individual provider: " + rec.DisplayName()
	default:
		result.Status = npi.StatusDeactivated
		result.Reason = "NPI has been deactivated"
		if rec.DeactivationDate != "" {
			result.Reason += " as of " + rec.DeactivationDate
		}
	}
	return result
}

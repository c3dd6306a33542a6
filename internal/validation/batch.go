package validation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gyeh/npi-validator/internal/npi"
	"github.com/gyeh/npi-validator/internal/progress"
	"github.com/gyeh/npi-validator/internal/registry"
)

const (
	// DefaultConcurrency matches the registry rate limit so throughput is
	// bounded by the limiter rather than the worker count.
	DefaultConcurrency = 2

	// MaxBatchSize is the largest batch accepted.
	MaxBatchSize = 100
)

// Batch input errors.
var (
	ErrEmptyBatch    = errors.New("batch must contain at least one NPI")
	ErrBatchTooLarge = errors.New("batch must contain at most 100 NPIs")
)

// Validator validates one NPI. *Service implements it.
type Validator interface {
	ValidateOne(ctx context.Context, number string) (npi.ValidationResult, error)
}

// BatchOptions tune a single ValidateBatch call.
type BatchOptions struct {
	// Concurrency caps validations in flight. Zero means DefaultConcurrency.
	Concurrency int

	// Tracker, if set, receives per-item progress and status counters.
	Tracker progress.Tracker
}

// BatchResult holds ordered results and their summary.
type BatchResult struct {
	Results []npi.ValidationResult `json:"results"`
	Summary npi.BatchSummary       `json:"summary"`
}

// BatchValidator drives a Validator over a list of NPIs.
type BatchValidator struct {
	validator Validator
	retry     RetryPolicy
	now       func() time.Time
	logger    *slog.Logger
}

// BatchOption configures a BatchValidator.
type BatchOption func(*BatchValidator)

// WithRetry retries retryable registry errors per item before degrading it.
func WithRetry(p RetryPolicy) BatchOption {
	return func(b *BatchValidator) {
		b.retry = p
	}
}

// WithBatchLogger sets the batch logger.
func WithBatchLogger(l *slog.Logger) BatchOption {
	return func(b *BatchValidator) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithBatchClock replaces time.Now for degraded results.
func WithBatchClock(now func() time.Time) BatchOption {
	return func(b *BatchValidator) {
		b.now = now
	}
}

// NewBatchValidator creates a BatchValidator over v.
func NewBatchValidator(v Validator, opts ...BatchOption) *BatchValidator {
	b := &BatchValidator{
		validator: v,
		now:       time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CheckBatch rejects batches that are empty or larger than MaxBatchSize.
func CheckBatch(npis []string) error {
	switch {
	case len(npis) == 0:
		return ErrEmptyBatch
	case len(npis) > MaxBatchSize:
		return ErrBatchTooLarge
	}
	return nil
}

// ValidateBatch validates every NPI with bounded concurrency and returns
// results in input order. A registry failure for one NPI becomes a degraded
// result for that NPI; the batch itself only fails on bad input.
func (b *BatchValidator) ValidateBatch(ctx context.Context, npis []string, opts BatchOptions) (*BatchResult, error) {
	if err := CheckBatch(npis); err != nil {
		return nil, err
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	tracker := opts.Tracker
	if tracker != nil {
		tracker.SetStage("Validating")
		tracker.SetProgress(0, int64(len(npis)))
	}

	results := make([]npi.ValidationResult, len(npis))
	tally := newStatusTally(tracker, len(npis))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, number := range npis {
		g.Go(func() error {
			results[i] = b.validateItem(ctx, number)
			tally.record(results[i])
			return nil
		})
	}
	_ = g.Wait() // items never return errors

	summary := npi.Summarize(results)
	if tracker != nil {
		tracker.SetStage("Done")
		tracker.Done()
	}
	b.logger.Info("batch validated",
		"total", summary.Total,
		"validated", summary.Validated,
		"invalid", summary.Invalid,
		"deactivated", summary.Deactivated,
		"organization", summary.Organization,
		"failed", summary.Failed)

	return &BatchResult{Results: results, Summary: summary}, nil
}

func (b *BatchValidator) validateItem(ctx context.Context, number string) npi.ValidationResult {
	result, err := b.retry.Do(ctx, func() (npi.ValidationResult, error) {
		return b.validator.ValidateOne(ctx, number)
	})
	if err == nil {
		return result
	}

	b.logger.Warn("registry lookup failed", "npi", number, "error", err)
	return npi.ValidationResult{
		NPI:         npi.Normalize(number),
		Status:      npi.StatusInvalid,
		Reason:      err.Error(),
		ValidatedAt: b.now(),
		Failed:      true,
		Retryable:   registry.IsRetryable(err),
	}
}

// statusTally feeds per-status counts to a tracker as items complete.
type statusTally struct {
	mu      sync.Mutex
	tracker progress.Tracker
	total   int64
	done    int64
	counts  map[string]int64
}

func newStatusTally(t progress.Tracker, total int) *statusTally {
	return &statusTally{tracker: t, total: int64(total), counts: map[string]int64{}}
}

func (s *statusTally) record(r npi.ValidationResult) {
	if s.tracker == nil {
		return
	}
	name := string(r.Status)
	if r.Failed {
		name = "failed"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.done++
	s.counts[name]++
	s.tracker.SetCounter(name, s.counts[name])
	s.tracker.SetProgress(s.done, s.total)
}

package validation

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gyeh/npi-validator/internal/npi"
	"github.com/gyeh/npi-validator/internal/registry"
)

// RetryPolicy retries retryable registry errors with exponential backoff.
// The zero value does not retry.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration // default 500ms
	MaxInterval     time.Duration // default 5s

	// OnRetry, if set, is called before each retry.
	OnRetry func(err error, wait time.Duration)
}

// Do runs fn, retrying while it fails with a retryable registry error and
// attempts remain. Non-retryable errors are returned immediately.
func (p RetryPolicy) Do(ctx context.Context, fn func() (npi.ValidationResult, error)) (npi.ValidationResult, error) {
	if p.MaxRetries <= 0 {
		return fn()
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 500 * time.Millisecond
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	eb.MaxInterval = 5 * time.Second
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = 0

	var (
		result  npi.ValidationResult
		lastErr error
	)
	op := func() error {
		r, err := fn()
		lastErr = err
		if err != nil {
			if !registry.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = r
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.MaxRetries)), ctx)
	if err := backoff.RetryNotify(op, b, p.OnRetry); err != nil {
		// Cancellation during a backoff wait reports the registry failure
		// that caused the wait, so callers still see it as retryable.
		if lastErr != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return npi.ValidationResult{}, lastErr
		}
		return npi.ValidationResult{}, err
	}
	return result, nil
}

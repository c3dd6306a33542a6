package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched by errors.Is against a *RegistryError.
var (
	// ErrRateLimited indicates the registry answered HTTP 429.
	ErrRateLimited = errors.New("registry rate limited")

	// ErrTimeout indicates the request exceeded the client timeout.
	ErrTimeout = errors.New("registry request timed out")
)

// Kind classifies a registry failure.
type Kind string

const (
	KindTransport   Kind = "transport"
	KindTimeout     Kind = "timeout"
	KindRateLimited Kind = "rate_limited"
	KindHTTP        Kind = "http"
	KindApplication Kind = "application"
	KindDecode      Kind = "decode"
)

// RegistryError describes a failed registry lookup.
type RegistryError struct {
	Kind       Kind
	Message    string
	StatusCode int // zero when no HTTP response was received
	Retryable  bool
	Err        error
}

func (e *RegistryError) Error() string {
	return e.Message
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by kind.
func (e *RegistryError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}

// IsRetryable reports whether err is a registry failure worth retrying.
func IsRetryable(err error) bool {
	var re *RegistryError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

func rateLimitedError() *RegistryError {
	return &RegistryError{
		Kind:       KindRateLimited,
		Message:    "NPI registry rate limit exceeded, try again shortly",
		StatusCode: 429,
		Retryable:  true,
	}
}

func httpError(status int) *RegistryError {
	return &RegistryError{
		Kind:       KindHTTP,
		Message:    fmt.Sprintf("NPI registry returned HTTP %d", status),
		StatusCode: status,
		Retryable:  status >= 500,
	}
}

func timeoutError(err error) *RegistryError {
	return &RegistryError{
		Kind:      KindTimeout,
		Message:   "NPI registry request timed out",
		Retryable: true,
		Err:       err,
	}
}

func transportError(err error) *RegistryError {
	return &RegistryError{
		Kind:      KindTransport,
		Message:   fmt.Sprintf("querying NPI registry: %v", err),
		Retryable: true,
		Err:       err,
	}
}

func decodeError(err error) *RegistryError {
	return &RegistryError{
		Kind:    KindDecode,
		Message: fmt.Sprintf("parsing NPI registry response: %v", err),
		Err:     err,
	}
}

func applicationError(errs []APIError) *RegistryError {
	descs := make([]string, 0, len(errs))
	for _, e := range errs {
		if d := strings.TrimSpace(e.Description); d != "" {
			descs = append(descs, d)
		}
	}
	msg := strings.Join(descs, "; ")
	if msg == "" {
		msg = "NPI registry reported an error"
	}
	return &RegistryError{
		Kind:    KindApplication,
		Message: msg,
	}
}

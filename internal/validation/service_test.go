package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gyeh/npi-validator/internal/cache"
	"github.com/gyeh/npi-validator/internal/npi"
	"github.com/gyeh/npi-validator/internal/registry"
)

func TestValidateOne_MalformedNeverReachesRegistry(t *testing.T) {
	reg := newStubRegistry()
	store := cache.NewMemoryStore()
	svc := NewService(reg, WithCache(cache.New(store, time.Hour)), WithClock(fixedClock))

	tests := []struct {
		input  string
		reason string
	}{
		{"", npi.ReasonEmpty},
		{"   ", npi.ReasonEmpty},
		{"123", npi.ReasonFormat},
		{"12345678901", npi.ReasonFormat},
		{"123456789a", npi.ReasonFormat},
		{"1234567890", npi.ReasonChecksum},
		{"0000000000", npi.ReasonChecksum},
	}

	for _, tt := range tests {
		got, err := svc.ValidateOne(context.Background(), tt.input)
		if err != nil {
			t.Fatalf("ValidateOne(%q) error: %v", tt.input, err)
		}
		if got.Status != npi.StatusInvalid {
			t.Errorf("ValidateOne(%q).Status = %q, want invalid", tt.input, got.Status)
		}
		if got.Reason != tt.reason {
			t.Errorf("ValidateOne(%q).Reason = %q, want %q", tt.input, got.Reason, tt.reason)
		}
		if got.Provider != nil {
			t.Errorf("ValidateOne(%q) should carry no provider", tt.input)
		}
		if !got.ValidatedAt.Equal(fixedNow) {
			t.Errorf("ValidateOne(%q).ValidatedAt = %v", tt.input, got.ValidatedAt)
		}
	}

	if n := reg.TotalCalls(); n != 0 {
		t.Errorf("registry called %d times, want 0", n)
	}
	if n := store.Len(); n != 0 {
		t.Errorf("cache holds %d entries, want 0", n)
	}
}

func TestValidateOne_Classification(t *testing.T) {
	reg := newStubRegistry()
	reg.results["1234567893"] = activeIndividual("1234567893")
	reg.results["1679576722"] = deactivatedIndividual("1679576722")
	reg.results["1316924913"] = organization("1316924913", "ACME CLINIC LLC", "A")
	reg.results["1003000126"] = organization("1003000126", "OLD CLINIC", "D")
	reg.results["1497758544"] = organization("1497758544", "", "A")
	reg.results["1538144324"] = organization("1538144324", "  ", "D")
	// 1245319599 is checksum-valid but unknown to the registry.

	svc := NewService(reg, WithClock(fixedClock))

	tests := []struct {
		number string
		status npi.Status
		reason string
	}{
		{"1234567893", npi.StatusValidated, "Active individual provider: DOE, JANE"},
		{"1679576722", npi.StatusDeactivated, "NPI has been deactivated as of 2020-01-01"},
		{"1316924913", npi.StatusOrganization, "NPI belongs to an organization: ACME CLINIC LLC"},
		{"1003000126", npi.StatusOrganization, "NPI belongs to an organization: OLD CLINIC (deactivated)"},
		{"1497758544", npi.StatusOrganization, "NPI belongs to an organization"},
		{"1538144324", npi.StatusOrganization, "NPI belongs to an organization (deactivated)"},
		{"1245319599", npi.StatusInvalid, npi.ReasonNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			got, err := svc.ValidateOne(context.Background(), tt.number)
			if err != nil {
				t.Fatalf("ValidateOne error: %v", err)
			}
			if got.Status != tt.status {
				t.Errorf("Status = %q, want %q", got.Status, tt.status)
			}
			if got.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.reason)
			}
			if got.NPI != tt.number {
				t.Errorf("NPI = %q", got.NPI)
			}
			if got.Cached {
				t.Error("fresh lookup should not be marked cached")
			}
			if tt.status != npi.StatusInvalid && got.Provider == nil {
				t.Error("expected provider record")
			}
			if tt.status == npi.StatusInvalid && got.Provider != nil {
				t.Error("not-found result should carry no provider")
			}
		})
	}
}

func TestValidateOne_TrimsInput(t *testing.T) {
	reg := newStubRegistry()
	reg.results["1234567893"] = activeIndividual("1234567893")
	svc := NewService(reg)

	got, err := svc.ValidateOne(context.Background(), "  1234567893\n")
	if err != nil {
		t.Fatalf("ValidateOne error: %v", err)
	}
	if got.NPI != "1234567893" || got.Status != npi.StatusValidated {
		t.Errorf("got %+v", got)
	}
}

func TestValidateOne_CacheHit(t *testing.T) {
	reg := newStubRegistry()
	reg.results["1234567893"] = activeIndividual("1234567893")
	svc := NewService(reg, WithCache(cache.New(cache.NewMemoryStore(), time.Hour)))
	ctx := context.Background()

	first, err := svc.ValidateOne(ctx, "1234567893")
	if err != nil {
		t.Fatalf("first ValidateOne error: %v", err)
	}
	second, err := svc.ValidateOne(ctx, "1234567893")
	if err != nil {
		t.Fatalf("second ValidateOne error: %v", err)
	}

	if n := reg.Calls("1234567893"); n != 1 {
		t.Errorf("registry called %d times, want 1", n)
	}
	if first.Cached {
		t.Error("first result should not be cached")
	}
	if !second.Cached {
		t.Error("second result should be cached")
	}
	if second.Status != first.Status || second.Reason != first.Reason {
		t.Errorf("cached result differs: %+v vs %+v", second, first)
	}
}

func TestValidateOne_ZeroTTLAlwaysQueries(t *testing.T) {
	reg := newStubRegistry()
	reg.results["1234567893"] = activeIndividual("1234567893")
	svc := NewService(reg, WithCache(cache.New(cache.NewMemoryStore(), 0)))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := svc.ValidateOne(ctx, "1234567893")
		if err != nil {
			t.Fatalf("ValidateOne error: %v", err)
		}
		if got.Cached {
			t.Error("zero TTL should never serve from cache")
		}
	}
	if n := reg.Calls("1234567893"); n != 3 {
		t.Errorf("registry called %d times, want 3", n)
	}
}

func TestValidateOne_NotFoundIsCached(t *testing.T) {
	reg := newStubRegistry()
	svc := NewService(reg, WithCache(cache.New(cache.NewMemoryStore(), time.Hour)))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := svc.ValidateOne(ctx, "1245319599")
		if err != nil {
			t.Fatalf("ValidateOne error: %v", err)
		}
		if got.Reason != npi.ReasonNotFound {
			t.Errorf("Reason = %q", got.Reason)
		}
	}
	if n := reg.Calls("1245319599"); n != 1 {
		t.Errorf("registry called %d times, want 1", n)
	}
}

func TestValidateOne_RegistryErrorPropagates(t *testing.T) {
	reg := newStubRegistry()
	reg.errs["1234567893"] = []error{rateLimited()}
	store := cache.NewMemoryStore()
	svc := NewService(reg, WithCache(cache.New(store, time.Hour)))

	_, err := svc.ValidateOne(context.Background(), "1234567893")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, registry.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if !registry.IsRetryable(err) {
		t.Error("rate limited error should be retryable")
	}
	if store.Len() != 0 {
		t.Error("failures must not be cached")
	}
}

type failingStore struct{}

func (failingStore) Load(ctx context.Context, key string) (cache.Entry, bool, error) {
	return cache.Entry{}, false, errors.New("disk on fire")
}

func (failingStore) Save(ctx context.Context, e cache.Entry) error {
	return errors.New("disk on fire")
}

func TestValidateOne_CacheFailureIsNotFatal(t *testing.T) {
	reg := newStubRegistry()
	reg.results["1234567893"] = activeIndividual("1234567893")
	svc := NewService(reg, WithCache(cache.New(failingStore{}, time.Hour)))

	got, err := svc.ValidateOne(context.Background(), "1234567893")
	if err != nil {
		t.Fatalf("ValidateOne error: %v", err)
	}
	if got.Status != npi.StatusValidated {
		t.Errorf("Status = %q", got.Status)
	}
}

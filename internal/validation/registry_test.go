package validation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gyeh/npi-validator/internal/cache"
	"github.com/gyeh/npi-validator/internal/npi"
	"github.com/gyeh/npi-validator/internal/ratelimit"
	"github.com/gyeh/npi-validator/internal/registry"
)

const registryActiveJSON = `{
	"result_count": 1,
	"results": [{
		"number": "1234567893",
		"enumeration_type": "NPI-1",
		"basic": {"first_name": "JANE", "last_name": "DOE", "status": "A"},
		"addresses": [{"address_1": "1 MAIN ST", "city": "BOSTON", "state": "MA", "postal_code": "02115", "address_purpose": "LOCATION"}],
		"taxonomies": [{"code": "207R00000X", "desc": "Internal Medicine", "primary": true}]
	}]
}`

// newRegistryServer answers 1234567893 as an active individual, 1679576722
// with HTTP 429 and everything else with an empty result set.
func newRegistryServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("number") {
		case "1234567893":
			_, _ = w.Write([]byte(registryActiveJSON))
		case "1679576722":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write([]byte(`{"result_count": 0, "results": []}`))
		}
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func newRegistryService(t *testing.T, url string) *Service {
	t.Helper()
	client := registry.NewClient(url+"/api/",
		registry.WithLimiter(ratelimit.New(50, time.Second)),
		registry.WithTimeout(2*time.Second))
	return NewService(client, WithCache(cache.New(cache.NewMemoryStore(), time.Hour)))
}

func TestService_AgainstRegistry(t *testing.T) {
	server, hits := newRegistryServer(t)
	svc := newRegistryService(t, server.URL)
	ctx := context.Background()

	got, err := svc.ValidateOne(ctx, "1234567893")
	if err != nil {
		t.Fatalf("ValidateOne error: %v", err)
	}
	if got.Status != npi.StatusValidated || got.Provider == nil {
		t.Fatalf("result = %+v", got)
	}
	if got.Provider.PrimaryTaxonomy == nil || got.Provider.PrimaryTaxonomy.Code != "207R00000X" {
		t.Errorf("PrimaryTaxonomy = %+v", got.Provider.PrimaryTaxonomy)
	}

	again, err := svc.ValidateOne(ctx, "1234567893")
	if err != nil {
		t.Fatalf("second ValidateOne error: %v", err)
	}
	if !again.Cached {
		t.Error("second lookup should be served from cache")
	}
	if hits.Load() != 1 {
		t.Errorf("registry hit %d times, want 1", hits.Load())
	}

	missing, err := svc.ValidateOne(ctx, "1245319599")
	if err != nil {
		t.Fatalf("ValidateOne error: %v", err)
	}
	if missing.Status != npi.StatusInvalid || missing.Reason != npi.ReasonNotFound {
		t.Errorf("missing = %+v", missing)
	}
}

func TestService_RegistryRateLimited(t *testing.T) {
	server, _ := newRegistryServer(t)
	svc := newRegistryService(t, server.URL)

	_, err := svc.ValidateOne(context.Background(), "1679576722")
	if !errors.Is(err, registry.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if !registry.IsRetryable(err) {
		t.Error("429 should be retryable")
	}
}

func TestBatch_AgainstRegistry(t *testing.T) {
	server, _ := newRegistryServer(t)
	b := NewBatchValidator(newRegistryService(t, server.URL))

	res, err := b.ValidateBatch(context.Background(), []string{"1234567893", "0000000000", "1679576722"}, BatchOptions{})
	if err != nil {
		t.Fatalf("ValidateBatch error: %v", err)
	}

	if res.Results[0].Status != npi.StatusValidated {
		t.Errorf("results[0] = %+v", res.Results[0])
	}
	if res.Results[1].Status != npi.StatusInvalid || res.Results[1].Reason != npi.ReasonChecksum {
		t.Errorf("results[1] = %+v", res.Results[1])
	}
	if r := res.Results[2]; !r.Failed || !r.Retryable || r.Status != npi.StatusInvalid {
		t.Errorf("results[2] = %+v", r)
	}

	want := npi.BatchSummary{Total: 3, Validated: 1, Invalid: 2, Failed: 1}
	if res.Summary != want {
		t.Errorf("Summary = %+v, want %+v", res.Summary, want)
	}
}

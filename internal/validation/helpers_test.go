package validation

import (
	"context"
	"sync"
	"time"

	"github.com/gyeh/npi-validator/internal/registry"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// stubRegistry serves canned results and errors per NPI.
type stubRegistry struct {
	mu      sync.Mutex
	results map[string]*registry.Result
	errs    map[string][]error // consumed in order; last one sticks
	delays  map[string]time.Duration
	calls   map[string]int
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{
		results: map[string]*registry.Result{},
		errs:    map[string][]error{},
		delays:  map[string]time.Duration{},
		calls:   map[string]int{},
	}
}

func (s *stubRegistry) Lookup(ctx context.Context, number string) (*registry.Result, error) {
	s.mu.Lock()
	s.calls[number]++
	n := s.calls[number]
	delay := s.delays[number]
	errs := s.errs[number]
	res := s.results[number]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if len(errs) > 0 {
		i := n - 1
		if i >= len(errs) {
			i = len(errs) - 1
		}
		if errs[i] != nil {
			return nil, errs[i]
		}
	}
	return res, nil
}

func (s *stubRegistry) Calls(number string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[number]
}

func (s *stubRegistry) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func activeIndividual(number string) *registry.Result {
	return &registry.Result{
		Number:          number,
		EnumerationType: registry.EnumerationIndividual,
		Basic: registry.Basic{
			FirstName:  "JANE",
			LastName:   "DOE",
			Credential: "M.D.",
			Status:     "A",
		},
		Addresses: []registry.Address{
			{Address1: "200 CLINIC RD", City: "CAMBRIDGE", State: "MA", PostalCode: "02139", AddressPurpose: "LOCATION"},
		},
		Taxonomies: []registry.Taxonomy{
			{Code: "207R00000X", Desc: "Internal Medicine", Primary: true},
		},
	}
}

func deactivatedIndividual(number string) *registry.Result {
	r := activeIndividual(number)
	r.Basic.Status = "D"
	r.Basic.DeactivationDate = "2020-01-01"
	return r
}

func organization(number, name, status string) *registry.Result {
	return &registry.Result{
		Number:          number,
		EnumerationType: registry.EnumerationOrganization,
		Basic: registry.Basic{
			OrganizationName: name,
			Status:           status,
		},
	}
}

func rateLimited() error {
	return &registry.RegistryError{
		Kind:       registry.KindRateLimited,
		Message:    "NPI registry rate limit exceeded, try again shortly",
		StatusCode: 429,
		Retryable:  true,
	}
}

func badRequest() error {
	return &registry.RegistryError{
		Kind:       registry.KindHTTP,
		Message:    "NPI registry returned HTTP 400",
		StatusCode: 400,
	}
}

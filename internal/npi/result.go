package npi

import "time"

// Status is the outcome label of a validation.
type Status string

const (
	StatusValidated    Status = "validated"
	StatusInvalid      Status = "invalid"
	StatusDeactivated  Status = "deactivated"
	StatusOrganization Status = "organization"
)

// ReasonNotFound is reported when the registry has no record for a
// well-formed NPI.
const ReasonNotFound = "No provider found for this NPI"

// ValidationResult is produced once per validation attempt. Cache entries
// hold copies of it.
type ValidationResult struct {
	NPI         string          `json:"npi"`
	Status      Status          `json:"status"`
	Reason      string          `json:"reason"`
	Provider    *ProviderRecord `json:"provider,omitempty"`
	ValidatedAt time.Time       `json:"validatedAt"`
	Cached      bool            `json:"cached"`

	// Failed marks a batch entry whose registry lookup errored. Such
	// entries carry StatusInvalid and the error message as Reason.
	Failed    bool `json:"failed,omitempty"`
	Retryable bool `json:"retryable,omitempty"`
}

// BatchSummary tallies statuses across one batch.
type BatchSummary struct {
	Total        int `json:"total"`
	Validated    int `json:"validated"`
	Invalid      int `json:"invalid"`
	Deactivated  int `json:"deactivated"`
	Organization int `json:"organization"`

	// Failed counts entries degraded by registry errors. They are also
	// counted in Invalid.
	Failed int `json:"failed"`
}

// Summarize counts the statuses in results.
func Summarize(results []ValidationResult) BatchSummary {
	s := BatchSummary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusValidated:
			s.Validated++
		case StatusDeactivated:
			s.Deactivated++
		case StatusOrganization:
			s.Organization++
		default:
			s.Invalid++
		}
		if r.Failed {
			s.Failed++
		}
	}
	return s
}

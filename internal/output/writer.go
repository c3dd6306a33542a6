// Package output renders batch validation reports.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/gyeh/npi-validator/internal/npi"
)

// Report is the JSON document written for a batch run.
type Report struct {
	ID          string                 `json:"id"`
	GeneratedAt time.Time              `json:"generatedAt"`
	Source      string                 `json:"source,omitempty"`
	Summary     npi.BatchSummary       `json:"summary"`
	Results     []npi.ValidationResult `json:"results"`
}

// NewReport stamps results with a fresh report ID.
func NewReport(source string, results []npi.ValidationResult, summary npi.BatchSummary) Report {
	if results == nil {
		results = []npi.ValidationResult{}
	}
	return Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Source:      source,
		Summary:     summary,
		Results:     results,
	}
}

// Marshal renders the report as indented JSON.
func (r Report) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}
	return data, nil
}

// WriteReport writes the report to outputPath, or to stdout when the path
// is "-".
func WriteReport(outputPath string, r Report) error {
	if outputPath == "-" {
		return writeTo(os.Stdout, r)
	}
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}

func writeTo(w io.Writer, r Report) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w)
	return err
}

// WriteTable prints one line per result followed by the summary, for
// terminal output.
func WriteTable(w io.Writer, results []npi.ValidationResult, summary npi.BatchSummary) {
	for _, r := range results {
		name := ""
		if r.Provider != nil {
			name = r.Provider.DisplayName()
		}
		flag := ""
		switch {
		case r.Failed && r.Retryable:
			flag = " [failed, retryable]"
		case r.Failed:
			flag = " [failed]"
		case r.Cached:
			flag = " [cached]"
		}
		fmt.Fprintf(w, "%-10s  %-12s  %-30s  %s%s\n", r.NPI, r.Status, name, r.Reason, flag)
	}
	fmt.Fprintf(w, "\ntotal=%d validated=%d invalid=%d deactivated=%d organization=%d failed=%d\n",
		summary.Total, summary.Validated, summary.Invalid, summary.Deactivated, summary.Organization, summary.Failed)
}

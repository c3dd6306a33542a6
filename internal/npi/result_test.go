package npi

import "testing"

func TestSummarize(t *testing.T) {
	results := []ValidationResult{
		{Status: StatusValidated},
		{Status: StatusValidated},
		{Status: StatusInvalid},
		{Status: StatusInvalid, Failed: true},
		{Status: StatusDeactivated},
		{Status: StatusOrganization},
	}

	s := Summarize(results)
	want := BatchSummary{Total: 6, Validated: 2, Invalid: 2, Deactivated: 1, Organization: 1, Failed: 1}
	if s != want {
		t.Fatalf("Summarize = %+v, want %+v", s, want)
	}
	if s.Validated+s.Invalid+s.Deactivated+s.Organization != s.Total {
		t.Errorf("status counts do not add up to total: %+v", s)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if s := Summarize(nil); s != (BatchSummary{}) {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFormatCounters(t *testing.T) {
	got := formatCounters(map[string]int64{"validated": 3, "invalid": 1, "deactivated": 0})
	if got != "deactivated=0 invalid=1 validated=3" {
		t.Errorf("formatCounters = %q", got)
	}
	if got := formatCounters(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestLogManager_Throttles(t *testing.T) {
	var buf bytes.Buffer
	mgr := NewLogManagerTo(&buf, time.Hour)
	tracker := mgr.NewTracker(0, 1, "batch")

	tracker.SetStage("Validating")
	tracker.SetCounter("validated", 1)
	tracker.SetProgress(1, 10)
	tracker.SetProgress(2, 10) // throttled
	tracker.SetProgress(3, 10) // throttled
	tracker.SetProgress(10, 10)
	tracker.Done()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "[1/1] batch  Validating") {
		t.Errorf("unexpected stage line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "1/10") || !strings.Contains(lines[1], "validated=1") {
		t.Errorf("unexpected progress line: %q", lines[1])
	}
	if !strings.Contains(lines[2], "10/10") {
		t.Errorf("final progress should always print: %q", lines[2])
	}
	if !strings.Contains(lines[3], "Finished in") {
		t.Errorf("unexpected done line: %q", lines[3])
	}
}

func TestNoopManager_Records(t *testing.T) {
	mgr := &NoopManager{}
	tracker := mgr.NewTracker(0, 1, "batch")

	tracker.SetStage("Validating")
	tracker.SetProgress(2, 5)
	tracker.SetCounter("invalid", 2)
	tracker.Done()

	if mgr.Current != 2 || mgr.Total != 5 {
		t.Errorf("progress = %d/%d", mgr.Current, mgr.Total)
	}
	if mgr.Counter("invalid") != 2 {
		t.Errorf("invalid counter = %d", mgr.Counter("invalid"))
	}
	if !mgr.Finished || len(mgr.Stages) != 1 {
		t.Errorf("unexpected state: %+v", mgr)
	}
}

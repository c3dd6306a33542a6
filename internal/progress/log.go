package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogManager implements Manager with throttled line-based output for
// non-TTY environments (CI, containers, piped output). Prints periodic
// status lines instead of interactive progress bars.
type LogManager struct {
	mu       sync.Mutex
	out      io.Writer
	interval time.Duration
}

const logInterval = 5 * time.Second

// NewLogManager creates a log-based progress manager writing to stderr.
func NewLogManager() *LogManager {
	return &LogManager{out: os.Stderr, interval: logInterval}
}

// NewLogManagerTo creates a log-based progress manager writing to out,
// printing progress at most once per interval.
func NewLogManagerTo(out io.Writer, interval time.Duration) *LogManager {
	return &LogManager{out: out, interval: interval}
}

func (m *LogManager) NewTracker(index, total int, name string) Tracker {
	return &logTracker{
		mgr:      m,
		index:    index,
		total:    total,
		name:     name,
		start:    time.Now(),
		counters: map[string]int64{},
	}
}

func (m *LogManager) Wait() {}

// logTracker implements Tracker with throttled log output.
type logTracker struct {
	mgr   *LogManager
	index int
	total int
	name  string
	start time.Time

	mu       sync.Mutex
	stage    string
	lastLog  time.Time
	counters map[string]int64
}

func (t *logTracker) log(msg string) {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	ts := time.Now().Format("15:04:05")
	fmt.Fprintf(t.mgr.out, "%s [%d/%d] %s  %s\n", ts, t.index+1, t.total, t.name, msg)
}

func (t *logTracker) SetStage(stage string) {
	t.mu.Lock()
	t.stage = stage
	t.lastLog = time.Time{} // reset throttle so next progress update prints
	t.mu.Unlock()
	t.log(stage)
}

func (t *logTracker) SetProgress(current, total int64) {
	t.mu.Lock()
	now := time.Now()
	if current < total && now.Sub(t.lastLog) < t.mgr.interval {
		t.mu.Unlock()
		return
	}
	t.lastLog = now
	msg := fmt.Sprintf("%s  %d/%d", t.stage, current, total)
	if len(t.counters) > 0 {
		msg += "  " + formatCounters(t.counters)
	}
	t.mu.Unlock()
	t.log(msg)
}

func (t *logTracker) SetCounter(name string, value int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters[name] = value
}

func (t *logTracker) Done() {
	elapsed := time.Since(t.start).Truncate(time.Millisecond)
	t.log(fmt.Sprintf("Finished in %s", elapsed))
}

package progress

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Tracker tracks progress for a single batch.
type Tracker interface {
	SetStage(stage string)
	SetProgress(current, total int64)
	SetCounter(name string, value int64)
	Done()
}

// Manager creates trackers for individual batches.
type Manager interface {
	NewTracker(index, total int, name string) Tracker
	Wait()
}

// MPBManager implements Manager using the mpb multi-progress-bar library.
type MPBManager struct {
	container *mpb.Progress
}

// NewMPBManager creates a new mpb-based progress manager.
func NewMPBManager() *MPBManager {
	p := mpb.New(mpb.WithWidth(40))
	return &MPBManager{container: p}
}

// NewTracker creates a new progress bar for a batch.
func (m *MPBManager) NewTracker(index, total int, name string) Tracker {
	t := &mpbTracker{
		stagePtr: &atomic.Value{},
		counters: map[string]int64{},
	}
	t.stagePtr.Store("")
	t.countersPtr = &atomic.Value{}
	t.countersPtr.Store("")

	t.bar = m.container.AddBar(0,
		mpb.PrependDecorators(
			decor.Name(fmt.Sprintf("[%d/%d] %s ", index+1, total, name), decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d/%d", decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.Any(func(s decor.Statistics) string {
				return t.stagePtr.Load().(string)
			}, decor.WCSyncSpaceR),
			decor.Any(func(s decor.Statistics) string {
				return t.countersPtr.Load().(string)
			}),
		),
	)
	return t
}

// Wait waits for all progress bars to finish.
func (m *MPBManager) Wait() {
	m.container.Wait()
}

type mpbTracker struct {
	bar         *mpb.Bar
	stagePtr    *atomic.Value
	countersPtr *atomic.Value

	mu       sync.Mutex
	counters map[string]int64
}

func (t *mpbTracker) SetStage(stage string) {
	t.stagePtr.Store(stage)
}

func (t *mpbTracker) SetProgress(current, total int64) {
	t.bar.SetTotal(total, false)
	t.bar.SetCurrent(current)
}

func (t *mpbTracker) SetCounter(name string, value int64) {
	t.mu.Lock()
	t.counters[name] = value
	line := formatCounters(t.counters)
	t.mu.Unlock()
	t.countersPtr.Store(line)
}

func (t *mpbTracker) Done() {
	t.bar.SetTotal(-1, true) // complete at the current count
}

// formatCounters renders counters as "a=1 b=2" in name order.
func formatCounters(counters map[string]int64) string {
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, counters[name]))
	}
	return strings.Join(parts, " ")
}

// NoopManager is a no-op progress manager for non-interactive use. It keeps
// the last counters it saw so callers and tests can inspect them.
type NoopManager struct {
	mu       sync.Mutex
	Stages   []string
	Counters map[string]int64
	Current  int64
	Total    int64
	Finished bool
}

func (m *NoopManager) NewTracker(index, total int, name string) Tracker {
	return &noopTracker{mgr: m}
}

func (m *NoopManager) Wait() {}

// Counter returns the last value recorded for name.
func (m *NoopManager) Counter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Counters[name]
}

type noopTracker struct {
	mgr *NoopManager
}

func (t *noopTracker) SetStage(stage string) {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	t.mgr.Stages = append(t.mgr.Stages, stage)
}

func (t *noopTracker) SetProgress(current, total int64) {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	t.mgr.Current = current
	t.mgr.Total = total
}

func (t *noopTracker) SetCounter(name string, value int64) {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	if t.mgr.Counters == nil {
		t.mgr.Counters = map[string]int64{}
	}
	t.mgr.Counters[name] = value
}

func (t *noopTracker) Done() {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	t.mgr.Finished = true
}

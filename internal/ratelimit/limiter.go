// Package ratelimit implements a sliding-window admission controller for
// outbound registry requests.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultMargin is added to every computed wait so a caller wakes after the
// oldest admission has left the window rather than exactly on its edge.
const DefaultMargin = 10 * time.Millisecond

// Limiter admits at most max requests in any trailing window. It is safe for
// concurrent use. Admission order among waiting callers is not FIFO.
type Limiter struct {
	max     int
	window  time.Duration
	margin  time.Duration
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	onAdmit func(time.Time)

	mu       sync.Mutex
	admitted []time.Time // ascending
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithSleep replaces the timer-based wait. The function must return early
// with ctx.Err() when ctx is done.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		l.sleep = sleep
	}
}

// WithAdmitHook registers fn to be called with each admission time. fn runs
// while the limiter is locked and must not call back into it.
func WithAdmitHook(fn func(admittedAt time.Time)) Option {
	return func(l *Limiter) {
		l.onAdmit = fn
	}
}

// WithMargin overrides DefaultMargin.
func WithMargin(d time.Duration) Option {
	return func(l *Limiter) {
		if d >= 0 {
			l.margin = d
		}
	}
}

// New creates a limiter admitting max requests per window. Values below 1
// for max are treated as 1.
func New(max int, window time.Duration, opts ...Option) *Limiter {
	if max < 1 {
		max = 1
	}
	l := &Limiter{
		max:    max,
		window: window,
		margin: DefaultMargin,
		now:    time.Now,
		sleep:  SleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire blocks until the caller may issue one request. It returns
// ctx.Err() if the context ends first, in which case no slot was taken.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		wait, ok := l.tryAdmit()
		if ok {
			return nil
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryAdmit is the prune-decide-append unit. When the window is full it
// returns how long until the oldest admission expires.
func (l *Limiter) tryAdmit() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.admitted) < l.max {
		l.admitted = append(l.admitted, now)
		if l.onAdmit != nil {
			l.onAdmit(now)
		}
		return 0, true
	}
	// An admission exactly one window old still counts, so the earliest
	// retry is strictly after its expiry.
	wait := l.admitted[0].Add(l.window).Sub(now) + l.margin
	if wait <= 0 {
		wait = time.Nanosecond
	}
	return wait, false
}

// prune drops admissions older than one window. Must hold mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.admitted) && l.admitted[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		l.admitted = append(l.admitted[:0], l.admitted[i:]...)
	}
}

// Admitted returns the admission times still inside the window.
func (l *Limiter) Admitted() []time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	out := make([]time.Time, len(l.admitted))
	copy(out, l.admitted)
	return out
}

// Max returns the number of requests admitted per window.
func (l *Limiter) Max() int { return l.max }

// Window returns the window length.
func (l *Limiter) Window() time.Duration { return l.window }

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

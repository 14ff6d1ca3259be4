// Package clock abstracts time so polling loops and retry delays can be
// driven deterministically in tests.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock supplies the current time and context-aware sleeping.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fake is a manual clock whose Sleep advances time instantly.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
	hooks []fakeHook
}

type fakeHook struct {
	at time.Time
	fn func()
}

// NewFake returns a Fake starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Sleep advances the clock by d and records the duration.
func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Advance(d)
	f.mu.Lock()
	f.slept = append(f.slept, d)
	f.mu.Unlock()
	return nil
}

// Advance moves the clock forward, firing any callbacks scheduled with
// AfterFunc whose time has been reached.
func (f *Fake) Advance(d time.Duration) {
	if d < 0 {
		d = 0
	}
	f.mu.Lock()
	f.now = f.now.Add(d)
	now := f.now
	var due []func()
	kept := f.hooks[:0]
	for _, h := range f.hooks {
		if !h.at.After(now) {
			due = append(due, h.fn)
		} else {
			kept = append(kept, h)
		}
	}
	f.hooks = kept
	f.mu.Unlock()
	for _, fn := range due {
		fn()
	}
}

// AfterFunc schedules fn to run once the clock has advanced by d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) {
	f.mu.Lock()
	f.hooks = append(f.hooks, fakeHook{at: f.now.Add(d), fn: fn})
	f.mu.Unlock()
}

// Slept returns every duration passed to Sleep, in order.
func (f *Fake) Slept() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.slept...)
}

// Elapsed returns the total time slept.
func (f *Fake) Elapsed() time.Duration {
	var total time.Duration
	for _, d := range f.Slept() {
		total += d
	}
	return total
}

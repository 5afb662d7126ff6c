// Package clock provides time implementations.
package clock

import (
	"sync"
	"time"
)

// Real uses the system clock.
type Real struct{}

// Now returns the current system time.
func (Real) Now() time.Time {
	return time.Now()
}

// Fake is a controllable clock for tests.
//
// With a non-zero step, every call to Now moves the clock forward by that
// step after reading it, so two consecutive reads measure exactly one step.
type Fake struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

// NewFake creates a fake clock frozen at t.
func NewFake(t time.Time) *Fake {
	return &Fake{t: t}
}

// NewTicking creates a fake clock that advances by step on every read.
func NewTicking(t time.Time, step time.Duration) *Fake {
	return &Fake{t: t, step: step}
}

// Now returns the fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.t
	f.t = f.t.Add(f.step)
	return now
}

// Set sets the fake time.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// Advance moves the fake time forward.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

// Stopwatch measures elapsed time against any clock.
type Stopwatch struct {
	now   func() time.Time
	start time.Time
}

// Start begins timing using now as the time source.
func Start(now func() time.Time) Stopwatch {
	return Stopwatch{now: now, start: now()}
}

// Started returns when the stopwatch was started.
func (s Stopwatch) Started() time.Time { return s.start }

// Elapsed returns the time since Start.
func (s Stopwatch) Elapsed() time.Duration {
	return s.now().Sub(s.start)
}

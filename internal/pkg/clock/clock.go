package clock

import (
	"time"

	"go.uber.org/atomic"
)

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the system time.
type TimeClocker struct{}

// New returns a TimeClocker.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time in UTC.
func (*TimeClocker) Now() time.Time {
	return time.Now().UTC()
}

// Frozen is a Clocker that only moves when told to. It is safe for concurrent use.
type Frozen struct {
	now *atomic.Time
}

// NewFrozen returns a Frozen clock pinned at t.
func NewFrozen(t time.Time) *Frozen {
	return &Frozen{now: atomic.NewTime(t)}
}

// Now returns the pinned time.
func (f *Frozen) Now() time.Time {
	return f.now.Load()
}

// Set pins the clock at t.
func (f *Frozen) Set(t time.Time) {
	f.now.Store(t)
}

// Advance moves the clock forward by d and returns the new time.
func (f *Frozen) Advance(d time.Duration) time.Time {
	t := f.now.Load().Add(d)
	f.now.Store(t)
	return t
}

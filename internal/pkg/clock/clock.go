package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// TimeClocker is the production clock implementation backed by time.Now.
type TimeClocker struct{}

// New returns a TimeClocker that reads the current system time.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// Fixed is a Clocker frozen at a single instant, for deterministic tests.
type Fixed struct {
	T time.Time
}

// NewFixed returns a Clocker that always reports t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{T: t}
}

// Now returns the frozen instant.
func (f *Fixed) Now() time.Time {
	return f.T
}

// UnixNano converts a Clocker reading into the unsigned nanosecond logical
// time used by the ledger. Times before the unix epoch clamp to zero rather
// than wrapping around.
func UnixNano(c Clocker) uint64 {
	ns := c.Now().UnixNano()
	if ns < 0 {
		return 0
	}
	return uint64(ns)
}

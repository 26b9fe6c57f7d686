package onlinetime

import "time"

// Clock provides the current instant for validation.
type Clock interface {
	Now() time.Time
}

// RealClock provides actual system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always reports the same instant. Used by tests and by the
// CLI's --now flag.
type FixedClock struct {
	CurrentTime time.Time
}

// Now returns the fixed time.
func (c *FixedClock) Now() time.Time {
	return c.CurrentTime
}

// Package clock abstracts time for services that make day-boundary decisions.
//
// Production code uses System; tests substitute a fixed clock so streak
// transitions and session durations are deterministic.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

// Now returns the current time.
func (System) Now() time.Time {
	return time.Now()
}

// Fixed always returns the same instant. Useful in tests.
type Fixed struct {
	T time.Time
}

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return f.T
}

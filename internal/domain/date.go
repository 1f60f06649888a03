package domain

import (
	"fmt"
	"time"
)

// dateLayout is the wire and storage format for calendar dates.
const dateLayout = "2006-01-02"

// Date is a UTC calendar date with no time-of-day component.
// The zero value is not a valid date; use IsZero to detect it.
type Date struct {
	t time.Time // midnight UTC
}

// NewDate constructs a date from year, month, and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the UTC calendar date containing the instant t.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, m, d)
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t.UTC()}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.t.Format(dateLayout)
}

// Time returns midnight UTC on the date.
func (d Date) Time() time.Time {
	return d.t
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// DaysSince returns the number of whole days from o to d.
// Positive when d is after o.
func (d Date) DaysSince(o Date) int {
	return int(d.t.Sub(o.t) / (24 * time.Hour))
}

// Equal reports whether two dates are the same day.
func (d Date) Equal(o Date) bool {
	return d.t.Equal(o.t)
}

// Before reports whether d is earlier than o.
func (d Date) Before(o Date) bool {
	return d.t.Before(o.t)
}

// After reports whether d is later than o.
func (d Date) After(o Date) bool {
	return d.t.After(o.t)
}

// MarshalText implements encoding.TextMarshaler (YYYY-MM-DD).
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(data []byte) error {
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

package domain

import "time"

// ReadingSession records one timed stretch of reading for a user and book.
// An open session has a nil EndTime; closed sessions also carry a duration.
// Sessions are never deleted, even when the book or user goes away.
type ReadingSession struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	BookID      string     `json:"book_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	DurationMin *int64     `json:"duration_min,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsOpen reports whether the session is still running.
func (s *ReadingSession) IsOpen() bool {
	return s.EndTime == nil
}

// SessionDurationMin computes the stored duration for a closed session:
// whole minutes between start and end, never negative. Sub-minute
// sessions round down to zero.
func SessionDurationMin(start, end time.Time) int64 {
	mins := int64(end.Sub(start) / time.Minute)
	if mins < 0 {
		return 0
	}
	return mins
}

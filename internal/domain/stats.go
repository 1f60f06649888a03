package domain

// StatsPeriod represents a rolling time window for statistics queries.
// Windows always end today; they are not calendar-aligned, so "month" is
// the last 30 days and "year" the last 365.
type StatsPeriod string

// StatsPeriod constants for time window queries.
const (
	StatsPeriodDay   StatsPeriod = "day"
	StatsPeriodWeek  StatsPeriod = "week"
	StatsPeriodMonth StatsPeriod = "month"
	StatsPeriodYear  StatsPeriod = "year"
)

// Valid returns true if the period is a recognized value.
func (p StatsPeriod) Valid() bool {
	switch p {
	case StatsPeriodDay, StatsPeriodWeek, StatsPeriodMonth, StatsPeriodYear:
		return true
	default:
		return false
	}
}

// Days returns the window length in days.
func (p StatsPeriod) Days() int {
	switch p {
	case StatsPeriodDay:
		return 1
	case StatsPeriodWeek:
		return 7
	case StatsPeriodMonth:
		return 30
	case StatsPeriodYear:
		return 365
	default:
		return 0
	}
}

// Bounds returns the first and last calendar dates of the window ending on
// today. Both bounds are inclusive.
func (p StatsPeriod) Bounds(today Date) (start, end Date) {
	return today.AddDays(-(p.Days() - 1)), today
}

// DailyReading represents reading activity for a single day.
type DailyReading struct {
	Date     Date  `json:"date"`
	Sessions int   `json:"sessions"`
	Minutes  int64 `json:"minutes"`
}

// ReadingStats contains aggregated reading statistics over a window.
// DailyBreakdown is dense: one entry per day in the window, chronological,
// zero-filled for days without activity.
type ReadingStats struct {
	Period    StatsPeriod `json:"period"`
	StartDate Date        `json:"start_date"`
	EndDate   Date        `json:"end_date"`

	TotalSessions  int            `json:"total_sessions"`
	TotalMinutes   int64          `json:"total_minutes"`
	DailyBreakdown []DailyReading `json:"daily_breakdown"`
}

// BookStats summarizes reading activity recorded against one book.
type BookStats struct {
	BookID        string `json:"book_id"`
	TotalSessions int    `json:"total_sessions"`
	TotalMinutes  int64  `json:"total_minutes"`
}

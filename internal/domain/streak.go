package domain

// Streak captures a user's reading-streak state.
// LastActiveDate is nil for users who have never recorded activity.
type Streak struct {
	LastActiveDate *Date `json:"last_active_date,omitempty"`
	Current        int   `json:"current_streak"`
	Last           int   `json:"last_streak"`
}

// AdvanceStreak applies one day of activity to a streak and reports whether
// anything changed. The transition depends only on the gap between the last
// active date and today:
//
//	no prior activity  -> streak starts at 1
//	same day           -> unchanged
//	exactly one day    -> streak increments
//	longer gap         -> streak resets to 1
//	today before last  -> ignored (clock skew; state never moves backwards)
//
// Whenever the current streak changes, Last records its prior value. The
// function is pure: callers persist the returned state themselves.
func AdvanceStreak(s Streak, today Date) (Streak, bool) {
	if s.LastActiveDate == nil {
		next := Streak{LastActiveDate: &today, Current: 1, Last: s.Current}
		return next, true
	}

	switch gap := today.DaysSince(*s.LastActiveDate); {
	case gap < 0:
		// Activity dated before the last recorded day. Ignore it.
		return s, false
	case gap == 0:
		return s, false
	case gap == 1:
		next := Streak{LastActiveDate: &today, Current: s.Current + 1, Last: s.Current}
		return next, true
	default:
		next := Streak{LastActiveDate: &today, Current: 1, Last: s.Current}
		return next, true
	}
}

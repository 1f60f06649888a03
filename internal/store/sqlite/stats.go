package sqlite

import (
	"context"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
)

// GetDailyReading returns per-day session counts and minutes for a user over
// the inclusive [start, end] date range. Only closed sessions count; a session
// belongs to the UTC day it ended on. Days without activity are absent from
// the result.
func (s *Store) GetDailyReading(ctx context.Context, userID string, start, end domain.Date) ([]domain.DailyReading, error) {
	// end_time is stored as RFC3339Nano in UTC, so the first 10 bytes are
	// the calendar date.
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(end_time, 1, 10) AS day,
			COUNT(*),
			COALESCE(SUM(duration_min), 0)
		FROM reading_sessions
		WHERE user_id = ?
			AND end_time IS NOT NULL
			AND substr(end_time, 1, 10) >= ?
			AND substr(end_time, 1, 10) <= ?
		GROUP BY day
		ORDER BY day ASC`,
		userID, start.String(), end.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []domain.DailyReading
	for rows.Next() {
		var (
			day string
			dr  domain.DailyReading
		)
		if err := rows.Scan(&day, &dr.Sessions, &dr.Minutes); err != nil {
			return nil, err
		}
		dr.Date, err = domain.ParseDate(day)
		if err != nil {
			return nil, err
		}
		days = append(days, dr)
	}
	return days, rows.Err()
}

// GetBookStats returns the closed session count and total minutes recorded
// against a book, across all users.
func (s *Store) GetBookStats(ctx context.Context, bookID string) (*domain.BookStats, error) {
	stats := domain.BookStats{BookID: bookID}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(duration_min), 0)
		FROM reading_sessions
		WHERE book_id = ? AND end_time IS NOT NULL`,
		bookID).Scan(&stats.TotalSessions, &stats.TotalMinutes)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

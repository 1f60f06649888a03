package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shelfmarkapp/shelfmark-server/internal/clock"
	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

// StatsService aggregates reading activity over rolling time windows.
type StatsService struct {
	db     *sqlite.Store
	clock  clock.Clock
	logger *slog.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(db *sqlite.Store, clk clock.Clock, logger *slog.Logger) *StatsService {
	return &StatsService{
		db:     db,
		clock:  clk,
		logger: logger,
	}
}

// GetReadingStats returns a user's reading totals and a dense per-day
// breakdown for a rolling window ending today (UTC).
func (s *StatsService) GetReadingStats(ctx context.Context, userID string, period domain.StatsPeriod) (*domain.ReadingStats, error) {
	if !period.Valid() {
		return nil, domainerrors.Validationf("unknown stats period %q", period)
	}

	today := domain.DateOf(s.clock.Now().UTC())
	start, end := period.Bounds(today)

	days, err := s.db.GetDailyReading(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("daily reading: %w", err)
	}

	stats := &domain.ReadingStats{
		Period:         period,
		StartDate:      start,
		EndDate:        end,
		DailyBreakdown: make([]domain.DailyReading, 0, period.Days()),
	}

	// Zero-fill the window around the sparse rows, which arrive sorted.
	i := 0
	for d := start; !end.Before(d); d = d.AddDays(1) {
		day := domain.DailyReading{Date: d}
		if i < len(days) && days[i].Date.Equal(d) {
			day = days[i]
			i++
		}
		stats.TotalSessions += day.Sessions
		stats.TotalMinutes += day.Minutes
		stats.DailyBreakdown = append(stats.DailyBreakdown, day)
	}

	return stats, nil
}

// GetBookStats returns total sessions and minutes recorded against a book,
// across all users.
func (s *StatsService) GetBookStats(ctx context.Context, bookID string) (*domain.BookStats, error) {
	stats, err := s.db.GetBookStats(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("book stats: %w", err)
	}
	return stats, nil
}

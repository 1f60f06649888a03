package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
)

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-reading-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/reading-stats",
		Summary:     "Reading statistics",
		Description: "Aggregates the calling user's closed sessions over a rolling window with a dense daily breakdown",
		Tags:        []string{"Stats"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReadingStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-book-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/stats",
		Summary:     "Book reading statistics",
		Description: "Totals of closed sessions recorded against one book, across all readers",
		Tags:        []string{"Stats"},
	}, s.handleBookStats)
}

// ReadingStatsInput selects the aggregation window.
type ReadingStatsInput struct {
	Period string `query:"period" enum:"day,week,month,year" default:"week" doc:"Rolling window ending today"`
}

// ReadingStatsOutput wraps aggregated reading stats for Huma.
type ReadingStatsOutput struct {
	Body domain.ReadingStats
}

// BookStatsOutput wraps per-book totals for Huma.
type BookStatsOutput struct {
	Body domain.BookStats
}

func (s *Server) handleReadingStats(ctx context.Context, input *ReadingStatsInput) (*ReadingStatsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Stats.GetReadingStats(ctx, userID, domain.StatsPeriod(input.Period))
	if err != nil {
		return nil, err
	}

	return &ReadingStatsOutput{Body: *stats}, nil
}

func (s *Server) handleBookStats(ctx context.Context, input *BookIDPathInput) (*BookStatsOutput, error) {
	if _, err := s.services.Book.GetBook(ctx, input.ID); err != nil {
		return nil, err
	}

	stats, err := s.services.Stats.GetBookStats(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookStatsOutput{Body: *stats}, nil
}

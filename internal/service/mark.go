package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shelfmarkapp/shelfmark-server/internal/clock"
	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

// MarkService manages per-user bookmarks on catalog books.
type MarkService struct {
	db     *sqlite.Store
	clock  clock.Clock
	logger *slog.Logger
}

// NewMarkService creates a new mark service.
func NewMarkService(db *sqlite.Store, clk clock.Clock, logger *slog.Logger) *MarkService {
	return &MarkService{
		db:     db,
		clock:  clk,
		logger: logger,
	}
}

// MarkBook bookmarks a book for a user. Marking an already-marked book
// is a no-op so clients can retry freely.
func (s *MarkService) MarkBook(ctx context.Context, userID, bookID string) error {
	if _, err := s.db.GetBook(ctx, bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("book not found")
		}
		return fmt.Errorf("get book: %w", err)
	}

	mark := &domain.Mark{
		UserID:   userID,
		BookID:   bookID,
		MarkedAt: s.clock.Now(),
	}
	if err := s.db.CreateMark(ctx, mark); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("create mark: %w", err)
	}
	return nil
}

// UnmarkBook removes a user's bookmark. Removing a mark that does not
// exist is also a no-op.
func (s *MarkService) UnmarkBook(ctx context.Context, userID, bookID string) error {
	if err := s.db.DeleteMark(ctx, userID, bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete mark: %w", err)
	}
	return nil
}

// IsMarked reports whether a user has bookmarked a book.
func (s *MarkService) IsMarked(ctx context.Context, userID, bookID string) (bool, error) {
	marked, err := s.db.IsMarked(ctx, userID, bookID)
	if err != nil {
		return false, fmt.Errorf("check mark: %w", err)
	}
	return marked, nil
}

// ListMarkedBooks returns a user's bookmarked books, newest mark first.
func (s *MarkService) ListMarkedBooks(ctx context.Context, userID string, limit, offset int) ([]*domain.Book, error) {
	books, err := s.db.ListMarkedBooks(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list marked books: %w", err)
	}
	return books, nil
}

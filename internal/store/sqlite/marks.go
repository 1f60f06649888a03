package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

// CreateMark records a want-to-read mark for a user and book.
// Returns store.ErrAlreadyExists if the book is already marked.
func (s *Store) CreateMark(ctx context.Context, mark *domain.Mark) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO marks (user_id, book_id, marked_at)
		VALUES (?, ?, ?)`,
		mark.UserID,
		mark.BookID,
		formatTime(mark.MarkedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// DeleteMark removes a mark. Returns store.ErrNotFound if no mark exists.
func (s *Store) DeleteMark(ctx context.Context, userID, bookID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM marks WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IsMarked reports whether the user has marked the book.
func (s *Store) IsMarked(ctx context.Context, userID, bookID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM marks WHERE user_id = ? AND book_id = ?`, userID, bookID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListMarkedBooks returns the books a user has marked, most recently marked first.
func (s *Store) ListMarkedBooks(ctx context.Context, userID string, limit, offset int) ([]*domain.Book, error) {
	limit, offset = clampPage(limit, offset)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixColumns(bookColumns, "b")+`
		FROM books b
		JOIN marks m ON m.book_id = b.id
		WHERE m.user_id = ?
		ORDER BY m.marked_at DESC
		LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// prefixColumns rewrites a comma-separated column list to use a table alias.
func prefixColumns(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

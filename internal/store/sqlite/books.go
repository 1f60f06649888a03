package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, created_at, updated_at, owner_id, title, author_name,
	publish_date, is_verified, cover_path, cover_blurhash`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book

	var (
		createdAt     string
		updatedAt     string
		ownerID       sql.NullString
		publishDate   sql.NullString
		isVerified    int
		coverPath     sql.NullString
		coverBlurHash sql.NullString
	)

	err := scanner.Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
		&ownerID,
		&b.Title,
		&b.AuthorName,
		&publishDate,
		&isVerified,
		&coverPath,
		&coverBlurHash,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	if ownerID.Valid {
		b.OwnerID = ownerID.String
	}
	if publishDate.Valid && publishDate.String != "" {
		d, err := domain.ParseDate(publishDate.String)
		if err != nil {
			return nil, err
		}
		b.PublishDate = &d
	}
	b.IsVerified = isVerified != 0
	if coverPath.Valid {
		b.CoverPath = coverPath.String
	}
	if coverBlurHash.Valid {
		b.CoverBlurHash = coverBlurHash.String
	}

	return &b, nil
}

// CreateBook inserts a new book into the database.
// Returns store.ErrAlreadyExists if the book ID already exists.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (
			id, created_at, updated_at, owner_id, title, author_name,
			publish_date, is_verified, cover_path, cover_blurhash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
		nullString(book.OwnerID),
		book.Title,
		book.AuthorName,
		nullDate(book.PublishDate),
		boolToInt(book.IsVerified),
		nullString(book.CoverPath),
		nullString(book.CoverBlurHash),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetBook retrieves a book by ID.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id)

	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBook performs a full row update on an existing book.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE books SET
			updated_at = ?,
			owner_id = ?,
			title = ?,
			author_name = ?,
			publish_date = ?,
			is_verified = ?,
			cover_path = ?,
			cover_blurhash = ?
		WHERE id = ?`,
		formatTime(book.UpdatedAt),
		nullString(book.OwnerID),
		book.Title,
		book.AuthorName,
		nullDate(book.PublishDate),
		boolToInt(book.IsVerified),
		nullString(book.CoverPath),
		nullString(book.CoverBlurHash),
		book.ID,
	)
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

// DeleteBook removes a book and its marks and reviews.
// Reading sessions referencing the book are deliberately retained.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	result, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
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

	if _, err := tx.ExecContext(ctx, `DELETE FROM marks WHERE book_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE book_id = ?`, id); err != nil {
		return err
	}

	return tx.Commit()
}

// BookFilter narrows ListBooks results. Zero values mean "no filter".
type BookFilter struct {
	Title        string // substring, case-insensitive
	Author       string // substring, case-insensitive
	OwnerID      string
	VerifiedOnly bool
}

// ListBooks returns books matching the filter, newest first.
func (s *Store) ListBooks(ctx context.Context, filter BookFilter, limit, offset int) ([]*domain.Book, error) {
	limit, offset = clampPage(limit, offset)

	query := `SELECT ` + bookColumns + ` FROM books WHERE 1=1`
	var args []any

	if filter.Title != "" {
		query += ` AND title LIKE ? ESCAPE '\' COLLATE NOCASE`
		args = append(args, "%"+escapeLike(filter.Title)+"%")
	}
	if filter.Author != "" {
		query += ` AND author_name LIKE ? ESCAPE '\' COLLATE NOCASE`
		args = append(args, "%"+escapeLike(filter.Author)+"%")
	}
	if filter.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, filter.OwnerID)
	}
	if filter.VerifiedOnly {
		query += ` AND is_verified = 1`
	}

	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// escapeLike escapes LIKE wildcards in user-supplied patterns.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// SetBookCover records the stored cover filename and blurhash for a book.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) SetBookCover(ctx context.Context, bookID, coverPath, blurHash string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE books SET cover_path = ?, cover_blurhash = ?, updated_at = ? WHERE id = ?`,
		nullString(coverPath), nullString(blurHash), formatTime(nowUTC()), bookID)
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

// SetBookVerified flips the admin verification flag.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) SetBookVerified(ctx context.Context, bookID string, verified bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE books SET is_verified = ?, updated_at = ? WHERE id = ?`,
		boolToInt(verified), formatTime(nowUTC()), bookID)
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

// GetCatalogStats returns aggregate counts over the whole catalog.
func (s *Store) GetCatalogStats(ctx context.Context) (*domain.CatalogStats, error) {
	var stats domain.CatalogStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(is_verified), 0),
			COALESCE(SUM(CASE WHEN cover_path IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM books`).Scan(&stats.TotalBooks, &stats.VerifiedBooks, &stats.WithCovers)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

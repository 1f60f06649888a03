package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

// reviewColumns is the ordered list of columns selected in review queries.
// Must match the scan order in scanReview.
const reviewColumns = `id, created_at, updated_at, user_id, book_id, rating, comment`

// scanReview scans a sql.Row (or sql.Rows via its Scan method) into a domain.Review.
func scanReview(scanner interface{ Scan(dest ...any) error }) (*domain.Review, error) {
	var r domain.Review

	var (
		createdAt string
		updatedAt string
		rating    sql.NullFloat64
		comment   sql.NullString
	)

	err := scanner.Scan(
		&r.ID,
		&createdAt,
		&updatedAt,
		&r.UserID,
		&r.BookID,
		&rating,
		&comment,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	if rating.Valid {
		v := rating.Float64
		r.Rating = &v
	}
	if comment.Valid {
		r.Comment = comment.String
	}

	return &r, nil
}

// CreateReview inserts a new review.
// Returns store.ErrAlreadyExists if the user has already reviewed the book.
func (s *Store) CreateReview(ctx context.Context, review *domain.Review) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, created_at, updated_at, user_id, book_id, rating, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		review.ID,
		formatTime(review.CreatedAt),
		formatTime(review.UpdatedAt),
		review.UserID,
		review.BookID,
		nullFloat64Ptr(review.Rating),
		nullString(review.Comment),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetReview retrieves a review by ID.
// Returns store.ErrNotFound if the review does not exist.
func (s *Store) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)

	r, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetReviewByUserAndBook retrieves the user's review of a book, if any.
// Returns store.ErrNotFound if the user has not reviewed the book.
func (s *Store) GetReviewByUserAndBook(ctx context.Context, userID, bookID string) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE user_id = ? AND book_id = ?`,
		userID, bookID)

	r, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateReview updates the rating and comment of an existing review.
// Returns store.ErrNotFound if the review does not exist.
func (s *Store) UpdateReview(ctx context.Context, review *domain.Review) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reviews SET updated_at = ?, rating = ?, comment = ? WHERE id = ?`,
		formatTime(review.UpdatedAt),
		nullFloat64Ptr(review.Rating),
		nullString(review.Comment),
		review.ID,
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

// DeleteReview removes a review. Returns store.ErrNotFound if it does not exist.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
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

// ListReviewsByBook returns all reviews of a book, newest first.
func (s *Store) ListReviewsByBook(ctx context.Context, bookID string, limit, offset int) ([]*domain.Review, error) {
	limit, offset = clampPage(limit, offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews
		WHERE book_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		bookID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReviews(rows)
}

// ListReviewsByUser returns all reviews written by a user, newest first.
func (s *Store) ListReviewsByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Review, error) {
	limit, offset = clampPage(limit, offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReviews(rows)
}

func collectReviews(rows *sql.Rows) ([]*domain.Review, error) {
	var reviews []*domain.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// GetReviewSummary returns the average rating and review count for a book.
// Reviews without a rating count toward ReviewCount but not AverageRating.
func (s *Store) GetReviewSummary(ctx context.Context, bookID string) (*domain.ReviewSummary, error) {
	summary := domain.ReviewSummary{BookID: bookID}

	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(rating) FROM reviews WHERE book_id = ?`,
		bookID).Scan(&summary.ReviewCount, &avg)
	if err != nil {
		return nil, err
	}
	if avg.Valid {
		v := avg.Float64
		summary.AverageRating = &v
	}
	return &summary, nil
}

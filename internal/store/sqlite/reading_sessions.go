package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

// sessionColumns is the ordered list of columns selected in reading session
// queries. Must match the scan order in scanReadingSession.
const sessionColumns = `id, user_id, book_id, start_time, end_time, duration_min, created_at`

// scanReadingSession scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.ReadingSession.
func scanReadingSession(scanner interface{ Scan(dest ...any) error }) (*domain.ReadingSession, error) {
	var rs domain.ReadingSession

	var (
		startTime string
		endTime   sql.NullString
		duration  sql.NullInt64
		createdAt string
	)

	err := scanner.Scan(
		&rs.ID,
		&rs.UserID,
		&rs.BookID,
		&startTime,
		&endTime,
		&duration,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	rs.StartTime, err = parseTime(startTime)
	if err != nil {
		return nil, err
	}
	rs.EndTime, err = parseNullableTime(endTime)
	if err != nil {
		return nil, err
	}
	if duration.Valid {
		v := duration.Int64
		rs.DurationMin = &v
	}
	rs.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &rs, nil
}

// CreateReadingSession inserts a new reading session.
// Returns store.ErrAlreadyExists if the session ID already exists.
func (s *Store) CreateReadingSession(ctx context.Context, session *domain.ReadingSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reading_sessions (id, user_id, book_id, start_time, end_time, duration_min, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.BookID,
		formatTime(session.StartTime),
		nullTimeString(session.EndTime),
		nullInt64Ptr(session.DurationMin),
		formatTime(session.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetReadingSession retrieves a reading session by ID.
// Returns store.ErrNotFound if the session does not exist.
func (s *Store) GetReadingSession(ctx context.Context, id string) (*domain.ReadingSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM reading_sessions WHERE id = ?`, id)

	rs, err := scanReadingSession(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// GetOpenReadingSession returns the user's open session on a book, if any.
// Returns store.ErrNotFound if no open session exists.
func (s *Store) GetOpenReadingSession(ctx context.Context, userID, bookID string) (*domain.ReadingSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM reading_sessions
		WHERE user_id = ? AND book_id = ? AND end_time IS NULL
		ORDER BY start_time DESC LIMIT 1`,
		userID, bookID)

	rs, err := scanReadingSession(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// CloseReadingSession sets the end time and duration of an open session.
// The update only matches a row whose end_time is still NULL, so two
// concurrent closes cannot both succeed. Returns false when the session
// was already closed, and store.ErrNotFound when it does not exist at all.
func (s *Store) CloseReadingSession(ctx context.Context, id string, endTime time.Time, durationMin int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reading_sessions SET end_time = ?, duration_min = ?
		WHERE id = ? AND end_time IS NULL`,
		formatTime(endTime), durationMin, id)
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	// Distinguish "already closed" from "no such session".
	var one int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM reading_sessions WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, store.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// ListReadingSessionsByUser returns a user's sessions, most recent start first.
func (s *Store) ListReadingSessionsByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.ReadingSession, error) {
	limit, offset = clampPage(limit, offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM reading_sessions
		WHERE user_id = ?
		ORDER BY start_time DESC
		LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReadingSessions(rows)
}

// ListReadingSessionsByBook returns a book's sessions, most recent start first.
func (s *Store) ListReadingSessionsByBook(ctx context.Context, bookID string, limit, offset int) ([]*domain.ReadingSession, error) {
	limit, offset = clampPage(limit, offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM reading_sessions
		WHERE book_id = ?
		ORDER BY start_time DESC
		LIMIT ? OFFSET ?`,
		bookID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReadingSessions(rows)
}

func collectReadingSessions(rows *sql.Rows) ([]*domain.ReadingSession, error) {
	var sessions []*domain.ReadingSession
	for rows.Next() {
		rs, err := scanReadingSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, rs)
	}
	return sessions, rows.Err()
}

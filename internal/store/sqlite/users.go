package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, created_at, updated_at, deleted_at, email, name,
	password_hash, is_admin, last_active_date, current_streak, last_streak, last_login_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User

	var (
		createdAt      string
		updatedAt      string
		deletedAt      sql.NullString
		passwordH      sql.NullString
		isAdmin        int
		lastActiveDate sql.NullString
		lastLoginAt    string
	)

	err := scanner.Scan(
		&u.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&u.Email,
		&u.Name,
		&passwordH,
		&isAdmin,
		&lastActiveDate,
		&u.CurrentStreak,
		&u.LastStreak,
		&lastLoginAt,
	)
	if err != nil {
		return nil, err
	}

	// Parse timestamps.
	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	u.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	u.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}
	u.LastLoginAt, err = parseTime(lastLoginAt)
	if err != nil {
		return nil, err
	}

	if passwordH.Valid {
		u.PasswordHash = passwordH.String
	}
	u.IsAdmin = isAdmin != 0

	if lastActiveDate.Valid && lastActiveDate.String != "" {
		d, err := domain.ParseDate(lastActiveDate.String)
		if err != nil {
			return nil, err
		}
		u.LastActiveDate = &d
	}

	return &u, nil
}

// nullDate returns a sql.NullString for an optional calendar date.
func nullDate(d *domain.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

// CreateUser inserts a new user into the database.
// Returns store.ErrAlreadyExists if the user ID or email already exists.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	emailLower := strings.ToLower(strings.TrimSpace(user.Email))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (
			id, created_at, updated_at, deleted_at, email, email_lower, name,
			password_hash, is_admin, last_active_date, current_streak, last_streak, last_login_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		nullTimeString(user.DeletedAt),
		user.Email,
		emailLower,
		user.Name,
		nullString(user.PasswordHash),
		boolToInt(user.IsAdmin),
		nullDate(user.LastActiveDate),
		user.CurrentStreak,
		user.LastStreak,
		formatTime(user.LastLoginAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetUser retrieves a user by ID, excluding soft-deleted records.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND deleted_at IS NULL`, id)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email (case-insensitive), excluding
// soft-deleted records. Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	emailLower := strings.ToLower(strings.TrimSpace(email))
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_lower = ? AND deleted_at IS NULL`, emailLower)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUser performs a full row update on an existing user.
// Returns store.ErrNotFound if the user does not exist,
// store.ErrAlreadyExists if the new email is taken.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	emailLower := strings.ToLower(strings.TrimSpace(user.Email))

	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			updated_at = ?,
			deleted_at = ?,
			email = ?,
			email_lower = ?,
			name = ?,
			password_hash = ?,
			is_admin = ?,
			last_active_date = ?,
			current_streak = ?,
			last_streak = ?,
			last_login_at = ?
		WHERE id = ?`,
		formatTime(user.UpdatedAt),
		nullTimeString(user.DeletedAt),
		user.Email,
		emailLower,
		user.Name,
		nullString(user.PasswordHash),
		boolToInt(user.IsAdmin),
		nullDate(user.LastActiveDate),
		user.CurrentStreak,
		user.LastStreak,
		formatTime(user.LastLoginAt),
		user.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
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

// CountUsers returns the number of accounts, including soft-deleted ones.
// Used to decide whether a registration is the first on the server.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateUserLastLogin stamps the last login time without touching updated_at.
func (s *Store) UpdateUserLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`,
		formatTime(at), userID)
	return err
}

// ConditionalUpdateStreak applies a streak transition with compare-and-set
// semantics: the write only lands if the stored state still matches prev.
// Returns false when a concurrent transition won; the caller should re-read
// and re-apply.
func (s *Store) ConditionalUpdateStreak(ctx context.Context, userID string, prev, next domain.Streak) (bool, error) {
	var result sql.Result
	var err error

	if prev.LastActiveDate == nil {
		result, err = s.db.ExecContext(ctx, `
			UPDATE users SET last_active_date = ?, current_streak = ?, last_streak = ?
			WHERE id = ? AND last_active_date IS NULL AND current_streak = ?`,
			nullDate(next.LastActiveDate), next.Current, next.Last,
			userID, prev.Current,
		)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE users SET last_active_date = ?, current_streak = ?, last_streak = ?
			WHERE id = ? AND last_active_date = ? AND current_streak = ?`,
			nullDate(next.LastActiveDate), next.Current, next.Last,
			userID, prev.LastActiveDate.String(), prev.Current,
		)
	}
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SoftDeleteUser marks a user as deleted and detaches their books.
// Reading sessions and reviews are retained.
func (s *Store) SoftDeleteUser(ctx context.Context, userID string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		formatTime(at), formatTime(at), userID)
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

	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET owner_id = NULL, updated_at = ? WHERE owner_id = ?`,
		formatTime(at), userID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? OR followed_id = ?`,
		userID, userID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetProfile assembles the public profile for a user.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &domain.Profile{
		UserID:        u.ID,
		Name:          u.DisplayName(),
		CurrentStreak: u.CurrentStreak,
		LastStreak:    u.LastStreak,
		JoinedAt:      u.CreatedAt,
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM follows WHERE followed_id = ?),
			(SELECT COUNT(*) FROM follows WHERE follower_id = ?)`,
		userID, userID).Scan(&p.Followers, &p.Following)
	if err != nil {
		return nil, err
	}

	return p, nil
}

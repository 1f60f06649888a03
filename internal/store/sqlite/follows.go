package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

// CreateFollow records that follower follows followed.
// Returns store.ErrAlreadyExists if the relation already exists.
func (s *Store) CreateFollow(ctx context.Context, follow *domain.Follow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO follows (follower_id, followed_id, followed_at)
		VALUES (?, ?, ?)`,
		follow.FollowerID,
		follow.FollowedID,
		formatTime(follow.FollowedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// DeleteFollow removes a follow relation.
// Returns store.ErrNotFound if the relation does not exist.
func (s *Store) DeleteFollow(ctx context.Context, followerID, followedID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID)
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

// IsFollowing reports whether follower follows followed.
func (s *Store) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM follows WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListFollowing returns the users that userID follows, most recent first.
func (s *Store) ListFollowing(ctx context.Context, userID string, limit, offset int) ([]*domain.User, error) {
	limit, offset = clampPage(limit, offset)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixColumns(userColumns, "u")+`
		FROM users u
		JOIN follows f ON f.followed_id = u.id
		WHERE f.follower_id = ? AND u.deleted_at IS NULL
		ORDER BY f.followed_at DESC
		LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsers(rows)
}

// ListFollowers returns the users that follow userID, most recent first.
func (s *Store) ListFollowers(ctx context.Context, userID string, limit, offset int) ([]*domain.User, error) {
	limit, offset = clampPage(limit, offset)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixColumns(userColumns, "u")+`
		FROM users u
		JOIN follows f ON f.follower_id = u.id
		WHERE f.followed_id = ? AND u.deleted_at IS NULL
		ORDER BY f.followed_at DESC
		LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]*domain.User, error) {
	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetFollowingActivity returns recent activity from the users that userID
// follows: finished reading sessions and posted reviews, interleaved by time.
func (s *Store) GetFollowingActivity(ctx context.Context, userID string, limit, offset int) ([]*domain.Activity, error) {
	limit, offset = clampPage(limit, offset)

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, occurred_at, user_id, user_name, book_id, book_title, duration_min, rating
		FROM (
			SELECT 'finished_session' AS kind,
				rs.end_time AS occurred_at,
				u.id AS user_id, u.name AS user_name,
				b.id AS book_id, b.title AS book_title,
				rs.duration_min AS duration_min,
				NULL AS rating
			FROM reading_sessions rs
			JOIN follows f ON f.followed_id = rs.user_id
			JOIN users u ON u.id = rs.user_id AND u.deleted_at IS NULL
			JOIN books b ON b.id = rs.book_id
			WHERE f.follower_id = ? AND rs.end_time IS NOT NULL

			UNION ALL

			SELECT 'reviewed' AS kind,
				r.created_at AS occurred_at,
				u.id AS user_id, u.name AS user_name,
				b.id AS book_id, b.title AS book_title,
				NULL AS duration_min,
				r.rating AS rating
			FROM reviews r
			JOIN follows f ON f.followed_id = r.user_id
			JOIN users u ON u.id = r.user_id AND u.deleted_at IS NULL
			JOIN books b ON b.id = r.book_id
			WHERE f.follower_id = ?
		)
		ORDER BY occurred_at DESC
		LIMIT ? OFFSET ?`,
		userID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activity []*domain.Activity
	for rows.Next() {
		var (
			a          domain.Activity
			kind       string
			occurredAt string
			duration   sql.NullInt64
			rating     sql.NullFloat64
		)
		err := rows.Scan(&kind, &occurredAt, &a.UserID, &a.UserName,
			&a.BookID, &a.BookTitle, &duration, &rating)
		if err != nil {
			return nil, err
		}

		a.Kind = domain.ActivityKind(kind)
		a.OccurredAt, err = parseTime(occurredAt)
		if err != nil {
			return nil, err
		}
		if duration.Valid {
			v := duration.Int64
			a.DurationMin = &v
		}
		if rating.Valid {
			v := rating.Float64
			a.Rating = &v
		}

		activity = append(activity, &a)
	}
	return activity, rows.Err()
}

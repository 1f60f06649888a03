package domain

import "time"

// Follow is a directed edge in the social graph. Self-follows are rejected
// at the service layer.
type Follow struct {
	FollowerID string    `json:"follower_id"`
	FollowedID string    `json:"followed_id"`
	FollowedAt time.Time `json:"followed_at"`
}

// ActivityKind distinguishes entries in a following feed.
type ActivityKind string

const (
	// ActivityFinishedSession is a followed user closing a reading session.
	ActivityFinishedSession ActivityKind = "finished_session"
	// ActivityReviewed is a followed user posting a review.
	ActivityReviewed ActivityKind = "reviewed"
)

// Activity is one entry in a following feed. User and book names are
// denormalized so the feed renders without extra lookups.
type Activity struct {
	Kind       ActivityKind `json:"kind"`
	OccurredAt time.Time    `json:"occurred_at"`

	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`

	BookID    string `json:"book_id"`
	BookTitle string `json:"book_title"`

	// finished_session entries
	DurationMin *int64 `json:"duration_min,omitempty"`

	// reviewed entries
	Rating *float64 `json:"rating,omitempty"`
}

package domain

import "time"

// Mark is a user's bookmark on a book. At most one per user and book.
type Mark struct {
	UserID   string    `json:"user_id"`
	BookID   string    `json:"book_id"`
	MarkedAt time.Time `json:"marked_at"`
}

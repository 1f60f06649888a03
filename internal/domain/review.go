package domain

// Review is a user's rating and optional commentary on a book.
// A user can review a given book at most once.
type Review struct {
	Record
	UserID  string   `json:"user_id"`
	BookID  string   `json:"book_id"`
	Rating  *float64 `json:"rating,omitempty"` // 0-5, halves allowed by convention
	Comment string   `json:"comment,omitempty"`
}

// ReviewSummary aggregates the reviews of one book.
type ReviewSummary struct {
	BookID        string   `json:"book_id"`
	AverageRating *float64 `json:"average_rating,omitempty"` // nil when no rated reviews
	ReviewCount   int      `json:"review_count"`
}

// MinRating and MaxRating bound the accepted rating scale.
const (
	MinRating = 0.0
	MaxRating = 5.0
)

// ValidRating reports whether r is within the accepted scale.
func ValidRating(r float64) bool {
	return r >= MinRating && r <= MaxRating
}

// Package domain contains the core business entities and domain logic for the Shelfmark book tracker.
package domain

// Book represents a book in the catalog.
type Book struct {
	Record
	// OwnerID is the user who added the book. Empty once that account is gone.
	OwnerID       string `json:"owner_id,omitempty"`
	Title         string `json:"title"`
	AuthorName    string `json:"author_name"`
	PublishDate   *Date  `json:"publish_date,omitempty"`
	IsVerified    bool   `json:"is_verified"`
	CoverPath     string `json:"cover_path,omitempty"` // Filename within cover storage
	CoverBlurHash string `json:"cover_blurhash,omitempty"`
}

// HasCover reports whether a cover image has been uploaded.
func (b *Book) HasCover() bool {
	return b.CoverPath != ""
}

// CatalogStats summarizes the whole book catalog.
type CatalogStats struct {
	TotalBooks    int `json:"total_books"`
	VerifiedBooks int `json:"verified_books"`
	WithCovers    int `json:"with_covers"`
}

// Package search provides full-text search over the book catalog using Bleve.
// It supports fuzzy matching on titles and authors, verified-only filtering,
// and publish-year range queries.
package search

import (
	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
)

// BookDocument is the document structure for the Bleve index.
//
// Design note: author names are denormalized into the document so a single
// query covers both title and author matches. The trade-off is reindexing
// on author rename, which for a reading tracker is rare enough not to matter.
type BookDocument struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`

	// Numeric fields for range queries and sorting
	PublishYear int `json:"publish_year,omitempty"`

	// Admin verification flag, stored as keyword for exact filtering.
	Verified bool `json:"verified"`

	// Timestamps for sorting. Unix millis.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *BookDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"title":      d.Title,
		"author":     d.Author,
		"verified":   boolTerm(d.Verified),
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	if d.PublishYear > 0 {
		m["publish_year"] = d.PublishYear
	}

	return m
}

// boolTerm renders a bool as an indexable keyword term.
func boolTerm(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// BookToDocument converts a domain Book to a BookDocument.
func BookToDocument(book *domain.Book) *BookDocument {
	doc := &BookDocument{
		ID:        book.ID,
		Title:     book.Title,
		Author:    book.AuthorName,
		Verified:  book.IsVerified,
		CreatedAt: book.CreatedAt.UnixMilli(),
		UpdatedAt: book.UpdatedAt.UnixMilli(),
	}

	if book.PublishDate != nil {
		doc.PublishYear = book.PublishDate.Time().Year()
	}

	return doc
}

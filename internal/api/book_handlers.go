package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/search"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-books",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Lists catalog books, newest first, with optional title/author/verified filters",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "create-book",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Add book",
		Description: "Adds a book to the catalog, owned by the calling user",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-book",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "update-book",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Updates book metadata. Only the owner or the admin may edit.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-book",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Removes a book from the catalog. Reading history referencing it is retained.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "verify-book",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/books/{id}/verify",
		Summary:     "Verify book",
		Description: "Marks a book's metadata as admin-verified",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleVerifyBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-catalog-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/stats",
		Summary:     "Catalog statistics",
		Tags:        []string{"Books"},
	}, s.handleCatalogStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "search-books",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search books",
		Description: "Full-text search over titles and authors with fuzzy matching",
		Tags:        []string{"Search"},
	}, s.handleSearchBooks)
}

// === DTOs ===

// BookOutput wraps a single book for Huma.
type BookOutput struct {
	Body domain.Book
}

// BookListOutput wraps a page of books for Huma.
type BookListOutput struct {
	Body struct {
		Books []*domain.Book `json:"books" doc:"Books, newest first"`
		Count int            `json:"count" doc:"Number of books in this page"`
	}
}

// ListBooksInput carries catalog list filters.
type ListBooksInput struct {
	Title    string `query:"title" doc:"Filter by title substring"`
	Author   string `query:"author" doc:"Filter by author substring"`
	OwnerID  string `query:"owner_id" doc:"Filter by owning user"`
	Verified bool   `query:"verified" doc:"Only admin-verified books"`
	Limit    int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Items per page"`
	Offset   int    `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// CreateBookInput wraps the create request for Huma.
type CreateBookInput struct {
	Body struct {
		Title       string `json:"title" doc:"Book title"`
		AuthorName  string `json:"author_name,omitempty" doc:"Author name"`
		PublishDate string `json:"publish_date,omitempty" doc:"Publication date (YYYY-MM-DD)"`
	}
}

// BookIDPathInput identifies a book by path parameter.
type BookIDPathInput struct {
	ID string `path:"id" maxLength:"100" doc:"Book ID"`
}

// UpdateBookInput wraps the update request for Huma.
type UpdateBookInput struct {
	BookIDPathInput
	Body struct {
		Title       *string `json:"title,omitempty" doc:"New title"`
		AuthorName  *string `json:"author_name,omitempty" doc:"New author name"`
		PublishDate *string `json:"publish_date,omitempty" doc:"New publication date (YYYY-MM-DD, empty clears)"`
	}
}

// VerifyBookInput wraps the admin verification request for Huma.
type VerifyBookInput struct {
	BookIDPathInput
	Body struct {
		Verified bool `json:"verified" doc:"Verification state to set"`
	}
}

// CatalogStatsOutput wraps catalog totals for Huma.
type CatalogStatsOutput struct {
	Body domain.CatalogStats
}

// SearchInput carries full-text search parameters.
type SearchInput struct {
	Query    string `query:"q" doc:"Search query"`
	Verified bool   `query:"verified" doc:"Only admin-verified books"`
	MinYear  int    `query:"min_year" minimum:"0" doc:"Minimum publish year"`
	MaxYear  int    `query:"max_year" minimum:"0" doc:"Maximum publish year"`
	SortBy   string `query:"sort" enum:"relevance,title,author,recent" default:"relevance" doc:"Sort order"`
	Limit    int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Items per page"`
	Offset   int    `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body search.SearchResult
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BookListOutput, error) {
	filter := sqlite.BookFilter{
		Title:        input.Title,
		Author:       input.Author,
		OwnerID:      input.OwnerID,
		VerifiedOnly: input.Verified,
	}

	books, err := s.services.Book.ListBooks(ctx, filter, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	out := &BookListOutput{}
	out.Body.Books = books
	out.Body.Count = len(books)
	return out, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.CreateBook(ctx, userID, service.CreateBookRequest{
		Title:       input.Body.Title,
		AuthorName:  input.Body.AuthorName,
		PublishDate: input.Body.PublishDate,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: *book}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDPathInput) (*BookOutput, error) {
	book, err := s.services.Book.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: *book}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	caller, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.UpdateBook(ctx, caller, input.ID, service.UpdateBookRequest{
		Title:       input.Body.Title,
		AuthorName:  input.Body.AuthorName,
		PublishDate: input.Body.PublishDate,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: *book}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDPathInput) (*MessageOutput, error) {
	caller, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Book.DeleteBook(ctx, caller, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Book deleted"}}, nil
}

func (s *Server) handleVerifyBook(ctx context.Context, input *VerifyBookInput) (*BookOutput, error) {
	caller, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.VerifyBook(ctx, caller, input.ID, input.Body.Verified)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: *book}, nil
}

func (s *Server) handleCatalogStats(ctx context.Context, _ *struct{}) (*CatalogStatsOutput, error) {
	stats, err := s.services.Book.CatalogStats(ctx)
	if err != nil {
		return nil, err
	}

	return &CatalogStatsOutput{Body: *stats}, nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.VerifiedOnly = input.Verified
	params.MinYear = input.MinYear
	params.MaxYear = input.MaxYear
	params.SortBy = input.SortBy
	params.Limit = input.Limit
	params.Offset = input.Offset

	result, err := s.services.Book.SearchBooks(ctx, params)
	if err != nil {
		return nil, err
	}

	return &SearchOutput{Body: *result}, nil
}

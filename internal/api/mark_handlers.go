package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerMarkRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "mark-book",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/mark",
		Summary:     "Mark book",
		Description: "Adds a book to the calling user's want-to-read list. Marking twice is a no-op.",
		Tags:        []string{"Marks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMarkBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "unmark-book",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}/mark",
		Summary:     "Unmark book",
		Description: "Removes a book from the calling user's want-to-read list. Unmarking an unmarked book is a no-op.",
		Tags:        []string{"Marks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnmarkBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-marked-books",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/marks",
		Summary:     "List marked books",
		Description: "Returns the calling user's want-to-read list, most recently marked first",
		Tags:        []string{"Marks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMarkedBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "is-book-marked",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/is-marked",
		Summary:     "Check mark status",
		Tags:        []string{"Marks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleIsMarked)
}

// ListMarksInput carries pagination for the want-to-read list.
type ListMarksInput struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Items per page"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// MarkStatusOutput reports whether a book is on the caller's list.
type MarkStatusOutput struct {
	Body struct {
		Marked bool `json:"marked" doc:"Whether the book is marked"`
	}
}

func (s *Server) handleMarkBook(ctx context.Context, input *BookIDPathInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Mark.MarkBook(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Book marked"}}, nil
}

func (s *Server) handleUnmarkBook(ctx context.Context, input *BookIDPathInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Mark.UnmarkBook(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Book unmarked"}}, nil
}

func (s *Server) handleListMarkedBooks(ctx context.Context, input *ListMarksInput) (*BookListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Mark.ListMarkedBooks(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	out := &BookListOutput{}
	out.Body.Books = books
	out.Body.Count = len(books)
	return out, nil
}

func (s *Server) handleIsMarked(ctx context.Context, input *BookIDPathInput) (*MarkStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	marked, err := s.services.Mark.IsMarked(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	out := &MarkStatusOutput{}
	out.Body.Marked = marked
	return out, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
	"github.com/shelfmarkapp/shelfmark-server/internal/media/images"
	"github.com/shelfmarkapp/shelfmark-server/internal/search"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

// BookService handles the book catalog: CRUD, covers, search indexing,
// and admin verification.
type BookService struct {
	db     *sqlite.Store
	index  *search.SearchIndex
	covers *images.Processor
	logger *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(
	db *sqlite.Store,
	index *search.SearchIndex,
	covers *images.Processor,
	logger *slog.Logger,
) *BookService {
	return &BookService{
		db:     db,
		index:  index,
		covers: covers,
		logger: logger,
	}
}

// CreateBookRequest contains the data for adding a book to the catalog.
type CreateBookRequest struct {
	Title       string `json:"title" validate:"required,max=500"`
	AuthorName  string `json:"author_name" validate:"max=200"`
	PublishDate string `json:"publish_date,omitempty"` // YYYY-MM-DD
}

// UpdateBookRequest contains the editable fields of a book.
type UpdateBookRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	AuthorName  *string `json:"author_name,omitempty" validate:"omitempty,max=200"`
	PublishDate *string `json:"publish_date,omitempty"` // YYYY-MM-DD, empty clears
}

// CreateBook adds a book owned by the calling user and indexes it.
func (s *BookService) CreateBook(ctx context.Context, ownerID string, req CreateBookRequest) (*domain.Book, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{
		Record: domain.Record{
			ID: bookID,
		},
		OwnerID:    ownerID,
		Title:      req.Title,
		AuthorName: req.AuthorName,
	}
	book.InitTimestamps()

	if req.PublishDate != "" {
		d, err := domain.ParseDate(req.PublishDate)
		if err != nil {
			return nil, domainerrors.Validation("publish_date must be YYYY-MM-DD")
		}
		book.PublishDate = &d
	}

	if err := s.db.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.indexBook(book)

	s.logger.Info("Book created",
		"book_id", bookID,
		"title", book.Title,
	)

	return book, nil
}

// GetBook retrieves a book by ID.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.db.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// UpdateBook edits a book. Only the owner or an admin may edit.
func (s *BookService) UpdateBook(ctx context.Context, caller *domain.User, bookID string, req UpdateBookRequest) (*domain.Book, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeEdit(caller, book); err != nil {
		return nil, err
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.AuthorName != nil {
		book.AuthorName = *req.AuthorName
	}
	if req.PublishDate != nil {
		if *req.PublishDate == "" {
			book.PublishDate = nil
		} else {
			d, err := domain.ParseDate(*req.PublishDate)
			if err != nil {
				return nil, domainerrors.Validation("publish_date must be YYYY-MM-DD")
			}
			book.PublishDate = &d
		}
	}

	book.Touch()
	if err := s.db.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.indexBook(book)

	return book, nil
}

// DeleteBook removes a book, its marks, its reviews, its cover file, and its
// search document. Reading sessions referencing the book are retained.
func (s *BookService) DeleteBook(ctx context.Context, caller *domain.User, bookID string) error {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	if err := s.authorizeEdit(caller, book); err != nil {
		return err
	}

	if err := s.db.DeleteBook(ctx, bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if book.HasCover() {
		if err := s.covers.Remove(book.CoverPath); err != nil {
			s.logger.Warn("Failed to remove cover file",
				"book_id", bookID,
				"cover", book.CoverPath,
				"error", err,
			)
		}
	}

	if err := s.index.DeleteDocument(bookID); err != nil {
		s.logger.Warn("Failed to deindex book", "book_id", bookID, "error", err)
	}

	s.logger.Info("Book deleted", "book_id", bookID)
	return nil
}

// ListBooks returns catalog entries matching the filter.
func (s *BookService) ListBooks(ctx context.Context, filter sqlite.BookFilter, limit, offset int) ([]*domain.Book, error) {
	books, err := s.db.ListBooks(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// SearchBooks runs a full-text query against the book index.
func (s *BookService) SearchBooks(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return result, nil
}

// UploadCover validates and stores a cover image for a book.
// The previous cover file, if any, is removed after the new one lands.
func (s *BookService) UploadCover(ctx context.Context, caller *domain.User, bookID string, data []byte) (*domain.Book, error) {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeEdit(caller, book); err != nil {
		return nil, err
	}

	cover, err := s.covers.Process(book.Title, data)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	oldCover := book.CoverPath

	if err := s.db.SetBookCover(ctx, bookID, cover.Filename, cover.BlurHash); err != nil {
		// Roll back the orphaned file.
		_ = s.covers.Remove(cover.Filename)
		return nil, fmt.Errorf("set book cover: %w", err)
	}
	book.CoverPath = cover.Filename
	book.CoverBlurHash = cover.BlurHash

	if oldCover != "" && oldCover != cover.Filename {
		if err := s.covers.Remove(oldCover); err != nil {
			s.logger.Warn("Failed to remove old cover",
				"book_id", bookID,
				"cover", oldCover,
				"error", err,
			)
		}
	}

	s.logger.Info("Cover uploaded",
		"book_id", bookID,
		"filename", cover.Filename,
	)

	return book, nil
}

// VerifyBook flags a book as admin-verified and reindexes it.
func (s *BookService) VerifyBook(ctx context.Context, caller *domain.User, bookID string, verified bool) (*domain.Book, error) {
	if !caller.IsAdmin {
		return nil, domainerrors.Forbidden("admin access required")
	}

	if err := s.db.SetBookVerified(ctx, bookID, verified); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("set book verified: %w", err)
	}

	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	s.indexBook(book)

	s.logger.Info("Book verification changed",
		"book_id", bookID,
		"verified", verified,
		"admin_id", caller.ID,
	)

	return book, nil
}

// CatalogStats returns aggregate catalog counts.
func (s *BookService) CatalogStats(ctx context.Context) (*domain.CatalogStats, error) {
	stats, err := s.db.GetCatalogStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}
	return stats, nil
}

// ReindexAll rebuilds the search index from the catalog.
// Used at startup when the index version changes.
func (s *BookService) ReindexAll(ctx context.Context) error {
	const pageSize = 100

	var docs []*search.BookDocument
	for offset := 0; ; offset += pageSize {
		books, err := s.db.ListBooks(ctx, sqlite.BookFilter{}, pageSize, offset)
		if err != nil {
			return fmt.Errorf("list books for reindex: %w", err)
		}
		for _, b := range books {
			docs = append(docs, search.BookToDocument(b))
		}
		if len(books) < pageSize {
			break
		}
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index books: %w", err)
	}

	s.logger.Info("Reindexed catalog", "count", len(docs))
	return nil
}

// SearchDocumentCount returns the number of indexed books.
// Used by health checks to spot an empty or unreachable index.
func (s *BookService) SearchDocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// authorizeEdit permits the owner or an admin to modify a book.
func (s *BookService) authorizeEdit(caller *domain.User, book *domain.Book) error {
	if caller.IsAdmin {
		return nil
	}
	if book.OwnerID == "" || book.OwnerID != caller.ID {
		return domainerrors.Forbidden("only the owner may modify this book")
	}
	return nil
}

// indexBook writes a book into the search index, logging on failure.
// Search staleness is tolerable; a failed catalog write is not.
func (s *BookService) indexBook(book *domain.Book) {
	if err := s.index.IndexDocument(search.BookToDocument(book)); err != nil {
		s.logger.Warn("Failed to index book",
			"book_id", book.ID,
			"error", err,
		)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

// ReviewService manages book reviews. Each user can hold at most one
// review per book.
type ReviewService struct {
	db     *sqlite.Store
	logger *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(db *sqlite.Store, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		db:     db,
		logger: logger,
	}
}

// CreateReviewRequest contains the data for posting a review.
type CreateReviewRequest struct {
	Rating  *float64 `json:"rating,omitempty"`
	Comment string   `json:"comment,omitempty" validate:"max=4000"`
}

// UpdateReviewRequest contains the editable fields of a review.
// Rating has clear-vs-keep semantics: absent keeps, null clears.
type UpdateReviewRequest struct {
	Rating    *float64 `json:"rating,omitempty"`
	RatingSet bool     `json:"-"`
	Comment   *string  `json:"comment,omitempty" validate:"omitempty,max=4000"`
}

// CreateReview posts a user's review of a book.
func (s *ReviewService) CreateReview(ctx context.Context, userID, bookID string, req CreateReviewRequest) (*domain.Review, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if err := validateRating(req.Rating); err != nil {
		return nil, err
	}

	if _, err := s.db.GetBook(ctx, bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	reviewID, err := id.Generate("review")
	if err != nil {
		return nil, fmt.Errorf("generate review ID: %w", err)
	}

	review := &domain.Review{
		Record: domain.Record{
			ID: reviewID,
		},
		UserID:  userID,
		BookID:  bookID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	review.InitTimestamps()

	if err := s.db.CreateReview(ctx, review); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("you have already reviewed this book")
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	return review, nil
}

// GetReview retrieves a review by ID.
func (s *ReviewService) GetReview(ctx context.Context, reviewID string) (*domain.Review, error) {
	review, err := s.db.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("review not found")
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// UpdateReview edits a review. Only the author may edit.
func (s *ReviewService) UpdateReview(ctx context.Context, callerID, reviewID string, req UpdateReviewRequest) (*domain.Review, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if req.RatingSet {
		if err := validateRating(req.Rating); err != nil {
			return nil, err
		}
	}

	review, err := s.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != callerID {
		return nil, domainerrors.Forbidden("only the author may modify this review")
	}

	if req.RatingSet {
		review.Rating = req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}

	review.Touch()
	if err := s.db.UpdateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	return review, nil
}

// DeleteReview removes a review. The author or an admin may delete.
func (s *ReviewService) DeleteReview(ctx context.Context, caller *domain.User, reviewID string) error {
	review, err := s.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != caller.ID && !caller.IsAdmin {
		return domainerrors.Forbidden("only the author may delete this review")
	}

	if err := s.db.DeleteReview(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

// ListBookReviews returns a book's reviews, newest first.
func (s *ReviewService) ListBookReviews(ctx context.Context, bookID string, limit, offset int) ([]*domain.Review, error) {
	reviews, err := s.db.ListReviewsByBook(ctx, bookID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// ListUserReviews returns a user's reviews, newest first.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID string, limit, offset int) ([]*domain.Review, error) {
	reviews, err := s.db.ListReviewsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// GetReviewSummary returns the review count and average rating for a book.
func (s *ReviewService) GetReviewSummary(ctx context.Context, bookID string) (*domain.ReviewSummary, error) {
	summary, err := s.db.GetReviewSummary(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("review summary: %w", err)
	}
	return summary, nil
}

func validateRating(r *float64) error {
	if r == nil {
		return nil
	}
	if !domain.ValidRating(*r) {
		return domainerrors.Validation(fmt.Sprintf("rating must be between %g and %g", domain.MinRating, domain.MaxRating))
	}
	return nil
}

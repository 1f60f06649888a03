package api

import (
	"context"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "create-review",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/reviews",
		Summary:     "Review book",
		Description: "Creates a review for a book. Each user may review a book once.",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-book-reviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/reviews",
		Summary:     "List book reviews",
		Tags:        []string{"Reviews"},
	}, s.handleListBookReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-review-summary",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/reviews/summary",
		Summary:     "Review summary",
		Description: "Returns the average rating and review count for a book",
		Tags:        []string{"Reviews"},
	}, s.handleReviewSummary)

	huma.Register(s.api, huma.Operation{
		OperationID: "update-review",
		Method:      http.MethodPatch,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Update review",
		Description: "Updates the caller's own review",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-review",
		Method:      http.MethodDelete,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Delete review",
		Description: "Deletes a review. The author or the admin may delete.",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-my-reviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/reviews",
		Summary:     "List my reviews",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMyReviews)
}

// === DTOs ===

// ReviewOutput wraps a single review for Huma.
type ReviewOutput struct {
	Body domain.Review
}

// ReviewListOutput wraps a page of reviews for Huma.
type ReviewListOutput struct {
	Body struct {
		Reviews []*domain.Review `json:"reviews" doc:"Reviews, newest first"`
		Count   int              `json:"count" doc:"Number of reviews in this page"`
	}
}

// CreateReviewInput wraps the create request for Huma.
type CreateReviewInput struct {
	BookIDPathInput
	Body struct {
		Rating  *float64 `json:"rating,omitempty" minimum:"0" maximum:"5" doc:"Rating on a 0-5 scale"`
		Comment string   `json:"comment,omitempty" doc:"Review text"`
	}
}

// ReviewIDPathInput identifies a review by path parameter.
type ReviewIDPathInput struct {
	ID string `path:"id" maxLength:"100" doc:"Review ID"`
}

// UpdateReviewInput wraps the update request for Huma. A present-but-null
// rating clears it; an absent rating keeps the current one.
type UpdateReviewInput struct {
	ReviewIDPathInput
	RawBody []byte `contentType:"application/json" doc:"Fields to update: rating (null clears), comment"`
}

// ListReviewsInput carries pagination for review listings.
type ListReviewsInput struct {
	BookIDPathInput
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Items per page"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// MyReviewsInput carries pagination for the caller's reviews.
type MyReviewsInput struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Items per page"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// ReviewSummaryOutput wraps aggregate review data for Huma.
type ReviewSummaryOutput struct {
	Body domain.ReviewSummary
}

// === Handlers ===

func (s *Server) handleCreateReview(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Review.CreateReview(ctx, userID, input.ID, service.CreateReviewRequest{
		Rating:  input.Body.Rating,
		Comment: input.Body.Comment,
	})
	if err != nil {
		return nil, err
	}

	return &ReviewOutput{Body: *review}, nil
}

func (s *Server) handleListBookReviews(ctx context.Context, input *ListReviewsInput) (*ReviewListOutput, error) {
	reviews, err := s.services.Review.ListBookReviews(ctx, input.ID, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	out := &ReviewListOutput{}
	out.Body.Reviews = reviews
	out.Body.Count = len(reviews)
	return out, nil
}

func (s *Server) handleReviewSummary(ctx context.Context, input *BookIDPathInput) (*ReviewSummaryOutput, error) {
	summary, err := s.services.Review.GetReviewSummary(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ReviewSummaryOutput{Body: *summary}, nil
}

func (s *Server) handleUpdateReview(ctx context.Context, input *UpdateReviewInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	req, err := parseUpdateReviewBody(input.RawBody)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Review.UpdateReview(ctx, userID, input.ID, req)
	if err != nil {
		return nil, err
	}

	return &ReviewOutput{Body: *review}, nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *ReviewIDPathInput) (*MessageOutput, error) {
	caller, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Review.DeleteReview(ctx, caller, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Review deleted"}}, nil
}

// parseUpdateReviewBody decodes the PATCH body by hand because "rating": null
// (clear the rating) and an absent rating (keep it) must stay distinguishable.
func parseUpdateReviewBody(raw []byte) (service.UpdateReviewRequest, error) {
	var fields struct {
		Rating  jsontext.Value `json:"rating"`
		Comment *string        `json:"comment"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return service.UpdateReviewRequest{}, huma.Error400BadRequest("Invalid request body")
	}

	req := service.UpdateReviewRequest{Comment: fields.Comment}
	if len(fields.Rating) > 0 {
		req.RatingSet = true
		if string(fields.Rating) != "null" {
			var rating float64
			if err := json.Unmarshal(fields.Rating, &rating); err != nil {
				return service.UpdateReviewRequest{}, huma.Error422UnprocessableEntity("rating must be a number or null")
			}
			req.Rating = &rating
		}
	}
	return req, nil
}

func (s *Server) handleListMyReviews(ctx context.Context, input *MyReviewsInput) (*ReviewListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	reviews, err := s.services.Review.ListUserReviews(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	out := &ReviewListOutput{}
	out.Body.Reviews = reviews
	out.Body.Count = len(reviews)
	return out, nil
}

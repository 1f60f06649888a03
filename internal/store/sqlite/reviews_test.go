package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

func testReview(t *testing.T, userID, bookID string, rating *float64, comment string) *domain.Review {
	t.Helper()

	r := &domain.Review{
		UserID:  userID,
		BookID:  bookID,
		Rating:  rating,
		Comment: comment,
	}
	r.ID = id.MustGenerate("review")
	r.InitTimestamps()
	return r
}

func ratingPtr(v float64) *float64 { return &v }

func TestCreateAndGetReview(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := testReview(t, "user-1", "book-1", ratingPtr(4.5), "Loved the ending.")
	require.NoError(t, s.CreateReview(ctx, r))

	got, err := s.GetReview(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "book-1", got.BookID)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4.5, *got.Rating)
	assert.Equal(t, "Loved the ending.", got.Comment)
}

func TestCreateReview_OnePerUserPerBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateReview(ctx, testReview(t, "user-1", "book-1", ratingPtr(3), "")))

	err := s.CreateReview(ctx, testReview(t, "user-1", "book-1", ratingPtr(5), "again"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	// A different book is fine.
	require.NoError(t, s.CreateReview(ctx, testReview(t, "user-1", "book-2", nil, "no rating")))
}

func TestGetReviewByUserAndBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := testReview(t, "user-1", "book-1", ratingPtr(2), "")
	require.NoError(t, s.CreateReview(ctx, r))

	got, err := s.GetReviewByUserAndBook(ctx, "user-1", "book-1")
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	_, err = s.GetReviewByUserAndBook(ctx, "user-2", "book-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateReview(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := testReview(t, "user-1", "book-1", ratingPtr(3), "fine")
	require.NoError(t, s.CreateReview(ctx, r))

	r.Rating = ratingPtr(5)
	r.Comment = "grew on me"
	r.Touch()
	require.NoError(t, s.UpdateReview(ctx, r))

	got, err := s.GetReview(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, *got.Rating)
	assert.Equal(t, "grew on me", got.Comment)
}

func TestDeleteReview(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := testReview(t, "user-1", "book-1", nil, "x")
	require.NoError(t, s.CreateReview(ctx, r))
	require.NoError(t, s.DeleteReview(ctx, r.ID))

	_, err := s.GetReview(ctx, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.DeleteReview(ctx, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListReviews(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateReview(ctx, testReview(t, "user-1", "book-1", ratingPtr(4), "")))
	require.NoError(t, s.CreateReview(ctx, testReview(t, "user-2", "book-1", ratingPtr(2), "")))
	require.NoError(t, s.CreateReview(ctx, testReview(t, "user-1", "book-2", ratingPtr(5), "")))

	byBook, err := s.ListReviewsByBook(ctx, "book-1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, byBook, 2)

	byUser, err := s.ListReviewsByUser(ctx, "user-1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)
}

func TestGetReviewSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateReview(ctx, testReview(t, "user-1", "book-1", ratingPtr(4), "")))
	require.NoError(t, s.CreateReview(ctx, testReview(t, "user-2", "book-1", ratingPtr(2), "")))
	// Comment-only review counts but does not move the average.
	require.NoError(t, s.CreateReview(ctx, testReview(t, "user-3", "book-1", nil, "no stars")))

	summary, err := s.GetReviewSummary(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.ReviewCount)
	require.NotNil(t, summary.AverageRating)
	assert.InDelta(t, 3.0, *summary.AverageRating, 1e-9)
}

func TestGetReviewSummary_NoReviews(t *testing.T) {
	s := newTestStore(t)

	summary, err := s.GetReviewSummary(context.Background(), "book-empty")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ReviewCount)
	assert.Nil(t, summary.AverageRating)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/clock"
	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
)

func TestFollowUnfollow(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	alice := registerUser(t, env, "alice@example.com", "Alice")
	bob := registerUser(t, env, "bob@example.com", "Bob")

	require.NoError(t, env.social.Follow(ctx, alice.ID, bob.ID))

	following, err := env.social.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	// Follows are directed.
	reverse, err := env.social.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, reverse)

	// Re-follow is a no-op.
	require.NoError(t, env.social.Follow(ctx, alice.ID, bob.ID))

	require.NoError(t, env.social.Unfollow(ctx, alice.ID, bob.ID))
	following, err = env.social.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	// Unfollow of a missing edge is also a no-op.
	require.NoError(t, env.social.Unfollow(ctx, alice.ID, bob.ID))
}

func TestFollow_Self(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	alice := registerUser(t, env, "alice@example.com", "Alice")

	err := env.social.Follow(ctx, alice.ID, alice.ID)
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeValidation, derr.Code)
}

func TestFollow_UnknownUser(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	alice := registerUser(t, env, "alice@example.com", "Alice")

	err := env.social.Follow(ctx, alice.ID, "user_missing")
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeNotFound, derr.Code)
}

func TestListFollowingAndFollowers(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	alice := registerUser(t, env, "alice@example.com", "Alice")
	bob := registerUser(t, env, "bob@example.com", "Bob")
	carol := registerUser(t, env, "carol@example.com", "Carol")

	require.NoError(t, env.social.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, env.social.Follow(ctx, alice.ID, carol.ID))
	require.NoError(t, env.social.Follow(ctx, bob.ID, carol.ID))

	following, err := env.social.ListFollowing(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, following, 2)

	followers, err := env.social.ListFollowers(ctx, carol.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	for _, u := range followers {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestGetActivityFeed(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	alice := registerUser(t, env, "alice@example.com", "Alice")
	bob := registerUser(t, env, "bob@example.com", "Bob")
	carol := registerUser(t, env, "carol@example.com", "Carol")
	book := createBook(t, env, bob.ID, "Neuromancer", "William Gibson")

	require.NoError(t, env.social.Follow(ctx, alice.ID, bob.ID))

	// Bob finishes a session and posts a review; Carol is not followed.
	logSession(t, env, bob.ID, book.ID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), 30)
	rating := 4.5
	_, err := env.review.CreateReview(ctx, bob.ID, book.ID, CreateReviewRequest{
		Rating:  &rating,
		Comment: "The sky above the port.",
	})
	require.NoError(t, err)
	logSession(t, env, carol.ID, book.ID, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), 30)

	feed, err := env.social.GetActivityFeed(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 2)

	kinds := map[domain.ActivityKind]bool{}
	for _, a := range feed {
		kinds[a.Kind] = true
		assert.Equal(t, bob.ID, a.UserID)
		assert.Equal(t, "Bob", a.UserName)
		assert.Equal(t, book.ID, a.BookID)
		assert.Equal(t, "Neuromancer", a.BookTitle)
	}
	assert.True(t, kinds[domain.ActivityFinishedSession])
	assert.True(t, kinds[domain.ActivityReviewed])
}

package store

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSession(id, userID, tokenHash string) *domain.LoginSession {
	return &domain.LoginSession{
		ID:               id,
		UserID:           userID,
		RefreshTokenHash: tokenHash,
		ExpiresAt:        time.Now().Add(24 * time.Hour),
		CreatedAt:        time.Now(),
		LastSeenAt:       time.Now(),
		ClientName:       "Shelfmark Web",
		ClientVersion:    "1.0.0",
	}
}

func TestCreateSession(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	session := testSession("sess-test123", "user-test123", "hashed_token")

	err := s.CreateSession(ctx, session)
	require.NoError(t, err)

	// Verify session can be retrieved
	retrieved, err := s.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)
	assert.Equal(t, session.UserID, retrieved.UserID)
	assert.Equal(t, session.RefreshTokenHash, retrieved.RefreshTokenHash)
	assert.Equal(t, session.ClientName, retrieved.ClientName)
}

func TestCreateSession_DuplicateID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.CreateSession(ctx, testSession("sess-test123", "user-test123", "hashed_token"))
	require.NoError(t, err)

	// Second creation with same ID fails
	err = s.CreateSession(ctx, testSession("sess-test123", "user-test123", "different_token"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestGetSession_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetSession(context.Background(), "sess-nonexistent")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetSession_Expired(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	session := testSession("sess-test123", "user-test123", "hashed_token")
	session.ExpiresAt = time.Now().Add(-1 * time.Hour) // Expired 1 hour ago

	require.NoError(t, s.CreateSession(ctx, session))

	_, err := s.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestGetSessionByRefreshToken(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	session := testSession("sess-test123", "user-test123", "hashed_token")
	require.NoError(t, s.CreateSession(ctx, session))

	retrieved, err := s.GetSessionByRefreshToken(ctx, "hashed_token")
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)

	_, err = s.GetSessionByRefreshToken(ctx, "unknown_token")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdateSession_TokenRotation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	session := testSession("sess-test123", "user-test123", "old_token")
	require.NoError(t, s.CreateSession(ctx, session))

	session.RefreshTokenHash = "new_token"
	require.NoError(t, s.UpdateSession(ctx, session))

	// New token resolves, old token does not.
	retrieved, err := s.GetSessionByRefreshToken(ctx, "new_token")
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)

	_, err = s.GetSessionByRefreshToken(ctx, "old_token")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSession(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	session := testSession("sess-test123", "user-test123", "hashed_token")
	require.NoError(t, s.CreateSession(ctx, session))

	require.NoError(t, s.DeleteSession(ctx, session.ID))

	_, err := s.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Token index cleaned up too.
	_, err = s.GetSessionByRefreshToken(ctx, "hashed_token")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Deleting again is a no-op.
	assert.NoError(t, s.DeleteSession(ctx, session.ID))
}

func TestListUserSessions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("sess-1", "user-a", "token1")))
	require.NoError(t, s.CreateSession(ctx, testSession("sess-2", "user-a", "token2")))
	require.NoError(t, s.CreateSession(ctx, testSession("sess-3", "user-b", "token3")))

	sessions, err := s.ListUserSessions(ctx, "user-a")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	sessions, err = s.ListUserSessions(ctx, "user-b")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	sessions, err = s.ListUserSessions(ctx, "user-c")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestDeleteAllUserSessions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("sess-1", "user-a", "token1")))
	require.NoError(t, s.CreateSession(ctx, testSession("sess-2", "user-a", "token2")))
	require.NoError(t, s.CreateSession(ctx, testSession("sess-3", "user-b", "token3")))

	require.NoError(t, s.DeleteAllUserSessions(ctx, "user-a"))

	sessions, err := s.ListUserSessions(ctx, "user-a")
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// Other user's sessions untouched.
	sessions, err = s.ListUserSessions(ctx, "user-b")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	fresh := testSession("sess-fresh", "user-a", "token1")
	stale := testSession("sess-stale", "user-a", "token2")
	stale.ExpiresAt = time.Now().Add(-time.Minute)

	require.NoError(t, s.CreateSession(ctx, fresh))
	require.NoError(t, s.CreateSession(ctx, stale))

	n, err := s.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetSession(ctx, "sess-fresh")
	assert.NoError(t, err)
}

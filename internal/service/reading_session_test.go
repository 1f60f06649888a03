package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/clock"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
)

func TestStartSession(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	env := setupEnv(t, clock.Fixed{T: now})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")
	book := createBook(t, env, user.ID, "Neuromancer", "William Gibson")

	session, err := env.reading.StartSession(ctx, user.ID, StartSessionRequest{
		BookID: book.ID,
	})
	require.NoError(t, err)
	assert.True(t, session.IsOpen())
	assert.True(t, session.StartTime.Equal(now))
	assert.Nil(t, session.DurationMin)
}

func TestStartSession_BookNotFound(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")

	_, err := env.reading.StartSession(ctx, user.ID, StartSessionRequest{
		BookID: "book_missing",
	})
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeNotFound, derr.Code)
}

func TestStartSession_LogsClosedSession(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")
	book := createBook(t, env, user.ID, "Neuromancer", "William Gibson")

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)

	session, err := env.reading.StartSession(ctx, user.ID, StartSessionRequest{
		BookID:    book.ID,
		StartTime: &start,
		EndTime:   &end,
	})
	require.NoError(t, err)
	assert.False(t, session.IsOpen())
	require.NotNil(t, session.DurationMin)
	assert.Equal(t, int64(45), *session.DurationMin)

	// Logging a finished session counts toward the streak.
	stored, err := env.db.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastActiveDate)
	assert.Equal(t, "2026-03-10", stored.LastActiveDate.String())
}

func TestStartSession_EndBeforeStart(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")
	book := createBook(t, env, user.ID, "Neuromancer", "William Gibson")

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(-time.Minute)

	_, err := env.reading.StartSession(ctx, user.ID, StartSessionRequest{
		BookID:    book.ID,
		StartTime: &start,
		EndTime:   &end,
	})
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeInvalidRange, derr.Code)
}

func TestEndSession(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	env := setupEnv(t, clock.Fixed{T: start})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")
	book := createBook(t, env, user.ID, "Neuromancer", "William Gibson")

	session, err := env.reading.StartSession(ctx, user.ID, StartSessionRequest{BookID: book.ID})
	require.NoError(t, err)

	end := start.Add(30 * time.Minute)
	closed, err := env.reading.EndSession(ctx, user.ID, session.ID, &end)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen())
	require.NotNil(t, closed.DurationMin)
	assert.Equal(t, int64(30), *closed.DurationMin)

	stored, err := env.reading.GetSession(ctx, user.ID, session.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsOpen())
}

func TestEndSession_AlreadyEnded(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	env := setupEnv(t, clock.Fixed{T: start})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")
	book := createBook(t, env, user.ID, "Neuromancer", "William Gibson")

	session, err := env.reading.StartSession(ctx, user.ID, StartSessionRequest{BookID: book.ID})
	require.NoError(t, err)

	end := start.Add(30 * time.Minute)
	_, err = env.reading.EndSession(ctx, user.ID, session.ID, &end)
	require.NoError(t, err)

	later := start.Add(2 * time.Hour)
	_, err = env.reading.EndSession(ctx, user.ID, session.ID, &later)
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeConflict, derr.Code)

	// The first close sticks.
	stored, err := env.reading.GetSession(ctx, user.ID, session.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DurationMin)
	assert.Equal(t, int64(30), *stored.DurationMin)
}

func TestEndSession_OtherUsersSessionLooksMissing(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	alice := registerUser(t, env, "alice@example.com", "Alice")
	bob := registerUser(t, env, "bob@example.com", "Bob")
	book := createBook(t, env, alice.ID, "Neuromancer", "William Gibson")

	session, err := env.reading.StartSession(ctx, alice.ID, StartSessionRequest{BookID: book.ID})
	require.NoError(t, err)

	_, err = env.reading.EndSession(ctx, bob.ID, session.ID, nil)
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeNotFound, derr.Code)
}

func TestEndSession_EndBeforeStart(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	env := setupEnv(t, clock.Fixed{T: start})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")
	book := createBook(t, env, user.ID, "Neuromancer", "William Gibson")

	session, err := env.reading.StartSession(ctx, user.ID, StartSessionRequest{BookID: book.ID})
	require.NoError(t, err)

	end := start.Add(-time.Minute)
	_, err = env.reading.EndSession(ctx, user.ID, session.ID, &end)
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeInvalidRange, derr.Code)
}

func TestGetOpenSession(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")
	book := createBook(t, env, user.ID, "Neuromancer", "William Gibson")

	open, err := env.reading.GetOpenSession(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.Nil(t, open)

	session, err := env.reading.StartSession(ctx, user.ID, StartSessionRequest{BookID: book.ID})
	require.NoError(t, err)

	open, err = env.reading.GetOpenSession(ctx, user.ID, book.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, session.ID, open.ID)
}

func TestListUserSessions(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")
	book := createBook(t, env, user.ID, "Neuromancer", "William Gibson")

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		end := start.Add(30 * time.Minute)
		_, err := env.reading.StartSession(ctx, user.ID, StartSessionRequest{
			BookID:    book.ID,
			StartTime: &start,
			EndTime:   &end,
		})
		require.NoError(t, err)
	}

	sessions, err := env.reading.ListUserSessions(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	// Most recent start first.
	assert.True(t, sessions[0].StartTime.After(sessions[1].StartTime))
}

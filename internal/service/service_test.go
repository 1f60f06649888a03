package service

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/auth"
	"github.com/shelfmarkapp/shelfmark-server/internal/clock"
	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/media/images"
	"github.com/shelfmarkapp/shelfmark-server/internal/search"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

// testEnv wires the full service graph against temporary storage.
type testEnv struct {
	db       *sqlite.Store
	sessions *store.Store
	index    *search.SearchIndex

	auth    *AuthService
	session *SessionService
	user    *UserService
	book    *BookService
	mark    *MarkService
	review  *ReviewService
	reading *ReadingSessionService
	stats   *StatsService
	social  *SocialService
}

// setupEnv builds the service graph on temp storage with the given clock.
func setupEnv(t *testing.T, clk clock.Clock) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.Open(filepath.Join(tmpDir, "shelfmark.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sessions, err := store.New(filepath.Join(tmpDir, "sessions"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sessions.Close() })

	index, err := search.NewSearchIndex(search.Options{
		DataPath: tmpDir,
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	key, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(hex.EncodeToString(key), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	storage, err := images.NewStorage(tmpDir)
	require.NoError(t, err)
	covers := images.NewProcessor(storage, 5<<20, logger)

	env := &testEnv{db: db, sessions: sessions, index: index}
	env.session = NewSessionService(sessions, db, tokenService, clk, logger)
	env.user = NewUserService(db, env.session, clk, logger)
	env.auth = NewAuthService(db, tokenService, env.session, env.user, clk, logger)
	env.book = NewBookService(db, index, covers, logger)
	env.mark = NewMarkService(db, clk, logger)
	env.review = NewReviewService(db, logger)
	env.reading = NewReadingSessionService(db, env.user, clk, logger)
	env.stats = NewStatsService(db, clk, logger)
	env.social = NewSocialService(db, clk, logger)
	return env
}

// registerUser creates an account through the auth flow and returns the
// stored user.
func registerUser(t *testing.T, env *testEnv, email, name string) *domain.User {
	t.Helper()

	resp, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: "correct horse battery",
		Name:     name,
	})
	require.NoError(t, err)
	return resp.User
}

// createBook adds a catalog book owned by the given user.
func createBook(t *testing.T, env *testEnv, ownerID, title, author string) *domain.Book {
	t.Helper()

	book, err := env.book.CreateBook(context.Background(), ownerID, CreateBookRequest{
		Title:      title,
		AuthorName: author,
	})
	require.NoError(t, err)
	return book
}

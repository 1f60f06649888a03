package api

import (
	"encoding/hex"
	"github.com/go-json-experiment/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/auth"
	"github.com/shelfmarkapp/shelfmark-server/internal/clock"
	"github.com/shelfmarkapp/shelfmark-server/internal/config"
	"github.com/shelfmarkapp/shelfmark-server/internal/media/images"
	"github.com/shelfmarkapp/shelfmark-server/internal/search"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

// testEnvelope mirrors the response envelope for assertions.
type testEnvelope[T any] struct {
	V       int        `json:"v"`
	Success bool       `json:"success"`
	Data    T          `json:"data"`
	Error   *testError `json:"error"`
}

// testError mirrors the error payload inside failed envelopes.
type testError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer builds the whole stack on temporary storage.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.System{}

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

	sessionService := service.NewSessionService(sessions, db, tokenService, clk, logger)
	userService := service.NewUserService(db, sessionService, clk, logger)
	authService := service.NewAuthService(db, tokenService, sessionService, userService, clk, logger)
	bookService := service.NewBookService(db, index, covers, logger)

	services := &Services{
		Auth:           authService,
		Session:        sessionService,
		User:           userService,
		Book:           bookService,
		Mark:           service.NewMarkService(db, clk, logger),
		Review:         service.NewReviewService(db, logger),
		ReadingSession: service.NewReadingSessionService(db, userService, clk, logger),
		Stats:          service.NewStatsService(db, clk, logger),
		Social:         service.NewSocialService(db, clk, logger),
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Name: "Shelfmark Test"},
	}

	s := NewServer(cfg, db, services, storage, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

// registerTestUser registers an account through the API and returns the
// access token plus the created user. The first registered account on a
// fresh server is the admin.
func (ts *testServer) registerTestUser(t *testing.T, email, name string) (string, UserResponse) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    email,
		"password": "correct horse battery",
		"name":     name,
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)

	return envelope.Data.AccessToken, envelope.Data.User
}

// createTestBook adds a catalog book through the API.
func (ts *testServer) createTestBook(t *testing.T, token, title, author string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/books", "Authorization: Bearer "+token, map[string]any{
		"title":       title,
		"author_name": author,
	})
	require.Equal(t, http.StatusOK, resp.Code, "create book failed: %s", resp.Body.String())

	var envelope testEnvelope[struct {
		ID string `json:"id"`
	}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data.ID
}

// decodeEnvelope parses a response body into a typed envelope.
func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()

	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

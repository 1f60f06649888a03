package sqlite

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
)

// newTestStore opens a store against a throwaway database file.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func testUser(t *testing.T, email string) *domain.User {
	t.Helper()

	now := time.Now().UTC()
	u := &domain.User{
		Email:       email,
		Name:        "Test Reader",
		IsAdmin:     false,
		LastLoginAt: now,
	}
	u.ID = id.MustGenerate("user")
	u.CreatedAt = now
	u.UpdatedAt = now
	return u
}

func testBook(t *testing.T, title, author string) *domain.Book {
	t.Helper()

	now := time.Now().UTC()
	b := &domain.Book{
		Title:      title,
		AuthorName: author,
	}
	b.ID = id.MustGenerate("book")
	b.CreatedAt = now
	b.UpdatedAt = now
	return b
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", 0, 0, 20, 0},
		{"negative limit", -5, 0, 20, 0},
		{"capped", 500, 0, 100, 0},
		{"negative offset", 10, -3, 10, 0},
		{"passthrough", 50, 40, 50, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := clampPage(tt.limit, tt.offset)
			require.Equal(t, tt.wantLimit, limit)
			require.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestTimeRoundTrip(t *testing.T) {
	now := time.Now().UTC()
	parsed, err := parseTime(formatTime(now))
	require.NoError(t, err)
	require.True(t, now.Equal(parsed))
}

package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
)

func TestReadingStats_WeekWindow(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com", "Alice")
	bookID := ts.createTestBook(t, token, "Dune", "Frank Herbert")

	// Two closed sessions today, well inside every window.
	start := time.Now().UTC().Add(-3 * time.Hour)
	for i := 0; i < 2; i++ {
		resp := ts.api.Post("/api/v1/books/"+bookID+"/reading-sessions",
			"Authorization: Bearer "+token, map[string]any{
				"start_time": start.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
				"end_time":   start.Add(time.Duration(i)*time.Hour + 30*time.Minute).Format(time.RFC3339),
			})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	resp := ts.api.Get("/api/v1/users/me/reading-stats?period=week", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[domain.ReadingStats](t, resp.Body.Bytes())
	assert.Equal(t, domain.StatsPeriodWeek, envelope.Data.Period)
	assert.Equal(t, 2, envelope.Data.TotalSessions)
	assert.Equal(t, int64(60), envelope.Data.TotalMinutes)
	assert.Len(t, envelope.Data.DailyBreakdown, 7, "breakdown is dense")
}

func TestReadingStats_DefaultsToWeek(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com", "Alice")

	resp := ts.api.Get("/api/v1/users/me/reading-stats", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[domain.ReadingStats](t, resp.Body.Bytes())
	assert.Equal(t, domain.StatsPeriodWeek, envelope.Data.Period)
}

func TestReadingStats_UnknownPeriod(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com", "Alice")

	resp := ts.api.Get("/api/v1/users/me/reading-stats?period=fortnight", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code, "schema rejects unknown periods")
}

func TestBookStats(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com", "Alice")
	bookID := ts.createTestBook(t, token, "Dune", "Frank Herbert")

	start := time.Now().UTC().Add(-2 * time.Hour)
	resp := ts.api.Post("/api/v1/books/"+bookID+"/reading-sessions",
		"Authorization: Bearer "+token, map[string]any{
			"start_time": start.Format(time.RFC3339),
			"end_time":   start.Add(50 * time.Minute).Format(time.RFC3339),
		})
	require.Equal(t, http.StatusOK, resp.Code)

	statsResp := ts.api.Get("/api/v1/books/" + bookID + "/stats")
	require.Equal(t, http.StatusOK, statsResp.Code)

	envelope := decodeEnvelope[domain.BookStats](t, statsResp.Body.Bytes())
	assert.Equal(t, bookID, envelope.Data.BookID)
	assert.Equal(t, 1, envelope.Data.TotalSessions)
	assert.Equal(t, int64(50), envelope.Data.TotalMinutes)
}

func TestBookStats_UnknownBook(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/books/book_missing/stats")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

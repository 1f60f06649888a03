package api

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/search"
)

func TestCreateAndGetBook(t *testing.T) {
	ts := setupTestServer(t)
	token, user := ts.registerTestUser(t, "alice@example.com", "Alice")

	resp := ts.api.Post("/api/v1/books", "Authorization: Bearer "+token, map[string]any{
		"title":        "Neuromancer",
		"author_name":  "William Gibson",
		"publish_date": "1984-07-01",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	created := decodeEnvelope[domain.Book](t, resp.Body.Bytes())
	assert.Equal(t, "Neuromancer", created.Data.Title)
	assert.Equal(t, user.ID, created.Data.OwnerID)
	assert.False(t, created.Data.IsVerified)

	getResp := ts.api.Get("/api/v1/books/" + created.Data.ID)
	require.Equal(t, http.StatusOK, getResp.Code)

	fetched := decodeEnvelope[domain.Book](t, getResp.Body.Bytes())
	assert.Equal(t, created.Data.ID, fetched.Data.ID)
}

func TestCreateBook_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/books", map[string]any{"title": "Dune"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestGetBook_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/books/book_missing")
	require.Equal(t, http.StatusNotFound, resp.Code)

	envelope := decodeEnvelope[struct{}](t, resp.Body.Bytes())
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestUpdateBook_OwnerOnly(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "admin@example.com", "Admin")
	aliceToken, _ := ts.registerTestUser(t, "alice@example.com", "Alice")
	bobToken, _ := ts.registerTestUser(t, "bob@example.com", "Bob")

	bookID := ts.createTestBook(t, aliceToken, "Dune", "Frank Herbert")

	resp := ts.api.Patch("/api/v1/books/"+bookID, "Authorization: Bearer "+bobToken, map[string]any{
		"title": "Dune Messiah",
	})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Patch("/api/v1/books/"+bookID, "Authorization: Bearer "+aliceToken, map[string]any{
		"title": "Dune Messiah",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := decodeEnvelope[domain.Book](t, resp.Body.Bytes())
	assert.Equal(t, "Dune Messiah", updated.Data.Title)
}

func TestDeleteBook(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com", "Alice")

	bookID := ts.createTestBook(t, token, "Dune", "Frank Herbert")

	resp := ts.api.Delete("/api/v1/books/"+bookID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	getResp := ts.api.Get("/api/v1/books/" + bookID)
	assert.Equal(t, http.StatusNotFound, getResp.Code)
}

func TestListBooks_TitleFilter(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com", "Alice")

	ts.createTestBook(t, token, "Dune", "Frank Herbert")
	ts.createTestBook(t, token, "Neuromancer", "William Gibson")

	resp := ts.api.Get("/api/v1/books?title=dune")
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[struct {
		Books []domain.Book `json:"books"`
		Count int           `json:"count"`
	}](t, resp.Body.Bytes())
	require.Equal(t, 1, envelope.Data.Count)
	assert.Equal(t, "Dune", envelope.Data.Books[0].Title)
}

func TestSearchBooks(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com", "Alice")

	ts.createTestBook(t, token, "The Left Hand of Darkness", "Ursula K. Le Guin")
	ts.createTestBook(t, token, "Dune", "Frank Herbert")

	resp := ts.api.Get("/api/v1/search?q=darkness")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[search.SearchResult](t, resp.Body.Bytes())
	require.Equal(t, uint64(1), envelope.Data.Total)
	assert.Equal(t, "The Left Hand of Darkness", envelope.Data.Hits[0].Title)
}

func TestVerifyBook_AdminOnly(t *testing.T) {
	ts := setupTestServer(t)
	adminToken, _ := ts.registerTestUser(t, "admin@example.com", "Admin")
	aliceToken, _ := ts.registerTestUser(t, "alice@example.com", "Alice")

	bookID := ts.createTestBook(t, aliceToken, "Dune", "Frank Herbert")

	resp := ts.api.Post("/api/v1/admin/books/"+bookID+"/verify",
		"Authorization: Bearer "+aliceToken,
		map[string]any{"verified": true})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Post("/api/v1/admin/books/"+bookID+"/verify",
		"Authorization: Bearer "+adminToken,
		map[string]any{"verified": true})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	verified := decodeEnvelope[domain.Book](t, resp.Body.Bytes())
	assert.True(t, verified.Data.IsVerified)
}

func TestCatalogStats(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com", "Alice")

	ts.createTestBook(t, token, "Dune", "Frank Herbert")
	ts.createTestBook(t, token, "Neuromancer", "William Gibson")

	resp := ts.api.Get("/api/v1/books/stats")
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[domain.CatalogStats](t, resp.Body.Bytes())
	assert.Equal(t, 2, envelope.Data.TotalBooks)
	assert.Equal(t, 0, envelope.Data.VerifiedBooks)
}

func TestUploadAndServeCover(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com", "Alice")

	bookID := ts.createTestBook(t, token, "Neuromancer", "William Gibson")

	resp := ts.api.Post("/api/v1/books/"+bookID+"/cover",
		"Authorization: Bearer "+token,
		"Content-Type: image/png",
		bytes.NewReader(coverPNG(t)))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	uploaded := decodeEnvelope[domain.Book](t, resp.Body.Bytes())
	require.NotEmpty(t, uploaded.Data.CoverPath)
	assert.NotEmpty(t, uploaded.Data.CoverBlurHash)

	serveResp := ts.api.Get("/covers/" + uploaded.Data.CoverPath)
	require.Equal(t, http.StatusOK, serveResp.Code)
	assert.Equal(t, CacheOneWeek, serveResp.Header().Get("Cache-Control"))
	assert.NotZero(t, serveResp.Body.Len())
}

func TestUploadCover_RejectsNonImage(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com", "Alice")

	bookID := ts.createTestBook(t, token, "Neuromancer", "William Gibson")

	resp := ts.api.Post("/api/v1/books/"+bookID+"/cover",
		"Authorization: Bearer "+token,
		"Content-Type: image/png",
		bytes.NewReader([]byte("definitely not an image")))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestServeCover_UnknownFile(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/covers/nope.jpg")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

// coverPNG renders a small gradient so the blurhash has something to chew on.
func coverPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 5), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

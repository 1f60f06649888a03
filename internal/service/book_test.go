package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/clock"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/search"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

func TestCreateBook(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")

	book, err := env.book.CreateBook(ctx, user.ID, CreateBookRequest{
		Title:       "Neuromancer",
		AuthorName:  "William Gibson",
		PublishDate: "1984-07-01",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, book.OwnerID)
	assert.False(t, book.IsVerified)
	require.NotNil(t, book.PublishDate)
	assert.Equal(t, "1984-07-01", book.PublishDate.String())

	stored, err := env.book.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Neuromancer", stored.Title)
}

func TestCreateBook_BadPublishDate(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")

	_, err := env.book.CreateBook(ctx, user.ID, CreateBookRequest{
		Title:       "Neuromancer",
		PublishDate: "July 1984",
	})
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeValidation, derr.Code)
}

func TestUpdateBook_OwnerOnly(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	// Registration order matters: the first account is the admin.
	admin := registerUser(t, env, "admin@example.com", "Admin")
	alice := registerUser(t, env, "alice@example.com", "Alice")
	bob := registerUser(t, env, "bob@example.com", "Bob")
	book := createBook(t, env, alice.ID, "Neuromancer", "William Gibson")

	title := "Neuromancer (2nd ed.)"

	_, err := env.book.UpdateBook(ctx, bob, book.ID, UpdateBookRequest{Title: &title})
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeForbidden, derr.Code)

	updated, err := env.book.UpdateBook(ctx, alice, book.ID, UpdateBookRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	// Admins can edit anyone's books.
	author := "W. Gibson"
	_, err = env.book.UpdateBook(ctx, admin, book.ID, UpdateBookRequest{AuthorName: &author})
	require.NoError(t, err)
}

func TestDeleteBook(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	alice := registerUser(t, env, "alice@example.com", "Alice")
	bob := registerUser(t, env, "bob@example.com", "Bob")
	book := createBook(t, env, alice.ID, "Neuromancer", "William Gibson")

	err := env.book.DeleteBook(ctx, bob, book.ID)
	require.Error(t, err)

	require.NoError(t, env.book.DeleteBook(ctx, alice, book.ID))

	_, err = env.book.GetBook(ctx, book.ID)
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeNotFound, derr.Code)
}

func TestSearchBooks(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")
	createBook(t, env, user.ID, "Neuromancer", "William Gibson")
	createBook(t, env, user.ID, "Snow Crash", "Neal Stephenson")

	params := search.DefaultSearchParams()
	params.Query = "neuromancer"
	result, err := env.book.SearchBooks(ctx, params)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "Neuromancer", result.Hits[0].Title)
}

func TestSearchBooks_DeletedBookDisappears(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")
	book := createBook(t, env, user.ID, "Neuromancer", "William Gibson")

	require.NoError(t, env.book.DeleteBook(ctx, user, book.ID))

	params := search.DefaultSearchParams()
	params.Query = "neuromancer"
	result, err := env.book.SearchBooks(ctx, params)
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}

func TestVerifyBook_AdminOnly(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	admin := registerUser(t, env, "admin@example.com", "Admin")
	alice := registerUser(t, env, "alice@example.com", "Alice")
	book := createBook(t, env, alice.ID, "Neuromancer", "William Gibson")

	_, err := env.book.VerifyBook(ctx, alice, book.ID, true)
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeForbidden, derr.Code)

	verified, err := env.book.VerifyBook(ctx, admin, book.ID, true)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	// Verified-only search now finds it.
	params := search.DefaultSearchParams()
	params.Query = "neuromancer"
	params.VerifiedOnly = true
	result, err := env.book.SearchBooks(ctx, params)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
}

func TestUploadCover(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")
	book := createBook(t, env, user.ID, "Neuromancer", "William Gibson")

	updated, err := env.book.UploadCover(ctx, user, book.ID, testPNG(t))
	require.NoError(t, err)
	assert.True(t, updated.HasCover())
	assert.True(t, strings.HasPrefix(updated.CoverPath, "neuromancer-"))
	assert.NotEmpty(t, updated.CoverBlurHash)
}

func TestUploadCover_RejectsNonImage(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")
	book := createBook(t, env, user.ID, "Neuromancer", "William Gibson")

	_, err := env.book.UploadCover(ctx, user, book.ID, []byte("not an image"))
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeValidation, derr.Code)
}

func TestListBooks_Filters(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	admin := registerUser(t, env, "admin@example.com", "Admin")
	alice := registerUser(t, env, "alice@example.com", "Alice")
	b1 := createBook(t, env, alice.ID, "Neuromancer", "William Gibson")
	createBook(t, env, alice.ID, "Count Zero", "William Gibson")
	createBook(t, env, admin.ID, "Snow Crash", "Neal Stephenson")

	byAuthor, err := env.book.ListBooks(ctx, sqlite.BookFilter{Author: "gibson"}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)

	byOwner, err := env.book.ListBooks(ctx, sqlite.BookFilter{OwnerID: admin.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	assert.Equal(t, "Snow Crash", byOwner[0].Title)

	_, err = env.book.VerifyBook(ctx, admin, b1.ID, true)
	require.NoError(t, err)

	onlyVerified, err := env.book.ListBooks(ctx, sqlite.BookFilter{VerifiedOnly: true}, 10, 0)
	require.NoError(t, err)
	require.Len(t, onlyVerified, 1)
	assert.Equal(t, b1.ID, onlyVerified[0].ID)
}

func TestCatalogStats(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	admin := registerUser(t, env, "admin@example.com", "Admin")
	b1 := createBook(t, env, admin.ID, "Neuromancer", "William Gibson")
	createBook(t, env, admin.ID, "Count Zero", "William Gibson")

	_, err := env.book.VerifyBook(ctx, admin, b1.ID, true)
	require.NoError(t, err)
	_, err = env.book.UploadCover(ctx, admin, b1.ID, testPNG(t))
	require.NoError(t, err)

	stats, err := env.book.CatalogStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalBooks)
	assert.Equal(t, 1, stats.VerifiedBooks)
	assert.Equal(t, 1, stats.WithCovers)
}

func TestReindexAll(t *testing.T) {
	env := setupEnv(t, clock.System{})
	ctx := context.Background()

	user := registerUser(t, env, "alice@example.com", "Alice")
	createBook(t, env, user.ID, "Neuromancer", "William Gibson")
	createBook(t, env, user.ID, "Snow Crash", "Neal Stephenson")

	require.NoError(t, env.index.Rebuild())
	require.NoError(t, env.book.ReindexAll(ctx))

	count, err := env.index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

// testPNG encodes a small gradient image.
func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 5), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

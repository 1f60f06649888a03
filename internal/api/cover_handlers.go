package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/shelfmarkapp/shelfmark-server/internal/http/response"
)

func (s *Server) registerCoverRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "upload-cover",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/cover",
		Summary:     "Upload cover",
		Description: "Uploads a cover image for a book. Accepts JPEG, PNG, GIF, and WebP. Replaces any existing cover. Only the owner or the admin may upload.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUploadCover)

	// Served outside huma: image bytes stream straight from disk. The route
	// is unauthenticated, so it gets its own per-IP limiter.
	coverLimiter := NewRateLimiter(300, time.Minute, 60)
	s.router.With(RateLimitMiddleware(coverLimiter, s.logger)).
		Get("/covers/{filename}", s.handleServeCover)
}

// UploadCoverInput carries raw image bytes for a book cover.
type UploadCoverInput struct {
	BookIDPathInput
	RawBody []byte `contentType:"image/jpeg,image/png,image/gif,image/webp" doc:"Cover image data"`
}

func (s *Server) handleUploadCover(ctx context.Context, input *UploadCoverInput) (*BookOutput, error) {
	caller, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.UploadCover(ctx, caller, input.ID, input.RawBody)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: *book}, nil
}

// handleServeCover streams a stored cover image. Filenames include a random
// suffix and change on every re-upload, so aggressive caching is safe.
func (s *Server) handleServeCover(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if !s.covers.Exists(filename) {
		response.NotFound(w, "Cover not found", s.logger)
		return
	}

	w.Header().Set("Cache-Control", CacheOneWeek)
	http.ServeFile(w, r, s.covers.Path(filename))
}

package images

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/shelfmarkapp/shelfmark-server/internal/util"
)

// Processor validates and stores uploaded cover images.
type Processor struct {
	storage  *Storage
	maxBytes int64
	logger   *slog.Logger
}

// NewProcessor creates a new Processor instance.
// maxBytes caps the accepted upload size.
func NewProcessor(storage *Storage, maxBytes int64, logger *slog.Logger) *Processor {
	return &Processor{
		storage:  storage,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Cover is the result of a processed upload.
type Cover struct {
	Filename string // Stored filename relative to the covers directory
	BlurHash string // Placeholder hash for progressive loading
}

// Process validates an uploaded cover, stores it, and computes its BlurHash.
// Accepted formats: JPEG, PNG, GIF, and WebP (the decoders registered by this
// package). The stored filename is derived from the book title plus a random
// suffix, so re-uploads never collide and stale CDN caches never serve the
// old cover.
func (p *Processor) Process(title string, data []byte) (*Cover, error) {
	if int64(len(data)) > p.maxBytes {
		return nil, fmt.Errorf("cover exceeds maximum size of %d bytes", p.maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("cover data cannot be empty")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}

	filename := coverFilename(title, format)

	if err := p.storage.Save(filename, data); err != nil {
		return nil, fmt.Errorf("save cover: %w", err)
	}

	hash, err := blurHashFor(img)
	if err != nil {
		// The cover itself is fine; a missing placeholder is cosmetic.
		p.logger.Warn("failed to compute blurhash", "filename", filename, "error", err)
		hash = ""
	}

	p.logger.Debug("processed cover upload",
		"filename", filename,
		"format", format,
		"size", len(data),
	)

	return &Cover{Filename: filename, BlurHash: hash}, nil
}

// Remove deletes a previously stored cover. Missing files are ignored.
func (p *Processor) Remove(filename string) error {
	if filename == "" {
		return nil
	}
	return p.storage.Delete(filename)
}

// coverFilename builds a stored filename from the book title and image format.
// Format: {slug}-{uuid}.{ext}, e.g. "the-fifth-season-9f3c2b1a.jpg".
func coverFilename(title, format string) string {
	slug := util.Slugify(title)
	if slug == "" {
		slug = "cover"
	}

	suffix := strings.Split(uuid.NewString(), "-")[0]

	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}

	return fmt.Sprintf("%s-%s.%s", slug, suffix, ext)
}

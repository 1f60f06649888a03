// Package images provides cover image processing and storage.
package images

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Storage manages image filesystem operations.
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates a new Storage instance for book covers.
// basePath should be the data directory (e.g., ~/Shelfmark/data).
// Covers will be stored in {basePath}/covers/
// This is a convenience wrapper around NewStorageWithSubdir.
func NewStorage(basePath string) (*Storage, error) {
	return NewStorageWithSubdir(basePath, "covers")
}

// NewStorageWithSubdir creates a new Storage instance with a custom subdirectory.
// Images will be stored in {basePath}/{subdir}/.
// Example: NewStorageWithSubdir("/data", "avatars") -> /data/avatars/.
func NewStorageWithSubdir(basePath, subdir string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if subdir == "" {
		return nil, fmt.Errorf("subdirectory cannot be empty")
	}

	storagePath := filepath.Join(basePath, subdir)

	// Create directory if it doesn't exist.
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
	}

	return &Storage{
		basePath: storagePath,
	}, nil
}

// Save stores image data under the given filename.
// Filenames are generated by the processor (slug plus random suffix), so
// path traversal is rejected rather than sanitized.
func (s *Storage) Save(filename string, imgData []byte) error {
	if err := validateFilename(filename); err != nil {
		return err
	}
	if len(imgData) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(filename)

	// Write file with appropriate permissions.
	if err := os.WriteFile(path, imgData, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	return nil
}

// Get retrieves stored image data.
func (s *Storage) Get(filename string) ([]byte, error) {
	if err := validateFilename(filename); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.Path(filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image not found for %s: %w", filename, err)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	return data, nil
}

// Exists checks if an image file exists.
func (s *Storage) Exists(filename string) bool {
	if validateFilename(filename) != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.Path(filename)
	_, err := os.Stat(path)
	return err == nil
}

// Delete removes an image file. Deleting a missing file is not an error.
func (s *Storage) Delete(filename string) error {
	if err := validateFilename(filename); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(filename)

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			// Already deleted, not an error.
			return nil
		}
		return fmt.Errorf("failed to delete image file: %w", err)
	}

	return nil
}

// Hash computes SHA256 hash of a stored image.
// Returns hex-encoded string for ETag/cache validation.
func (s *Storage) Hash(filename string) (string, error) {
	data, err := s.Get(filename)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// Path returns the full filesystem path for a stored image.
func (s *Storage) Path(filename string) string {
	return filepath.Join(s.basePath, filename)
}

func validateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if strings.Contains(filename, "/") || strings.Contains(filename, "\\") || strings.Contains(filename, "..") {
		return fmt.Errorf("invalid filename: %s", filename)
	}
	return nil
}

// Package media manages uploaded entry images: content-addressed storage in
// a local directory, idempotent deletion, and reference diffing between
// content snapshots.
package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// MaxUploadBytes caps a single uploaded file.
const MaxUploadBytes = 10 << 20 // 10 MB

// URLPrefix is where stored files are served from; Resolve prepends it.
const URLPrefix = "/api/m/"

var allowedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".webp": true, ".svg": true,
}

// ErrUnsupportedType is returned for uploads that are not images.
var ErrUnsupportedType = errors.New("media: unsupported file type")

// Store keeps uploaded files in a flat directory, one file per media id.
type Store struct {
	root   string
	logger *slog.Logger
	newID  func() string
}

// NewStore creates the uploads directory if needed and returns a store
// rooted there.
func NewStore(root string, logger *slog.Logger) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("media: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("media: create root: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: abs, logger: logger, newID: randomID}, nil
}

// Root returns the absolute uploads directory.
func (s *Store) Root() string {
	return s.root
}

// Upload stores the file bytes under a fresh server-issued id. The id keeps
// the sanitized extension of the original filename so the serving layer can
// infer a content type. At most MaxUploadBytes are read.
func (s *Store) Upload(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	id := s.newID() + ext
	abs, err := s.safePath(id)
	if err != nil {
		return "", err
	}

	dst, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("media: create file: %w", err)
	}

	written, err := io.Copy(dst, io.LimitReader(r, MaxUploadBytes+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err == nil && written > MaxUploadBytes {
		err = fmt.Errorf("media: file exceeds %d bytes", int64(MaxUploadBytes))
	}
	if err != nil {
		_ = os.Remove(abs)
		return "", err
	}
	return id, nil
}

// Delete removes a stored file. A file that is already gone is success: the
// cleanup paths that call this are best-effort and retried ids must not fail.
func (s *Store) Delete(id string) error {
	abs, err := s.safePath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("media: delete %s: %w", id, err)
	}
	return nil
}

// Resolve returns the fetchable URL for a media id.
func (s *Store) Resolve(id string) string {
	return URLPrefix + id
}

// Exists reports whether the id has a stored file.
func (s *Store) Exists(id string) bool {
	abs, err := s.safePath(id)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(abs)
	return statErr == nil
}

// Path validates the id and returns the absolute file path, for serving.
func (s *Store) Path(id string) (string, error) {
	return s.safePath(id)
}

// safePath rejects ids with path separators or traversal and returns the
// absolute path under the uploads directory.
func (s *Store) safePath(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("media: id is required")
	}
	cleaned := filepath.Clean(id)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("media: invalid id: %q", id)
	}
	abs := filepath.Join(s.root, cleaned)
	if !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("media: id escapes uploads directory: %q", id)
	}
	return abs, nil
}

// TrailingID strips everything up to and including the last slash. Clients
// may send full URLs where a bare id is expected; storage only ever sees the
// trailing identifier segment.
func TrailingID(ref string) string {
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// Package photos stores uploaded plant images on disk. Metadata lives in the
// photos table; this package only handles the blobs.
package photos

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"sprout/internal/config"
)

// MaxUploadBytes caps a single photo upload at 10 MiB.
const MaxUploadBytes = 10 << 20

var (
	// ErrTooLarge is returned when an upload exceeds MaxUploadBytes.
	ErrTooLarge = errors.New("photo exceeds the maximum upload size")

	// ErrUnsupportedType is returned for anything that is not a JPEG, PNG
	// or WebP image.
	ErrUnsupportedType = errors.New("unsupported image type")
)

// extensionsByType maps the accepted sniffed content types to file
// extensions.
var extensionsByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Library is a directory of photo blobs keyed by photo id.
type Library struct {
	dir string
}

// NewLibrary opens (creating if needed) the photo directory.
func NewLibrary(cfg *config.Config) (*Library, error) {
	dir := cfg.Paths.PhotoDir
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("photo directory is not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo directory: %w", err)
	}
	return &Library{dir: dir}, nil
}

// ReadUpload drains an upload stream enforcing the size cap and sniffs the
// content type from the bytes, ignoring whatever the client declared.
func ReadUpload(r io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, "", ErrTooLarge
	}
	if len(data) == 0 {
		return nil, "", errors.New("upload is empty")
	}
	contentType := http.DetectContentType(data)
	if _, ok := extensionsByType[contentType]; !ok {
		return nil, "", ErrUnsupportedType
	}
	return data, contentType, nil
}

// Filename returns the on-disk name for a photo id and content type.
func Filename(id, contentType string) (string, error) {
	ext, ok := extensionsByType[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	return id + ext, nil
}

// Write stores a blob under the photo id. Returns the filename written.
func (l *Library) Write(id, contentType string, data []byte) (string, error) {
	filename, err := Filename(id, contentType)
	if err != nil {
		return "", err
	}
	path, err := l.resolve(filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return filename, nil
}

// Read loads a blob by filename.
func (l *Library) Read(filename string) ([]byte, error) {
	path, err := l.resolve(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	return data, nil
}

// Remove deletes a blob by filename. Missing files are not an error.
func (l *Library) Remove(filename string) error {
	path, err := l.resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}

// resolve joins a filename onto the library directory, rejecting anything
// that would escape it.
func (l *Library) resolve(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("invalid photo filename %q", filename)
	}
	return filepath.Join(l.dir, filename), nil
}

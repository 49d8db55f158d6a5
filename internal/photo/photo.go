// Package photo stores owner profile photos on local disk, mirroring the
// public/uploads layout the UI serves from.
package photo

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxPhotoBytes caps a single upload (file or camera capture).
const MaxPhotoBytes = 8 << 20 // 8 MiB

var extensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ErrUnsupportedType is returned for uploads outside the image whitelist.
var ErrUnsupportedType = errors.New("unsupported image type")

// ErrTooLarge is returned when an upload exceeds MaxPhotoBytes.
var ErrTooLarge = errors.New("image too large")

// Store saves and deletes photo files under a single directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates the uploads directory if needed and returns a Store.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger.With("component", "photo")}, nil
}

// Dir returns the directory photos are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// SaveUpload stores a multipart file upload and returns the stored
// filename. The extension comes from the uploaded filename and must be on
// the image whitelist.
func (s *Store) SaveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxPhotoBytes {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !extensions[ext] {
		return "", ErrUnsupportedType
	}

	name := "photo_" + uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, MaxPhotoBytes+1)); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("write photo file: %w", err)
	}

	s.logger.Debug("photo saved", "file", name, "size", header.Size)
	return name, nil
}

// SaveBase64 stores a camera capture submitted as a data URI
// ("data:image/png;base64,...") and returns the stored filename.
func (s *Store) SaveBase64(dataURI string) (string, error) {
	header, payload, ok := strings.Cut(dataURI, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") {
		return "", ErrUnsupportedType
	}

	mediaType := strings.TrimPrefix(header, "data:")
	mediaType = strings.TrimSuffix(mediaType, ";base64")
	ext := extensionFor(mediaType)
	if ext == "" {
		return "", ErrUnsupportedType
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode camera image: %w", err)
	}
	if len(data) > MaxPhotoBytes {
		return "", ErrTooLarge
	}

	name := "camera_" + uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write camera image: %w", err)
	}

	s.logger.Debug("camera photo saved", "file", name, "size", len(data))
	return name, nil
}

// Delete removes a stored photo. Empty names and missing files are not
// errors.
func (s *Store) Delete(name string) error {
	if name == "" {
		return nil
	}
	// Reject anything that could escape the uploads dir.
	if name != filepath.Base(name) {
		return fmt.Errorf("invalid photo name %q", name)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete photo %s: %w", name, err)
	}
	return nil
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

package photo

import (
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), slog.Default())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

// tiny 1x1 PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestSaveBase64(t *testing.T) {
	s := setupStore(t)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	name, err := s.SaveBase64(uri)
	if err != nil {
		t.Fatalf("SaveBase64 failed: %v", err)
	}
	if !strings.HasPrefix(name, "camera_") || !strings.HasSuffix(name, ".png") {
		t.Errorf("unexpected stored name %q", name)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), name))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if len(data) != len(pngBytes) {
		t.Errorf("expected %d bytes stored, got %d", len(pngBytes), len(data))
	}
}

func TestSaveBase64_RejectsNonImage(t *testing.T) {
	s := setupStore(t)

	for _, uri := range []string{
		"not a data uri",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/svg+xml;base64,aGVsbG8=",
	} {
		if _, err := s.SaveBase64(uri); err == nil {
			t.Errorf("expected rejection for %q", uri)
		}
	}
}

func TestDelete(t *testing.T) {
	s := setupStore(t)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	name, err := s.SaveBase64(uri)
	if err != nil {
		t.Fatalf("SaveBase64 failed: %v", err)
	}

	if err := s.Delete(name); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), name)); !os.IsNotExist(err) {
		t.Error("expected file removed")
	}

	// Empty and missing names are fine.
	if err := s.Delete(""); err != nil {
		t.Errorf("Delete of empty name failed: %v", err)
	}
	if err := s.Delete("photo_missing.png"); err != nil {
		t.Errorf("Delete of missing file failed: %v", err)
	}

	// Path traversal is refused.
	if err := s.Delete("../etc/passwd"); err == nil {
		t.Error("expected rejection of path escape")
	}
}

// Package artifact stores uploaded verification documents. References
// returned by Save are plain filenames, valid for the upload-serving routes.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskStore writes documents into a flat uploads directory. Stored names are
// derived, never taken from the client, so the directory contents cannot be
// steered by the uploader.
type DiskStore struct {
	dir string
}

func NewDisk(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Save(_ context.Context, email, filename string, data []byte) (string, error) {
	name := storedName(email, filename)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return name, nil
}

// Open returns the document bytes for a previously returned reference. The
// reference is reduced to its base name so a crafted path cannot escape the
// uploads directory.
func (s *DiskStore) Open(_ context.Context, ref string) ([]byte, error) {
	name := filepath.Base(ref)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(filepath.Join(s.dir, name))
}

// storedName builds `license_<safe-email>_<uuid8><ext>`.
func storedName(email, filename string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, email)
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("license_%s_%s%s", safe, uuid.NewString()[:8], ext)
}

// Package screenshot persists page screenshots and hands back references
// that can be served to clients.
package screenshot

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore writes screenshots as PNG files into Dir. References are
// URLPrefix followed by the file name.
type FileStore struct {
	Dir       string
	URLPrefix string
}

// NewFileStore creates dir when missing.
func NewFileStore(dir, urlPrefix string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint: mnd
		return nil, fmt.Errorf("could not create screenshot dir: %w", err)
	}

	return &FileStore{Dir: dir, URLPrefix: urlPrefix}, nil
}

// Save writes png under a fresh random name and returns its reference.
func (s *FileStore) Save(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("could not save screenshot: %w", err)
	}

	name := uuid.NewString() + ".png"
	tmp := filepath.Join(s.Dir, "."+name)
	if err := os.WriteFile(tmp, png, 0o644); err != nil { //nolint: gosec, mnd
		return "", fmt.Errorf("could not write screenshot: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.Dir, name)); err != nil {
		_ = os.Remove(tmp)

		return "", fmt.Errorf("could not move screenshot into place: %w", err)
	}

	return s.ref(name), nil
}

func (s *FileStore) ref(name string) string {
	if s.URLPrefix == "" {
		return name
	}
	if strings.HasSuffix(s.URLPrefix, "/") {
		return s.URLPrefix + name
	}

	return path.Join(s.URLPrefix, name)
}

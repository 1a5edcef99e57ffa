package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	fileutil "uploader/internal/file"
)

// FS writes blobs as files directly under a root directory. The directory is
// expected to exist before the first write.
type FS struct {
	root string
}

func NewFS(root string) *FS {
	return &FS{root: root}
}

func (s *FS) Location(name string) string {
	return filepath.Join(s.root, name)
}

func (s *FS) Write(_ context.Context, name string, data []byte) error {
	dest, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(dest, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// resolve joins name onto the root and verifies the result stays inside it.
func (s *FS) resolve(name string) (string, error) {
	root := filepath.Clean(s.root)
	dest := filepath.Join(root, name)
	rel, err := filepath.Rel(root, dest)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}
	return dest, nil
}

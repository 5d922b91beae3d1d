package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/spf13/afero"
)

// FileStore implements ports.ReportStore on a directory.
type FileStore struct {
	fs  afero.Fs
	dir string
}

func NewFileStore(fs afero.Fs, dir string) *FileStore {
	return &FileStore{fs: fs, dir: dir}
}

// NewDiskStore writes reports under dir on the local disk.
func NewDiskStore(dir string) *FileStore {
	return NewFileStore(afero.NewOsFs(), dir)
}

// Save writes data to dir/name. The name must not leave dir.
func (s *FileStore) Save(_ context.Context, name string, data []byte) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid report name %q", name)
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return "", err
	}
	slog.Info("Report saved", "path", path, "bytes", len(data))
	return path, nil
}

var _ ports.ReportStore = (*FileStore)(nil)

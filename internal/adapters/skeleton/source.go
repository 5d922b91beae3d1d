// Package skeleton supplies the base files of generated hosts, one directory
// tree per device type.
package skeleton

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/spf13/afero"
)

//go:embed all:skeletons
var embedded embed.FS

// Source implements ports.SkeletonSource. Files are read once per device type.
type Source struct {
	fs afero.Fs

	mu    sync.Mutex
	cache map[domain.DeviceType]map[string]string
}

// NewSource reads device trees from fs, laid out as <type>/<absolute path>.
func NewSource(fs afero.Fs) *Source {
	return &Source{fs: fs, cache: make(map[domain.DeviceType]map[string]string)}
}

// NewEmbeddedSource serves the built-in skeletons.
func NewEmbeddedSource() *Source {
	return NewSource(embeddedFs())
}

// NewLayeredSource serves files from dir on top of the built-in skeletons.
// An empty dir means built-in only.
func NewLayeredSource(dir string) *Source {
	if dir == "" {
		return NewEmbeddedSource()
	}
	override := afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), dir))
	return NewSource(afero.NewCopyOnWriteFs(embeddedFs(), override))
}

func embeddedFs() afero.Fs {
	sub, err := fs.Sub(embedded, "skeletons")
	if err != nil {
		panic(err)
	}
	return afero.FromIOFS{FS: sub}
}

// Files returns absolute path to content for a device type. Unknown types
// have no skeleton.
func (s *Source) Files(deviceType domain.DeviceType) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if files, ok := s.cache[deviceType]; ok {
		return copyFiles(files), nil
	}

	root := string(deviceType)
	files := make(map[string]string)
	err := afero.Walk(s.fs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		data, err := afero.ReadFile(s.fs, p)
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(filepath.ToSlash(p), root)
		files[path.Clean("/"+rel)] = string(data)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s skeleton: %w", deviceType, err)
	}

	s.cache[deviceType] = files
	return copyFiles(files), nil
}

func copyFiles(files map[string]string) map[string]string {
	out := make(map[string]string, len(files))
	for k, v := range files {
		out[k] = v
	}
	return out
}

var _ ports.SkeletonSource = (*Source)(nil)

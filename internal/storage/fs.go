package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// FSStore stores objects as files in one directory of an afero filesystem.
type FSStore struct {
	fs  afero.Fs
	dir string
}

// NewFSStore returns a store over dir on fsys. The directory is created on
// the first Put.
func NewFSStore(fsys afero.Fs, dir string) *FSStore {
	return &FSStore{fs: fsys, dir: dir}
}

// NewOSStore stores objects under root/dir on the local disk.
func NewOSStore(root, dir string) *FSStore {
	return NewFSStore(afero.NewBasePathFs(afero.NewOsFs(), root), dir)
}

func (s *FSStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(s.fs, s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", s.dir, err)
	}

	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		if fi.Mode().IsRegular() && !strings.HasPrefix(fi.Name(), ".") {
			names = append(names, fi.Name())
		}
	}
	return names, nil
}

func (s *FSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.fs.Open(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", name, err)
	}
	return f, nil
}

// Put writes to a temporary file and renames it over name so readers never
// see a partial object.
func (s *FSStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("storage: create %s: %w", s.dir, err)
	}

	tmp := s.path("." + name + ".tmp")
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("storage: write %s: %w", name, err)
	}
	if err := s.fs.Rename(tmp, s.path(name)); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("storage: rename %s: %w", name, err)
	}
	return nil
}

func (s *FSStore) Location() string {
	return "fs:" + s.dir
}

func (s *FSStore) path(name string) string {
	return path.Join(s.dir, path.Base(name))
}

package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"filedrop-api/config"
)

// Store keeps blobs as flat files named by blob id under one directory.
// The filesystem is abstracted behind afero so tests run on MemMapFs.
type Store struct {
	fs     afero.Fs
	logger *zap.Logger
	dir    string
}

func New(fs afero.Fs, logger *zap.Logger, cfg config.Storage) (*Store, error) {
	if err := fs.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %q: %w", cfg.Dir, err)
	}

	return &Store{
		fs:     fs,
		logger: logger,
		dir:    cfg.Dir,
	}, nil
}

func (s *Store) Put(_ context.Context, id string, r io.Reader) (int64, error) {
	f, err := s.fs.OpenFile(s.path(id), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return 0, fmt.Errorf("blob create %s: %w", id, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(s.path(id))
		return 0, fmt.Errorf("blob write %s: %w", id, err)
	}

	return n, nil
}

func (s *Store) Open(_ context.Context, id string) (io.ReadCloser, error) {
	f, err := s.fs.Open(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("blob open %s: %w", id, err)
	}
	return f, nil
}

// Delete treats an already-absent blob as gone, not as an error.
func (s *Store) Delete(_ context.Context, id string) error {
	if err := s.fs.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob delete %s: %w", id, err)
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, filepath.Base(id))
}

package filekv

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Store is the local backend: one file per key under dir.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("filekv: empty dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "read blob")
	}
	return b, true, nil
}

// Set replaces the file atomically: readers see the old blob or the new one, never a mix.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync temp")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp")
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return errors.Wrap(err, "replace blob")
	}
	return nil
}

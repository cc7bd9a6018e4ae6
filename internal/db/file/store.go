package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kailas-cloud/vecscope/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds parameters for a file-backed store.
type Config struct {
	// Dir holds one file per key. Created on first use.
	Dir string
}

// Store implements db.Store on the local filesystem. Each key maps to a
// file in Dir; Set writes a temp file in the same directory and renames it
// over the target, so a crash mid-write leaves the previous value intact.
type Store struct {
	dir string
}

// NewStore creates a file store rooted at cfg.Dir.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", cfg.Dir, err)
	}
	return &Store{dir: cfg.Dir}, nil
}

// Ping checks that the directory is still accessible.
func (s *Store) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return &db.Error{Op: db.OpStat, Err: err}
	}
	if !info.IsDir() {
		return &db.Error{Op: db.OpStat, Err: fmt.Errorf("%s is not a directory", s.dir)}
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately: the filesystem needs no warmup.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get reads the file for key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpRead, Err: err}
	}
	return data, nil
}

// Set atomically replaces the file for key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return &db.Error{Op: db.OpWrite, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		cleanup()
		return &db.Error{Op: db.OpWrite, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return &db.Error{Op: db.OpWrite, Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &db.Error{Op: db.OpWrite, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return &db.Error{Op: db.OpRename, Err: err}
	}
	return nil
}

// path maps a key to a file in the store directory. Keys must be plain
// file names.
func (s *Store) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: %q", db.ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key), nil
}

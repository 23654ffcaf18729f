package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileStore keeps one file per key under a root dir. Writes go to a temp
// file first and are renamed into place, so a reader never sees a torn value.
type FileStore struct {
	fs   afero.Fs
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	return NewFileStoreFs(afero.NewOsFs(), root)
}

func NewFileStoreFs(fs afero.Fs, root string) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("file store root dir not set")
	}
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create file store dir %s: %w", root, err)
	}
	return &FileStore{
		fs:   fs,
		root: root,
	}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, url.PathEscape(key)+".json")
}

func (s *FileStore) Read(_ context.Context, key string) ([]byte, error) {
	value, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read [%s]: %w", key, err)
	}
	return value, nil
}

func (s *FileStore) Write(_ context.Context, key string, value []byte) error {
	tmpFile, err := afero.TempFile(s.fs, s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		// already gone after a successful rename
		_ = s.fs.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(value); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := s.fs.Rename(tmpPath, s.path(key)); err != nil {
		return fmt.Errorf("rename temp file for [%s]: %w", key, err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

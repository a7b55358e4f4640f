package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/labkeeper/internal/common"
	"github.com/dmitrijs2005/labkeeper/internal/filex"
)

// FileStore keeps blobs as files in one directory. Locators are
// fs://<name>.
type FileStore struct {
	dir   string
	newID common.IDGenerator
}

func NewFileStore(dir string, newID common.IDGenerator) (*FileStore, error) {
	abs, err := filex.EnsureDir(dir, "")
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	if newID == nil {
		newID = common.NewID
	}
	return &FileStore{dir: abs, newID: newID}, nil
}

// Write stores data under a fresh name: temp file, fsync, atomic rename.
func (s *FileStore) Write(ctx context.Context, data []byte, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := s.newID() + "_" + sanitize(filename)
	fullPath := filepath.Join(s.dir, name)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", common.ErrStorageUnavailable, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: write: %v", common.ErrStorageUnavailable, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: fsync: %v", common.ErrStorageUnavailable, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: close: %v", common.ErrStorageUnavailable, err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: rename: %v", common.ErrStorageUnavailable, err)
	}

	return locator(SchemeFS, name), nil
}

func (s *FileStore) Read(ctx context.Context, loc string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, ok := key(loc, SchemeFS)
	if !ok || name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", loc, err)
	}
	return data, nil
}

// sanitize keeps a filename readable on disk without path separators.
func sanitize(filename string) string {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "blob"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, name)
}

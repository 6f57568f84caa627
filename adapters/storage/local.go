// Package storage provides StorageAdapter implementations used by Save.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Skryldev/image-filter/core"
	apperrors "github.com/Skryldev/image-filter/errors"
)

// Local stores images on the local filesystem.  Keys resolve to
// rootDir/Bucket/Path; an empty rootDir means paths are used as given.
type Local struct {
	rootDir     string
	permissions os.FileMode
}

// NewLocal creates a Local storage adapter rooted at dir.
func NewLocal(dir string, perm os.FileMode) (*Local, error) {
	if perm == 0 {
		perm = 0o644
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("local storage: mkdir %s: %w", dir, err)
		}
	}
	return &Local{rootDir: dir, permissions: perm}, nil
}

func (l *Local) absPath(key core.StorageKey) string {
	return filepath.Join(l.rootDir, filepath.Clean(key.Bucket), filepath.Clean(key.Path))
}

// Put writes r to the key's file, creating parent directories as needed.
// The destination directory named by key.Bucket must already exist when no
// root directory is configured.
func (l *Local) Put(ctx context.Context, key core.StorageKey, r io.Reader, meta map[string]string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.UnableToSave, "local.put", err)
	}

	path := l.absPath(key)
	if l.rootDir != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return apperrors.Wrap(apperrors.UnableToSave, "local.put.mkdir", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, l.permissions)
	if err != nil {
		return apperrors.Wrap(apperrors.UnableToSave, "local.put.open", err)
	}

	if _, err = io.Copy(f, r); err != nil {
		f.Close()
		return apperrors.Wrap(apperrors.UnableToSave, "local.put.copy", err)
	}
	if err = f.Close(); err != nil {
		return apperrors.Wrap(apperrors.UnableToSave, "local.put.close", err)
	}

	// Persist metadata as a side-car JSON file.
	if len(meta) > 0 {
		mf, err := os.OpenFile(path+".meta.json", os.O_WRONLY|os.O_CREATE|os.O_TRUNC, l.permissions)
		if err == nil {
			_ = json.NewEncoder(mf).Encode(meta)
			mf.Close()
		}
	}
	return nil
}

// Location returns the file path Put writes key to.
func (l *Local) Location(key core.StorageKey) string { return l.absPath(key) }

func (l *Local) Exists(ctx context.Context, key core.StorageKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(l.absPath(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("local storage: stat: %w", err)
}

var _ core.StorageAdapter = (*Local)(nil)

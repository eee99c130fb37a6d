// Package file implements a KVStore that keeps each key in its own JSON file.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"thingsish/backend"
)

func init() {
	backend.Register("file", func(path string) (backend.KVStore, error) {
		return New(path)
	})
}

// Backend implements backend.KVStore for directory-based storage
type Backend struct {
	dir string // Resolved absolute path
}

// New creates a file store rooted at dir, creating the directory if needed
func New(dir string) (*Backend, error) {
	if dir == "" {
		dir = "."
	}

	// Resolve relative paths
	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = filepath.Join(wd, dir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &Backend{dir: dir}, nil
}

// Close closes the backend
func (b *Backend) Close() error {
	return nil
}

// Dir returns the directory holding the key files
func (b *Backend) Dir() string {
	return b.dir
}

// Get reads the file for key
func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.keyPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return data, true, nil
}

// Set replaces the file for key. The write goes to a temp file first and is
// renamed into place so readers never see a partial blob.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(b.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmpName, b.keyPath(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Delete removes the file for key
func (b *Backend) Delete(ctx context.Context, key string) error {
	err := os.Remove(b.keyPath(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// keyPath maps a key such as "thingsish:v1" to "thingsish_v1.json".
func (b *Backend) keyPath(key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(b.dir, name+".json")
}

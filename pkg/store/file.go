package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileMedium stores each key as a file under a base directory.
// Writes go to a temp file which is synced and renamed over the target,
// so readers never observe a partially written value.
type FileMedium struct {
	dir string
	mu  sync.Mutex // serializes Update read-modify-write cycles in this process
}

// NewFileMedium creates a file medium rooted at dir. The directory is created on first write.
func NewFileMedium(dir string) (*FileMedium, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage directory is required")
	}
	return &FileMedium{dir: dir}, nil
}

// Dir returns the base directory.
func (m *FileMedium) Dir() string {
	return m.dir
}

func (m *FileMedium) path(key string) string {
	name := strings.NewReplacer(":", "_", "/", "_", string(filepath.Separator), "_").Replace(key)
	return filepath.Join(m.dir, name+".json")
}

// Get reads the file for key. Returns ErrNotFound if it doesn't exist.
func (m *FileMedium) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(m.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Set atomically replaces the file for key.
func (m *FileMedium) Set(ctx context.Context, key string, value []byte) error {
	if err := writeFileAtomic(m.path(key), value, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Update reads, transforms and atomically rewrites the file for key.
func (m *FileMedium) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.Get(ctx, key)
	if err != nil {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}

	return m.Set(ctx, key, next)
}

// Delete removes the files for keys.
func (m *FileMedium) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := os.Remove(m.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}

// Ping checks that the base directory exists or can be created.
func (m *FileMedium) Ping(ctx context.Context) error {
	return os.MkdirAll(m.dir, 0o755)
}

// Close is a no-op. Implements io.Closer.
func (m *FileMedium) Close() error {
	return nil
}

// writeFileAtomic writes data to a temp file in the same directory, syncs it,
// renames it over path and syncs the directory.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true

	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	// Not every filesystem supports fsync on a directory; the rename is already visible.
	_ = d.Sync()
	return nil
}

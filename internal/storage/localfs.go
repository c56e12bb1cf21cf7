package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// metaDir holds per-object metadata next to the object tree. Keys may not
// start with it.
const metaDir = ".meta"

// ErrInvalidKey is returned for keys that would resolve outside the base directory.
var ErrInvalidKey = errors.New("invalid object key")

// LocalFS implements Store on a single local directory. Suitable for dev.
// Objects are written to <base>/<key>; the content type is recorded in
// <base>/.meta/<key>.json.
type LocalFS struct {
	base string // absolute base directory
}

type localMeta struct {
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Created     time.Time `json:"created"`
}

// NewLocalFS creates a LocalFS rooted at dir, creating it if needed.
func NewLocalFS(dir string) (*LocalFS, error) {
	if dir == "" {
		return nil, errors.New("no data directory configured")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("abs path %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %q: %w", abs, err)
	}
	return &LocalFS{base: abs}, nil
}

// BaseDir returns the absolute root directory.
func (l *LocalFS) BaseDir() string { return l.base }

// Put writes the object through a temp file and renames it into place so
// readers never observe a partial object.
func (l *LocalFS) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	path, err := l.objectPath(key)
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}

	n, err := writeFileAtomic(path, reader)
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	if size >= 0 && n != size {
		_ = os.Remove(path)
		return fmt.Errorf("put object %q: short write: got %d bytes, want %d", key, n, size)
	}

	meta, err := json.Marshal(localMeta{ContentType: contentType, Size: n, Created: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("put object %q: encode metadata: %w", key, err)
	}
	metaPath := filepath.Join(l.base, metaDir, filepath.FromSlash(key)+".json")
	if err := os.MkdirAll(filepath.Dir(metaPath), 0o755); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	if _, err := writeFileAtomic(metaPath, strings.NewReader(string(meta))); err != nil {
		return fmt.Errorf("put object %q: write metadata: %w", key, err)
	}
	return nil
}

// ContentType returns the content type recorded for key.
func (l *LocalFS) ContentType(key string) (string, error) {
	if _, err := l.objectPath(key); err != nil {
		return "", err
	}
	b, err := os.ReadFile(filepath.Join(l.base, metaDir, filepath.FromSlash(key)+".json"))
	if err != nil {
		return "", err
	}
	var m localMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return "", fmt.Errorf("decode metadata for %q: %w", key, err)
	}
	return m.ContentType, nil
}

func (l *LocalFS) objectPath(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	if clean == metaDir || strings.HasPrefix(clean, metaDir+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return filepath.Join(l.base, clean), nil
}

func writeFileAtomic(path string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	n, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmpName, 0o644)
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return n, err
	}
	return n, nil
}

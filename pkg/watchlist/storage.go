package watchlist

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned by Storage.Load when nothing is stored under a key.
var ErrNotFound = errors.New("watchlist: not found")

// Storage persists encoded watchlists under string keys.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
}

// MemoryStorage keeps payloads in process memory.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (m *MemoryStorage) Save(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), payload...)
	return nil
}

// FileStorage writes one file per key inside a directory. Writes go to a
// temporary file that is renamed into place.
type FileStorage struct {
	dir string
	ext string
}

// NewFileStorage creates dir if needed. ext is appended to every file name.
func NewFileStorage(dir, ext string) (*FileStorage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("watchlist: file storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("watchlist: create storage dir: %w", err)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &FileStorage{dir: dir, ext: ext}, nil
}

// path escapes key so that distinct keys never share a file and no key can
// leave dir. Letters, digits, '-' and '_' pass through unchanged.
func (f *FileStorage) path(key string) string {
	name := strings.ReplaceAll(url.QueryEscape(key), ".", "%2E")
	return filepath.Join(f.dir, name+f.ext)
}

func (f *FileStorage) Load(_ context.Context, key string) ([]byte, error) {
	payload, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("watchlist: read %s: %w", key, err)
	}
	return payload, nil
}

func (f *FileStorage) Save(_ context.Context, key string, payload []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".watchlist-*")
	if err != nil {
		return fmt.Errorf("watchlist: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("watchlist: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("watchlist: close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("watchlist: replace %s: %w", key, err)
	}
	return nil
}

package preload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned for paths the preloader never loaded.
var ErrNotFound = errors.New("preload: asset not found")

// Store keeps preloaded assets in memory. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	assets map[string]Asset
	dirs   map[string]struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		assets: make(map[string]Asset),
		dirs:   make(map[string]struct{}),
	}
}

// Put stores an asset under its entry path.
func (s *Store) Put(a Asset) {
	s.mu.Lock()
	s.assets[a.Entry.Path] = a
	s.mu.Unlock()
}

// AddDirectory records a directory entry.
func (s *Store) AddDirectory(path string) {
	s.mu.Lock()
	s.dirs[strings.TrimSuffix(path, "/")] = struct{}{}
	s.mu.Unlock()
}

// Get returns the asset stored at path.
func (s *Store) Get(path string) (Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[path]
	return a, ok
}

// Len returns the number of stored assets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}

// Files is a read-only file subsystem over a Store.
type Files struct {
	store *Store
}

// NewFiles exposes store as a file subsystem.
func NewFiles(store *Store) *Files {
	return &Files{store: store}
}

// ReadFile returns the bytes of a preloaded asset.
func (f *Files) ReadFile(path string) ([]byte, error) {
	a, ok := f.store.Get(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return a.Data, nil
}

// Open returns a reader over a preloaded asset.
func (f *Files) Open(path string) (io.ReadCloser, error) {
	data, err := f.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Exists reports whether path is a preloaded asset or directory.
func (f *Files) Exists(path string) bool {
	if _, ok := f.store.Get(path); ok {
		return true
	}
	return f.IsDirectory(path)
}

// IsDirectory reports whether path was listed as a directory in the manifest.
func (f *Files) IsDirectory(path string) bool {
	f.store.mu.RLock()
	defer f.store.mu.RUnlock()
	_, ok := f.store.dirs[strings.TrimSuffix(path, "/")]
	return ok
}

// MIME returns the content type recorded for path.
func (f *Files) MIME(path string) string {
	a, _ := f.store.Get(path)
	return a.MIME
}

// List returns the asset paths directly inside dir, sorted.
func (f *Files) List(dir string) []string {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	if dir == "" {
		prefix = ""
	}

	f.store.mu.RLock()
	defer f.store.mu.RUnlock()
	var out []string
	for path := range f.store.assets {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if strings.Contains(path[len(prefix):], "/") {
			continue
		}
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

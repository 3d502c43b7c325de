// Package prefs provides named key/value preference stores.
package prefs

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Store is a named set of preferences. Writes are buffered in memory until
// Flush persists them.
type Store interface {
	Get(key string) (string, bool)
	Put(key, value string)
	Remove(key string)
	Clear()
	Keys() []string
	Flush() error
}

// OpenFunc opens the store for a preference name.
type OpenFunc func(name string) (Store, error)

// Cache opens each named store once and hands out the same instance after.
type Cache struct {
	mu     sync.Mutex
	open   OpenFunc
	stores map[string]Store
}

// NewCache creates a cache over open.
func NewCache(open OpenFunc) *Cache {
	return &Cache{open: open, stores: make(map[string]Store)}
}

// Get returns the store for name, opening it on first use.
func (c *Cache) Get(name string) (Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.stores[name]; ok {
		return s, nil
	}
	s, err := c.open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences %q: %w", name, err)
	}
	c.stores[name] = s
	return s, nil
}

// FlushAll flushes every opened store and returns the first error.
func (c *Cache) FlushAll() error {
	c.mu.Lock()
	stores := make([]Store, 0, len(c.stores))
	for _, s := range c.stores {
		stores = append(stores, s)
	}
	c.mu.Unlock()

	var first error
	for _, s := range stores {
		if err := s.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Memory is an in-memory Store. Flush is a no-op.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// OpenMemory is an OpenFunc producing fresh in-memory stores.
func OpenMemory(string) (Store, error) {
	return NewMemory(), nil
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Put(key, value string) {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
}

func (m *Memory) Remove(key string) {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
}

func (m *Memory) Clear() {
	m.mu.Lock()
	m.values = make(map[string]string)
	m.mu.Unlock()
}

func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *Memory) Flush() error { return nil }

// GetBool reads a boolean, returning def when missing or malformed.
func GetBool(s Store, key string, def bool) bool {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// PutBool stores a boolean.
func PutBool(s Store, key string, value bool) {
	s.Put(key, strconv.FormatBool(value))
}

// GetInt reads an integer, returning def when missing or malformed.
func GetInt(s Store, key string, def int64) int64 {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// PutInt stores an integer.
func PutInt(s Store, key string, value int64) {
	s.Put(key, strconv.FormatInt(value, 10))
}

// GetFloat reads a float, returning def when missing or malformed.
func GetFloat(s Store, key string, def float64) float64 {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// PutFloat stores a float.
func PutFloat(s Store, key string, value float64) {
	s.Put(key, strconv.FormatFloat(value, 'g', -1, 64))
}

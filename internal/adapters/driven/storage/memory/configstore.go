package memory

import (
	"maps"
	"sync"

	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a map. Service and CLI tests use it in place
// of the TOML file.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
	saves  int
}

// NewConfigStore copies seed into a new store.
func NewConfigStore(seed map[string]any) *ConfigStore {
	values := make(map[string]any, len(seed))
	maps.Copy(values, seed)
	return &ConfigStore{values: values}
}

// Get returns the value stored under key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetString returns the value under key, or "" when it is missing or not a string.
func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetInt returns the value under key as an int, or 0.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	n, _ := driven.ConfigInt(v)
	return n
}

// Set stores value under key.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.values[key] = value
	s.saves++
	s.mu.Unlock()
	return nil
}

// Delete removes key. A missing key is not an error.
func (s *ConfigStore) Delete(key string) error {
	s.mu.Lock()
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.saves++
	}
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of every key, for assertions.
func (s *ConfigStore) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Saves counts the writes that a file store would have persisted.
func (s *ConfigStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Save is a no-op; values live only in memory.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op; values live only in memory.
func (s *ConfigStore) Load() error { return nil }

// Path returns ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }

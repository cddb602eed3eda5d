package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigFile is the settings file inside the config directory.
const ConfigFile = "config.toml"

// ConfigStore keeps settings in config.toml. Keys are flat in memory
// ("llm.model") and nested on disk ([llm] model = ...), so the file reads
// naturally when edited by hand.
type ConfigStore struct {
	path string

	mu     sync.RWMutex
	values map[string]any
}

// DefaultDir returns ~/.bankdoc.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".bankdoc"), nil
}

// NewConfigStore opens dir/config.toml, creating dir if needed. An empty dir
// means DefaultDir. A missing file is an empty store.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{path: filepath.Join(dir, ConfigFile)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file location.
func (s *ConfigStore) Path() string {
	return s.path
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

// GetInt accepts TOML integers as well as quoted numbers.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	n, _ := driven.ConfigInt(v)
	return n
}

// Set updates key and rewrites the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.write()
}

// Delete removes key and rewrites the file if it was present.
func (s *ConfigStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.write()
}

// Save writes every value to the config file.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

// Load replaces the in-memory values with the file's contents.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.mu.Lock()
		s.values = make(map[string]any)
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}

	values := make(map[string]any)
	flatten(values, "", tree)

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// write encodes the values and swaps them into place with a rename, so a
// crash mid-write never leaves a truncated file. The caller holds mu.
func (s *ConfigStore) write() error {
	data, err := toml.Marshal(nest(s.values))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	// The file may hold API keys.
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// flatten copies tree into out with dotted keys: {"a": {"b": 1}} -> {"a.b": 1}.
func flatten(out map[string]any, prefix string, tree map[string]any) {
	for k, v := range tree {
		if prefix != "" {
			k = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(out, k, sub)
			continue
		}
		out[k] = v
	}
}

// nest is the inverse of flatten. When a key is both a value and the prefix
// of other keys, the value stays at the root under its dotted name.
func nest(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for key, value := range flat {
		table, leaf, ok := descend(root, key)
		if !ok {
			root[key] = value
			continue
		}
		table[leaf] = value
	}
	return root
}

// descend walks (creating as needed) the tables for every segment of key but
// the last. It fails when a segment is already a plain value.
func descend(root map[string]any, key string) (map[string]any, string, bool) {
	segments := strings.Split(key, ".")
	table := root
	for _, seg := range segments[:len(segments)-1] {
		switch next := table[seg].(type) {
		case nil:
			child := make(map[string]any)
			table[seg] = child
			table = child
		case map[string]any:
			table = next
		default:
			return nil, "", false
		}
	}
	return table, segments[len(segments)-1], true
}

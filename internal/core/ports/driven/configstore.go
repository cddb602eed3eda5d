package driven

import (
	"strconv"
	"strings"
)

// ConfigStore is the key/value layer beneath SettingsService. Keys are
// dotted ("storage.backend"); how they are laid out on disk is up to the
// adapter.
type ConfigStore interface {
	// Get reports the raw value and whether key is set.
	Get(key string) (any, bool)

	// GetString is "" when key is unset or not a string.
	GetString(key string) string

	// GetInt is 0 when key is unset or not numeric. See ConfigInt.
	GetInt(key string) int

	// Set writes key and persists it before returning.
	Set(key string, value any) error

	// Delete is a no-op for unset keys.
	Delete(key string) error

	Save() error
	Load() error

	// Path names the backing file, or a placeholder for non-file stores.
	Path() string
}

// ConfigInt coerces a stored value to int. Decoders disagree on numeric
// types (TOML yields int64, JSON float64) and hand-edited files sometimes
// quote numbers, so all of those are accepted. Fractions are rejected.
func ConfigInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}

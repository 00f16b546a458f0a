package driven

import "time"

// ConfigStore provides access to application configuration.
// Keys use dot notation ("ollama.model"); nested tables are flattened.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString returns "" if the key is missing or not a string.
	GetString(key string) string

	// GetInt returns 0 if the key is missing or not an integer.
	GetInt(key string) int

	// GetBool returns false if the key is missing or not a boolean.
	GetBool(key string) bool

	// GetDuration parses a duration string ("500ms", "2s").
	// Bare integers are read as seconds. Returns 0 if missing or malformed.
	GetDuration(key string) time.Duration

	// GetStringSlice returns nil if the key is missing or not an array.
	GetStringSlice(key string) []string

	// GetStringMap collects every "prefix.<name>" string value into a map
	// keyed by <name>. Returns nil if no key matches.
	GetStringMap(prefix string) map[string]string

	// Set stores a configuration value and persists it immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}

package driven

import "time"

// ConfigStore provides access to application configuration.
// Nested TOML tables are addressed with dot keys such as "chunk.size".
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString returns empty string if key doesn't exist or isn't a string.
	GetString(key string) string

	// GetInt returns 0 if key doesn't exist or isn't an integer.
	GetInt(key string) int

	// GetBool returns false if key doesn't exist or isn't a boolean.
	GetBool(key string) bool

	// GetDuration parses strings like "30s". Returns 0 when missing or malformed.
	GetDuration(key string) time.Duration

	// Set stores a configuration value in memory.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}

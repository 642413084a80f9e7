package memory

import (
	"sync"
	"time"

	"github.com/custodia-labs/bookwyrm/internal/adapters/driven/config"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a map. Tests use it in place of the TOML file.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *ConfigStore) value(key string) any {
	val, _ := s.Get(key)
	return val
}

func (s *ConfigStore) GetString(key string) string { return config.String(s.value(key)) }

func (s *ConfigStore) GetInt(key string) int { return config.Int(s.value(key)) }

func (s *ConfigStore) GetBool(key string) bool { return config.Bool(s.value(key)) }

func (s *ConfigStore) GetDuration(key string) time.Duration { return config.Duration(s.value(key)) }

// Set stores a value; nothing is persisted.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *ConfigStore) Save() error { return nil }

func (s *ConfigStore) Load() error { return nil }

// Path reports ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }

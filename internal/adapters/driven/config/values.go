// Package config holds the value coercion shared by the ConfigStore
// implementations. Values arrive as TOML scalars, Go values set in code, or
// strings read from the environment.
package config

import (
	"strconv"
	"strings"
	"time"
)

// EnvPrefix starts every environment variable that overrides a config key.
const EnvPrefix = "BOOKWYRM_"

// EnvKey maps a dot key to its override variable: "chunk.size" becomes
// BOOKWYRM_CHUNK_SIZE.
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// String returns v when it is a string.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int accepts Go and TOML integers, floats (truncated) and decimal strings.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

// Bool accepts booleans and the strings strconv.ParseBool understands.
func Bool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	default:
		return false
	}
}

// Duration accepts time.Duration, strings such as "30s", and integers,
// which are read as seconds.
func Duration(v any) time.Duration {
	switch d := v.(type) {
	case time.Duration:
		return d
	case int:
		return time.Duration(d) * time.Second
	case int64:
		return time.Duration(d) * time.Second
	case string:
		s := strings.TrimSpace(d)
		if parsed, err := time.ParseDuration(s); err == nil {
			return parsed
		}
		if secs, err := strconv.Atoi(s); err == nil {
			return time.Duration(secs) * time.Second
		}
		return 0
	default:
		return 0
	}
}

// internal/platform/registry/helpers.go
package registry

import (
	"time"
)

// Type-safe option extraction helpers for module factories. They absorb the
// type looseness of options decoded from YAML/JSON (numbers arrive as float64,
// lists as []any) so factories stay free of repetitive assertions.

// GetStringOption extracts a string option with a default fallback.
func GetStringOption(options map[string]any, key, defaultValue string) string {
	if options == nil {
		return defaultValue
	}
	if val, ok := options[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}

// GetIntOption extracts an int option with a default fallback. Handles both
// int and float64 (JSON numbers decode as float64).
func GetIntOption(options map[string]any, key string, defaultValue int) int {
	if options == nil {
		return defaultValue
	}
	switch v := options[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultValue
}

// GetBoolOption extracts a bool option with a default fallback.
func GetBoolOption(options map[string]any, key string, defaultValue bool) bool {
	if options == nil {
		return defaultValue
	}
	if val, ok := options[key].(bool); ok {
		return val
	}
	return defaultValue
}

// GetDurationOption extracts a duration option with a default fallback.
// Accepts time.Duration, nanoseconds as int64/float64, or a string parsed via
// time.ParseDuration.
func GetDurationOption(options map[string]any, key string, defaultValue time.Duration) time.Duration {
	if options == nil {
		return defaultValue
	}
	val, exists := options[key]
	if !exists {
		return defaultValue
	}

	switch v := val.(type) {
	case time.Duration:
		return v
	case int64:
		return time.Duration(v)
	case float64:
		return time.Duration(v)
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetSliceOption extracts a string slice option with a default fallback.
// Accepts []string directly or []any with string elements.
func GetSliceOption(options map[string]any, key string, defaultValue []string) []string {
	if options == nil {
		return defaultValue
	}
	switch v := options[key].(type) {
	case []string:
		if len(v) > 0 {
			return v
		}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

// Package configvalue converts loosely typed configuration values (as
// decoded from TOML or set programmatically) into concrete Go types.
package configvalue

import (
	"strings"
	"time"
)

// String returns v as a string, or "".
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int returns v as an int, or 0. TOML integers decode as int64.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// Bool returns v as a bool, or false.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}

// Duration parses "500ms"-style strings. Bare numbers are seconds.
func Duration(v any) time.Duration {
	switch d := v.(type) {
	case time.Duration:
		return d
	case string:
		parsed, err := time.ParseDuration(strings.TrimSpace(d))
		if err != nil {
			return 0
		}
		return parsed
	case int, int64, float64:
		return time.Duration(Int(d)) * time.Second
	default:
		return 0
	}
}

// StringSlice returns v as a []string, or nil. TOML arrays decode as []any.
func StringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		result := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return nil
	}
}

// StringMap collects the string values of every "prefix.<name>" key in data.
// A value stored directly under prefix as a map is accepted too.
func StringMap(data map[string]any, prefix string) map[string]string {
	var out map[string]string
	put := func(k, v string) {
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = v
	}

	if nested, ok := data[prefix]; ok {
		switch m := nested.(type) {
		case map[string]string:
			for k, v := range m {
				put(k, v)
			}
		case map[string]any:
			for k, v := range m {
				if s, ok := v.(string); ok {
					put(k, s)
				}
			}
		}
	}

	p := prefix + "."
	for key, val := range data {
		name, ok := strings.CutPrefix(key, p)
		if !ok || name == "" || strings.Contains(name, ".") {
			continue
		}
		if s, ok := val.(string); ok {
			put(name, s)
		}
	}
	return out
}

package config

import "time"

// Values is a read-only view over a free-form option map, such as the
// per-product options block of Settings. Getters return the default when
// the key is missing or holds a value of an incompatible type.
type Values map[string]any

// String returns the string at key.
func (v Values) String(key, defaultVal string) string {
	if s, ok := v[key].(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the bool at key.
func (v Values) Bool(key string, defaultVal bool) bool {
	if b, ok := v[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer at key. Whole float64 values, as produced by
// JSON decoding, are accepted.
func (v Values) Int(key string, defaultVal int) int {
	switch n := v[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	return defaultVal
}

// Duration returns the duration at key. Strings are parsed with
// time.ParseDuration; numbers are seconds.
func (v Values) Duration(key string, defaultVal time.Duration) time.Duration {
	switch d := v[key].(type) {
	case time.Duration:
		return d
	case string:
		if parsed, err := time.ParseDuration(d); err == nil {
			return parsed
		}
	case int:
		return time.Duration(d) * time.Second
	case int64:
		return time.Duration(d) * time.Second
	case float64:
		return time.Duration(d * float64(time.Second))
	}
	return defaultVal
}

// StringSlice returns the string list at key. A list containing any
// non-string element yields the default.
func (v Values) StringSlice(key string, defaultVal []string) []string {
	switch list := v[key].(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			out = append(out, s)
		}
		return out
	}
	return defaultVal
}

// Has reports whether key is present.
func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}

package config

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Options is a loose-typed option bag for parser configuration.
//
// JSON numbers decode as float64 and JSON maps as map[string]any; the typed
// accessors below absorb those conversions so parser code never type-switches
// on raw JSON values.
type Options map[string]any

// Any returns the raw value for a key, or nil.
func (o Options) Any(key string) any {
	if o == nil {
		return nil
	}
	return o[key]
}

// Bool returns a boolean option. Accepts bool and the usual string spellings
// ("true"/"false", "1"/"0"); anything else yields the default.
func (o Options) Bool(key string, def bool) bool {
	switch v := o.Any(key).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// Int returns an integer option. Accepts int, float64 (JSON numbers) and
// numeric strings.
func (o Options) Int(key string, def int) int {
	switch v := o.Any(key).(type) {
	case int:
		return v
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// String returns a string option, or the default when absent or not a string.
func (o Options) String(key string, def string) string {
	if v, ok := o.Any(key).(string); ok {
		return v
	}
	return def
}

// Rune returns the first rune of a string option (e.g. a CSV delimiter).
func (o Options) Rune(key string, def rune) rune {
	s, ok := o.Any(key).(string)
	if !ok || s == "" {
		return def
	}
	return []rune(s)[0]
}

// StringMap returns a string->string option (e.g. a header rename map).
// Non-string values inside the map are skipped.
func (o Options) StringMap(key string) map[string]string {
	raw, ok := o.Any(key).(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

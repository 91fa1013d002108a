package normalizer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

// field returns the first present, non-null value among keys.
func field(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// asString resolves strings and numbers to a trimmed, non-empty string.
func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case json.Number:
		return t.String(), true
	case float64:
		return formatNumber(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	}
	return "", false
}

func stringField(obj map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if s, ok := asString(v); ok {
				return s, true
			}
		}
	}
	return "", false
}

// asFloat resolves numbers and numeric strings.
func asFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func intField(obj map[string]any, keys ...string) int {
	v, ok := field(obj, keys...)
	if !ok {
		return 0
	}
	f, ok := asFloat(v)
	if !ok {
		return 0
	}
	return int(f)
}

// asScore resolves a repository score to its string form. Scores arrive as
// numbers, numeric strings or a single-key object wrapping either.
func asScore(v any) (string, bool) {
	if obj, ok := asObject(v); ok {
		if len(obj) != 1 {
			return "", false
		}
		for _, inner := range obj {
			if _, nested := asObject(inner); nested {
				return "", false
			}
			return asScore(inner)
		}
	}
	f, ok := asFloat(v)
	if !ok {
		return "", false
	}
	return formatNumber(f), true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// canonicalID renders integral ids without a fractional part so that 42,
// 42.0 and "42" all index the same profile.
func canonicalID(v any) (string, bool) {
	s, ok := asString(v)
	if !ok {
		return "", false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', 0, 64), true
	}
	return s, true
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

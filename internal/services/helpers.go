package services

import (
	"strconv"
	"time"
)

// Row maps come back from either storage backend, so numbers may be
// int (local hydration) or float64 (REST JSON). These accessors
// normalize that.

func rowString(row map[string]any, key string) string {
	if row == nil {
		return ""
	}
	if s, ok := row[key].(string); ok {
		return s
	}
	return ""
}

func rowInt(row map[string]any, key string) int {
	if row == nil {
		return 0
	}
	switch v := row[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

func rowStrings(row map[string]any, key string) []string {
	if row == nil {
		return nil
	}
	switch v := row[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// rowDate reads a date-ish value as a UTC YYYY-MM-DD string.
func rowDate(row map[string]any, key string) string {
	if row == nil {
		return ""
	}
	if t, ok := row[key].(time.Time); ok {
		return t.UTC().Format("2006-01-02")
	}
	s := rowString(row, key)
	if s == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format("2006-01-02")
	}
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

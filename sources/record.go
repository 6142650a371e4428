// ABOUTME: Raw datastore row representation and tolerant typed accessors
// ABOUTME: Missing or malformed optional values decode to zero values, never errors
package sources

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is one raw row keyed by native column name.
type Record map[string]any

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// String returns the column as a trimmed string, or "" when absent.
func (r Record) String(col string) string {
	if col == "" {
		return ""
	}
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// OptString returns nil for absent or blank values.
func (r Record) OptString(col string) *string {
	s := r.String(col)
	if s == "" {
		return nil
	}
	return &s
}

// Float returns the column as a number, or nil when absent or unparseable.
func (r Record) Float(col string) *float64 {
	if col == "" {
		return nil
	}
	var f float64
	switch v := r[col].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int64:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case string, []byte:
		parsed, err := strconv.ParseFloat(r.String(col), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

// Bool treats absent values as false.
func (r Record) Bool(col string) bool {
	if col == "" {
		return false
	}
	switch v := r[col].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case string, []byte:
		b, err := strconv.ParseBool(r.String(col))
		return err == nil && b
	default:
		return false
	}
}

// Time returns the zero time when the column is absent or unparseable.
func (r Record) Time(col string) time.Time {
	if col == "" {
		return time.Time{}
	}
	switch v := r[col].(type) {
	case time.Time:
		return v
	case string, []byte:
		s := r.String(col)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

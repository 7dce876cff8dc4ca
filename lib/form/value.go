package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// DateLayout is the wire format of date fields (HTML date inputs).
const DateLayout = "2006-01-02"

// dateLayouts are accepted when populating date fields from API data.
var dateLayouts = []string{
	DateLayout,
	"02/01/2006 15:04:05",
	"02/01/2006",
	time.RFC3339,
}

// invalidValue keeps a submitted string that could not be converted to the
// field's kind so validation can report it.
type invalidValue string

// coerce converts v to the Go type used for kind: float64 for numbers,
// time.Time for dates, string otherwise. Empty input becomes nil.
func coerce(kind Kind, v any) any {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	switch kind {
	case KindNumber:
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f
			}
			return invalidValue(n.String())
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
			return invalidValue(n)
		}
	case KindDate:
		switch t := v.(type) {
		case time.Time:
			return t
		case string:
			for _, layout := range dateLayouts {
				if parsed, err := time.Parse(layout, t); err == nil {
					return parsed
				}
			}
			return invalidValue(t)
		}
	default:
		switch s := v.(type) {
		case string:
			return s
		case fmt.Stringer:
			return s.String()
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case int:
			return strconv.Itoa(s)
		case bool:
			return strconv.FormatBool(s)
		}
	}
	return v
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case time.Time:
		return t.IsZero()
	}
	return false
}

func equalValue(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

// FormatValue renders a value the way it is written back into an input.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(DateLayout)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case invalidValue:
		return string(t)
	case string:
		return t
	}
	return fmt.Sprint(v)
}

// NotBeforeField requires a date field to be on or after the date in
// other. Pair it with DependsOn: []string{other}.
func NotBeforeField(other, message string) func(any, map[string]any) error {
	return func(v any, values map[string]any) error {
		t, ok := v.(time.Time)
		if !ok {
			return nil
		}
		o, ok := values[other].(time.Time)
		if !ok {
			return nil
		}
		if t.Before(o) {
			return errors.New(message)
		}
		return nil
	}
}

// NotBefore requires a date field to be on or after the day returned by now.
func NotBefore(now func() time.Time, message string) func(any, map[string]any) error {
	return func(v any, _ map[string]any) error {
		t, ok := v.(time.Time)
		if !ok {
			return nil
		}
		n := now()
		today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, t.Location())
		if t.Before(today) {
			return errors.New(message)
		}
		return nil
	}
}

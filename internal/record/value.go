package record

import (
	"fmt"
	"strings"
	"time"
)

// DatetimeFormat is the canonical text form for DATETIME values, both in
// results and in the on-disk snapshot.
const DatetimeFormat = "2006-01-02 15:04:05"

// datetimeFormats are the accepted input layouts, tried in order.
var datetimeFormats = []string{
	DatetimeFormat,
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// TypeMismatchError reports a value that cannot be stored in a column.
type TypeMismatchError struct {
	Column   string
	Expected string
	Value    any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("record: column %q expects %s, got %v (%T)",
		e.Column, e.Expected, e.Value, e.Value)
}

// Convert normalizes a literal into the column's storage representation:
// INT -> int64, FLOAT -> float64, VARCHAR -> string, BOOLEAN -> bool,
// DATETIME -> time.Time. NULL passes through as nil.
//
// Coercion is strict: integer literals widen into FLOAT columns, everything
// else must already match. Over-long VARCHAR values are rejected, never
// truncated.
func (c Column) Convert(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	mismatch := func() error {
		return &TypeMismatchError{Column: c.Name, Expected: c.TypeString(), Value: v}
	}

	switch c.Type {
	case TypeInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		default:
			return nil, mismatch()
		}

	case TypeFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case int:
			return float64(x), nil
		default:
			return nil, mismatch()
		}

	case TypeVarchar:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch()
		}
		if c.Length > 0 && len(s) > c.Length {
			return nil, &TypeMismatchError{
				Column:   c.Name,
				Expected: c.TypeString(),
				Value:    fmt.Sprintf("%d-byte string", len(s)),
			}
		}
		return s, nil

	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch()
		}
		return b, nil

	case TypeDatetime:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case string:
			for _, layout := range datetimeFormats {
				if ts, err := time.Parse(layout, x); err == nil {
					return ts, nil
				}
			}
			return nil, mismatch()
		default:
			return nil, mismatch()
		}

	default:
		return nil, fmt.Errorf("record: unsupported column type %v", c.Type)
	}
}

// FormatValue renders a stored value for results and the snapshot file.
func FormatValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(DatetimeFormat)
	}
	return v
}

// Compare imposes a total order over stored values. NULL sorts before any
// value; false before true; numeric values compare across int64/float64.
func Compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}

	// Incomparable dynamic types. Fall back to a stable textual order so
	// sorting never panics; type checks upstream keep this path cold.
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// CompareKeys orders composite keys lexicographically.
func CompareKeys(a, b []any) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	default:
		return 0, false
	}
}

// Package coerce converts raw parsed values into the typed representation of
// a declared primitive kind. Absent values and empty text coerce to nil.
package coerce

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"fortio.org/safecast"

	"github.com/wehubfusion/xmlstruct/pkg/catalog"
)

// ErrCoercion is the sentinel every coercion failure wraps
var ErrCoercion = errors.New("coercion failed")

// Error describes a value that cannot be represented as the requested kind
type Error struct {
	Kind  catalog.PrimitiveKind
	Value any
	Err   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot coerce %v (%T) to %s: %v", e.Value, e.Value, e.Kind, e.Err)
	}
	return fmt.Sprintf("cannot coerce %v (%T) to %s", e.Value, e.Value, e.Kind)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches ErrCoercion
func (e *Error) Is(target error) bool {
	return target == ErrCoercion
}

func fail(kind catalog.PrimitiveKind, v any, err error) error {
	return &Error{Kind: kind, Value: v, Err: err}
}

// Date layouts accepted for date fields
var dateLayouts = []string{
	"2006-01-02",
	"20060102",
	"2006/01/02",
}

// Timestamp layouts accepted for timestamp fields, tried in order
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Value coerces raw into kind. nil raw, and empty text for any kind but
// string, yield nil with no error.
func Value(raw any, kind catalog.PrimitiveKind) (any, error) {
	if raw == nil {
		return nil, nil
	}

	if s, ok := raw.(string); ok {
		if kind != catalog.KindString && strings.TrimSpace(s) == "" {
			return nil, nil
		}
		return fromString(s, kind)
	}

	switch kind {
	case catalog.KindString:
		return toString(raw), nil
	case catalog.KindBoolean:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
		return nil, fail(kind, raw, nil)
	case catalog.KindByte:
		return narrow[int8](raw, kind)
	case catalog.KindShort:
		return narrow[int16](raw, kind)
	case catalog.KindInt:
		return narrow[int32](raw, kind)
	case catalog.KindLong:
		return narrow[int64](raw, kind)
	case catalog.KindFloat:
		f, ok := asFloat(raw)
		if !ok {
			return nil, fail(kind, raw, nil)
		}
		if math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
			return nil, fail(kind, raw, strconv.ErrRange)
		}
		return float32(f), nil
	case catalog.KindDouble:
		f, ok := asFloat(raw)
		if !ok {
			return nil, fail(kind, raw, nil)
		}
		return f, nil
	case catalog.KindDecimal:
		f, ok := asFloat(raw)
		if !ok {
			return nil, fail(kind, raw, nil)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case catalog.KindTimestamp, catalog.KindDate:
		if t, ok := raw.(time.Time); ok {
			if kind == catalog.KindDate {
				y, m, d := t.Date()
				return time.Date(y, m, d, 0, 0, 0, 0, t.Location()), nil
			}
			return t, nil
		}
		return nil, fail(kind, raw, nil)
	case catalog.KindBinary:
		if b, ok := raw.([]byte); ok {
			return b, nil
		}
		return nil, fail(kind, raw, nil)
	}
	return nil, fail(kind, raw, fmt.Errorf("unsupported kind"))
}

func fromString(s string, kind catalog.PrimitiveKind) (any, error) {
	t := strings.TrimSpace(s)

	switch kind {
	case catalog.KindString:
		return s, nil
	case catalog.KindBoolean:
		b, err := strconv.ParseBool(strings.ToLower(t))
		if err != nil {
			return nil, fail(kind, s, err)
		}
		return b, nil
	case catalog.KindByte:
		n, err := strconv.ParseInt(t, 10, 8)
		if err != nil {
			return nil, fail(kind, s, err)
		}
		return int8(n), nil
	case catalog.KindShort:
		n, err := strconv.ParseInt(t, 10, 16)
		if err != nil {
			return nil, fail(kind, s, err)
		}
		return int16(n), nil
	case catalog.KindInt:
		n, err := strconv.ParseInt(t, 10, 32)
		if err != nil {
			return nil, fail(kind, s, err)
		}
		return int32(n), nil
	case catalog.KindLong:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return nil, fail(kind, s, err)
		}
		return n, nil
	case catalog.KindFloat:
		f, err := strconv.ParseFloat(t, 32)
		if err != nil {
			return nil, fail(kind, s, err)
		}
		return float32(f), nil
	case catalog.KindDouble:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, fail(kind, s, err)
		}
		return f, nil
	case catalog.KindDecimal:
		r, ok := new(big.Rat).SetString(t)
		if !ok {
			return nil, fail(kind, s, fmt.Errorf("not a decimal"))
		}
		return r.FloatString(decimalScale(t)), nil
	case catalog.KindDate:
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, t); err == nil {
				return d, nil
			}
		}
		return nil, fail(kind, s, fmt.Errorf("no date layout matched"))
	case catalog.KindTimestamp:
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts, nil
			}
		}
		return nil, fail(kind, s, fmt.Errorf("no timestamp layout matched"))
	case catalog.KindBinary:
		return []byte(s), nil
	}
	return nil, fail(kind, s, fmt.Errorf("unsupported kind"))
}

// decimalScale returns the number of fractional digits the input denotes:
// the digits written after the point, shifted by any exponent
func decimalScale(s string) int {
	exp := 0
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		if e, err := strconv.Atoi(s[i+1:]); err == nil {
			exp = e
		}
		s = s[:i]
	}
	scale := 0
	if i := strings.IndexByte(s, '.'); i >= 0 {
		scale = len(s) - i - 1
	}
	return max(scale-exp, 0)
}

type signed interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// narrow converts any Go number into T, failing on overflow or fractions
func narrow[T signed](raw any, kind catalog.PrimitiveKind) (any, error) {
	var (
		out T
		err error
	)
	switch v := raw.(type) {
	case int:
		out, err = safecast.Conv[T](v)
	case int8:
		out, err = safecast.Conv[T](v)
	case int16:
		out, err = safecast.Conv[T](v)
	case int32:
		out, err = safecast.Conv[T](v)
	case int64:
		out, err = safecast.Conv[T](v)
	case uint:
		out, err = safecast.Conv[T](v)
	case uint8:
		out, err = safecast.Conv[T](v)
	case uint16:
		out, err = safecast.Conv[T](v)
	case uint32:
		out, err = safecast.Conv[T](v)
	case uint64:
		out, err = safecast.Conv[T](v)
	case float32:
		out, err = safecast.Convert[T](v)
	case float64:
		out, err = safecast.Convert[T](v)
	default:
		return nil, fail(kind, raw, nil)
	}
	if err != nil {
		return nil, fail(kind, raw, err)
	}
	return out, nil
}

func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func toString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(raw)
}

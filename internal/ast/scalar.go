package ast

import (
	"fmt"
	"strconv"
)

// Scalar is a sealed interface over the value kinds the document grammar can
// express: null, bool, integer, float, and string. Quoting rules differ per
// kind and live in the sqlbuilder, not here.
type Scalar interface {
	scalar() // Sealed - only types in this package implement it
}

// Null represents the null literal (spelled null or NULL in source).
type Null struct{}

func (Null) scalar() {}

// Bool represents a boolean literal.
type Bool bool

func (Bool) scalar() {}

// Int represents an integer literal. Always int64.
type Int int64

func (Int) scalar() {}

// Float represents a floating-point literal.
type Float float64

func (Float) scalar() {}

// String represents a string literal. The surrounding quotes are not part of
// the value.
type String string

func (String) scalar() {}

// ScalarFrom converts a caller-supplied Go value into a Scalar. Callers hand
// in variable maps decoded from YAML, CUE, or flag parsing, so the usual
// decoder output types are all accepted.
func ScalarFrom(v any) (Scalar, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case Scalar:
		return val, nil
	default:
		return nil, fmt.Errorf("unsupported variable type %T", v)
	}
}

// ScalarString renders a scalar the way it appears in source text, without
// any SQL quoting.
func ScalarString(s Scalar) string {
	switch val := s.(type) {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(bool(val))
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case String:
		return strconv.Quote(string(val))
	default:
		return fmt.Sprintf("%v", s)
	}
}

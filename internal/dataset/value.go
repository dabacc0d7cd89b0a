package dataset

import (
	"strconv"
	"strings"
)

// Value is a sealed interface over the scalar attribute types.
// Only Null, String, Int, Float and Bool implement it. The marker method
// pattern prevents external implementations and enables exhaustive type
// switches in comparators.
type Value interface {
	scalar() // Sealed - only types in this package implement it
}

// Null represents an absent or JSON-null attribute value.
// Using an explicit type keeps every attribute lookup total: callers always
// receive a Value, never an untyped nil.
type Null struct{}

func (Null) scalar() {}

// String is a string attribute value.
type String string

func (String) scalar() {}

// Int is an integer attribute value. Foreign keys and numeric ids arrive as
// Int when the source delivers them as numbers.
type Int int64

func (Int) scalar() {}

// Float is a floating point attribute value (amounts, scores).
type Float float64

func (Float) scalar() {}

// Bool is a boolean attribute value (draft flags, taxonomy tag flags).
type Bool bool

func (Bool) scalar() {}

// Canon returns the canonical string form of a value, the form used for
// loose comparison and for rendering ids. Null canonicalizes to the empty
// string.
func Canon(v Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case Null:
		return ""
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case Bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// IsNull reports whether v is absent or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// LooseEquals compares two values the way the source data demands: ids and
// enum values arrive as both strings and numbers across different tables, so
// String("1") must equal Int(1). Two nulls are equal; a null never equals a
// non-null. Values that both parse as numbers compare numerically, everything
// else compares by canonical string.
func LooseEquals(a, b Value) bool {
	an, bn := IsNull(a), IsNull(b)
	if an || bn {
		return an == bn
	}
	as, bs := Canon(a), Canon(b)
	if af, err := strconv.ParseFloat(as, 64); err == nil {
		if bf, err := strconv.ParseFloat(bs, 64); err == nil {
			return af == bf
		}
	}
	return as == bs
}

// LooseEqualsID compares a value against an id string under the same loose
// rules as LooseEquals.
func LooseEqualsID(v Value, id string) bool {
	return LooseEquals(v, String(id))
}

// CompareIDs orders two id strings deterministically: numerically when both
// are numeric, lexically otherwise (numeric ids sort before non-numeric).
// This is the tie-break order of every sorted derivation.
func CompareIDs(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// ParseValue converts a decoded scalar (from SQLite, JSON or YAML sources)
// into a Value. Integral floats are preserved as Float only when they carry a
// fraction; whole numbers normalize to Int so loose comparison stays exact.
// Unsupported types canonicalize to Null rather than failing - the loader is
// fail-soft on data shape.
func ParseValue(raw any) Value {
	switch val := raw.(type) {
	case nil:
		return Null{}
	case string:
		return String(val)
	case bool:
		return Bool(val)
	case int:
		return Int(int64(val))
	case int32:
		return Int(int64(val))
	case int64:
		return Int(val)
	case uint64:
		return Int(int64(val))
	case float32:
		return parseFloat(float64(val))
	case float64:
		return parseFloat(val)
	case []byte:
		return String(string(val))
	default:
		return Null{}
	}
}

func parseFloat(f float64) Value {
	if f == float64(int64(f)) {
		return Int(int64(f))
	}
	return Float(f)
}

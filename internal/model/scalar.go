package model

import (
	"encoding/json"
	"strconv"
)

// ScalarKind enumerates the dynamic types a coerced cell value can take.
type ScalarKind int

const (
	KindNull ScalarKind = iota
	KindInt
	KindFloat
	KindString
)

// Scalar is a dynamically typed cell value produced by numeric coercion.
// Integers and floats are kept distinct so that a value like "42" round-trips
// without gaining a decimal point. The zero value is the null scalar.
type Scalar struct {
	kind ScalarKind
	i    int64
	f    float64
	s    string
}

// Null returns the null scalar, the representation of a missing value.
func Null() Scalar { return Scalar{} }

// Int returns an integer scalar.
func Int(v int64) Scalar { return Scalar{kind: KindInt, i: v} }

// Float returns a floating-point scalar.
func Float(v float64) Scalar { return Scalar{kind: KindFloat, f: v} }

// Str returns a string scalar.
func Str(v string) Scalar { return Scalar{kind: KindString, s: v} }

// Kind reports the dynamic type of the scalar.
func (s Scalar) Kind() ScalarKind { return s.kind }

// IsNull reports whether the scalar is the null value.
func (s Scalar) IsNull() bool { return s.kind == KindNull }

// Float64 returns the numeric value of an integer or float scalar.
// The second return is false for null and string scalars.
func (s Scalar) Float64() (float64, bool) {
	switch s.kind {
	case KindInt:
		return float64(s.i), true
	case KindFloat:
		return s.f, true
	default:
		return 0, false
	}
}

// String renders the scalar for CSV output: integers without a decimal point,
// floats in their shortest round-trip form, null as the empty string.
func (s Scalar) String() string {
	switch s.kind {
	case KindInt:
		return strconv.FormatInt(s.i, 10)
	case KindFloat:
		return strconv.FormatFloat(s.f, 'g', -1, 64)
	case KindString:
		return s.s
	default:
		return ""
	}
}

// MarshalJSON renders the scalar as a bare JSON number, string, or null.
func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case KindInt:
		return []byte(strconv.FormatInt(s.i, 10)), nil
	case KindFloat:
		return json.Marshal(s.f)
	case KindString:
		return json.Marshal(s.s)
	default:
		return []byte("null"), nil
	}
}

package param

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/NyankoNyan/buildgen/pkg/errors"
)

// Kind identifies which field of a [Value] is populated.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindVec3
	KindVec3i
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindInt:     "int",
	KindFloat:   "float",
	KindBool:    "bool",
	KindString:  "string",
	KindVec3:    "vec3",
	KindVec3i:   "vec3i",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Vec3 is a floating point 3-component vector.
type Vec3 [3]float64

// Vec3i is an integer 3-component vector.
type Vec3i [3]int

// Float converts an integer vector to a floating point one.
func (v Vec3i) Float() Vec3 {
	return Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

// Trunc converts a floating point vector to integers, truncating toward zero.
func (v Vec3) Trunc() Vec3i {
	return Vec3i{int(v[0]), int(v[1]), int(v[2])}
}

// Value is the result of evaluating a [Parameter]. It is a closed sum over
// int, float, bool, string, float vector and int vector; the zero Value is
// invalid.
type Value struct {
	kind Kind
	i    int
	f    float64
	b    bool
	s    string
	v    Vec3
	vi   Vec3i
}

// IntValue returns an integer value.
func IntValue(n int) Value { return Value{kind: KindInt, i: n} }

// FloatValue returns a floating point value.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// StringValue returns a string value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// Vec3Value returns a floating point vector value.
func Vec3Value(v Vec3) Value { return Value{kind: KindVec3, v: v} }

// Vec3iValue returns an integer vector value.
func Vec3iValue(v Vec3i) Value { return Value{kind: KindVec3i, vi: v} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a value.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// IsNumeric reports whether v is an int or a float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// IsIntegral reports whether v is an int or an int vector.
func (v Value) IsIntegral() bool { return v.kind == KindInt || v.kind == KindVec3i }

// AsInt returns v as an int. Floats are truncated toward zero.
func (v Value) AsInt() (int, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return 0, coercionError(v, KindInt)
		}
		return int(v.f), nil
	}
	return 0, coercionError(v, KindInt)
}

// AsFloat returns v as a float64.
func (v Value) AsFloat() (float64, error) {
	switch v.kind {
	case KindInt:
		return float64(v.i), nil
	case KindFloat:
		return v.f, nil
	}
	return 0, coercionError(v, KindFloat)
}

// AsBool returns v as a bool. Only boolean values convert.
func (v Value) AsBool() (bool, error) {
	if v.kind == KindBool {
		return v.b, nil
	}
	return false, coercionError(v, KindBool)
}

// AsString returns v as a string. Only string values convert; use
// [Value.String] for display.
func (v Value) AsString() (string, error) {
	if v.kind == KindString {
		return v.s, nil
	}
	return "", coercionError(v, KindString)
}

// AsVec3 returns v as a floating point vector.
func (v Value) AsVec3() (Vec3, error) {
	switch v.kind {
	case KindVec3:
		return v.v, nil
	case KindVec3i:
		return v.vi.Float(), nil
	}
	return Vec3{}, coercionError(v, KindVec3)
}

// AsVec3i returns v as an integer vector. Float components are truncated.
func (v Value) AsVec3i() (Vec3i, error) {
	switch v.kind {
	case KindVec3i:
		return v.vi, nil
	case KindVec3:
		return v.v.Trunc(), nil
	}
	return Vec3i{}, coercionError(v, KindVec3i)
}

// Equal reports whether v and o hold the same kind and value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindVec3:
		return v.v == o.v
	case KindVec3i:
		return v.vi == o.vi
	}
	return true
}

// String formats v for display.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.Itoa(v.i)
	case KindFloat:
		return formatFloat(v.f)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.s
	case KindVec3:
		return fmt.Sprintf("(%s, %s, %s)", formatFloat(v.v[0]), formatFloat(v.v[1]), formatFloat(v.v[2]))
	case KindVec3i:
		return fmt.Sprintf("(%d, %d, %d)", v.vi[0], v.vi[1], v.vi[2])
	}
	return "<invalid>"
}

// MarshalJSON encodes scalars as JSON scalars and vectors as 3-element arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return json.Marshal(v.b)
	case KindString:
		return json.Marshal(v.s)
	case KindVec3:
		return json.Marshal(v.v)
	case KindVec3i:
		return json.Marshal(v.vi)
	}
	return []byte("null"), nil
}

// formatFloat keeps a decimal point on whole numbers so floats stay
// distinguishable from ints in output.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if f == math.Trunc(f) && !math.IsInf(f, 0) && !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func coercionError(v Value, want Kind) error {
	return errors.New(errors.ErrCodeTypeCoercion, "cannot use %s value %q as %s", v.kind, v.String(), want)
}

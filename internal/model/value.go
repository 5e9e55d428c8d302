package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueType names the variant held by a Value.
type ValueType string

const (
	ValueNumber ValueType = "NUMBER"
	ValueText   ValueType = "TEXT"
	ValueBool   ValueType = "BOOL"
)

// ParseValueType accepts the wire names case-insensitively.
func ParseValueType(s string) (ValueType, error) {
	switch t := ValueType(strings.ToUpper(strings.TrimSpace(s))); t {
	case ValueNumber, ValueText, ValueBool:
		return t, nil
	default:
		return "", fmt.Errorf("unknown value type: %q", s)
	}
}

// Value is a tagged variant: Number(f64) | Text(string) | Bool(bool).
// A Value may also be empty while still carrying its type, which is how
// preset-seeded items look before the user fills them in.
type Value struct {
	typ  ValueType
	set  bool
	num  float64
	text string
	b    bool
}

func Number(f float64) Value { return Value{typ: ValueNumber, set: true, num: f} }
func Text(s string) Value    { return Value{typ: ValueText, set: true, text: s} }
func Bool(b bool) Value      { return Value{typ: ValueBool, set: true, b: b} }

// EmptyValue returns an unset value of the given type.
func EmptyValue(t ValueType) Value { return Value{typ: t} }

// Type returns the variant tag. The zero Value has an empty type.
func (v Value) Type() ValueType { return v.typ }

// IsSet reports whether the value holds data.
func (v Value) IsSet() bool { return v.set }

func (v Value) Number() (float64, bool) {
	return v.num, v.set && v.typ == ValueNumber
}

func (v Value) Text() (string, bool) {
	return v.text, v.set && v.typ == ValueText
}

func (v Value) Bool() (bool, bool) {
	return v.b, v.set && v.typ == ValueBool
}

// Equal reports whether both values have the same type and contents.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ || v.set != o.set {
		return false
	}
	if !v.set {
		return true
	}
	switch v.typ {
	case ValueNumber:
		return v.num == o.num
	case ValueText:
		return v.text == o.text
	case ValueBool:
		return v.b == o.b
	}
	return true
}

// ParseValue parses raw user input into a value of type t.
// An empty string yields an empty value.
func ParseValue(t ValueType, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EmptyValue(t), nil
	}
	switch t {
	case ValueNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parsing number %q: %w", raw, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, fmt.Errorf("number %q is not finite", raw)
		}
		return Number(f), nil
	case ValueText:
		return Text(raw), nil
	case ValueBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Value{}, fmt.Errorf("parsing bool %q: %w", raw, err)
		}
		return Bool(b), nil
	default:
		return Value{}, fmt.Errorf("unknown value type: %q", t)
	}
}

func (v Value) String() string {
	if !v.set {
		return ""
	}
	switch v.typ {
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueText:
		return v.text
	case ValueBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

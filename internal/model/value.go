// Package model defines the typed property model shared by the repository and
// the query engine: scalar kinds, property values, type descriptors and the
// type registry.
package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the declared scalar kind of a property.
type Kind int

const (
	KindString Kind = iota + 1
	KindBoolean
	KindInteger
	KindDecimal
	KindDateTime
	KindID
)

// ErrKindMismatch is returned when two values of incomparable kinds are compared.
var ErrKindMismatch = errors.New("incompatible property kinds")

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindDateTime:
		return "datetime"
	case KindID:
		return "id"
	default:
		return "unknown"
	}
}

// ParseKind parses a kind name as used in schema files.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return KindString, nil
	case "boolean", "bool":
		return KindBoolean, nil
	case "integer", "int":
		return KindInteger, nil
	case "decimal", "double":
		return KindDecimal, nil
	case "datetime", "timestamp":
		return KindDateTime, nil
	case "id":
		return KindID, nil
	default:
		return 0, fmt.Errorf("unknown property kind %q", s)
	}
}

// kindClass groups kinds whose values compare with each other.
type kindClass int

const (
	classText kindClass = iota + 1
	classNumber
	classBoolean
	classTemporal
)

func (k Kind) class() kindClass {
	switch k {
	case KindString, KindID:
		return classText
	case KindInteger, KindDecimal:
		return classNumber
	case KindBoolean:
		return classBoolean
	case KindDateTime:
		return classTemporal
	default:
		return 0
	}
}

// ComparableWith reports whether values of kind k and o can be compared.
// Strings compare with ids, integers with decimals.
func (k Kind) ComparableWith(o Kind) bool {
	c := k.class()
	return c != 0 && c == o.class()
}

// Value is a single scalar of one of the property kinds.
type Value struct {
	kind Kind
	str  string
	num  int64
	dec  float64
	b    bool
	t    time.Time
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// ID creates an id value.
func ID(s string) Value { return Value{kind: KindID, str: s} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Integer creates an integer value.
func Integer(n int64) Value { return Value{kind: KindInteger, num: n} }

// Decimal creates a decimal value.
func Decimal(f float64) Value { return Value{kind: KindDecimal, dec: f} }

// DateTime creates a timestamp value.
func DateTime(t time.Time) Value { return Value{kind: KindDateTime, t: t} }

// Kind returns the value's scalar kind.
func (v Value) Kind() Kind { return v.kind }

// Text returns the string form of a string or id value.
func (v Value) Text() string { return v.str }

// Int returns an integer value.
func (v Value) Int() int64 { return v.num }

// Float returns a numeric value as float64; integers are widened.
func (v Value) Float() float64 {
	if v.kind == KindInteger {
		return float64(v.num)
	}
	return v.dec
}

// Truth returns a boolean value.
func (v Value) Truth() bool { return v.b }

// Time returns a timestamp value.
func (v Value) Time() time.Time { return v.t }

// As converts v to kind k when the conversion is lossless within its class
// (integer to decimal, string to id and back).
func (v Value) As(k Kind) (Value, bool) {
	if v.kind == k {
		return v, true
	}
	switch {
	case v.kind == KindInteger && k == KindDecimal:
		return Decimal(float64(v.num)), true
	case v.kind == KindString && k == KindID:
		return ID(v.str), true
	case v.kind == KindID && k == KindString:
		return String(v.str), true
	}
	return Value{}, false
}

// Compare orders v against o. Timestamps compare as instants, so the same
// moment in two time zones is equal.
func (v Value) Compare(o Value) (int, error) {
	if !v.kind.ComparableWith(o.kind) {
		return 0, fmt.Errorf("%w: %s and %s", ErrKindMismatch, v.kind, o.kind)
	}
	switch v.kind.class() {
	case classText:
		return strings.Compare(v.str, o.str), nil
	case classNumber:
		if v.kind == KindInteger && o.kind == KindInteger {
			return compareOrdered(v.num, o.num), nil
		}
		return compareOrdered(v.Float(), o.Float()), nil
	case classBoolean:
		switch {
		case v.b == o.b:
			return 0, nil
		case !v.b:
			return -1, nil
		default:
			return 1, nil
		}
	case classTemporal:
		return v.t.Compare(o.t), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrKindMismatch, v.kind)
}

// Equal reports whether v and o are comparable and equal.
func (v Value) Equal(o Value) bool {
	c, err := v.Compare(o)
	return err == nil && c == 0
}

// Key returns a canonical hash key; values that are Equal share a key.
func (v Value) Key() string {
	switch v.kind.class() {
	case classText:
		return "s:" + v.str
	case classNumber:
		if v.kind == KindInteger {
			return "n:" + strconv.FormatInt(v.num, 10)
		}
		// Integral decimals share the integer key. NaN, infinities and
		// values outside the int64 range keep their float form.
		if v.dec >= math.MinInt64 && v.dec < math.MaxInt64 && math.Trunc(v.dec) == v.dec {
			return "n:" + strconv.FormatInt(int64(v.dec), 10)
		}
		return "n:" + strconv.FormatFloat(v.dec, 'g', -1, 64)
	case classBoolean:
		return "b:" + strconv.FormatBool(v.b)
	case classTemporal:
		return "t:" + strconv.FormatInt(v.t.UnixNano(), 10)
	}
	return ""
}

// Interface returns the value as a plain Go value for serialization.
func (v Value) Interface() any {
	switch v.kind {
	case KindString, KindID:
		return v.str
	case KindBoolean:
		return v.b
	case KindInteger:
		return v.num
	case KindDecimal:
		return v.dec
	case KindDateTime:
		return v.t.Format(time.RFC3339Nano)
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindString, KindID:
		return v.str
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	case KindDecimal:
		return strconv.FormatFloat(v.dec, 'f', -1, 64)
	case KindDateTime:
		return v.t.Format(time.RFC3339)
	}
	return ""
}

// ParseValue parses the textual form of a scalar of kind k.
func ParseValue(k Kind, s string) (Value, error) {
	switch k {
	case KindString:
		return String(s), nil
	case KindID:
		return ID(s), nil
	case KindBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return Value{}, fmt.Errorf("invalid boolean %q", s)
		}
		return Bool(b), nil
	case KindInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid integer %q", s)
		}
		return Integer(n), nil
	case KindDecimal:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid decimal %q", s)
		}
		return Decimal(f), nil
	case KindDateTime:
		t, err := ParseTimestamp(s)
		if err != nil {
			return Value{}, err
		}
		return DateTime(t), nil
	}
	return Value{}, fmt.Errorf("unknown property kind %d", k)
}

// ParseTimestamp parses an ISO-8601 instant. A zone designator is required.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return t, nil
}

func compareOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

package model

import (
	"fmt"
	"strings"
)

// Cardinality says whether a property holds one scalar or a sequence.
type Cardinality int

const (
	CardinalitySingle Cardinality = iota
	CardinalityMulti
)

func (c Cardinality) String() string {
	if c == CardinalityMulti {
		return "multi"
	}
	return "single"
}

// PropertyValue is the value of one property on an object. The zero value is
// absent, which is distinct from a multi-valued property with no elements.
type PropertyValue struct {
	kind   Kind
	multi  bool
	values []Value
}

// Single wraps one scalar as a single-valued property.
func Single(v Value) PropertyValue {
	return PropertyValue{kind: v.kind, values: []Value{v}}
}

// Multi builds a multi-valued property of kind k. Every element must be of
// kind k (or convertible to it, see Value.As).
func Multi(k Kind, vs ...Value) (PropertyValue, error) {
	out := make([]Value, 0, len(vs))
	for i, v := range vs {
		cv, ok := v.As(k)
		if !ok {
			return PropertyValue{}, fmt.Errorf("%w: element %d is %s, want %s", ErrKindMismatch, i, v.kind, k)
		}
		out = append(out, cv)
	}
	return PropertyValue{kind: k, multi: true, values: out}, nil
}

// MustMulti is Multi for values known to be of kind k.
func MustMulti(k Kind, vs ...Value) PropertyValue {
	p, err := Multi(k, vs...)
	if err != nil {
		panic(err)
	}
	return p
}

// Strings builds a multi-valued string property.
func Strings(ss ...string) PropertyValue {
	vs := make([]Value, len(ss))
	for i, s := range ss {
		vs[i] = String(s)
	}
	return PropertyValue{kind: KindString, multi: true, values: vs}
}

// IsAbsent reports whether no value is present.
func (p PropertyValue) IsAbsent() bool { return p.kind == 0 }

// IsMulti reports whether the value is a sequence.
func (p PropertyValue) IsMulti() bool { return p.multi }

// Kind returns the scalar kind of the value's elements.
func (p PropertyValue) Kind() Kind { return p.kind }

// Len returns the number of scalars held.
func (p PropertyValue) Len() int { return len(p.values) }

// Values returns the held scalars. A single-valued property yields one element.
func (p PropertyValue) Values() []Value {
	out := make([]Value, len(p.values))
	copy(out, p.values)
	return out
}

// At returns the i-th scalar without copying the sequence.
func (p PropertyValue) At(i int) Value { return p.values[i] }

// First returns the first scalar, if any.
func (p PropertyValue) First() (Value, bool) {
	if len(p.values) == 0 {
		return Value{}, false
	}
	return p.values[0], true
}

// IsNull reports CMIS null-ness: absent, or a sequence with no elements.
func (p PropertyValue) IsNull() bool {
	return p.IsAbsent() || len(p.values) == 0
}

// Conforms checks p against a descriptor's kind and cardinality.
func (p PropertyValue) Conforms(d PropertyDescriptor) error {
	if p.IsAbsent() {
		return nil
	}
	if p.multi != d.Multi() {
		return fmt.Errorf("property %s is %s-valued", d.QueryName, d.Cardinality)
	}
	if p.kind != d.Kind {
		if _, ok := (Value{kind: p.kind}).As(d.Kind); !ok {
			return fmt.Errorf("%w: property %s is %s, got %s", ErrKindMismatch, d.QueryName, d.Kind, p.kind)
		}
	}
	return nil
}

// Coerce converts p to the descriptor's kind where the conversion is lossless.
func (p PropertyValue) Coerce(d PropertyDescriptor) (PropertyValue, error) {
	if err := p.Conforms(d); err != nil {
		return PropertyValue{}, err
	}
	if p.IsAbsent() || p.kind == d.Kind {
		return p, nil
	}
	out := PropertyValue{kind: d.Kind, multi: p.multi, values: make([]Value, len(p.values))}
	for i, v := range p.values {
		out.values[i], _ = v.As(d.Kind)
	}
	return out, nil
}

// Equal reports element-wise equality, including cardinality.
func (p PropertyValue) Equal(o PropertyValue) bool {
	if p.IsAbsent() || o.IsAbsent() {
		return p.IsAbsent() == o.IsAbsent()
	}
	if p.multi != o.multi || len(p.values) != len(o.values) {
		return false
	}
	for i := range p.values {
		if !p.values[i].Equal(o.values[i]) {
			return false
		}
	}
	return true
}

// Interface returns nil, a scalar, or a []any for serialization.
func (p PropertyValue) Interface() any {
	if p.IsAbsent() {
		return nil
	}
	if !p.multi {
		return p.values[0].Interface()
	}
	out := make([]any, len(p.values))
	for i, v := range p.values {
		out[i] = v.Interface()
	}
	return out
}

func (p PropertyValue) String() string {
	if p.IsAbsent() {
		return ""
	}
	if !p.multi {
		return p.values[0].String()
	}
	parts := make([]string, len(p.values))
	for i, v := range p.values {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

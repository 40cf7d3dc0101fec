package repository

import (
	"fmt"
	"sort"

	"github.com/aidanlsb/cmisq/internal/model"
)

// ParseProperty converts the textual form of a property to a value of the
// declared kind. Multi-valued properties take every element of raw; a
// single-valued property takes exactly one.
func ParseProperty(d model.PropertyDescriptor, raw []string) (model.PropertyValue, error) {
	if !d.Multi() {
		if len(raw) != 1 {
			return model.PropertyValue{}, fmt.Errorf("%w: %s is single-valued, got %d values", ErrInvalidArgument, d.QueryName, len(raw))
		}
		v, err := model.ParseValue(d.Kind, raw[0])
		if err != nil {
			return model.PropertyValue{}, fmt.Errorf("%w: %s: %w", ErrInvalidArgument, d.QueryName, err)
		}
		return model.Single(v), nil
	}

	vs := make([]model.Value, 0, len(raw))
	for _, r := range raw {
		v, err := model.ParseValue(d.Kind, r)
		if err != nil {
			return model.PropertyValue{}, fmt.Errorf("%w: %s: %w", ErrInvalidArgument, d.QueryName, err)
		}
		vs = append(vs, v)
	}
	return model.Multi(d.Kind, vs...)
}

// ParseProperties parses name -> raw values against a type. A name mapped
// to no values is kept as absent so UpdateProperties removes it.
func ParseProperties(td *model.TypeDescriptor, raw map[string][]string) (map[string]model.PropertyValue, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]model.PropertyValue, len(raw))
	for _, name := range names {
		d, ok := td.Property(name)
		if !ok {
			return nil, fmt.Errorf("%w: %w: %s on type %s", ErrInvalidArgument, model.ErrUnknownProperty, name, td.ID)
		}
		vals := raw[name]
		if len(vals) == 0 {
			out[name] = model.PropertyValue{}
			continue
		}
		v, err := ParseProperty(d, vals)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

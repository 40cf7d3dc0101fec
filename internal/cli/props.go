package cli

import (
	"fmt"
	"strings"

	"github.com/aidanlsb/cmisq/internal/model"
	"github.com/aidanlsb/cmisq/internal/repository"
)

// parsePropertyFlags turns repeated name=value flags into raw values per
// property. Repeating a name builds a multi-valued property. Names in
// unset map to no values, which removes the property.
func parsePropertyFlags(pairs, unset []string) (map[string][]string, error) {
	raw := make(map[string][]string)
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid property %q: expected name=value", pair)
		}
		raw[name] = append(raw[name], value)
	}
	for _, name := range unset {
		name = strings.TrimSpace(name)
		if _, set := raw[name]; set {
			return nil, fmt.Errorf("property %s is both set and unset", name)
		}
		raw[name] = nil
	}
	return raw, nil
}

// typedProperties parses property flags against a type.
func typedProperties(td *model.TypeDescriptor, pairs, unset []string) (map[string]model.PropertyValue, error) {
	raw, err := parsePropertyFlags(pairs, unset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrInvalidArgument, err)
	}
	return repository.ParseProperties(td, raw)
}

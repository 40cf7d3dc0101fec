package model

import (
	"errors"
	"fmt"
	"sort"
)

// Base type ids. Every registered type descends from one of these.
const (
	BaseDocument = "cmis:document"
	BaseFolder   = "cmis:folder"
)

var (
	// ErrUnknownType indicates a type id that is not registered.
	ErrUnknownType = errors.New("unknown type")
	// ErrUnknownProperty indicates a query-name not declared in a type's ancestor chain.
	ErrUnknownProperty = errors.New("unknown property")
)

// PropertyDescriptor declares one property of a type.
type PropertyDescriptor struct {
	QueryName   string
	Kind        Kind
	Cardinality Cardinality
	ReadOnly    bool   // maintained by the repository, not settable by callers
	DeclaredBy  string // type id that declares the property
}

// Multi reports whether the property is multi-valued.
func (d PropertyDescriptor) Multi() bool { return d.Cardinality == CardinalityMulti }

// TypeDescriptor describes an object type.
type TypeDescriptor struct {
	ID        string
	LocalName string
	ParentID  string // empty for base types
	Creatable bool
	Declared  []PropertyDescriptor

	baseID string
	props  []PropertyDescriptor
	byName map[string]int
}

// IsBase reports whether the type is a root of the type tree.
func (t *TypeDescriptor) IsBase() bool { return t.ParentID == "" }

// BaseID returns the id of the base type the type descends from.
func (t *TypeDescriptor) BaseID() string { return t.baseID }

// IsFolder reports whether the type descends from the folder base type.
func (t *TypeDescriptor) IsFolder() bool { return t.baseID == BaseFolder }

// Property looks up a resolved property by query-name.
func (t *TypeDescriptor) Property(name string) (PropertyDescriptor, bool) {
	i, ok := t.byName[name]
	if !ok {
		return PropertyDescriptor{}, false
	}
	return t.props[i], true
}

// Properties returns the flattened property list, base-type properties first.
func (t *TypeDescriptor) Properties() []PropertyDescriptor {
	out := make([]PropertyDescriptor, len(t.props))
	copy(out, t.props)
	return out
}

// Registry maps type ids to descriptors. It is populated with Register, then
// Freeze resolves inheritance once; after that it is read-only and safe for
// concurrent use.
type Registry struct {
	types    map[string]*TypeDescriptor
	order    []string
	children map[string][]string
	frozen   bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:    make(map[string]*TypeDescriptor),
		children: make(map[string][]string),
	}
}

// Register adds a type. Types may be registered in any order.
func (r *Registry) Register(t TypeDescriptor) error {
	if r.frozen {
		return fmt.Errorf("registry is frozen")
	}
	if t.ID == "" {
		return fmt.Errorf("type id is required")
	}
	if _, exists := r.types[t.ID]; exists {
		return fmt.Errorf("type %s already registered", t.ID)
	}
	if t.LocalName == "" {
		t.LocalName = t.ID
	}
	td := t
	td.Declared = append([]PropertyDescriptor(nil), t.Declared...)
	for i := range td.Declared {
		td.Declared[i].DeclaredBy = t.ID
	}
	r.types[t.ID] = &td
	r.order = append(r.order, t.ID)
	return nil
}

// Freeze resolves parents and flattens each type's property list.
func (r *Registry) Freeze() error {
	if r.frozen {
		return nil
	}
	for _, id := range r.order {
		t := r.types[id]
		if t.ParentID == "" {
			if id != BaseDocument && id != BaseFolder {
				return fmt.Errorf("type %s has no parent and is not a base type", id)
			}
			continue
		}
		if _, ok := r.types[t.ParentID]; !ok {
			return fmt.Errorf("type %s: %w: parent %s", id, ErrUnknownType, t.ParentID)
		}
		r.children[t.ParentID] = append(r.children[t.ParentID], id)
	}
	for _, id := range r.order {
		if err := r.flatten(r.types[id]); err != nil {
			return err
		}
	}
	r.frozen = true
	return nil
}

func (r *Registry) flatten(t *TypeDescriptor) error {
	var chain []*TypeDescriptor
	seen := map[string]bool{}
	for cur := t; cur != nil; {
		if seen[cur.ID] {
			return fmt.Errorf("type %s: inheritance cycle through %s", t.ID, cur.ID)
		}
		seen[cur.ID] = true
		chain = append(chain, cur)
		if cur.ParentID == "" {
			break
		}
		cur = r.types[cur.ParentID]
	}
	t.baseID = chain[len(chain)-1].ID

	t.props = nil
	t.byName = make(map[string]int)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, d := range chain[i].Declared {
			if j, dup := t.byName[d.QueryName]; dup {
				prev := t.props[j]
				if prev.Kind != d.Kind || prev.Cardinality != d.Cardinality {
					return fmt.Errorf("type %s: property %s redeclared by %s as %s/%s (declared by %s as %s/%s)",
						t.ID, d.QueryName, d.DeclaredBy, d.Kind, d.Cardinality, prev.DeclaredBy, prev.Kind, prev.Cardinality)
				}
				continue
			}
			t.byName[d.QueryName] = len(t.props)
			t.props = append(t.props, d)
		}
	}
	return nil
}

// ResolveType returns the descriptor registered under id.
func (r *Registry) ResolveType(id string) (*TypeDescriptor, error) {
	t, ok := r.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, id)
	}
	return t, nil
}

// ResolveProperty resolves a query-name against a type's ancestor chain.
func (r *Registry) ResolveProperty(t *TypeDescriptor, name string) (PropertyDescriptor, error) {
	d, ok := t.Property(name)
	if !ok {
		return PropertyDescriptor{}, fmt.Errorf("%w: %s on type %s", ErrUnknownProperty, name, t.ID)
	}
	return d, nil
}

// AllProperties returns the deduplicated union of the type's and its
// ancestors' properties, base-type properties first.
func (r *Registry) AllProperties(t *TypeDescriptor) []PropertyDescriptor {
	return t.Properties()
}

// Types returns all types in registration order.
func (r *Registry) Types() []*TypeDescriptor {
	out := make([]*TypeDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.types[id])
	}
	return out
}

// BaseTypes returns the registered base types.
func (r *Registry) BaseTypes() []*TypeDescriptor {
	var out []*TypeDescriptor
	for _, id := range r.order {
		if r.types[id].IsBase() {
			out = append(out, r.types[id])
		}
	}
	return out
}

// Children returns the direct subtypes of id, sorted by id.
func (r *Registry) Children(id string) ([]*TypeDescriptor, error) {
	if _, err := r.ResolveType(id); err != nil {
		return nil, err
	}
	ids := append([]string(nil), r.children[id]...)
	sort.Strings(ids)
	out := make([]*TypeDescriptor, len(ids))
	for i, cid := range ids {
		out[i] = r.types[cid]
	}
	return out, nil
}

// Descendants returns all subtypes of id at any depth (excluding id itself),
// depth-first in id order.
func (r *Registry) Descendants(id string) ([]*TypeDescriptor, error) {
	children, err := r.Children(id)
	if err != nil {
		return nil, err
	}
	var out []*TypeDescriptor
	for _, c := range children {
		out = append(out, c)
		sub, err := r.Descendants(c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

// SubtypeIDs returns id followed by the ids of all its descendants. A query
// over a type matches objects of any of these types.
func (r *Registry) SubtypeIDs(id string) ([]string, error) {
	desc, err := r.Descendants(id)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(desc)+1)
	ids = append(ids, id)
	for _, d := range desc {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(TypeDescriptor{
		ID: BaseDocument,
		Declared: []PropertyDescriptor{
			{QueryName: "cmis:objectId", Kind: KindID, ReadOnly: true},
			{QueryName: "cmis:name", Kind: KindString},
			{QueryName: "dc:contributors", Kind: KindString, Cardinality: CardinalityMulti},
		},
	}))
	require.NoError(t, r.Register(TypeDescriptor{
		ID:        "Note",
		ParentID:  "File",
		Creatable: true,
		Declared:  []PropertyDescriptor{{QueryName: "note", Kind: KindString}},
	}))
	require.NoError(t, r.Register(TypeDescriptor{
		ID:        "File",
		ParentID:  BaseDocument,
		Creatable: true,
		Declared: []PropertyDescriptor{
			{QueryName: "file:size", Kind: KindInteger},
			{QueryName: "cmis:name", Kind: KindString},
		},
	}))
	require.NoError(t, r.Register(TypeDescriptor{ID: BaseFolder}))
	require.NoError(t, r.Freeze())
	return r
}

func TestRegistryAllPropertiesOrder(t *testing.T) {
	r := newTestRegistry(t)
	note, err := r.ResolveType("Note")
	require.NoError(t, err)

	var names []string
	for _, p := range r.AllProperties(note) {
		names = append(names, p.QueryName)
	}
	assert.Equal(t, []string{"cmis:objectId", "cmis:name", "dc:contributors", "file:size", "note"}, names)
	assert.Equal(t, BaseDocument, note.BaseID())
	assert.False(t, note.IsFolder())
}

func TestRegistryResolveErrors(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.ResolveType("Document")
	require.ErrorIs(t, err, ErrUnknownType)

	file, err := r.ResolveType("File")
	require.NoError(t, err)
	_, err = r.ResolveProperty(file, "note")
	require.ErrorIs(t, err, ErrUnknownProperty)

	d, err := r.ResolveProperty(file, "dc:contributors")
	require.NoError(t, err)
	assert.True(t, d.Multi())
	assert.Equal(t, BaseDocument, d.DeclaredBy)
}

func TestRegistrySubtypes(t *testing.T) {
	r := newTestRegistry(t)

	ids, err := r.SubtypeIDs(BaseDocument)
	require.NoError(t, err)
	assert.Equal(t, []string{BaseDocument, "File", "Note"}, ids)

	children, err := r.Children(BaseFolder)
	require.NoError(t, err)
	assert.Empty(t, children)

	_, err = r.Descendants("nosuchtype")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestRegistryFreezeErrors(t *testing.T) {
	t.Run("unknown parent", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(TypeDescriptor{ID: "Orphan", ParentID: "Missing"}))
		require.ErrorIs(t, r.Freeze(), ErrUnknownType)
	})

	t.Run("conflicting redeclaration", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(TypeDescriptor{
			ID:       BaseDocument,
			Declared: []PropertyDescriptor{{QueryName: "dc:subjects", Kind: KindString, Cardinality: CardinalityMulti}},
		}))
		require.NoError(t, r.Register(TypeDescriptor{
			ID:       "Bad",
			ParentID: BaseDocument,
			Declared: []PropertyDescriptor{{QueryName: "dc:subjects", Kind: KindString}},
		}))
		require.Error(t, r.Freeze())
	})

	t.Run("parentless non-base type", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(TypeDescriptor{ID: "Loose"}))
		require.Error(t, r.Freeze())
	})

	t.Run("duplicate id", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(TypeDescriptor{ID: BaseFolder}))
		require.Error(t, r.Register(TypeDescriptor{ID: BaseFolder}))
	})
}

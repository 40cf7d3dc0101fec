package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/cmisq/internal/model"
	"github.com/aidanlsb/cmisq/internal/schema"
)

// memRepo is a minimal Repository over objects kept in insertion order.
type memRepo struct {
	objects map[string]*model.Object
	order   []string
}

func (r *memRepo) Object(id string) (*model.Object, bool) {
	o, ok := r.objects[id]
	return o, ok
}

func (r *memRepo) Children(folderID string) []string {
	if o, ok := r.objects[folderID]; ok {
		return o.Children
	}
	return nil
}

func (r *memRepo) Parent(id string) (string, bool) {
	o, ok := r.objects[id]
	if !ok || o.ParentID == "" {
		return "", false
	}
	return o.ParentID, true
}

func (r *memRepo) ObjectsOfType(typeIDs ...string) []*model.Object {
	want := make(map[string]bool, len(typeIDs))
	for _, id := range typeIDs {
		want[id] = true
	}
	var out []*model.Object
	for _, id := range r.order {
		if o := r.objects[id]; want[o.TypeID] {
			out = append(out, o)
		}
	}
	return out
}

// fakeIndex scores an object for a term when the term is in its table.
type fakeIndex map[string]map[string]float64

func (f fakeIndex) Score(term, objectID string) (float64, bool, error) {
	s, ok := f[term][objectID]
	return s, ok, nil
}

type fixture struct {
	reg  *model.Registry
	repo *memRepo
}

func (f *fixture) add(t *testing.T, id, typeID, parentID string, props map[string]model.PropertyValue) {
	t.Helper()
	td, err := f.reg.ResolveType(typeID)
	require.NoError(t, err)

	o := &model.Object{
		ID:         id,
		TypeID:     typeID,
		BaseTypeID: td.BaseID(),
		ParentID:   parentID,
		Properties: map[string]model.PropertyValue{
			"cmis:objectId":     model.Single(model.ID(id)),
			"cmis:objectTypeId": model.Single(model.ID(typeID)),
			"cmis:baseTypeId":   model.Single(model.ID(td.BaseID())),
		},
	}
	if td.IsFolder() && parentID != "" {
		o.Properties["cmis:parentId"] = model.Single(model.ID(parentID))
	}
	for k, v := range props {
		o.Properties[k] = v
	}
	if parentID != "" {
		p := f.repo.objects[parentID]
		p.Children = append(p.Children, id)
	}
	f.repo.objects[id] = o
	f.repo.order = append(f.repo.order, id)
}

func str(s string) model.PropertyValue { return model.Single(model.String(s)) }

func titled(name string) map[string]model.PropertyValue {
	return map[string]model.PropertyValue{
		"cmis:name": str(name),
		"dc:title":  str(name),
	}
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

// newFixture builds the test repository:
//
//	/                     Root
//	  testfolder1         Folder
//	    testfile1         File  (contributors bob, pete; subjects foo, gee)
//	    testfile2         File
//	    testfile3         Note  (subjects gee, moo)
//	  testfolder2         Folder
//	    testfolder3       Folder
//	      testfile4       File
//	    testfolder4       Folder
func newFixture(t *testing.T) *fixture {
	t.Helper()
	sf, err := schema.Parse([]byte(schema.DefaultSchema))
	require.NoError(t, err)
	reg, err := schema.NewRegistry(sf.Types...)
	require.NoError(t, err)

	f := &fixture{reg: reg, repo: &memRepo{objects: map[string]*model.Object{}}}
	f.add(t, "root", schema.RootType, "", map[string]model.PropertyValue{"cmis:name": str("")})
	f.add(t, "f1", "Folder", "root", titled("testfolder1_Title"))
	f.add(t, "f2", "Folder", "root", titled("testfolder2_Title"))
	f.add(t, "f3", "Folder", "f2", titled("testfolder3_Title"))
	f.add(t, "f4", "Folder", "f2", titled("testfolder4_Title"))

	file1 := titled("testfile1_Title")
	file1["dc:description"] = str("testfile1_description")
	file1["dc:coverage"] = str("foo/bar")
	file1["dc:contributors"] = model.Strings("bob", "pete")
	file1["dc:subjects"] = model.Strings("foo", "gee")
	file1["cmis:creationDate"] = model.Single(model.DateTime(mustTime(t, "2010-01-01T10:00:00+02:00")))
	f.add(t, "file1", "File", "f1", file1)

	file2 := titled("testfile2_Title")
	file2["dc:contributors"] = model.Strings()
	file2["cmis:creationDate"] = model.Single(model.DateTime(mustTime(t, "2010-01-02T00:00:00Z")))
	f.add(t, "file2", "File", "f1", file2)

	note := titled("testfile3_Title")
	note["note"] = str("this is a note")
	note["dc:subjects"] = model.Strings("gee", "moo")
	f.add(t, "file3", "Note", "f1", note)

	file4 := titled("testfile4_Title")
	file4["cmis:creationDate"] = model.Single(model.DateTime(mustTime(t, "2010-01-03T00:00:00Z")))
	f.add(t, "file4", "File", "f3", file4)
	return f
}

// addMyDoc adds a MyDocType document with every custom property set.
func (f *fixture) addMyDoc(t *testing.T) {
	t.Helper()
	props := titled("mydoc")
	props["my:string"] = str("some string")
	props["my:boolean"] = model.Single(model.Bool(true))
	props["my:integer"] = model.Single(model.Integer(123))
	props["my:long"] = model.Single(model.Integer(123456789))
	props["my:double"] = model.Single(model.Decimal(123.456))
	props["my:date"] = model.Single(model.DateTime(mustTime(t, "2010-09-30T16:04:55-02:00")))
	f.add(t, "mydoc", "MyDocType", "root", props)
}

func (f *fixture) engine(opts ...Option) *Engine {
	return NewEngine(f.reg, f.repo, opts...)
}

// names returns the cmis:name column of each row.
func names(t *testing.T, res *Result) []string {
	t.Helper()
	out := make([]string, len(res.Rows))
	for i, r := range res.Rows {
		out[i] = text(t, r, "cmis:name")
	}
	return out
}

func text(t *testing.T, r Row, key string) string {
	t.Helper()
	v, ok := r.Get(key)
	require.True(t, ok, "row has no column %q (have %v)", key, r.Keys())
	first, ok := v.First()
	require.True(t, ok, "column %q has no value", key)
	return first.Text()
}

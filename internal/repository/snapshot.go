package repository

import (
	"sort"

	"github.com/aidanlsb/cmisq/internal/model"
)

// Snapshot is a read-only copy of a Store taken at one instant. It satisfies
// query.Repository and is safe for concurrent use.
type Snapshot struct {
	rootID  string
	objects map[string]*model.Object
	pos     map[string]int // tree order
	byType  map[string][]*model.Object
	content map[string]*model.ContentStream
	order   []*model.Object
}

// RootID returns the id of the root folder.
func (s *Snapshot) RootID() string { return s.rootID }

// Len returns the number of objects, the root included.
func (s *Snapshot) Len() int { return len(s.order) }

// Object returns the object with the given id. Callers must not modify it.
func (s *Snapshot) Object(id string) (*model.Object, bool) {
	o, ok := s.objects[id]
	return o, ok
}

// Children returns a folder's child ids in insertion order.
func (s *Snapshot) Children(folderID string) []string {
	o, ok := s.objects[folderID]
	if !ok {
		return nil
	}
	return o.Children
}

// Parent returns the id of the folder containing id.
func (s *Snapshot) Parent(id string) (string, bool) {
	o, ok := s.objects[id]
	if !ok || o.ParentID == "" {
		return "", false
	}
	return o.ParentID, true
}

// ObjectsOfType returns the objects whose type is one of typeIDs, in
// tree order.
func (s *Snapshot) ObjectsOfType(typeIDs ...string) []*model.Object {
	if len(typeIDs) == 1 {
		return s.byType[typeIDs[0]]
	}
	var out []*model.Object
	for _, id := range typeIDs {
		out = append(out, s.byType[id]...)
	}
	sort.Slice(out, func(i, j int) bool { return s.pos[out[i].ID] < s.pos[out[j].ID] })
	return out
}

// Objects returns every object in tree order.
func (s *Snapshot) Objects() []*model.Object { return s.order }

// ContentStream returns a document's content, if it has any. Callers must
// not modify the data.
func (s *Snapshot) ContentStream(id string) (*model.ContentStream, bool) {
	cs, ok := s.content[id]
	return cs, ok
}

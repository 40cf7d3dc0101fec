// Package repository holds the folder/document tree that queries run against.
//
// A Store is the mutable repository. Each query reads an immutable Snapshot
// taken from it, so writers never disturb a query in progress.
package repository

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aidanlsb/cmisq/internal/model"
	"github.com/aidanlsb/cmisq/internal/schema"
	"github.com/aidanlsb/cmisq/internal/slugs"
)

// DefaultUser is recorded as creator and modifier when no user is configured.
const DefaultUser = "system"

// Store is an in-memory repository. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	reg     *model.Registry
	entries map[string]*entry
	rootID  string

	user   string
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

type entry struct {
	obj     *model.Object
	segment string
	content *model.ContentStream
}

// Option configures a Store.
type Option func(*Store)

// WithUser sets the principal recorded in cmis:createdBy and cmis:lastModifiedBy.
func WithUser(user string) Option {
	return func(s *Store) {
		if user != "" {
			s.user = user
		}
	}
}

// WithClock sets the time source for creation and modification dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the default UUID object ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithLogger sets the logger mutations are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a repository holding only a root folder.
func New(reg *model.Registry, opts ...Option) (*Store, error) {
	s := newStore(reg, opts...)

	rootType := schema.RootType
	if _, err := reg.ResolveType(rootType); err != nil {
		rootType = model.BaseFolder
	}
	td, err := reg.ResolveType(rootType)
	if err != nil {
		return nil, fmt.Errorf("root folder type: %w", err)
	}

	root := &model.Object{
		ID:         s.newID(),
		TypeID:     td.ID,
		BaseTypeID: td.BaseID(),
		Children:   []string{},
		Properties: map[string]model.PropertyValue{
			"cmis:name": model.Single(model.String("")),
		},
	}
	s.stampCreated(root, s.now())
	s.insert(&entry{obj: root})
	s.rootID = root.ID
	s.refreshPath(root.ID)
	return s, nil
}

func newStore(reg *model.Registry, opts ...Option) *Store {
	s := &Store{
		reg:     reg,
		entries: make(map[string]*entry),
		user:    DefaultUser,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the type registry objects are validated against.
func (s *Store) Registry() *model.Registry { return s.reg }

// RootID returns the id of the root folder.
func (s *Store) RootID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rootID
}

// Len returns the number of objects, the root included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Object returns a copy of the object with the given id.
func (s *Store) Object(id string) (*model.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return e.obj.Clone(), nil
}

// Path returns the absolute path of an object, built from path segments.
func (s *Store) Path(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.get(id); err != nil {
		return "", err
	}
	return s.pathOf(id), nil
}

// ObjectByPath resolves an absolute path. Each segment matches a child's
// path segment or, failing that for the whole path, its cmis:name; the two
// are never mixed within one path.
func (s *Store) ObjectByPath(path string) (*model.Object, error) {
	if len(path) == 0 || path[0] != '/' {
		return nil, fmt.Errorf("%w: path %q is not absolute", ErrInvalidArgument, path)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	parts := slugs.Split(path)
	bySegment := func(e *entry, part string) bool { return e.segment == part }
	byName := func(e *entry, part string) bool { return e.obj.Name() == part }

	for _, match := range []func(*entry, string) bool{bySegment, byName} {
		if e, ok := s.walk(parts, match); ok {
			return e.obj.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, path)
}

func (s *Store) walk(parts []string, match func(*entry, string) bool) (*entry, bool) {
	cur := s.entries[s.rootID]
	for _, part := range parts {
		var next *entry
		for _, cid := range cur.obj.Children {
			if c := s.entries[cid]; match(c, part) {
				next = c
				break
			}
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Children returns copies of a folder's children in insertion order.
func (s *Store) Children(folderID string) ([]*model.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, err := s.folder(folderID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Object, 0, len(f.obj.Children))
	for _, cid := range f.obj.Children {
		out = append(out, s.entries[cid].obj.Clone())
	}
	return out, nil
}

// Node is one object in a descendants tree.
type Node struct {
	Object *model.Object
	// Children is nil for nodes at the depth limit, and non-nil (possibly
	// empty) for nodes above it.
	Children []*Node
}

// Descendants returns the tree below a folder. depth counts levels below
// the folder; a negative depth is unlimited and zero is rejected.
func (s *Store) Descendants(folderID string, depth int) ([]*Node, error) {
	if depth == 0 {
		return nil, fmt.Errorf("%w: depth must not be 0", ErrInvalidArgument)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, err := s.folder(folderID)
	if err != nil {
		return nil, err
	}
	return s.descend(f, 1, depth), nil
}

func (s *Store) descend(parent *entry, level, depth int) []*Node {
	nodes := make([]*Node, 0, len(parent.obj.Children))
	for _, cid := range parent.obj.Children {
		c := s.entries[cid]
		n := &Node{Object: c.obj.Clone()}
		if depth < 0 || level < depth {
			n.Children = s.descend(c, level+1, depth)
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// FolderParent returns the folder containing a folder, or nil for the root.
func (s *Store) FolderParent(folderID string) (*model.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, err := s.folder(folderID)
	if err != nil {
		return nil, err
	}
	if f.obj.ParentID == "" {
		return nil, nil
	}
	return s.entries[f.obj.ParentID].obj.Clone(), nil
}

// Snapshot returns an immutable copy of the repository for one query.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := s.ordered()
	snap := &Snapshot{
		rootID:  s.rootID,
		objects: make(map[string]*model.Object, len(ordered)),
		pos:     make(map[string]int, len(ordered)),
		byType:  make(map[string][]*model.Object),
		content: make(map[string]*model.ContentStream),
	}
	for i, e := range ordered {
		o := e.obj.Clone()
		snap.order = append(snap.order, o)
		snap.objects[o.ID] = o
		snap.pos[o.ID] = i
		snap.byType[o.TypeID] = append(snap.byType[o.TypeID], o)
		if e.content != nil {
			snap.content[o.ID] = e.content
		}
	}
	return snap
}

func (s *Store) get(id string) (*entry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	return e, nil
}

func (s *Store) folder(id string) (*entry, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if !e.obj.IsFolder() {
		return nil, fmt.Errorf("%w: %s is not a folder", ErrInvalidArgument, id)
	}
	return e, nil
}

func (s *Store) insert(e *entry) {
	s.entries[e.obj.ID] = e
}

// ordered lists every entry in tree pre-order: a folder, then each child
// subtree in the folder's child order. Parents always precede children,
// which both scans and the repository file rely on.
func (s *Store) ordered() []*entry {
	out := make([]*entry, 0, len(s.entries))
	var walk func(id string)
	walk = func(id string) {
		e := s.entries[id]
		out = append(out, e)
		for _, child := range e.obj.Children {
			walk(child)
		}
	}
	walk(s.rootID)
	return out
}

func (s *Store) pathOf(id string) string {
	var segs []string
	for cur := s.entries[id]; cur != nil && cur.obj.ParentID != ""; cur = s.entries[cur.obj.ParentID] {
		segs = append(segs, cur.segment)
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return slugs.Join(segs...)
}

// refreshPath recomputes cmis:path for a folder and the folders below it.
func (s *Store) refreshPath(id string) {
	e := s.entries[id]
	if !e.obj.IsFolder() {
		return
	}
	e.obj.Properties["cmis:path"] = model.Single(model.String(s.pathOf(id)))
	for _, cid := range e.obj.Children {
		s.refreshPath(cid)
	}
}

func (s *Store) segmentTaken(folder *entry, seg string) bool {
	for _, cid := range folder.obj.Children {
		if s.entries[cid].segment == seg {
			return true
		}
	}
	return false
}

package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/aidanlsb/cmisq/internal/model"
	"github.com/aidanlsb/cmisq/internal/slugs"
)

// NewObject describes an object to create.
type NewObject struct {
	TypeID string
	// Segment is the path segment; derived from cmis:name when empty.
	Segment    string
	Properties map[string]model.PropertyValue
	// Content is the initial content stream (documents only).
	Content *model.ContentStream
}

// CreateFolder creates a folder in parentID.
func (s *Store) CreateFolder(parentID string, n NewObject) (*model.Object, error) {
	if n.Content != nil {
		return nil, fmt.Errorf("%w: folders have no content stream", ErrConstraint)
	}
	return s.create(parentID, n, model.BaseFolder)
}

// CreateDocument creates a document in parentID.
func (s *Store) CreateDocument(parentID string, n NewObject) (*model.Object, error) {
	return s.create(parentID, n, model.BaseDocument)
}

func (s *Store) create(parentID string, n NewObject, base string) (*model.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, err := s.folder(parentID)
	if err != nil {
		return nil, err
	}
	td, err := s.reg.ResolveType(n.TypeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if td.BaseID() != base {
		return nil, fmt.Errorf("%w: type %s is not a %s type", ErrInvalidArgument, td.ID, base)
	}
	if !td.Creatable {
		return nil, fmt.Errorf("%w: %s", ErrNotCreatable, td.ID)
	}

	props, err := checkProperties(td, n.Properties)
	if err != nil {
		return nil, err
	}
	name := nameOf(props)
	if name == "" {
		return nil, fmt.Errorf("%w: cmis:name is required", ErrInvalidArgument)
	}

	seg := n.Segment
	if seg == "" {
		seg = slugs.Segment(name)
	} else if strings.Contains(seg, "/") {
		return nil, fmt.Errorf("%w: path segment %q contains '/'", ErrInvalidArgument, seg)
	}
	if s.segmentTaken(parent, seg) {
		return nil, fmt.Errorf("%w: %s already exists in %s", ErrNameConflict, seg, s.pathOf(parent.obj.ID))
	}

	e := s.newEntry(td, parent, seg, props)
	if n.Content != nil {
		s.attachContent(e, n.Content)
	}

	s.logger.Info("object created",
		"id", e.obj.ID,
		"type", td.ID,
		"parent", parent.obj.ID,
		"segment", seg)
	return e.obj.Clone(), nil
}

// CreateDocumentFromSource copies a document into parentID. props override
// the copied values; the copy gets a fresh id and system properties.
func (s *Store) CreateDocumentFromSource(sourceID, parentID string, props map[string]model.PropertyValue) (*model.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := s.get(sourceID)
	if err != nil {
		return nil, err
	}
	if src.obj.IsFolder() {
		return nil, fmt.Errorf("%w: %s is a folder", ErrInvalidArgument, sourceID)
	}
	parent, err := s.folder(parentID)
	if err != nil {
		return nil, err
	}
	td, err := s.reg.ResolveType(src.obj.TypeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	overrides, err := checkProperties(td, props)
	if err != nil {
		return nil, err
	}

	copied := make(map[string]model.PropertyValue)
	for k, v := range src.obj.Properties {
		if d, ok := td.Property(k); ok && !d.ReadOnly {
			copied[k] = v
		}
	}
	for k, v := range overrides {
		if v.IsAbsent() {
			delete(copied, k)
			continue
		}
		copied[k] = v
	}
	if nameOf(copied) == "" {
		return nil, fmt.Errorf("%w: cmis:name is required", ErrInvalidArgument)
	}

	seg := slugs.Unique(src.segment, func(c string) bool { return s.segmentTaken(parent, c) })
	e := s.newEntry(td, parent, seg, copied)
	if src.content != nil {
		s.attachContent(e, src.content)
	}

	s.logger.Info("object copied",
		"id", e.obj.ID,
		"source", sourceID,
		"parent", parent.obj.ID)
	return e.obj.Clone(), nil
}

// newEntry builds, stamps and links a new object under parent.
func (s *Store) newEntry(td *model.TypeDescriptor, parent *entry, seg string, props map[string]model.PropertyValue) *entry {
	for k, v := range props {
		if v.IsAbsent() {
			delete(props, k)
		}
	}
	obj := &model.Object{
		ID:         s.newID(),
		TypeID:     td.ID,
		BaseTypeID: td.BaseID(),
		ParentID:   parent.obj.ID,
		Properties: props,
	}
	if td.IsFolder() {
		obj.Children = []string{}
	}
	s.stampCreated(obj, s.now())

	e := &entry{obj: obj, segment: seg}
	s.insert(e)
	parent.obj.Children = append(parent.obj.Children, obj.ID)
	s.refreshPath(obj.ID)
	return e
}

// stampCreated sets the system properties of a new object.
func (s *Store) stampCreated(o *model.Object, now time.Time) {
	p := o.Properties
	p["cmis:objectId"] = model.Single(model.ID(o.ID))
	p["cmis:objectTypeId"] = model.Single(model.ID(o.TypeID))
	p["cmis:baseTypeId"] = model.Single(model.ID(o.BaseTypeID))
	p["cmis:createdBy"] = model.Single(model.String(s.user))
	p["cmis:creationDate"] = model.Single(model.DateTime(now))
	s.stampModified(o, now)

	if o.IsFolder() {
		if o.ParentID != "" {
			p["cmis:parentId"] = model.Single(model.ID(o.ParentID))
		}
		return
	}
	p["cmis:isImmutable"] = model.Single(model.Bool(false))
	p["cmis:isLatestVersion"] = model.Single(model.Bool(true))
	p["cmis:isMajorVersion"] = model.Single(model.Bool(false))
	p["cmis:isLatestMajorVersion"] = model.Single(model.Bool(false))
	p["cmis:isVersionSeriesCheckedOut"] = model.Single(model.Bool(false))
	p["cmis:versionSeriesId"] = model.Single(model.ID(o.ID))
}

func (s *Store) stampModified(o *model.Object, now time.Time) {
	o.Properties["cmis:lastModifiedBy"] = model.Single(model.String(s.user))
	o.Properties["cmis:lastModificationDate"] = model.Single(model.DateTime(now))
}

// checkProperties validates caller-supplied values against the type and
// converts them to the declared kinds. Absent values are kept; they mean
// "unset" to UpdateProperties.
func checkProperties(td *model.TypeDescriptor, props map[string]model.PropertyValue) (map[string]model.PropertyValue, error) {
	out := make(map[string]model.PropertyValue, len(props))
	for name, v := range props {
		d, ok := td.Property(name)
		if !ok {
			return nil, fmt.Errorf("%w: %w: %s on type %s", ErrInvalidArgument, model.ErrUnknownProperty, name, td.ID)
		}
		if d.ReadOnly {
			return nil, fmt.Errorf("%w: %s is read-only", ErrConstraint, name)
		}
		cv, err := v.Coerce(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		out[name] = cv
	}
	return out, nil
}

func nameOf(props map[string]model.PropertyValue) string {
	v, ok := props["cmis:name"]
	if !ok {
		return ""
	}
	first, ok := v.First()
	if !ok {
		return ""
	}
	return strings.TrimSpace(first.Text())
}

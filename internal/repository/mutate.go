package repository

import (
	"fmt"

	"github.com/aidanlsb/cmisq/internal/model"
)

// DefaultMimeType is recorded for content streams set without a type.
const DefaultMimeType = "application/octet-stream"

// UpdateProperties sets the given properties. An absent value removes the
// property. System properties cannot be changed.
func (s *Store) UpdateProperties(id string, props map[string]model.PropertyValue) (*model.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	td, err := s.reg.ResolveType(e.obj.TypeID)
	if err != nil {
		return nil, err
	}
	checked, err := checkProperties(td, props)
	if err != nil {
		return nil, err
	}
	if _, ok := checked["cmis:name"]; ok && nameOf(checked) == "" {
		return nil, fmt.Errorf("%w: cmis:name cannot be empty", ErrInvalidArgument)
	}

	for k, v := range checked {
		if v.IsAbsent() {
			delete(e.obj.Properties, k)
			continue
		}
		e.obj.Properties[k] = v
	}
	s.stampModified(e.obj, s.now())

	s.logger.Info("object updated", "id", id, "properties", len(checked))
	return e.obj.Clone(), nil
}

// Move moves an object into targetID. The target must be a folder that is
// neither the object nor below it.
func (s *Store) Move(id, targetID string) (*model.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if id == s.rootID {
		return nil, fmt.Errorf("%w: the root folder cannot be moved", ErrConstraint)
	}
	target, err := s.get(targetID)
	if err != nil {
		return nil, err
	}
	if !target.obj.IsFolder() {
		return nil, fmt.Errorf("%w: target %s is not a folder", ErrConstraint, targetID)
	}
	for cur := targetID; cur != ""; cur = s.entries[cur].obj.ParentID {
		if cur == id {
			return nil, fmt.Errorf("%w: cannot move %s into itself or a descendant", ErrConstraint, id)
		}
	}
	if e.obj.ParentID == targetID {
		return e.obj.Clone(), nil
	}
	if s.segmentTaken(target, e.segment) {
		return nil, fmt.Errorf("%w: %s already exists in %s", ErrNameConflict, e.segment, s.pathOf(targetID))
	}

	from := e.obj.ParentID
	s.unlink(e)
	e.obj.ParentID = targetID
	target.obj.Children = append(target.obj.Children, id)
	if e.obj.IsFolder() {
		e.obj.Properties["cmis:parentId"] = model.Single(model.ID(targetID))
		s.refreshPath(id)
	}
	s.stampModified(e.obj, s.now())

	s.logger.Info("object moved", "id", id, "from", from, "to", targetID)
	return e.obj.Clone(), nil
}

// Delete removes a document or an empty folder.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.get(id)
	if err != nil {
		return err
	}
	if id == s.rootID {
		return fmt.Errorf("%w: the root folder cannot be deleted", ErrConstraint)
	}
	if len(e.obj.Children) > 0 {
		return fmt.Errorf("%w: folder %s is not empty", ErrConstraint, id)
	}
	s.unlink(e)
	delete(s.entries, id)

	s.logger.Info("object deleted", "id", id)
	return nil
}

// DeleteTree removes a folder and everything below it, returning the number
// of objects removed.
func (s *Store) DeleteTree(folderID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.folder(folderID)
	if err != nil {
		return 0, err
	}
	if folderID == s.rootID {
		return 0, fmt.Errorf("%w: the root folder cannot be deleted", ErrConstraint)
	}
	s.unlink(f)
	n := s.remove(f)

	s.logger.Info("tree deleted", "id", folderID, "objects", n)
	return n, nil
}

func (s *Store) remove(e *entry) int {
	n := 1
	for _, cid := range e.obj.Children {
		n += s.remove(s.entries[cid])
	}
	delete(s.entries, e.obj.ID)
	return n
}

// unlink detaches e from its parent's child list.
func (s *Store) unlink(e *entry) {
	p, ok := s.entries[e.obj.ParentID]
	if !ok {
		return
	}
	kids := p.obj.Children[:0]
	for _, cid := range p.obj.Children {
		if cid != e.obj.ID {
			kids = append(kids, cid)
		}
	}
	p.obj.Children = kids
}

// SetContentStream attaches content to a document. Existing content is
// replaced only when overwrite is set.
func (s *Store) SetContentStream(id string, cs *model.ContentStream, overwrite bool) (*model.Object, error) {
	if cs == nil {
		return nil, fmt.Errorf("%w: content stream is required", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.document(id)
	if err != nil {
		return nil, err
	}
	if e.content != nil && !overwrite {
		return nil, fmt.Errorf("%w: %s already has a content stream", ErrConstraint, id)
	}
	s.attachContent(e, cs)
	s.stampModified(e.obj, s.now())

	s.logger.Info("content stream set", "id", id, "length", cs.Length(), "mime_type", e.content.MimeType)
	return e.obj.Clone(), nil
}

// ContentStream returns a copy of a document's content.
func (s *Store) ContentStream(id string) (*model.ContentStream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.document(id)
	if err != nil {
		return nil, err
	}
	if e.content == nil {
		return nil, fmt.Errorf("%w: %s has no content stream", ErrConstraint, id)
	}
	cs := *e.content
	cs.Data = append([]byte(nil), e.content.Data...)
	return &cs, nil
}

// DeleteContentStream removes a document's content.
func (s *Store) DeleteContentStream(id string) (*model.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.document(id)
	if err != nil {
		return nil, err
	}
	if e.content == nil {
		return nil, fmt.Errorf("%w: %s has no content stream", ErrConstraint, id)
	}
	e.content = nil
	for _, k := range []string{"cmis:contentStreamLength", "cmis:contentStreamMimeType", "cmis:contentStreamFileName"} {
		delete(e.obj.Properties, k)
	}
	s.stampModified(e.obj, s.now())

	s.logger.Info("content stream deleted", "id", id)
	return e.obj.Clone(), nil
}

func (s *Store) document(id string) (*entry, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if e.obj.IsFolder() {
		return nil, fmt.Errorf("%w: %s is a folder", ErrConstraint, id)
	}
	return e, nil
}

// attachContent stores a private copy of cs. The file name defaults to the
// document's cmis:name.
func (s *Store) attachContent(e *entry, cs *model.ContentStream) {
	c := &model.ContentStream{
		FileName: cs.FileName,
		MimeType: cs.MimeType,
		Data:     append([]byte(nil), cs.Data...),
	}
	if c.FileName == "" {
		c.FileName = e.obj.Name()
	}
	if c.MimeType == "" {
		c.MimeType = DefaultMimeType
	}
	e.content = c
	e.obj.Properties["cmis:contentStreamLength"] = model.Single(model.Integer(c.Length()))
	e.obj.Properties["cmis:contentStreamMimeType"] = model.Single(model.String(c.MimeType))
	e.obj.Properties["cmis:contentStreamFileName"] = model.Single(model.String(c.FileName))
}

package model

// Object is one repository object: a folder or a document.
type Object struct {
	// ID is stable and never changes once assigned.
	ID string `json:"id"`

	// TypeID is the object's type; BaseTypeID is the base type it descends from.
	TypeID     string `json:"type"`
	BaseTypeID string `json:"base_type"`

	// ParentID is the containing folder. Empty only for the root folder.
	ParentID string `json:"parent_id,omitempty"`

	// Children lists child ids in insertion order (folders only).
	Children []string `json:"children,omitempty"`

	// Properties maps query-names to values. Missing keys are absent values.
	Properties map[string]PropertyValue `json:"-"`
}

// IsFolder reports whether the object is a folder.
func (o *Object) IsFolder() bool { return o.BaseTypeID == BaseFolder }

// Property returns the value stored under name.
func (o *Object) Property(name string) (PropertyValue, bool) {
	v, ok := o.Properties[name]
	if !ok || v.IsAbsent() {
		return PropertyValue{}, false
	}
	return v, true
}

// Name returns the object's cmis:name, if set.
func (o *Object) Name() string {
	if v, ok := o.Property("cmis:name"); ok {
		if s, ok := v.First(); ok {
			return s.Text()
		}
	}
	return ""
}

// Clone returns a deep copy. Property values are immutable, so only the
// containers are copied.
func (o *Object) Clone() *Object {
	c := *o
	c.Children = append([]string(nil), o.Children...)
	c.Properties = make(map[string]PropertyValue, len(o.Properties))
	for k, v := range o.Properties {
		c.Properties[k] = v
	}
	return &c
}

// ContentStream is the binary content attached to a document.
type ContentStream struct {
	FileName string
	MimeType string
	Data     []byte
}

// Length returns the stream length in bytes.
func (c *ContentStream) Length() int64 { return int64(len(c.Data)) }

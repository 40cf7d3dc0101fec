package index

import (
	"strings"
	"unicode/utf8"

	"github.com/aidanlsb/cmisq/internal/model"
)

// Source is a repository view documents are extracted from.
type Source interface {
	Objects() []*model.Object
	ContentStream(id string) (*model.ContentStream, bool)
}

// DocumentsFrom extracts the indexed text of every object in src: its name,
// dc:title, and dc:description followed by any textual content stream.
func DocumentsFrom(src Source) []Document {
	objects := src.Objects()
	docs := make([]Document, 0, len(objects))
	for _, o := range objects {
		docs = append(docs, DocumentOf(o, src))
	}
	return docs
}

// DocumentOf extracts the indexed text of one object.
func DocumentOf(o *model.Object, src Source) Document {
	doc := Document{
		ObjectID: o.ID,
		Name:     o.Name(),
		Title:    text(o, "dc:title"),
	}
	var parts []string
	if d := text(o, "dc:description"); d != "" {
		parts = append(parts, d)
	}
	if cs, ok := src.ContentStream(o.ID); ok && isText(cs) {
		parts = append(parts, string(cs.Data))
	}
	doc.Content = strings.Join(parts, "\n")
	return doc
}

func text(o *model.Object, name string) string {
	v, ok := o.Property(name)
	if !ok {
		return ""
	}
	return v.String()
}

func isText(cs *model.ContentStream) bool {
	if !utf8.Valid(cs.Data) {
		return false
	}
	mime := strings.ToLower(cs.MimeType)
	switch {
	case strings.HasPrefix(mime, "text/"),
		strings.HasPrefix(mime, "application/json"),
		strings.HasPrefix(mime, "application/xml"):
		return true
	}
	return false
}

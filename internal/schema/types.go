// Package schema builds the type registry: the built-in CMIS base types plus
// user-defined types loaded from a YAML schema file.
package schema

import "github.com/aidanlsb/cmisq/internal/model"

// File is the on-disk form of a schema file.
type File struct {
	Types []TypeDefinition `yaml:"types"`
}

// TypeDefinition declares one user type.
type TypeDefinition struct {
	ID         string               `yaml:"id"`
	LocalName  string               `yaml:"local_name,omitempty"`
	Parent     string               `yaml:"parent"`
	Creatable  *bool                `yaml:"creatable,omitempty"` // defaults to true
	Properties []PropertyDefinition `yaml:"properties,omitempty"`
}

// PropertyDefinition declares one property of a user type.
type PropertyDefinition struct {
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"`
	Multi bool   `yaml:"multi,omitempty"`
}

// RootType is the type of the repository's root folder.
const RootType = "Root"

func prop(name string, k model.Kind) model.PropertyDescriptor {
	return model.PropertyDescriptor{QueryName: name, Kind: k}
}

func readOnly(name string, k model.Kind) model.PropertyDescriptor {
	return model.PropertyDescriptor{QueryName: name, Kind: k, ReadOnly: true}
}

func multi(d model.PropertyDescriptor) model.PropertyDescriptor {
	d.Cardinality = model.CardinalityMulti
	return d
}

// objectProperties are declared by both base types.
func objectProperties() []model.PropertyDescriptor {
	return []model.PropertyDescriptor{
		readOnly("cmis:objectId", model.KindID),
		readOnly("cmis:objectTypeId", model.KindID),
		readOnly("cmis:baseTypeId", model.KindID),
		prop("cmis:name", model.KindString),
		readOnly("cmis:createdBy", model.KindString),
		readOnly("cmis:creationDate", model.KindDateTime),
		readOnly("cmis:lastModifiedBy", model.KindString),
		readOnly("cmis:lastModificationDate", model.KindDateTime),
		readOnly("cmis:changeToken", model.KindString),
	}
}

// dublinCore is present on every type.
func dublinCore() []model.PropertyDescriptor {
	return []model.PropertyDescriptor{
		prop("dc:title", model.KindString),
		prop("dc:description", model.KindString),
		prop("dc:creator", model.KindString),
		prop("dc:coverage", model.KindString),
		multi(prop("dc:subjects", model.KindString)),
		multi(prop("dc:contributors", model.KindString)),
		prop("dc:created", model.KindDateTime),
		prop("dc:modified", model.KindDateTime),
	}
}

func documentType() model.TypeDescriptor {
	props := objectProperties()
	props = append(props,
		readOnly("cmis:isImmutable", model.KindBoolean),
		readOnly("cmis:isLatestVersion", model.KindBoolean),
		readOnly("cmis:isMajorVersion", model.KindBoolean),
		readOnly("cmis:isLatestMajorVersion", model.KindBoolean),
		readOnly("cmis:versionLabel", model.KindString),
		readOnly("cmis:versionSeriesId", model.KindID),
		readOnly("cmis:isVersionSeriesCheckedOut", model.KindBoolean),
		readOnly("cmis:versionSeriesCheckedOutBy", model.KindString),
		readOnly("cmis:versionSeriesCheckedOutId", model.KindID),
		readOnly("cmis:checkinComment", model.KindString),
		readOnly("cmis:contentStreamLength", model.KindInteger),
		readOnly("cmis:contentStreamMimeType", model.KindString),
		readOnly("cmis:contentStreamFileName", model.KindString),
		readOnly("cmis:contentStreamId", model.KindID),
	)
	props = append(props, dublinCore()...)
	return model.TypeDescriptor{ID: model.BaseDocument, Declared: props}
}

func folderType() model.TypeDescriptor {
	props := objectProperties()
	props = append(props,
		readOnly("cmis:parentId", model.KindID),
		readOnly("cmis:path", model.KindString),
		multi(readOnly("cmis:allowedChildObjectTypeIds", model.KindID)),
	)
	props = append(props, dublinCore()...)
	return model.TypeDescriptor{ID: model.BaseFolder, Declared: props}
}

// Builtins returns the types every registry starts with.
func Builtins() []model.TypeDescriptor {
	return []model.TypeDescriptor{
		documentType(),
		folderType(),
		{ID: RootType, ParentID: model.BaseFolder},
	}
}

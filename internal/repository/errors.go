package repository

import "errors"

var (
	// ErrObjectNotFound indicates an id or path that names no object.
	ErrObjectNotFound = errors.New("object not found")
	// ErrConstraint indicates an operation the repository's rules forbid,
	// such as deleting a non-empty folder.
	ErrConstraint = errors.New("constraint violation")
	// ErrInvalidArgument indicates a malformed request.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotCreatable indicates a type that cannot be instantiated.
	ErrNotCreatable = errors.New("type is not creatable")
	// ErrNameConflict indicates a path segment already used in the folder.
	ErrNameConflict = errors.New("name conflict")
)

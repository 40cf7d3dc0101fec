package cli

import (
	"errors"

	"github.com/aidanlsb/cmisq/internal/model"
	"github.com/aidanlsb/cmisq/internal/query"
	"github.com/aidanlsb/cmisq/internal/repository"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	// Config errors
	ErrConfigInvalid = "CONFIG_INVALID"
	ErrSchemaInvalid = "SCHEMA_INVALID"

	// Repository errors
	ErrRepositoryInvalid = "REPOSITORY_INVALID"
	ErrObjectNotFound    = "OBJECT_NOT_FOUND"
	ErrTypeNotFound      = "TYPE_NOT_FOUND"
	ErrPropertyNotFound  = "PROPERTY_NOT_FOUND"
	ErrConstraint        = "CONSTRAINT_VIOLATION"
	ErrNameConflict      = "NAME_CONFLICT"
	ErrNotCreatable      = "TYPE_NOT_CREATABLE"

	// Query errors
	ErrQueryInvalid     = "QUERY_INVALID"
	ErrQueryUnsupported = "QUERY_UNSUPPORTED"
	ErrTypeMismatch     = "TYPE_MISMATCH"
	ErrInvalidLiteral   = "INVALID_LITERAL"

	// File errors
	ErrFileReadError  = "FILE_READ_ERROR"
	ErrFileWriteError = "FILE_WRITE_ERROR"

	// Database errors
	ErrDatabaseError = "DATABASE_ERROR"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnIndexUpdateFailed = "INDEX_UPDATE_FAILED"
	WarnAuditFailed       = "AUDIT_WRITE_FAILED"
)

// errorCode classifies an error from the query engine or the repository.
func errorCode(err error) string {
	var qe *query.Error
	if errors.As(err, &qe) {
		switch qe.Kind {
		case query.KindSyntax:
			return ErrQueryInvalid
		case query.KindUnknownType:
			return ErrTypeNotFound
		case query.KindUnknownProperty:
			return ErrPropertyNotFound
		case query.KindTypeMismatch:
			return ErrTypeMismatch
		case query.KindInvalidLiteral:
			return ErrInvalidLiteral
		case query.KindUnsupported:
			return ErrQueryUnsupported
		case query.KindInvalidArgument:
			return ErrInvalidInput
		}
	}

	switch {
	case errors.Is(err, repository.ErrObjectNotFound):
		return ErrObjectNotFound
	case errors.Is(err, repository.ErrNameConflict):
		return ErrNameConflict
	case errors.Is(err, repository.ErrNotCreatable):
		return ErrNotCreatable
	case errors.Is(err, repository.ErrConstraint):
		return ErrConstraint
	case errors.Is(err, model.ErrUnknownType):
		return ErrTypeNotFound
	case errors.Is(err, model.ErrUnknownProperty):
		return ErrPropertyNotFound
	case errors.Is(err, repository.ErrInvalidArgument):
		return ErrInvalidInput
	}
	return ErrInternal
}

// fail reports err under its classified code.
func fail(err error) error {
	return handleError(errorCode(err), err, "")
}

package query

import (
	"fmt"
)

// ErrorKind classifies query failures. None of them are retryable.
type ErrorKind int

const (
	KindSyntax ErrorKind = iota + 1
	KindUnknownType
	KindUnknownProperty
	KindTypeMismatch
	KindInvalidLiteral
	KindUnsupported
	KindInvalidArgument
)

func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindUnknownType:
		return "UnknownType"
	case KindUnknownProperty:
		return "UnknownProperty"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindInvalidLiteral:
		return "InvalidLiteral"
	case KindUnsupported:
		return "UnsupportedConstruct"
	case KindInvalidArgument:
		return "InvalidArgument"
	default:
		return "UnknownError"
	}
}

// Error is a classified query failure. Pos is the byte offset in the
// statement the failure refers to, or -1.
type Error struct {
	Kind ErrorKind
	Pos  int
	Msg  string
	Err  error
}

// Sentinels for errors.Is. Any *Error matches the sentinel of its kind.
var (
	ErrSyntax          = &Error{Kind: KindSyntax, Pos: -1}
	ErrUnknownType     = &Error{Kind: KindUnknownType, Pos: -1}
	ErrUnknownProperty = &Error{Kind: KindUnknownProperty, Pos: -1}
	ErrTypeMismatch    = &Error{Kind: KindTypeMismatch, Pos: -1}
	ErrInvalidLiteral  = &Error{Kind: KindInvalidLiteral, Pos: -1}
	ErrUnsupported     = &Error{Kind: KindUnsupported, Pos: -1}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument, Pos: -1}
)

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Pos >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Kind, e.Pos, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Msg != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind ErrorKind, pos int, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, pos int, err error) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: err.Error(), Err: err}
}

package hosttypes

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes a failure reported by the registry or a wrapper.
type Kind string

const (
	KindUnknown           Kind = "unknown"
	KindNotFound          Kind = "not_found"
	KindUnavailable       Kind = "unavailable"
	KindHostFault         Kind = "host_fault"
	KindInvalidArgument   Kind = "invalid_argument"
	KindNotADirectory     Kind = "not_a_directory"
	KindIsADirectory      Kind = "is_a_directory"
	KindAlreadyExists     Kind = "already_exists"
	KindUnsupported       Kind = "unsupported"
	KindInterfaceMismatch Kind = "interface_mismatch"
)

// Error is the structured error returned across every public boundary.
type Error struct {
	Cause  error
	Op     string
	Kind   Kind
	Path   string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Kind))
	b.WriteString("] ")
	b.WriteString(e.Op)

	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Message returns the human readable part of the error without the kind tag.
func (e *Error) Message() string {
	var cause *Error
	if e.Detail == "" && errors.As(e.Cause, &cause) {
		return cause.Message()
	}
	switch {
	case e.Detail != "" && e.Cause != nil:
		return e.Detail + ": " + e.Cause.Error()
	case e.Detail != "":
		return e.Detail
	case e.Cause != nil:
		return e.Cause.Error()
	default:
		return string(e.Kind)
	}
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrUnavailable       = &Error{Kind: KindUnavailable}
	ErrHostFault         = &Error{Kind: KindHostFault}
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}
	ErrNotADirectory     = &Error{Kind: KindNotADirectory}
	ErrIsADirectory      = &Error{Kind: KindIsADirectory}
	ErrAlreadyExists     = &Error{Kind: KindAlreadyExists}
	ErrUnsupported       = &Error{Kind: KindUnsupported}
	ErrInterfaceMismatch = &Error{Kind: KindInterfaceMismatch}
)

// NewError creates an error of the given kind. Detail is formatted when args are given.
func NewError(op string, kind Kind, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{Op: op, Kind: kind, Detail: detail}
}

// WrapError wraps cause. A cause that already is an *Error keeps its kind unless kind is set.
func WrapError(op string, kind Kind, cause error) *Error {
	var he *Error
	if errors.As(cause, &he) && kind == "" {
		kind = he.Kind
	}
	if kind == "" {
		kind = KindHostFault
	}
	return &Error{Op: op, Kind: kind, Cause: cause}
}

// WithPath returns e with Path set.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// KindOf extracts the kind of err, KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return KindUnknown
}

// FromPanic converts a recovered value into a host fault.
func FromPanic(op string, r any) *Error {
	if err, ok := r.(error); ok {
		return &Error{Op: op, Kind: KindHostFault, Detail: "host panic", Cause: err}
	}
	return &Error{Op: op, Kind: KindHostFault, Detail: fmt.Sprintf("host panic: %v", r)}
}

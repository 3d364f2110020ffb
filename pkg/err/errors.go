// Package err defines the error taxonomy shared by the smtswitch packages.
//
// Every error returned by the core falls into one of three kinds: a usage
// error (the caller violated a precondition that is checkable without a
// backend), an unsupported-feature error, or a backend-internal error.
// Callers classify errors with errors.Is against ErrUsage, ErrUnsupported and
// ErrInternal.
package err

import (
	"errors"
	"fmt"
)

var (
	ErrUsage       = errors.New("incorrect usage")
	ErrUnsupported = errors.New("not implemented")
	ErrInternal    = errors.New("internal solver error")
)

// Kind classifies an Error.
type Kind int

const (
	KindUsage Kind = iota
	KindUnsupported
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindUnsupported:
		return "unsupported"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindUsage:
		return ErrUsage
	case KindUnsupported:
		return ErrUnsupported
	default:
		return ErrInternal
	}
}

// Error is a classified error with an optional underlying cause.
//
// Fields:
//
//	Kind Kind: Classification of the failure.
//	Msg string: Human readable message naming the offending operator, sort or symbol.
//	Cause error: Underlying (usually backend) error, may be nil.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind.sentinel(), e.Msg)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Usage returns a usage error with a formatted message.
func Usage(format string, args ...any) error {
	return &Error{Kind: KindUsage, Msg: fmt.Sprintf(format, args...)}
}

// Unsupported returns an unsupported-feature error with a formatted message.
func Unsupported(format string, args ...any) error {
	return &Error{Kind: KindUnsupported, Msg: fmt.Sprintf(format, args...)}
}

// Internal returns a backend-internal error with a formatted message.
func Internal(format string, args ...any) error {
	return &Error{Kind: KindInternal, Msg: fmt.Sprintf(format, args...)}
}

// WrapInternal classifies a backend failure as an internal error.
//
// Errors that are already classified keep their kind so that, for example,
// an unsupported-feature error raised inside a backend is not reported as an
// internal one.
//
// Parameters:
//
//	cause error: The backend failure.
//	format string: Message format describing the failed call.
//	args ...any: Format arguments.
//
// Returns:
//
//	error: The classified error, or nil when cause is nil.
func WrapInternal(cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	var classified *Error
	if errors.As(cause, &classified) {
		return &Error{Kind: classified.Kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
	}
	return &Error{Kind: KindInternal, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the kind of a classified error.
func KindOf(err error) (Kind, bool) {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind, true
	}
	return 0, false
}

func IsUsage(err error) bool       { return errors.Is(err, ErrUsage) }
func IsUnsupported(err error) bool { return errors.Is(err, ErrUnsupported) }
func IsInternal(err error) bool    { return errors.Is(err, ErrInternal) }

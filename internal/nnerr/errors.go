// Package nnerr defines the error kinds reported by network nodes and the
// alignment engine.
//
// All of them describe programming-contract violations: a node initialized
// with the wrong number of sizes, a sequence of the wrong width, a malformed
// tensor handed to the alignment or persistence code. None of them is
// transient, so callers should not retry.
package nnerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an Error.
type Kind int

// Error kinds.
const (
	// Unimplemented is returned when a node is asked for an operation its
	// variant does not support, such as an Init arity it does not accept.
	Unimplemented Kind = iota + 1
	// UnsupportedShape is returned for malformed or rank-mismatched data.
	UnsupportedShape
	// DimensionMismatch is returned when sequence widths or lengths do not
	// match what a node was initialized for.
	DimensionMismatch
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Unimplemented:
		return "unimplemented"
	case UnsupportedShape:
		return "unsupported shape"
	case DimensionMismatch:
		return "dimension mismatch"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels for errors.Is matching. Only the Kind is compared.
var (
	ErrUnimplemented     = &Error{Kind: Unimplemented}
	ErrUnsupportedShape  = &Error{Kind: UnsupportedShape}
	ErrDimensionMismatch = &Error{Kind: DimensionMismatch}
)

// Error carries the kind of failure, the operation that detected it and a
// human readable message.
type Error struct {
	Kind Kind
	Op   string // e.g. "lstm.Forward", "ctc.Align"
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, op, format string, args ...any) error {
	return errors.WithStack(&Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)})
}

// Unimplementedf reports an unsupported operation.
func Unimplementedf(op, format string, args ...any) error {
	return newError(Unimplemented, op, format, args...)
}

// Shapef reports malformed input data.
func Shapef(op, format string, args ...any) error {
	return newError(UnsupportedShape, op, format, args...)
}

// Dimensionf reports a width or length mismatch.
func Dimensionf(op, format string, args ...any) error {
	return newError(DimensionMismatch, op, format, args...)
}

// KindOf extracts the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

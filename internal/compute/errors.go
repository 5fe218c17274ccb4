package compute

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrUnavailable         = errors.New("backend not available")
	ErrAllocation          = errors.New("buffer allocation failed")
	ErrOperationFailed     = errors.New("operation failed")
	ErrUnsupportedDataType = errors.New("unsupported data type")
	ErrUnsupportedOrder    = errors.New("unsupported matrix order")
	ErrAlreadyInitialized  = errors.New("computing already initialized")
)

// ErrorKind classifies a reported backend failure.
type ErrorKind int

// Error kinds.
const (
	CreateHandle ErrorKind = iota
	CreateStream
	BindStream
	Allocate
	OperationFailed
	UnsupportedDataType
	UnsupportedOrder
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case CreateHandle:
		return "create_handle"
	case CreateStream:
		return "create_stream"
	case BindStream:
		return "bind_stream"
	case Allocate:
		return "allocate"
	case OperationFailed:
		return "operation_failed"
	case UnsupportedDataType:
		return "unsupported_data_type"
	case UnsupportedOrder:
		return "unsupported_order"
	default:
		return "unknown"
	}
}

// sentinel returns the package error matching the kind, if any.
func (k ErrorKind) sentinel() error {
	switch k {
	case CreateHandle, CreateStream, BindStream:
		return ErrUnavailable
	case Allocate:
		return ErrAllocation
	case OperationFailed:
		return ErrOperationFailed
	case UnsupportedDataType:
		return ErrUnsupportedDataType
	case UnsupportedOrder:
		return ErrUnsupportedOrder
	default:
		return nil
	}
}

// Error is a recoverable backend failure. Op names the attempted operation.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error // underlying cause, may be nil
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the same kind, so
// errors.Is(err, ErrUnsupportedOrder) works without wrapping the sentinel.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && s == target
}

// KindOf returns the ErrorKind carried by err and whether one was found.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

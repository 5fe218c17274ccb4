// Package compute defines the device contract shared by every execution
// backend: typed buffers, storage orders, operands and errors.
package compute

import "unsafe"

// Element is a constraint for Go types that can back a Buffer.
// It mirrors the DataType enumeration; new types are added to both.
type Element interface {
	~float32
}

// DataType represents runtime type information for buffer elements.
type DataType int

// Supported element types.
const (
	Float32 DataType = iota
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	default:
		return "unknown"
	}
}

// Valid reports whether dt is a known data type.
func (dt DataType) Valid() bool {
	return dt == Float32
}

// DataTypeOf returns the DataType matching the Go type T.
func DataTypeOf[T Element]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	}
	// Named types with an underlying float32.
	if unsafe.Sizeof(zero) == 4 {
		return Float32
	}
	panic("unsupported type")
}

package compute

import (
	"sync/atomic"
	"unsafe"
)

// Memory is the backend-specific storage behind a Buffer.
// Free is called exactly once, when the last reference is released.
type Memory interface {
	Free()
}

// Buffer is a fixed-size, aligned block of memory owned by one Device.
// It is reference counted: the creator and the owning device's
// bookkeeping each hold a reference. Buffers are not internally
// synchronized; callers must Join before touching a buffer that
// participates in pending async work, and before dropping it.
type Buffer struct {
	device    Device
	mem       Memory
	size      int
	alignment int
	refs      atomic.Int32
}

// NewBuffer wraps backend memory in a Buffer holding one reference.
// Backends call this from Device.CreateBuffer.
func NewBuffer(device Device, mem Memory, size, alignment int) *Buffer {
	b := &Buffer{
		device:    device,
		mem:       mem,
		size:      size,
		alignment: alignment,
	}
	b.refs.Store(1)
	return b
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() int {
	return b.size
}

// Alignment returns the alignment the backing memory honors.
func (b *Buffer) Alignment() int {
	return b.alignment
}

// Device returns the owning device.
func (b *Buffer) Device() Device {
	return b.device
}

// Memory returns the backend storage. Only the owning backend may use it.
func (b *Buffer) Memory() Memory {
	return b.mem
}

// Live reports whether the buffer still holds at least one reference.
func (b *Buffer) Live() bool {
	return b.refs.Load() > 0
}

// Retain adds a reference and returns b.
func (b *Buffer) Retain() *Buffer {
	for {
		n := b.refs.Load()
		Require(n > 0, "Retain", "buffer already released")
		if b.refs.CompareAndSwap(n, n+1) {
			return b
		}
	}
}

// Release drops a reference and frees the backing memory on the last one.
func (b *Buffer) Release() {
	n := b.refs.Add(-1)
	Require(n >= 0, "Release", "buffer released more times than retained")
	if n == 0 {
		b.mem.Free()
	}
}

// AsSlice reinterprets host bytes as a slice of T without copying.
// len(data) must be a multiple of the element size.
func AsSlice[T Element](data []byte) []T {
	if len(data) == 0 {
		return nil
	}
	var zero T
	n := len(data) / int(unsafe.Sizeof(zero))
	//nolint:gosec // unsafe.Slice for zero-copy views over aligned host memory
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), n)
}

// Bytes reinterprets a slice of T as bytes without copying.
func Bytes[T Element](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	//nolint:gosec // unsafe.Slice for zero-copy views over host memory
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}

package compute

// Device is an execution backend owning memory and offering buffer and
// matrix operations. A Device is chosen when computing is initialized and
// never switched per call.
//
// Async operations on one device execute in submission order and are
// complete once a later Join returns. There is no ordering between
// devices. Operands of in-flight work must not be modified or released
// before Join.
//
// Implementations:
//   - CPU: one worker goroutine, nested-loop GEMM
//   - BLAS: host memory, gonum Sgemm
//   - GPU: WebGPU storage buffers and queue (gpu build tag)
type Device interface {
	// Metadata
	Name() string
	Kind() Kind
	Info() Info

	// CreateBuffer allocates size bytes aligned to alignment and registers
	// the buffer for device-lifetime bookkeeping. Callers normally use the
	// generic CreateBuffer helper.
	CreateBuffer(size, alignment int) (*Buffer, error)

	// Blocking transfers. Sizes that differ are truncated to the smaller one.
	ReadBuffer(dst []byte, src *Buffer) error
	WriteBuffer(dst *Buffer, src []byte) error
	CopyBuffer(dst, src *Buffer) error

	// Ordered asynchronous transfers. WriteBufferAsync captures src at the
	// call; ReadBufferAsync fills dst by the next Join, so dst must not be
	// touched until then.
	ReadBufferAsync(dst []byte, src *Buffer) error
	WriteBufferAsync(dst *Buffer, src []byte) error
	CopyBufferAsync(dst, src *Buffer) error

	// MultiplyMatrixAsync computes C = A·B where A is m×n, B is n×k and
	// C is m×k; k is derived from B's size.
	MultiplyMatrixAsync(m, n int, a, b, c Operand) error
	// MultiplyAddMatrixAsync computes D = C + A·B. C and D may alias.
	MultiplyAddMatrixAsync(m, n int, a, b, c, d Operand) error

	// Join blocks until every previously submitted async operation has
	// completed and reports failures raised by that work.
	Join() error

	// Close waits for outstanding work and releases all device resources.
	Close() error
}

// CreateBuffer allocates count elements of T on d.
func CreateBuffer[T Element](d Device, count int) (*Buffer, error) {
	Require(count > 0, "CreateBuffer", "count must be > 0, got %d", count)
	var zero T
	return d.CreateBuffer(count*sizeOf(zero), alignOf(zero))
}

// ReadSlice reads src into dst, blocking until done.
func ReadSlice[T Element](d Device, dst []T, src *Buffer) error {
	return d.ReadBuffer(Bytes(dst), src)
}

// WriteSlice writes src into dst, blocking until done.
func WriteSlice[T Element](d Device, dst *Buffer, src []T) error {
	return d.WriteBuffer(dst, Bytes(src))
}

// ReadSliceAsync schedules a read of src into dst. dst is filled once Join returns.
func ReadSliceAsync[T Element](d Device, dst []T, src *Buffer) error {
	return d.ReadBufferAsync(Bytes(dst), src)
}

// WriteSliceAsync schedules a write of src into dst.
func WriteSliceAsync[T Element](d Device, dst *Buffer, src []T) error {
	return d.WriteBufferAsync(dst, Bytes(src))
}

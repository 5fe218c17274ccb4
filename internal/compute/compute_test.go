package compute

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice owns buffers for contract tests; every operation is a no-op.
type fakeDevice struct{ name string }

func (f *fakeDevice) Name() string                           { return f.name }
func (f *fakeDevice) Kind() Kind                             { return CPU }
func (f *fakeDevice) Info() Info                             { return Info{Name: f.name} }
func (f *fakeDevice) ReadBuffer([]byte, *Buffer) error       { return nil }
func (f *fakeDevice) WriteBuffer(*Buffer, []byte) error      { return nil }
func (f *fakeDevice) CopyBuffer(_, _ *Buffer) error          { return nil }
func (f *fakeDevice) ReadBufferAsync([]byte, *Buffer) error  { return nil }
func (f *fakeDevice) WriteBufferAsync(*Buffer, []byte) error { return nil }
func (f *fakeDevice) CopyBufferAsync(_, _ *Buffer) error     { return nil }
func (f *fakeDevice) MultiplyMatrixAsync(int, int, Operand, Operand, Operand) error {
	return nil
}
func (f *fakeDevice) MultiplyAddMatrixAsync(int, int, Operand, Operand, Operand, Operand) error {
	return nil
}
func (f *fakeDevice) Join() error  { return nil }
func (f *fakeDevice) Close() error { return nil }

func (f *fakeDevice) CreateBuffer(size, alignment int) (*Buffer, error) {
	return NewBuffer(f, &countingMemory{}, size, alignment), nil
}

type countingMemory struct{ frees int }

func (c *countingMemory) Free() { c.frees++ }

func TestDataType(t *testing.T) {
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, "float32", Float32.String())
	assert.True(t, Float32.Valid())
	assert.False(t, DataType(7).Valid())
	assert.Equal(t, "unknown", DataType(7).String())
	assert.Panics(t, func() { DataType(7).Size() })

	type weight float32
	assert.Equal(t, Float32, DataTypeOf[float32]())
	assert.Equal(t, Float32, DataTypeOf[weight]())
}

func TestMatrixOrder(t *testing.T) {
	assert.Equal(t, RowMajor, OrderDefault.Resolve())
	assert.Equal(t, ColumnMajor, ColumnMajor.Resolve())
	assert.False(t, MatrixOrder(9).Valid())

	// 2×3 matrix, element (1, 2).
	assert.Equal(t, 5, RowMajor.Index(2, 3, 1, 2))
	assert.Equal(t, 5, OrderDefault.Index(2, 3, 1, 2))
	assert.Equal(t, 5, ColumnMajor.Index(2, 3, 1, 2))
	assert.Equal(t, 3, RowMajor.Index(2, 3, 1, 0))
	assert.Equal(t, 1, ColumnMajor.Index(2, 3, 1, 0))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "CPU", CPU.String())
	assert.Equal(t, "GPU", GPU.String())
	assert.Equal(t, "BLAS", BLAS.String())
	assert.Equal(t, "Unknown", Kind(42).String())
	assert.Len(t, Kinds, 3)
}

func TestError(t *testing.T) {
	cause := errors.New("adapter lost")
	err := NewError(OperationFailed, "CopyBufferAsync", cause)

	assert.Equal(t, "CopyBufferAsync: operation_failed: adapter lost", err.Error())
	assert.ErrorIs(t, err, ErrOperationFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrUnsupportedOrder)

	wrapped := fmt.Errorf("gemm: %w", NewError(UnsupportedOrder, "MultiplyMatrixAsync", nil))
	assert.ErrorIs(t, wrapped, ErrUnsupportedOrder)
	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, UnsupportedOrder, kind)

	_, ok = KindOf(cause)
	assert.False(t, ok)

	for k, want := range map[ErrorKind]error{
		CreateHandle:        ErrUnavailable,
		CreateStream:        ErrUnavailable,
		BindStream:          ErrUnavailable,
		Allocate:            ErrAllocation,
		UnsupportedDataType: ErrUnsupportedDataType,
	} {
		assert.ErrorIs(t, NewError(k, "op", nil), want, k.String())
	}
}

func TestBuffer_RefCount(t *testing.T) {
	d := &fakeDevice{name: "fake"}
	buf, err := CreateBuffer[float32](d, 8)
	require.NoError(t, err)
	mem := buf.Memory().(*countingMemory)

	assert.Equal(t, 32, buf.Size())
	assert.Equal(t, 4, buf.Alignment())

	buf.Retain()
	buf.Release()
	assert.Equal(t, 0, mem.frees)
	assert.True(t, buf.Live())

	buf.Release()
	assert.Equal(t, 1, mem.frees)
	assert.False(t, buf.Live())

	assert.Panics(t, func() { buf.Release() })
	assert.Panics(t, func() { buf.Retain() })
	assert.Equal(t, 1, mem.frees, "memory freed exactly once")
}

func TestCreateBuffer_ZeroCount(t *testing.T) {
	d := &fakeDevice{name: "fake"}
	assert.PanicsWithError(t, "CreateBuffer: count must be > 0, got 0", func() {
		_, _ = CreateBuffer[float32](d, 0)
	})
}

func TestGemmShape(t *testing.T) {
	d := &fakeDevice{name: "fake"}
	other := &fakeDevice{name: "other"}
	alloc := func(dev Device, n int) *Buffer {
		b, err := CreateBuffer[float32](dev, n)
		require.NoError(t, err)
		return b
	}

	a := alloc(d, 6)  // 3×2
	b := alloc(d, 8)  // 2×4
	c := alloc(d, 12) // 3×4
	x := alloc(other, 8)

	k := GemmShape("gemm", d, 3, 2, F32(a, RowMajor), F32(b, RowMajor), F32(c, ColumnMajor))
	assert.Equal(t, 4, k)

	k = GemmShape("gemm", d, 3, 2, F32(a, RowMajor), F32(b, RowMajor), F32(c, RowMajor), F32(c, RowMajor))
	assert.Equal(t, 4, k)

	assert.PanicsWithError(t, "gemm: m must be > 0, got 0", func() {
		GemmShape("gemm", d, 0, 2, F32(a, RowMajor), F32(b, RowMajor), F32(c, RowMajor))
	})
	assert.Panics(t, func() {
		GemmShape("gemm", d, 3, 2, F32(a, RowMajor), F32(x, RowMajor), F32(c, RowMajor))
	})
	assert.Panics(t, func() {
		GemmShape("gemm", d, 3, 2, F32(a, RowMajor), F32(b, RowMajor), F32(a, RowMajor))
	})
	assert.Panics(t, func() {
		GemmShape("gemm", d, 3, 2, F32(a, RowMajor), F32(b, MatrixOrder(8)), F32(c, RowMajor))
	})
	assert.Panics(t, func() {
		GemmShape("gemm", d, 3, 2, Operand{Buffer: a, Type: DataType(3)}, F32(b, RowMajor), F32(c, RowMajor))
	})
}

func TestSliceViews(t *testing.T) {
	in := []float32{1.5, -2, 3}
	raw := Bytes(in)
	assert.Len(t, raw, 12)

	out := AsSlice[float32](raw)
	assert.Equal(t, in, out)

	out[0] = 7
	assert.Equal(t, float32(7), in[0], "views share memory")

	assert.Nil(t, Bytes[float32](nil))
	assert.Nil(t, AsSlice[float32](nil))
}

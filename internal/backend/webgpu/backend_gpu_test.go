//go:build gpu

package webgpu

import (
	"testing"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/kmc7468/ShitAIMaker-sub000/internal/compute"
)

func newDevice(t *testing.T) *Device {
	t.Helper()
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}
	d, err := New(DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func upload(t *testing.T, d compute.Device, data []float32) *compute.Buffer {
	t.Helper()
	buf, err := compute.CreateBuffer[float32](d, len(data))
	require.NoError(t, err)
	require.NoError(t, compute.WriteSlice(d, buf, data))
	return buf
}

func download(t *testing.T, d compute.Device, buf *compute.Buffer) []float32 {
	t.Helper()
	out := make([]float32, buf.Size()/4)
	require.NoError(t, compute.ReadSlice(d, out, buf))
	return out
}

func fill(rows, cols int, order compute.MatrixOrder, f func(i, j int) float32) []float32 {
	data := make([]float32, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data[order.Index(rows, cols, i, j)] = f(i, j)
		}
	}
	return data
}

func toDense(rows, cols int, order compute.MatrixOrder, data []float32) *mat.Dense {
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, float64(data[order.Index(rows, cols, i, j)]))
		}
	}
	return out
}

func valueA(i, j int) float32 { return float32(i+1) - 0.5*float32(j) }
func valueB(i, j int) float32 { return float32((i*7+j*3)%11) - 5 }
func valueC(i, j int) float32 { return 0.25 * float32(i*j+1) }

func assertColumnMajor(t *testing.T, want *mat.Dense, got []float32) {
	t.Helper()
	rows, cols := want.Dims()
	require.Len(t, got, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.InDelta(t, want.At(i, j), float64(got[j*rows+i]), 1e-3, "element (%d,%d)", i, j)
		}
	}
}

func TestDevice_Metadata(t *testing.T) {
	d := newDevice(t)
	assert.Equal(t, compute.GPU, d.Kind())
	assert.Contains(t, d.Name(), "GPU")
	assert.Contains(t, d.Info().Features, "wgsl")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "GPU", describe(nil))
	assert.Equal(t, "GPU", describe(&wgpu.AdapterInfoGo{Vendor: "ACME"}))
	assert.Equal(t, "GPU (Vega)", describe(&wgpu.AdapterInfoGo{Device: "Vega"}))
	assert.Equal(t, "GPU (ACME Vega)", describe(&wgpu.AdapterInfoGo{Vendor: "ACME", Device: "Vega"}))
}

func TestTransfers(t *testing.T) {
	d := newDevice(t)

	a := upload(t, d, []float32{1, 2, 3, 4})
	assert.Equal(t, []float32{1, 2, 3, 4}, download(t, d, a))

	// Copy truncates to the shorter buffer.
	b := upload(t, d, []float32{9, 9, 9, 9, 9, 9})
	require.NoError(t, d.CopyBuffer(b, a))
	assert.Equal(t, []float32{1, 2, 3, 4, 9, 9}, download(t, d, b))

	// Async operations complete in submission order.
	require.NoError(t, compute.WriteSliceAsync(d, a, []float32{5, 5, 5, 5}))
	require.NoError(t, compute.WriteSliceAsync(d, a, []float32{6, 6}))
	out := make([]float32, 4)
	require.NoError(t, compute.ReadSliceAsync(d, out, a))
	require.NoError(t, d.Join())
	assert.Equal(t, []float32{6, 6, 5, 5}, out)
}

func TestMultiplyMatrixAsync(t *testing.T) {
	d := newDevice(t)

	orders := []compute.MatrixOrder{compute.RowMajor, compute.ColumnMajor}
	m, n, k := 19, 7, 5
	for _, ao := range orders {
		for _, bo := range orders {
			t.Run(ao.String()+"/"+bo.String(), func(t *testing.T) {
				aData := fill(m, n, ao, valueA)
				bData := fill(n, k, bo, valueB)
				a := upload(t, d, aData)
				b := upload(t, d, bData)
				c, err := compute.CreateBuffer[float32](d, m*k)
				require.NoError(t, err)

				require.NoError(t, d.MultiplyMatrixAsync(m, n,
					compute.F32(a, ao), compute.F32(b, bo), compute.F32(c, compute.ColumnMajor)))
				require.NoError(t, d.Join())

				var want mat.Dense
				want.Mul(toDense(m, n, ao, aData), toDense(n, k, bo, bData))
				assertColumnMajor(t, &want, download(t, d, c))
			})
		}
	}
}

func TestMultiplyAddMatrixAsync(t *testing.T) {
	d := newDevice(t)

	m, n, k := 6, 3, 4
	aData := fill(m, n, compute.RowMajor, valueA)
	bData := fill(n, k, compute.ColumnMajor, valueB)
	cData := fill(m, k, compute.ColumnMajor, valueC)
	a := upload(t, d, aData)
	b := upload(t, d, bData)
	c := upload(t, d, cData)
	out, err := compute.CreateBuffer[float32](d, m*k)
	require.NoError(t, err)

	require.NoError(t, d.MultiplyAddMatrixAsync(m, n,
		compute.F32(a, compute.RowMajor), compute.F32(b, compute.ColumnMajor),
		compute.F32(c, compute.ColumnMajor), compute.F32(out, compute.ColumnMajor)))
	require.NoError(t, d.Join())

	var want mat.Dense
	want.Mul(toDense(m, n, compute.RowMajor, aData), toDense(n, k, compute.ColumnMajor, bData))
	want.Add(&want, toDense(m, k, compute.ColumnMajor, cData))
	assertColumnMajor(t, &want, download(t, d, out))
	assert.Equal(t, cData, download(t, d, c))
}

func TestMultiplyMatrixAsync_RowMajorDestination(t *testing.T) {
	d := newDevice(t)

	a := upload(t, d, []float32{1, 2, 3, 4})
	b := upload(t, d, []float32{1, 0, 0, 1})
	c := upload(t, d, []float32{0, 0, 0, 0})

	for _, order := range []compute.MatrixOrder{compute.RowMajor, compute.OrderDefault} {
		err := d.MultiplyMatrixAsync(2, 2,
			compute.F32(a, compute.ColumnMajor), compute.F32(b, compute.ColumnMajor), compute.F32(c, order))
		require.Error(t, err)
		assert.ErrorIs(t, err, compute.ErrUnsupportedOrder)
	}

	out := upload(t, d, []float32{0, 0, 0, 0})
	err := d.MultiplyAddMatrixAsync(2, 2,
		compute.F32(a, compute.ColumnMajor), compute.F32(b, compute.ColumnMajor),
		compute.F32(c, compute.RowMajor), compute.F32(out, compute.ColumnMajor))
	assert.ErrorIs(t, err, compute.ErrUnsupportedOrder)
}

func TestStagingPool_Reuse(t *testing.T) {
	d := newDevice(t)

	a := upload(t, d, []float32{1, 2, 3, 4})
	download(t, d, a)
	before := d.PoolStats()
	download(t, d, a)
	after := d.PoolStats()

	assert.Equal(t, before.Misses, after.Misses)
	assert.Greater(t, after.Hits, before.Hits)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, smallClass, classify(16))
	assert.Equal(t, mediumClass, classify(smallThreshold))
	assert.Equal(t, largeClass, classify(mediumThreshold))
}

func TestPlanGemm(t *testing.T) {
	a := compute.Operand{Type: compute.Float32, Order: compute.RowMajor}
	b := compute.Operand{Type: compute.Float32, Order: compute.ColumnMajor}
	p := planGemm(3, 2, 4, a, b, 1)

	assert.Equal(t, uint32(3), p.rows)
	assert.Equal(t, uint32(4), p.cols)
	assert.Equal(t, uint32(2), p.depth)
	assert.True(t, p.transA)
	assert.Equal(t, uint32(2), p.lda)
	assert.False(t, p.transB)
	assert.Equal(t, uint32(2), p.ldb)
	assert.Equal(t, uint32(3), p.ldc)
	assert.Len(t, p.bytes(), 48)
}

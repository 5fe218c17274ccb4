// Package blas implements a host device whose matrix multiplication
// delegates to the gonum BLAS float32 implementation.
//
// Memory and transfers are the same as the CPU device; only GEMM differs.
// BLAS routines are row-major, so column-major destinations are computed
// as Cᵀ = Bᵀ·Aᵀ.
package blas

import (
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/kmc7468/ShitAIMaker-sub000/internal/backend/host"
	"github.com/kmc7468/ShitAIMaker-sub000/internal/compute"
)

// Device is the BLAS backend.
type Device struct {
	*host.Base
}

// Compile-time check that Device implements compute.Device.
var _ compute.Device = (*Device)(nil)

// New creates a BLAS device and starts its worker.
func New(opts host.Options) *Device {
	d := &Device{}
	d.Base = host.NewBase(d, host.Describe("BLAS"), compute.BLAS, opts)
	d.Logger().Info().Msg("blas device initialized")
	return d
}

// MultiplyMatrixAsync queues C = A·B as one Sgemm.
func (d *Device) MultiplyMatrixAsync(m, n int, a, b, c compute.Operand) error {
	const op = "MultiplyMatrixAsync"
	k := compute.GemmShape(op, d, m, n, a, b, c)
	if err := requireFloat32(op, a, b, c); err != nil {
		return err
	}

	call := d.plan(m, n, k, a, b, c)
	d.Submit(op, func() { call.run(0) })
	return nil
}

// MultiplyAddMatrixAsync queues D = C + A·B: C is copied into D (converting
// the layout if needed), then Sgemm accumulates with beta = 1.
func (d *Device) MultiplyAddMatrixAsync(m, n int, a, b, c, dst compute.Operand) error {
	const op = "MultiplyAddMatrixAsync"
	k := compute.GemmShape(op, d, m, n, a, b, c, dst)
	compute.Require(c.Buffer != dst.Buffer || c.Order.Resolve() == dst.Order.Resolve(), op,
		"aliased C and D must share a storage order")
	if err := requireFloat32(op, a, b, c, dst); err != nil {
		return err
	}

	call := d.plan(m, n, k, a, b, dst)
	src := compute.AsSlice[float32](d.Bytes(c.Buffer))
	srcOrder := c.Order.Resolve()
	aliased := c.Buffer == dst.Buffer

	d.Submit(op, func() {
		if !aliased {
			copyMatrix(call.out, dst.Order.Resolve(), src, srcOrder, m, k)
		}
		call.run(1)
	})
	return nil
}

// gemmCall is a fully prepared Sgemm: out = alpha·op(x)·op(y) + beta·out.
type gemmCall struct {
	tx, ty blas.Transpose
	x, y   blas32.General
	c      blas32.General
	out    []float32
}

// run executes the call. Sgemm skips zero elements of its first operand,
// which turns 0·Inf and 0·NaN into 0; operands holding non-finite values
// take the reference loop instead so they propagate like on the CPU device.
func (g gemmCall) run(beta float32) {
	if allFinite(g.x.Data) && allFinite(g.y.Data) {
		blas32.Gemm(g.tx, g.ty, 1, g.x, g.y, beta, g.c)
		return
	}
	g.reference(beta)
}

// reference computes out = op(x)·op(y) + beta·out one cell at a time,
// starting each sum from beta·out and adding products in index order.
func (g gemmCall) reference(beta float32) {
	rows, cols := g.c.Rows, g.c.Cols
	depth := g.x.Cols
	if g.tx == blas.Trans {
		depth = g.x.Rows
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var sum float32
			if beta != 0 {
				sum = beta * g.c.Data[i*g.c.Stride+j]
			}
			for p := 0; p < depth; p++ {
				sum += at(g.x, g.tx, i, p) * at(g.y, g.ty, p, j)
			}
			g.c.Data[i*g.c.Stride+j] = sum
		}
	}
}

// at returns element (i,j) of op(m).
func at(m blas32.General, t blas.Transpose, i, j int) float32 {
	if t == blas.Trans {
		return m.Data[j*m.Stride+i]
	}
	return m.Data[i*m.Stride+j]
}

func allFinite(data []float32) bool {
	for _, v := range data {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}

// plan maps operand orders to transpose flags. A is m×n, B is n×k and the
// destination m×k.
func (d *Device) plan(m, n, k int, a, b, out compute.Operand) gemmCall {
	av, aT := general(d.Bytes(a.Buffer), a.Order, m, n)
	bv, bT := general(d.Bytes(b.Buffer), b.Order, n, k)
	data := compute.AsSlice[float32](d.Bytes(out.Buffer))

	if out.Order.Resolve() == compute.RowMajor {
		return gemmCall{
			tx: transpose(aT), ty: transpose(bT),
			x: av, y: bv,
			c:   blas32.General{Rows: m, Cols: k, Stride: k, Data: data},
			out: data,
		}
	}
	// Column-major m×k is row-major k×m: Cᵀ = Bᵀ·Aᵀ.
	return gemmCall{
		tx: transpose(!bT), ty: transpose(!aT),
		x: bv, y: av,
		c:   blas32.General{Rows: k, Cols: m, Stride: m, Data: data},
		out: data,
	}
}

// general describes a rows×cols matrix as the row-major block it is stored
// as. The flag is true when that block holds the transpose.
func general(raw []byte, order compute.MatrixOrder, rows, cols int) (blas32.General, bool) {
	data := compute.AsSlice[float32](raw)
	if order.Resolve() == compute.ColumnMajor {
		return blas32.General{Rows: cols, Cols: rows, Stride: rows, Data: data}, true
	}
	return blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: data}, false
}

func transpose(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}

// copyMatrix copies an m×k matrix between storage orders.
func copyMatrix(dst []float32, dstOrder compute.MatrixOrder, src []float32, srcOrder compute.MatrixOrder, m, k int) {
	if dstOrder == srcOrder {
		copy(dst, src)
		return
	}
	for i := 0; i < m; i++ {
		for j := 0; j < k; j++ {
			dst[dstOrder.Index(m, k, i, j)] = src[srcOrder.Index(m, k, i, j)]
		}
	}
}

func requireFloat32(op string, ops ...compute.Operand) error {
	for _, o := range ops {
		if o.Type != compute.Float32 {
			return compute.NewError(compute.UnsupportedDataType, op, nil)
		}
	}
	return nil
}

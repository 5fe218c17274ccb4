package cpu

import (
	"fmt"

	"github.com/kmc7468/ShitAIMaker-sub000/internal/compute"
)

// operand is a GEMM argument resolved to host bytes.
type operand struct {
	data  []byte
	dtype compute.DataType
	order compute.MatrixOrder
}

// selectKernel resolves operands 0, 1, 2 (and 3) in turn, switching on the
// data type and then the storage order of each. Every step fixes two more
// type parameters; the last one returns a fully instantiated kernel.
func selectKernel(p dims, ops []operand) (func(), error) {
	if len(ops) != 3 && len(ops) != 4 {
		return nil, fmt.Errorf("cpu: gemm takes 3 or 4 operands, got %d", len(ops))
	}
	return resolveA(p, ops)
}

func resolveA(p dims, ops []operand) (func(), error) {
	o := ops[0]
	switch o.dtype {
	case compute.Float32:
		a := compute.AsSlice[float32](o.data)
		switch o.order.Resolve() {
		case compute.RowMajor:
			return resolveB[float32, rowMajor[float32]](p, ops, a)
		case compute.ColumnMajor:
			return resolveB[float32, colMajor[float32]](p, ops, a)
		}
	}
	return nil, unsupported(0, o)
}

func resolveB[TA compute.Element, LA Layout[TA]](p dims, ops []operand, a []TA) (func(), error) {
	o := ops[1]
	switch o.dtype {
	case compute.Float32:
		b := compute.AsSlice[float32](o.data)
		switch o.order.Resolve() {
		case compute.RowMajor:
			return resolveC[TA, LA, float32, rowMajor[float32]](p, ops, a, b)
		case compute.ColumnMajor:
			return resolveC[TA, LA, float32, colMajor[float32]](p, ops, a, b)
		}
	}
	return nil, unsupported(1, o)
}

func resolveC[TA compute.Element, LA Layout[TA], TB compute.Element, LB Layout[TB]](
	p dims, ops []operand, a []TA, b []TB,
) (func(), error) {
	o := ops[2]
	switch o.dtype {
	case compute.Float32:
		c := compute.AsSlice[float32](o.data)
		switch o.order.Resolve() {
		case compute.RowMajor:
			return resolveD[TA, LA, TB, LB, float32, rowMajor[float32]](p, ops, a, b, c)
		case compute.ColumnMajor:
			return resolveD[TA, LA, TB, LB, float32, colMajor[float32]](p, ops, a, b, c)
		}
	}
	return nil, unsupported(2, o)
}

// resolveD ends the 3-operand chain or resolves the accumulate destination.
func resolveD[TA compute.Element, LA Layout[TA], TB compute.Element, LB Layout[TB], TC compute.Element, LC Layout[TC]](
	p dims, ops []operand, a []TA, b []TB, c []TC,
) (func(), error) {
	if len(ops) == 3 {
		return func() { gemm[TA, TB, TC, LA, LB, LC](p, a, b, c) }, nil
	}

	o := ops[3]
	switch o.dtype {
	case compute.Float32:
		d := compute.AsSlice[float32](o.data)
		switch o.order.Resolve() {
		case compute.RowMajor:
			return func() { gemmAdd[TA, TB, TC, float32, LA, LB, LC, rowMajor[float32]](p, a, b, c, d) }, nil
		case compute.ColumnMajor:
			return func() { gemmAdd[TA, TB, TC, float32, LA, LB, LC, colMajor[float32]](p, a, b, c, d) }, nil
		}
	}
	return nil, unsupported(3, o)
}

func unsupported(i int, o operand) error {
	return fmt.Errorf("cpu: operand %d: %w: %s/%s", i, compute.ErrUnsupportedDataType, o.dtype, o.order)
}

package compute

import "unsafe"

// Operand is one matrix argument of a GEMM call.
type Operand struct {
	Buffer *Buffer
	Type   DataType
	Order  MatrixOrder
}

// F32 returns a float32 operand with the given storage order.
func F32(b *Buffer, order MatrixOrder) Operand {
	return Operand{Buffer: b, Type: Float32, Order: order}
}

// Elements returns the number of elements the operand buffer holds.
func (o Operand) Elements() int {
	return o.Buffer.Size() / o.Type.Size()
}

// GemmShape validates the operands of a GEMM call against m and n and
// returns the derived k. A is m×n, B is n×k, every other operand m×k.
// Violations are contract panics.
func GemmShape(op string, d Device, m, n int, a, b Operand, outs ...Operand) int {
	Require(m > 0, op, "m must be > 0, got %d", m)
	Require(n > 0, op, "n must be > 0, got %d", n)

	all := append([]Operand{a, b}, outs...)
	for i, o := range all {
		Require(o.Buffer != nil, op, "operand %d has no buffer", i)
		Require(o.Type.Valid(), op, "operand %d has unknown data type %d", i, int(o.Type))
		Require(o.Order.Valid(), op, "operand %d has unknown order %d", i, int(o.Order))
		RequireOwned(d, op, o.Buffer)
	}

	k := b.Buffer.Size() / b.Type.Size() / n
	Require(k > 0, op, "k must be > 0, got %d", k)

	check := func(name string, o Operand, rows, cols int) {
		want := rows * cols * o.Type.Size()
		Require(o.Buffer.Size() == want, op, "%s is %d bytes, want %d (%d×%d %s)",
			name, o.Buffer.Size(), want, rows, cols, o.Type)
	}
	check("A", a, m, n)
	check("B", b, n, k)
	for i, o := range outs {
		check(string(rune('C'+i)), o, m, k)
	}
	return k
}

func sizeOf[T Element](v T) int  { return int(unsafe.Sizeof(v)) }
func alignOf[T Element](v T) int { return int(unsafe.Alignof(v)) }

package cpu

import (
	"github.com/kmc7468/ShitAIMaker-sub000/internal/compute"
	"github.com/kmc7468/ShitAIMaker-sub000/internal/parallel"
)

// dims carries the GEMM extents: A is m×n, B is n×k, C and D are m×k.
type dims struct {
	m, n, k int
	cfg     parallel.Config
}

// gemm computes C[row,col] = Σ_i A[row,i]·B[i,col].
// Rows may run on different goroutines; each cell is summed in index order.
func gemm[TA, TB, TC compute.Element, LA Layout[TA], LB Layout[TB], LC Layout[TC]](
	p dims, a []TA, b []TB, c []TC,
) {
	var (
		la LA
		lb LB
		lc LC
	)
	m, n, k := p.m, p.n, p.k

	parallel.For(m, n*k, func(row int) {
		for col := 0; col < k; col++ {
			var sum TC
			for i := 0; i < n; i++ {
				sum += TC(la.Get(a, m, n, row, i)) * TC(lb.Get(b, n, k, i, col))
			}
			lc.Set(c, m, k, row, col, sum)
		}
	}, p.cfg)
}

// gemmAdd computes D[row,col] = C[row,col] + Σ_i A[row,i]·B[i,col].
// C is read once per cell before D is written, so C and D may alias.
func gemmAdd[TA, TB, TC, TD compute.Element, LA Layout[TA], LB Layout[TB], LC Layout[TC], LD Layout[TD]](
	p dims, a []TA, b []TB, c []TC, d []TD,
) {
	var (
		la LA
		lb LB
		lc LC
		ld LD
	)
	m, n, k := p.m, p.n, p.k

	parallel.For(m, n*k, func(row int) {
		for col := 0; col < k; col++ {
			sum := TD(lc.Get(c, m, k, row, col))
			for i := 0; i < n; i++ {
				sum += TD(la.Get(a, m, n, row, i)) * TD(lb.Get(b, n, k, i, col))
			}
			ld.Set(d, m, k, row, col, sum)
		}
	}, p.cfg)
}

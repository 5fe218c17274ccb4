// Package cpu implements the CPU device: host memory, one worker goroutine
// per device and nested-loop GEMM kernels selected per operand type and
// storage order.
package cpu

import (
	"github.com/kmc7468/ShitAIMaker-sub000/internal/backend/host"
	"github.com/kmc7468/ShitAIMaker-sub000/internal/compute"
	"github.com/kmc7468/ShitAIMaker-sub000/internal/parallel"
)

// Options configures a CPU device.
type Options struct {
	host.Options
	Parallel parallel.Config
}

// DefaultOptions returns the default CPU device options.
func DefaultOptions() Options {
	return Options{
		Options:  host.Options{MmapThreshold: host.DefaultMmapThreshold},
		Parallel: parallel.DefaultConfig(),
	}
}

// Device is the CPU backend.
type Device struct {
	*host.Base
	parallel parallel.Config
}

// Compile-time check that Device implements compute.Device.
var _ compute.Device = (*Device)(nil)

// New creates a CPU device and starts its worker.
func New(opts Options) *Device {
	d := &Device{parallel: opts.Parallel}
	d.Base = host.NewBase(d, host.Describe("CPU"), compute.CPU, opts.Options)
	d.Logger().Info().Int("workers", opts.Parallel.NumWorkers).Bool("parallel", opts.Parallel.Enabled).Msg("cpu device initialized")
	return d
}

// MultiplyMatrixAsync queues C = A·B.
func (d *Device) MultiplyMatrixAsync(m, n int, a, b, c compute.Operand) error {
	const op = "MultiplyMatrixAsync"
	k := compute.GemmShape(op, d, m, n, a, b, c)
	return d.submitGemm(op, dims{m: m, n: n, k: k, cfg: d.parallel}, a, b, c)
}

// MultiplyAddMatrixAsync queues D = C + A·B.
func (d *Device) MultiplyAddMatrixAsync(m, n int, a, b, c, dst compute.Operand) error {
	const op = "MultiplyAddMatrixAsync"
	k := compute.GemmShape(op, d, m, n, a, b, c, dst)
	compute.Require(c.Buffer != dst.Buffer || c.Order.Resolve() == dst.Order.Resolve(), op,
		"aliased C and D must share a storage order")
	return d.submitGemm(op, dims{m: m, n: n, k: k, cfg: d.parallel}, a, b, c, dst)
}

func (d *Device) submitGemm(op string, p dims, ops ...compute.Operand) error {
	resolved := make([]operand, len(ops))
	for i, o := range ops {
		resolved[i] = operand{data: d.Bytes(o.Buffer), dtype: o.Type, order: o.Order}
	}

	run, err := selectKernel(p, resolved)
	if err != nil {
		return compute.NewError(compute.UnsupportedDataType, op, err)
	}
	d.Submit(op, run)
	return nil
}

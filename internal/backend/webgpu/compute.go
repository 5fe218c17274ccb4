//go:build gpu

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/kmc7468/ShitAIMaker-sub000/internal/compute"
)

// pendingRead is a readback waiting for Join to map its staging buffer.
type pendingRead struct {
	dst      []byte
	staging  *wgpu.Buffer
	capacity uint64
}

func (r pendingRead) complete(device *wgpu.Device) error {
	size := uint64(len(r.dst))
	if err := r.staging.MapAsync(device, wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("failed to map staging buffer: %w", err)
	}
	mappedPtr := r.staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(r.dst, unsafe.Slice((*byte)(mappedPtr), size))
	r.staging.Unmap()
	return nil
}

// uploadBuffer creates a copy-source buffer holding data. It is freed by
// the next Join.
func (d *Device) uploadBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(mappedPtr), size), data)
	buffer.Unmap()

	d.transient = append(d.transient, buffer)
	return buffer
}

func transferSize(op string, n int) uint64 {
	compute.Require(n%4 == 0, op, "transfer of %d bytes is not a multiple of 4", n)
	return uint64(n) //nolint:gosec // G115: n is non-negative
}

// ReadBufferAsync queues a device to host copy; dst is filled by Join.
func (d *Device) ReadBufferAsync(dst []byte, src *compute.Buffer) error {
	const op = "ReadBufferAsync"
	d.mu.Lock()
	defer d.mu.Unlock()
	d.check(op, src)
	d.readLocked(op, dst, src)
	return nil
}

func (d *Device) readLocked(op string, dst []byte, src *compute.Buffer) {
	n := min(len(dst), src.Size())
	size := transferSize(op, n)
	if size == 0 {
		return
	}

	staging, capacity := d.pool.Acquire(size)
	encoder := d.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(storage(src), 0, staging, 0, size)
	d.queue.Submit(encoder.Finish(nil))

	d.reads = append(d.reads, pendingRead{dst: dst[:n], staging: staging, capacity: capacity})
}

// WriteBufferAsync queues a host to device copy. src is captured at the
// call, so it may be reused immediately.
func (d *Device) WriteBufferAsync(dst *compute.Buffer, src []byte) error {
	const op = "WriteBufferAsync"
	d.mu.Lock()
	defer d.mu.Unlock()
	d.check(op, dst)
	d.writeLocked(op, dst, src)
	return nil
}

func (d *Device) writeLocked(op string, dst *compute.Buffer, src []byte) {
	n := min(dst.Size(), len(src))
	size := transferSize(op, n)
	if size == 0 {
		return
	}

	upload := d.uploadBuffer(src[:n], wgpu.BufferUsageCopySrc)
	encoder := d.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(upload, 0, storage(dst), 0, size)
	d.queue.Submit(encoder.Finish(nil))
}

// CopyBufferAsync queues a device to device copy of min(dst.Size(), src.Size()) bytes.
func (d *Device) CopyBufferAsync(dst, src *compute.Buffer) error {
	const op = "CopyBufferAsync"
	d.mu.Lock()
	defer d.mu.Unlock()
	d.check(op, dst, src)
	d.copyLocked(dst, src)
	return nil
}

func (d *Device) copyLocked(dst, src *compute.Buffer) {
	size := uint64(min(dst.Size(), src.Size())) //nolint:gosec // G115: sizes are positive
	if dst == src {
		return
	}
	encoder := d.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(storage(src), 0, storage(dst), 0, size)
	d.queue.Submit(encoder.Finish(nil))
}

// ReadBuffer copies src into dst and waits for completion.
func (d *Device) ReadBuffer(dst []byte, src *compute.Buffer) error {
	const op = "ReadBuffer"
	d.mu.Lock()
	defer d.mu.Unlock()
	d.check(op, src)
	d.readLocked(op, dst, src)
	return d.joinLocked()
}

// WriteBuffer copies src into dst and waits for completion.
func (d *Device) WriteBuffer(dst *compute.Buffer, src []byte) error {
	const op = "WriteBuffer"
	d.mu.Lock()
	defer d.mu.Unlock()
	d.check(op, dst)
	d.writeLocked(op, dst, src)
	return d.joinLocked()
}

// CopyBuffer copies between device buffers and waits for completion.
func (d *Device) CopyBuffer(dst, src *compute.Buffer) error {
	const op = "CopyBuffer"
	d.mu.Lock()
	defer d.mu.Unlock()
	d.check(op, dst, src)
	d.copyLocked(dst, src)
	return d.joinLocked()
}

// gemmParams mirrors the Params struct of gemmShader.
type gemmParams struct {
	rows, cols, depth uint32
	lda, ldb, ldc     uint32
	transA, transB    bool
	alpha, beta       float32
}

func (p gemmParams) bytes() []byte {
	buf := make([]byte, 48)
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], p.rows)
	le.PutUint32(buf[4:8], p.cols)
	le.PutUint32(buf[8:12], p.depth)
	le.PutUint32(buf[12:16], p.lda)
	le.PutUint32(buf[16:20], p.ldb)
	le.PutUint32(buf[20:24], p.ldc)
	le.PutUint32(buf[24:28], flag(p.transA))
	le.PutUint32(buf[28:32], flag(p.transB))
	le.PutUint32(buf[32:36], math.Float32bits(p.alpha))
	le.PutUint32(buf[36:40], math.Float32bits(p.beta))
	return buf
}

func flag(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// planGemm maps A (m×n), B (n×k) and a column-major m×k destination onto
// the shader parameters. A row-major operand is its column-major
// transpose, so it is read with the transpose flag set.
func planGemm(m, n, k int, a, b compute.Operand, beta float32) gemmParams {
	p := gemmParams{
		rows: uint32(m), cols: uint32(k), depth: uint32(n), //nolint:gosec // G115: dims are positive
		ldc:   uint32(m), //nolint:gosec // G115
		alpha: 1,
		beta:  beta,
	}
	if a.Order.Resolve() == compute.RowMajor {
		p.transA, p.lda = true, uint32(n) //nolint:gosec // G115
	} else {
		p.lda = uint32(m) //nolint:gosec // G115
	}
	if b.Order.Resolve() == compute.RowMajor {
		p.transB, p.ldb = true, uint32(k) //nolint:gosec // G115
	} else {
		p.ldb = uint32(n) //nolint:gosec // G115
	}
	return p
}

// validateGemm returns the reported errors of a GEMM call: only float32
// operands and column-major destinations are supported.
func validateGemm(op string, dst compute.Operand, ops ...compute.Operand) error {
	for _, o := range append(ops, dst) {
		if o.Type != compute.Float32 {
			return compute.NewError(compute.UnsupportedDataType, op, fmt.Errorf("%s", o.Type))
		}
	}
	if dst.Order.Resolve() == compute.RowMajor {
		return compute.NewError(compute.UnsupportedOrder, op, fmt.Errorf("destination is %s", dst.Order.Resolve()))
	}
	return nil
}

// MultiplyMatrixAsync queues C = A·B. C must be column-major.
func (d *Device) MultiplyMatrixAsync(m, n int, a, b, c compute.Operand) error {
	const op = "MultiplyMatrixAsync"
	d.mu.Lock()
	defer d.mu.Unlock()
	d.check(op)

	k := compute.GemmShape(op, d, m, n, a, b, c)
	compute.Require(c.Buffer != a.Buffer && c.Buffer != b.Buffer, op, "destination must not alias an input")
	if err := validateGemm(op, c, a, b); err != nil {
		return err
	}

	d.dispatch(a, b, c, planGemm(m, n, k, a, b, 0))
	return nil
}

// MultiplyAddMatrixAsync queues D = C + A·B as a copy of C into D followed
// by a GEMM with beta = 1. C and D must both be column-major.
func (d *Device) MultiplyAddMatrixAsync(m, n int, a, b, c, dst compute.Operand) error {
	const op = "MultiplyAddMatrixAsync"
	d.mu.Lock()
	defer d.mu.Unlock()
	d.check(op)

	k := compute.GemmShape(op, d, m, n, a, b, c, dst)
	compute.Require(dst.Buffer != a.Buffer && dst.Buffer != b.Buffer, op, "destination must not alias an input")
	if err := validateGemm(op, dst, a, b, c); err != nil {
		return err
	}
	if c.Order.Resolve() != dst.Order.Resolve() {
		return compute.NewError(compute.UnsupportedOrder, op, fmt.Errorf("C is %s, D is %s", c.Order.Resolve(), dst.Order.Resolve()))
	}

	d.copyLocked(dst.Buffer, c.Buffer)
	d.dispatch(a, b, dst, planGemm(m, n, k, a, b, 1))
	return nil
}

// dispatch encodes one GEMM compute pass and submits it.
func (d *Device) dispatch(a, b, out compute.Operand, p gemmParams) {
	params := d.uploadBuffer(p.bytes(), wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)

	layout := d.pipeline.GetBindGroupLayout(0)
	group := d.device.CreateBindGroupSimple(layout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, storage(a.Buffer), 0, uint64(a.Buffer.Size())),     //nolint:gosec // G115
		wgpu.BufferBindingEntry(1, storage(b.Buffer), 0, uint64(b.Buffer.Size())),     //nolint:gosec // G115
		wgpu.BufferBindingEntry(2, storage(out.Buffer), 0, uint64(out.Buffer.Size())), //nolint:gosec // G115
		wgpu.BufferBindingEntry(3, params, 0, 48),
	})
	d.groups = append(d.groups, group)

	encoder := d.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(d.pipeline)
	pass.SetBindGroup(0, group, nil)
	pass.DispatchWorkgroups((p.rows+tileSize-1)/tileSize, (p.cols+tileSize-1)/tileSize, 1)
	pass.End()
	d.queue.Submit(encoder.Finish(nil))
}

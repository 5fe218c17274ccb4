//go:build gpu

// Package webgpu implements the GPU device on WebGPU.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// All work goes through the single WebGPU queue, which executes command
// buffers in submission order. Readbacks land in staging buffers that are
// mapped and copied to host memory by Join.
package webgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/rs/zerolog"

	"github.com/kmc7468/ShitAIMaker-sub000/internal/compute"
)

const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// Device is the WebGPU backend.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	shader   *wgpu.ShaderModule
	pipeline *wgpu.ComputePipeline

	// fence is copied into fenceRead and mapped by Join.
	fence     *wgpu.Buffer
	fenceRead *wgpu.Buffer

	name        string
	adapterInfo *wgpu.AdapterInfoGo
	logger      zerolog.Logger
	pool        *StagingPool

	mu        sync.Mutex // serializes submission and guards the fields below
	buffers   []*compute.Buffer
	reads     []pendingRead
	transient []*wgpu.Buffer
	groups    []*wgpu.BindGroup
	closed    bool
}

// Compile-time check that Device implements compute.Device.
var _ compute.Device = (*Device)(nil)

// New acquires an adapter, a device and its queue, and builds the GEMM
// pipeline. Everything acquired before a failure is released.
func New(opts Options) (d *Device, err error) {
	const op = "webgpu.New"

	d = &Device{logger: opts.Logger.With().Str("kind", compute.GPU.String()).Logger()}

	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			d.release()
			d = nil
			err = compute.NewError(compute.CreateHandle, op, fmt.Errorf("native library not available: %v", r))
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, compute.NewError(compute.CreateHandle, op, fmt.Errorf("create instance: %w", instanceErr))
	}
	if instance == nil {
		return nil, compute.NewError(compute.CreateHandle, op, errors.New("no instance"))
	}
	d.instance = instance

	adapter, adapterErr := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		d.release()
		return nil, compute.NewError(compute.CreateHandle, op, fmt.Errorf("request adapter: %w", adapterErr))
	}
	d.adapter = adapter
	// Adapter info is descriptive only; a failure leaves it nil.
	if info, infoErr := adapter.GetInfo(); infoErr == nil {
		d.adapterInfo = info
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		d.release()
		return nil, compute.NewError(compute.CreateHandle, op, fmt.Errorf("request device: %w", deviceErr))
	}
	d.device = device

	d.queue = device.GetQueue()
	if d.queue == nil {
		d.release()
		return nil, compute.NewError(compute.CreateStream, op, errors.New("device has no queue"))
	}

	d.shader = device.CreateShaderModuleWGSL(gemmShader)
	if d.shader != nil {
		d.pipeline = device.CreateComputePipelineSimple(nil, d.shader, "main")
	}
	if d.pipeline == nil {
		d.release()
		return nil, compute.NewError(compute.BindStream, op, errors.New("gemm pipeline creation failed"))
	}

	d.fence = device.CreateBuffer(&wgpu.BufferDescriptor{Usage: storageUsage, Size: 4})
	d.fenceRead = device.CreateBuffer(&wgpu.BufferDescriptor{Usage: stagingUsage, Size: 4})
	if d.fence == nil || d.fenceRead == nil {
		d.release()
		return nil, compute.NewError(compute.CreateStream, op, errors.New("fence allocation failed"))
	}

	d.name = describe(d.adapterInfo)
	d.logger = d.logger.With().Str("device", d.name).Logger()
	d.pool = NewStagingPool(device, opts.StagingPoolSize)

	d.logger.Info().Msg("gpu device initialized")
	return d, nil
}

// IsAvailable checks if a WebGPU adapter can be acquired.
func IsAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil || instance == nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// Name returns the device name including the adapter.
func (d *Device) Name() string {
	return d.name
}

// Kind returns compute.GPU.
func (d *Device) Kind() compute.Kind {
	return compute.GPU
}

// Info describes the adapter. TotalMemory is unknown to WebGPU and left 0.
func (d *Device) Info() compute.Info {
	var features []string
	if d.adapterInfo != nil && d.adapterInfo.Vendor != "" {
		features = append(features, d.adapterInfo.Vendor)
	}
	features = append(features, "wgsl")
	return compute.Info{
		Name:     d.name,
		Kind:     compute.GPU,
		Features: features,
	}
}

// describe names the device after its adapter, or plain "GPU" when the
// adapter did not report itself.
func describe(info *wgpu.AdapterInfoGo) string {
	if info == nil || info.Device == "" {
		return "GPU"
	}
	if info.Vendor == "" {
		return fmt.Sprintf("GPU (%s)", info.Device)
	}
	return fmt.Sprintf("GPU (%s %s)", info.Vendor, info.Device)
}

// PoolStats returns staging pool counters.
func (d *Device) PoolStats() PoolStats {
	return d.pool.Stats()
}

// gpuMemory is a storage buffer in device memory.
type gpuMemory struct {
	buffer *wgpu.Buffer
	size   uint64
	logger zerolog.Logger
}

func (m *gpuMemory) Free() {
	m.buffer.Release()
	m.logger.Debug().Uint64("bytes", m.size).Msg("gpu buffer freed")
}

// CreateBuffer allocates a storage buffer. Sizes are multiples of 4.
func (d *Device) CreateBuffer(size, alignment int) (*compute.Buffer, error) {
	const op = "CreateBuffer"
	compute.Require(size > 0, op, "size must be > 0, got %d", size)
	compute.Require(size%4 == 0, op, "size %d is not a multiple of 4", size)
	compute.Require(alignment > 0 && alignment&(alignment-1) == 0, op,
		"alignment %d is not a power of two", alignment)

	d.mu.Lock()
	defer d.mu.Unlock()
	compute.Require(!d.closed, op, "device %s is closed", d.name)

	//nolint:gosec // G115: size is positive
	buffer := d.device.CreateBuffer(&wgpu.BufferDescriptor{Usage: storageUsage, Size: uint64(size)})
	if buffer == nil {
		return nil, compute.NewError(compute.Allocate, op, fmt.Errorf("%d bytes", size))
	}
	d.logger.Debug().Int("bytes", size).Msg("gpu buffer allocated")

	buf := compute.NewBuffer(d, &gpuMemory{buffer: buffer, size: uint64(size), logger: d.logger}, size, alignment)
	d.buffers = append(d.buffers, buf.Retain())
	return buf, nil
}

// Join waits for every submitted command, then completes pending
// readbacks and frees per-submission resources.
func (d *Device) Join() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	compute.Require(!d.closed, "Join", "device %s is closed", d.name)
	return d.joinLocked()
}

func (d *Device) joinLocked() error {
	const op = "Join"

	encoder := d.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(d.fence, 0, d.fenceRead, 0, 4)
	d.queue.Submit(encoder.Finish(nil))

	var errs []error
	if err := d.fenceRead.MapAsync(d.device, wgpu.MapModeRead, 0, 4); err != nil {
		errs = append(errs, fmt.Errorf("fence: %w", err))
	} else {
		d.fenceRead.Unmap()
	}

	for _, r := range d.reads {
		if err := r.complete(d.device); err != nil {
			errs = append(errs, err)
		}
		d.pool.Release(r.staging, r.capacity)
	}
	d.reads = d.reads[:0]

	for _, g := range d.groups {
		g.Release()
	}
	d.groups = d.groups[:0]
	for _, b := range d.transient {
		b.Release()
	}
	d.transient = d.transient[:0]

	if err := errors.Join(errs...); err != nil {
		d.logger.Error().Err(err).Msg("gpu join failed")
		return compute.NewError(compute.OperationFailed, op, err)
	}
	return nil
}

// Close waits for outstanding work, drops the bookkeeping references and
// releases every WebGPU object.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	err := d.joinLocked()
	d.closed = true
	buffers := d.buffers
	d.buffers = nil
	d.mu.Unlock()

	for _, buf := range buffers {
		buf.Release()
	}
	d.pool.Clear()
	d.release()

	d.logger.Info().Int("buffers", len(buffers)).Msg("device closed")
	if err != nil {
		return compute.NewError(compute.OperationFailed, "Close", err)
	}
	return nil
}

// release frees WebGPU objects in reverse acquisition order. Nil fields
// are skipped, so it also unwinds a partially built device.
func (d *Device) release() {
	if d.fenceRead != nil {
		d.fenceRead.Release()
		d.fenceRead = nil
	}
	if d.fence != nil {
		d.fence.Release()
		d.fence = nil
	}
	if d.pipeline != nil {
		d.pipeline.Release()
		d.pipeline = nil
	}
	if d.shader != nil {
		d.shader.Release()
		d.shader = nil
	}
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

func (d *Device) check(op string, bufs ...*compute.Buffer) {
	compute.Require(!d.closed, op, "device %s is closed", d.name)
	compute.RequireOwned(d, op, bufs...)
}

func storage(b *compute.Buffer) *wgpu.Buffer {
	return b.Memory().(*gpuMemory).buffer
}

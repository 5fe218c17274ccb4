package host

import (
	"bytes"
	"fmt"
	"runtime"
	"sync"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog"
	"golang.org/x/sys/cpu"

	"github.com/kmc7468/ShitAIMaker-sub000/internal/compute"
	"github.com/kmc7468/ShitAIMaker-sub000/internal/queue"
)

// Options configures a host device base.
type Options struct {
	MmapThreshold int
	Logger        zerolog.Logger
}

// Base implements every compute.Device operation except matrix
// multiplication for devices backed by host memory. Async work runs on
// one queue.Queue worker.
type Base struct {
	self   compute.Device // embedding device, used for ownership checks
	name   string
	kind   compute.Kind
	alloc  *Allocator
	queue  *queue.Queue
	logger zerolog.Logger

	mu      sync.Mutex
	buffers []*compute.Buffer
	closed  bool
}

// NewBase creates a base for self and starts its worker.
func NewBase(self compute.Device, name string, kind compute.Kind, opts Options) *Base {
	logger := opts.Logger.With().Str("device", name).Str("kind", kind.String()).Logger()
	return &Base{
		self:   self,
		name:   name,
		kind:   kind,
		alloc:  NewAllocator(opts.MmapThreshold, logger),
		queue:  queue.New(logger),
		logger: logger,
	}
}

// Name returns the device name.
func (b *Base) Name() string {
	return b.name
}

// Kind returns the backend kind.
func (b *Base) Kind() compute.Kind {
	return b.kind
}

// Info describes the host: total RAM and SIMD features.
func (b *Base) Info() compute.Info {
	return compute.Info{
		Name:        b.name,
		Kind:        b.kind,
		TotalMemory: memory.TotalMemory(),
		Features:    Features(),
	}
}

// Logger returns the device logger, tagged with the device name and kind.
func (b *Base) Logger() *zerolog.Logger {
	return &b.logger
}

// AllocStats returns host allocator counters.
func (b *Base) AllocStats() Stats {
	return b.alloc.Stats()
}

// Submit queues f on the device worker.
func (b *Base) Submit(op string, f func()) {
	b.requireOpen(op)
	b.queue.AddWork(f)
}

// CreateBuffer allocates aligned host memory and registers the buffer.
func (b *Base) CreateBuffer(size, alignment int) (*compute.Buffer, error) {
	compute.Require(size > 0, "CreateBuffer", "size must be > 0, got %d", size)
	compute.Require(alignment > 0 && alignment&(alignment-1) == 0, "CreateBuffer",
		"alignment %d is not a power of two", alignment)

	b.mu.Lock()
	defer b.mu.Unlock()
	compute.Require(!b.closed, "CreateBuffer", "device %s is closed", b.name)

	mem, err := b.alloc.Alloc(size, alignment)
	if err != nil {
		return nil, compute.NewError(compute.Allocate, "CreateBuffer", err)
	}
	buf := compute.NewBuffer(b.self, mem, size, alignment)
	b.buffers = append(b.buffers, buf.Retain())
	return buf, nil
}

// Bytes returns the host bytes behind a buffer owned by this device.
func (b *Base) Bytes(buf *compute.Buffer) []byte {
	return buf.Memory().(*Memory).Bytes()
}

// ReadBuffer copies src into dst directly.
func (b *Base) ReadBuffer(dst []byte, src *compute.Buffer) error {
	b.check("ReadBuffer", src)
	copy(dst, b.Bytes(src))
	return nil
}

// WriteBuffer copies src into dst directly.
func (b *Base) WriteBuffer(dst *compute.Buffer, src []byte) error {
	b.check("WriteBuffer", dst)
	copy(b.Bytes(dst), src)
	return nil
}

// CopyBuffer copies min(dst.Size(), src.Size()) bytes; the rest of dst is untouched.
func (b *Base) CopyBuffer(dst, src *compute.Buffer) error {
	b.check("CopyBuffer", dst, src)
	copy(b.Bytes(dst), b.Bytes(src))
	return nil
}

// ReadBufferAsync queues a copy of src into dst.
func (b *Base) ReadBufferAsync(dst []byte, src *compute.Buffer) error {
	b.check("ReadBufferAsync", src)
	s := b.Bytes(src)
	b.Submit("ReadBufferAsync", func() { copy(dst, s) })
	return nil
}

// WriteBufferAsync queues a copy of src into dst. src is copied at the
// call, so the caller may reuse it immediately.
func (b *Base) WriteBufferAsync(dst *compute.Buffer, src []byte) error {
	b.check("WriteBufferAsync", dst)
	d := b.Bytes(dst)
	staged := bytes.Clone(src[:min(len(src), len(d))])
	b.Submit("WriteBufferAsync", func() { copy(d, staged) })
	return nil
}

// CopyBufferAsync queues a truncating buffer-to-buffer copy.
func (b *Base) CopyBufferAsync(dst, src *compute.Buffer) error {
	b.check("CopyBufferAsync", dst, src)
	d, s := b.Bytes(dst), b.Bytes(src)
	b.Submit("CopyBufferAsync", func() { copy(d, s) })
	return nil
}

// Join waits for the worker to drain.
func (b *Base) Join() error {
	b.requireOpen("Join")
	if err := b.queue.Join(); err != nil {
		return compute.NewError(compute.OperationFailed, "Join", err)
	}
	return nil
}

// Close drains the worker, then drops the bookkeeping references.
func (b *Base) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	err := b.queue.Close()

	b.mu.Lock()
	buffers := b.buffers
	b.buffers = nil
	b.mu.Unlock()
	for _, buf := range buffers {
		buf.Release()
	}

	stats := b.alloc.Stats()
	b.logger.Info().
		Int("buffers", len(buffers)).
		Int64("live_bytes", stats.LiveBytes).
		Msg("device closed")

	if err != nil {
		return compute.NewError(compute.OperationFailed, "Close", err)
	}
	return nil
}

func (b *Base) requireOpen(op string) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	compute.Require(!closed, op, "device %s is closed", b.name)
}

func (b *Base) check(op string, bufs ...*compute.Buffer) {
	b.requireOpen(op)
	compute.RequireOwned(b.self, op, bufs...)
}

// Features lists SIMD features of the host CPU.
func Features() []string {
	features := []string{runtime.GOARCH}
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}
	add(cpu.X86.HasSSE41, "sse4.1")
	add(cpu.X86.HasAVX, "avx")
	add(cpu.X86.HasAVX2, "avx2")
	add(cpu.X86.HasFMA, "fma")
	add(cpu.X86.HasAVX512F, "avx512f")
	add(cpu.ARM64.HasASIMD, "asimd")
	add(cpu.ARM64.HasSVE, "sve")
	return features
}

// Describe formats a device name with the host architecture.
func Describe(prefix string) string {
	return fmt.Sprintf("%s (%s/%s, %d threads)", prefix, runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
}

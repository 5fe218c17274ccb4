// Package host implements the pieces shared by devices whose memory is
// ordinary host RAM: an aligned allocator and a device base with
// synchronous and queued transfers.
package host

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/rs/zerolog"
)

// DefaultMmapThreshold is the allocation size from which host buffers are
// mapped directly from the OS instead of the Go heap.
const DefaultMmapThreshold = 1 << 20

// Memory is host storage for one buffer. It implements compute.Memory.
type Memory struct {
	data    []byte
	unmap   func([]byte) error // nil for heap memory
	alloc   *Allocator
	freed   atomic.Bool
	release int // bytes accounted in the allocator
}

// Bytes returns the aligned usable region.
func (m *Memory) Bytes() []byte {
	return m.data
}

// Free returns the memory to its allocator. It panics on a second call.
func (m *Memory) Free() {
	if !m.freed.CompareAndSwap(false, true) {
		panic("host: memory freed twice")
	}
	data := m.data
	m.data = nil
	if m.unmap != nil {
		if err := m.unmap(data); err != nil {
			m.alloc.logger.Error().Err(err).Int("bytes", m.release).Msg("munmap failed")
		}
	}
	m.alloc.frees.Add(1)
	m.alloc.live.Add(-int64(m.release))
	m.alloc.logger.Debug().Int("bytes", m.release).Bool("mapped", m.unmap != nil).Msg("host memory freed")
}

// Stats summarizes allocator activity.
type Stats struct {
	Allocations int64
	Frees       int64
	LiveBytes   int64
}

// Allocator hands out aligned host memory.
type Allocator struct {
	mmapThreshold int
	logger        zerolog.Logger

	allocs atomic.Int64
	frees  atomic.Int64
	live   atomic.Int64
}

// NewAllocator creates an allocator. A threshold <= 0 disables mmap.
func NewAllocator(mmapThreshold int, logger zerolog.Logger) *Allocator {
	return &Allocator{mmapThreshold: mmapThreshold, logger: logger}
}

// Alloc returns size bytes aligned to alignment (a power of two).
func (a *Allocator) Alloc(size, alignment int) (*Memory, error) {
	if size <= 0 {
		return nil, fmt.Errorf("host: invalid size %d", size)
	}
	if alignment <= 0 || alignment&(alignment-1) != 0 {
		return nil, fmt.Errorf("host: alignment %d is not a power of two", alignment)
	}

	var m *Memory
	if a.mmapThreshold > 0 && size >= a.mmapThreshold && alignment <= pageSize() {
		data, unmap, err := mapAnonymous(size)
		if err != nil {
			return nil, fmt.Errorf("host: map %d bytes: %w", size, err)
		}
		m = &Memory{data: data, unmap: unmap}
	} else {
		m = &Memory{data: alignedHeap(size, alignment)}
	}
	m.alloc = a
	m.release = size

	a.allocs.Add(1)
	a.live.Add(int64(size))
	a.logger.Debug().Int("bytes", size).Int("alignment", alignment).Bool("mapped", m.unmap != nil).Msg("host memory allocated")
	return m, nil
}

// Stats returns a snapshot of allocator counters.
func (a *Allocator) Stats() Stats {
	return Stats{
		Allocations: a.allocs.Load(),
		Frees:       a.frees.Load(),
		LiveBytes:   a.live.Load(),
	}
}

// alignedHeap allocates from the Go heap and slices at an aligned offset.
// The Go collector does not move heap objects, so the offset stays valid.
func alignedHeap(size, alignment int) []byte {
	raw := make([]byte, size+alignment-1)
	off := 0
	//nolint:gosec // address arithmetic only, no pointer conversion back
	if r := int(uintptr(unsafe.Pointer(&raw[0])) & uintptr(alignment-1)); r != 0 {
		off = alignment - r
	}
	return raw[off : off+size : off+size]
}

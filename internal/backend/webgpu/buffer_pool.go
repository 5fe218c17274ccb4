//go:build gpu

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// sizeClass is a staging buffer size category.
type sizeClass int

const (
	smallClass sizeClass = iota
	mediumClass
	largeClass
)

const (
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
)

const stagingUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst

type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
}

// StagingPool recycles map-read staging buffers used for readbacks.
// Buffers are bucketed by size; each bucket holds at most limit buffers.
type StagingPool struct {
	device *wgpu.Device
	limit  int

	mu      sync.Mutex
	classes [3][]pooledBuffer

	hits   uint64
	misses uint64
}

// PoolStats reports staging pool usage.
type PoolStats struct {
	Hits   uint64
	Misses uint64
	Pooled int
}

// NewStagingPool creates a pool for device.
func NewStagingPool(device *wgpu.Device, limit int) *StagingPool {
	return &StagingPool{device: device, limit: limit}
}

// Acquire returns an unmapped staging buffer of at least size bytes.
func (p *StagingPool) Acquire(size uint64) (*wgpu.Buffer, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := classify(size)
	for i, pb := range p.classes[c] {
		if pb.size >= size {
			p.classes[c] = append(p.classes[c][:i], p.classes[c][i+1:]...)
			p.hits++
			return pb.buffer, pb.size
		}
	}

	p.misses++
	buffer := p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: stagingUsage,
		Size:  size,
	})
	return buffer, size
}

// Release returns an unmapped buffer to the pool, or frees it when its
// bucket is full.
func (p *StagingPool) Release(buffer *wgpu.Buffer, size uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := classify(size)
	if len(p.classes[c]) >= p.limit {
		buffer.Release()
		return
	}
	p.classes[c] = append(p.classes[c], pooledBuffer{buffer: buffer, size: size})
}

// Clear frees every pooled buffer.
func (p *StagingPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for c := range p.classes {
		for _, pb := range p.classes[c] {
			pb.buffer.Release()
		}
		p.classes[c] = nil
	}
}

// Stats returns pool counters.
func (p *StagingPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	pooled := 0
	for _, c := range p.classes {
		pooled += len(c)
	}
	return PoolStats{Hits: p.hits, Misses: p.misses, Pooled: pooled}
}

func classify(size uint64) sizeClass {
	switch {
	case size < smallThreshold:
		return smallClass
	case size < mediumThreshold:
		return mediumClass
	default:
		return largeClass
	}
}

// Package registry owns the process-wide set of compute devices: one per
// backend kind, created by Initialize and torn down by Finalize.
package registry

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kmc7468/ShitAIMaker-sub000/internal/backend/blas"
	"github.com/kmc7468/ShitAIMaker-sub000/internal/backend/cpu"
	"github.com/kmc7468/ShitAIMaker-sub000/internal/backend/host"
	"github.com/kmc7468/ShitAIMaker-sub000/internal/backend/webgpu"
	"github.com/kmc7468/ShitAIMaker-sub000/internal/compute"
)

var (
	liveMu sync.Mutex
	live   *Context
)

// Context holds the initialized devices. At most one is live at a time.
type Context struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	devices map[compute.Kind]compute.Device
}

// Initialize creates the CPU device, then the optional BLAS and GPU
// devices. A missing GPU is logged and skipped.
func Initialize(cfg Config) (*Context, error) {
	liveMu.Lock()
	defer liveMu.Unlock()
	if live != nil {
		return nil, compute.ErrAlreadyInitialized
	}

	ctx := &Context{
		logger:  cfg.Logger,
		devices: make(map[compute.Kind]compute.Device),
	}
	hostOpts := host.Options{MmapThreshold: cfg.MmapThreshold, Logger: cfg.Logger}

	ctx.devices[compute.CPU] = cpu.New(cpu.Options{Options: hostOpts, Parallel: cfg.Parallel})

	if cfg.EnableBLAS {
		ctx.devices[compute.BLAS] = blas.New(hostOpts)
	}

	if cfg.EnableGPU {
		gpu, err := webgpu.New(webgpu.Options{Logger: cfg.Logger, StagingPoolSize: cfg.StagingPoolSize})
		switch {
		case err == nil:
			ctx.devices[compute.GPU] = gpu
		case errors.Is(err, compute.ErrUnavailable):
			cfg.Logger.Info().Err(err).Msg("gpu unavailable, continuing without it")
		default:
			_ = ctx.closeAll()
			return nil, err
		}
	}

	live = ctx
	cfg.Logger.Info().Int("devices", len(ctx.devices)).Msg("computing initialized")
	return ctx, nil
}

// Devices lists the initialized devices in kind order. It is empty after
// Finalize.
func (c *Context) Devices() []compute.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()

	devices := make([]compute.Device, 0, len(c.devices))
	for _, kind := range compute.Kinds {
		if d, ok := c.devices[kind]; ok {
			devices = append(devices, d)
		}
	}
	return devices
}

// Device returns the device of the given kind.
func (c *Context) Device(kind compute.Kind) (compute.Device, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.devices[kind]
	return d, ok
}

// Finalize closes GPU, BLAS and CPU devices in that order and releases
// the context so Initialize may run again. Calling it twice is a no-op.
func (c *Context) Finalize() error {
	liveMu.Lock()
	defer liveMu.Unlock()

	err := c.closeAll()
	if live == c {
		live = nil
	}
	c.logger.Info().Msg("computing finalized")
	return err
}

var closeOrder = []compute.Kind{compute.GPU, compute.BLAS, compute.CPU}

func (c *Context) closeAll() error {
	c.mu.Lock()
	devices := c.devices
	c.devices = map[compute.Kind]compute.Device{}
	c.mu.Unlock()

	var errs []error
	for _, kind := range closeOrder {
		if d, ok := devices[kind]; ok {
			if err := d.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

package webgpu

import "github.com/rs/zerolog"

// DefaultStagingPoolSize is the number of idle staging buffers kept per
// size class.
const DefaultStagingPoolSize = 16

// Options configures the GPU device.
type Options struct {
	Logger zerolog.Logger

	// StagingPoolSize bounds each size class of the readback staging pool.
	// Zero disables pooling.
	StagingPoolSize int
}

// DefaultOptions returns options with a silent logger and the default pool size.
func DefaultOptions() Options {
	return Options{
		Logger:          zerolog.Nop(),
		StagingPoolSize: DefaultStagingPoolSize,
	}
}

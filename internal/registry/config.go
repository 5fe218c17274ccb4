package registry

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kmc7468/ShitAIMaker-sub000/internal/backend/host"
	"github.com/kmc7468/ShitAIMaker-sub000/internal/backend/webgpu"
	"github.com/kmc7468/ShitAIMaker-sub000/internal/parallel"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvGPU      = "SHITAI_COMPUTE_GPU"
	EnvBLAS     = "SHITAI_COMPUTE_BLAS"
	EnvParallel = "SHITAI_COMPUTE_PARALLEL"
)

// Config controls which devices Initialize creates and how.
type Config struct {
	Logger zerolog.Logger

	// EnableGPU attempts the GPU device. Its absence is not an error.
	EnableGPU bool
	// EnableBLAS creates the gonum BLAS device.
	EnableBLAS bool

	// Parallel splits CPU GEMM rows across goroutines.
	Parallel parallel.Config

	// MmapThreshold is the host allocation size from which anonymous
	// mappings replace heap memory.
	MmapThreshold int

	// StagingPoolSize bounds each GPU staging pool bucket.
	StagingPoolSize int
}

// DefaultConfig returns a configuration with every backend enabled.
func DefaultConfig() Config {
	return Config{
		Logger:          zerolog.Nop(),
		EnableGPU:       true,
		EnableBLAS:      true,
		Parallel:        parallel.DefaultConfig(),
		MmapThreshold:   host.DefaultMmapThreshold,
		StagingPoolSize: webgpu.DefaultStagingPoolSize,
	}
}

// ConfigFromEnv returns DefaultConfig with environment overrides applied.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v, ok := os.LookupEnv(EnvGPU); ok {
		cfg.EnableGPU = parseBool(v, cfg.EnableGPU)
	}
	if v, ok := os.LookupEnv(EnvBLAS); ok {
		cfg.EnableBLAS = parseBool(v, cfg.EnableBLAS)
	}
	if v, ok := os.LookupEnv(EnvParallel); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
			if n == 0 {
				cfg.Parallel = parallel.Sequential()
			} else {
				cfg.Parallel.Enabled = true
				cfg.Parallel.NumWorkers = n
			}
		}
	}
	return cfg
}

// parseBool accepts 1/0, true/false, on/off, yes/no.
func parseBool(v string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	case "0", "false", "off", "no":
		return false
	default:
		return fallback
	}
}

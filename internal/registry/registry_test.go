package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmc7468/ShitAIMaker-sub000/internal/compute"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.EnableGPU = false
	return cfg
}

func initialize(t *testing.T, cfg Config) *Context {
	t.Helper()
	ctx, err := Initialize(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Finalize() })
	return ctx
}

func TestInitialize_Devices(t *testing.T) {
	ctx := initialize(t, testConfig())

	devices := ctx.Devices()
	require.Len(t, devices, 2)
	assert.Equal(t, compute.CPU, devices[0].Kind())
	assert.Equal(t, compute.BLAS, devices[1].Kind())

	d, ok := ctx.Device(compute.CPU)
	require.True(t, ok)
	assert.Same(t, devices[0], d)

	_, ok = ctx.Device(compute.GPU)
	assert.False(t, ok)
}

func TestInitialize_CPUOnly(t *testing.T) {
	cfg := testConfig()
	cfg.EnableBLAS = false
	ctx := initialize(t, cfg)

	devices := ctx.Devices()
	require.Len(t, devices, 1)
	assert.Equal(t, compute.CPU, devices[0].Kind())
}

func TestInitialize_GPUAbsenceIsNotAnError(t *testing.T) {
	cfg := DefaultConfig()
	ctx := initialize(t, cfg)

	_, ok := ctx.Device(compute.CPU)
	assert.True(t, ok)
}

func TestInitialize_Twice(t *testing.T) {
	initialize(t, testConfig())

	ctx, err := Initialize(testConfig())
	assert.Nil(t, ctx)
	assert.ErrorIs(t, err, compute.ErrAlreadyInitialized)
}

func TestFinalize_Reinitialize(t *testing.T) {
	ctx, err := Initialize(testConfig())
	require.NoError(t, err)
	require.NoError(t, ctx.Finalize())
	assert.Empty(t, ctx.Devices())

	// Second Finalize is a no-op.
	require.NoError(t, ctx.Finalize())

	again := initialize(t, testConfig())
	assert.Len(t, again.Devices(), 2)
	identityScenario(t, again)
}

func TestIdentityScenario(t *testing.T) {
	ctx := initialize(t, testConfig())
	identityScenario(t, ctx)
}

// identityScenario multiplies a 3×2 matrix by the 2×2 identity on every
// host device.
func identityScenario(t *testing.T, ctx *Context) {
	t.Helper()
	for _, d := range ctx.Devices() {
		t.Run(d.Kind().String(), func(t *testing.T) {
			a, err := compute.CreateBuffer[float32](d, 6)
			require.NoError(t, err)
			b, err := compute.CreateBuffer[float32](d, 4)
			require.NoError(t, err)
			c, err := compute.CreateBuffer[float32](d, 6)
			require.NoError(t, err)

			require.NoError(t, compute.WriteSlice(d, a, []float32{1, 2, 3, 4, 5, 6}))
			require.NoError(t, compute.WriteSlice(d, b, []float32{1, 0, 0, 1}))

			require.NoError(t, d.MultiplyMatrixAsync(3, 2,
				compute.F32(a, compute.RowMajor), compute.F32(b, compute.RowMajor), compute.F32(c, compute.RowMajor)))
			require.NoError(t, d.Join())

			out := make([]float32, 6)
			require.NoError(t, compute.ReadSlice(d, out, c))
			assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, out)
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvGPU, "off")
	t.Setenv(EnvBLAS, "0")
	t.Setenv(EnvParallel, "3")

	cfg := ConfigFromEnv()
	assert.False(t, cfg.EnableGPU)
	assert.False(t, cfg.EnableBLAS)
	assert.True(t, cfg.Parallel.Enabled)
	assert.Equal(t, 3, cfg.Parallel.NumWorkers)

	t.Setenv(EnvParallel, "0")
	assert.False(t, ConfigFromEnv().Parallel.Enabled)

	t.Setenv(EnvGPU, "bogus")
	assert.True(t, ConfigFromEnv().EnableGPU)
}

package compute_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmc7468/ShitAIMaker-sub000/compute"
)

func TestIdentityMultiply(t *testing.T) {
	cfg := compute.DefaultConfig()
	cfg.EnableGPU = false
	ctx, err := compute.Initialize(cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, ctx.Finalize()) }()

	d, ok := ctx.Device(compute.CPU)
	require.True(t, ok)

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
}

func TestContractViolationIsPanic(t *testing.T) {
	cfg := compute.DefaultConfig()
	cfg.EnableGPU = false
	cfg.EnableBLAS = false
	ctx, err := compute.Initialize(cfg)
	require.NoError(t, err)
	defer func() { _ = ctx.Finalize() }()

	d, _ := ctx.Device(compute.CPU)
	defer func() {
		r := recover()
		require.NotNil(t, r)
		var cv *compute.ContractViolation
		assert.True(t, errors.As(r.(error), &cv))
		assert.Equal(t, "CreateBuffer", cv.Op)
	}()
	_, _ = compute.CreateBuffer[float32](d, 0)
}

//go:build !gpu

package webgpu

import (
	"errors"

	"github.com/kmc7468/ShitAIMaker-sub000/internal/compute"
)

// errNotCompiled is returned by New when the binary was built without the
// gpu tag.
var errNotCompiled = errors.New("webgpu: built without the gpu tag")

// Device is the GPU device. Without the gpu tag it is never constructed.
type Device struct {
	compute.Device
}

// New always fails: GPU support is compiled out.
func New(Options) (*Device, error) {
	return nil, compute.NewError(compute.CreateHandle, "webgpu.New", errNotCompiled)
}

// IsAvailable reports whether a GPU adapter can be acquired.
func IsAvailable() bool {
	return false
}

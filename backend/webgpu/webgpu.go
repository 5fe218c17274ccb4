// Copyright 2025 ShitAIMaker Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU compute device.
//
// GPU support is compiled in with the gpu build tag. Without it New
// always returns an error matching compute.ErrUnavailable.
//
// The device only writes column-major GEMM destinations; a row-major
// destination is reported as compute.ErrUnsupportedOrder.
//
// Example:
//
//	if webgpu.IsAvailable() {
//	    gpu, err := webgpu.New(webgpu.DefaultOptions())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Close()
//	}
package webgpu

import (
	internalwebgpu "github.com/kmc7468/ShitAIMaker-sub000/internal/backend/webgpu"
)

// Device represents the WebGPU device implementation.
type Device = internalwebgpu.Device

// Options configures the GPU device.
type Options = internalwebgpu.Options

// DefaultOptions returns options with a silent logger and pooled staging buffers.
func DefaultOptions() Options {
	return internalwebgpu.DefaultOptions()
}

// New initializes the WebGPU device.
//
// Returns an error matching compute.ErrUnavailable if no adapter, device
// or queue can be acquired.
func New(opts Options) (*Device, error) {
	return internalwebgpu.New(opts)
}

// IsAvailable checks if WebGPU is available on the current system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}

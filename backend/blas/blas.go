// Copyright 2025 ShitAIMaker Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package blas provides a compute device whose GEMM runs on the gonum
// BLAS float32 routines. Memory and transfers behave like the CPU device.
package blas

import (
	"github.com/kmc7468/ShitAIMaker-sub000/compute"
	internalblas "github.com/kmc7468/ShitAIMaker-sub000/internal/backend/blas"
	"github.com/kmc7468/ShitAIMaker-sub000/internal/backend/host"
)

// Device represents the BLAS device implementation.
type Device = internalblas.Device

// Options configures host memory and logging.
type Options = host.Options

// Compile-time check that Device implements compute.Device.
var _ compute.Device = (*Device)(nil)

// New creates a standalone BLAS device. Close it when done.
func New(opts Options) *Device {
	return internalblas.New(opts)
}

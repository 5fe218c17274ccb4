// Copyright 2025 ShitAIMaker Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"github.com/kmc7468/ShitAIMaker-sub000/compute"
	internalcpu "github.com/kmc7468/ShitAIMaker-sub000/internal/backend/cpu"
)

// Device represents the CPU device implementation.
//
// The CPU device runs every async operation on one worker goroutine and
// multiplies matrices with nested loops specialized per operand layout.
type Device = internalcpu.Device

// Options configures a CPU device.
type Options = internalcpu.Options

// Compile-time check that Device implements compute.Device.
var _ compute.Device = (*Device)(nil)

// DefaultOptions returns the default CPU device options.
func DefaultOptions() Options {
	return internalcpu.DefaultOptions()
}

// New creates a standalone CPU device. Close it when done.
//
// Example:
//
//	import "github.com/kmc7468/ShitAIMaker-sub000/backend/cpu"
//
//	func main() {
//	    d := cpu.New(cpu.DefaultOptions())
//	    defer d.Close()
//	}
func New(opts Options) *Device {
	return internalcpu.New(opts)
}

// Copyright 2025 ShitAIMaker Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package compute

import "github.com/kmc7468/ShitAIMaker-sub000/internal/registry"

// Config controls Initialize.
type Config = registry.Config

// Context is the initialized set of devices.
type Context = registry.Context

// DefaultConfig returns a configuration with every backend enabled and a
// silent logger.
func DefaultConfig() Config {
	return registry.DefaultConfig()
}

// ConfigFromEnv returns DefaultConfig with overrides from
// SHITAI_COMPUTE_GPU, SHITAI_COMPUTE_BLAS and SHITAI_COMPUTE_PARALLEL.
func ConfigFromEnv() Config {
	return registry.ConfigFromEnv()
}

// Initialize creates the CPU device and, when enabled and present, the
// BLAS and GPU devices. Only one Context may be live; Finalize it before
// initializing again.
//
// Example:
//
//	ctx, err := compute.Initialize(compute.ConfigFromEnv())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Finalize()
//
//	for _, d := range ctx.Devices() {
//	    fmt.Println(d.Name())
//	}
func Initialize(cfg Config) (*Context, error) {
	return registry.Initialize(cfg)
}

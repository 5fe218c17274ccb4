// Copyright 2025 ShitAIMaker Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU compute device.
//
// # Overview
//
// The device implements:
//   - Aligned host buffers, mmap-backed above a size threshold
//   - Sync and async read, write and copy
//   - GEMM for every row-major/column-major operand combination
//   - A FIFO worker with a Join barrier
//
// # Basic Usage
//
//	d := cpu.New(cpu.DefaultOptions())
//	defer d.Close()
//
//	a, _ := compute.CreateBuffer[float32](d, 6)
//	b, _ := compute.CreateBuffer[float32](d, 4)
//	c, _ := compute.CreateBuffer[float32](d, 6)
//	_ = d.MultiplyMatrixAsync(3, 2,
//	    compute.F32(a, compute.RowMajor),
//	    compute.F32(b, compute.RowMajor),
//	    compute.F32(c, compute.RowMajor))
//	_ = d.Join()
//
// # Performance
//
// Output rows are split across goroutines when Options.Parallel allows
// it. Each output element is still summed by one goroutine in a fixed
// order, so results do not depend on the worker count.
package cpu

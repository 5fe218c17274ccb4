// Copyright 2025 ShitAIMaker Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package compute provides the public API of the compute layer: typed
// device buffers and asynchronous matrix multiplication on interchangeable
// CPU, BLAS and GPU devices.
//
// The package defines:
//   - Device: the backend interface (buffers, transfers, GEMM, Join)
//   - Buffer: reference-counted device memory
//   - DataType, MatrixOrder, Operand: GEMM operand descriptions
//   - Context: the initialized set of devices, one per Kind
//
// Example:
//
//	ctx, err := compute.Initialize(compute.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Finalize()
//
//	d, _ := ctx.Device(compute.CPU)
//	a, _ := compute.CreateBuffer[float32](d, 6)
//	_ = compute.WriteSlice(d, a, []float32{1, 2, 3, 4, 5, 6})
package compute

import (
	"github.com/kmc7468/ShitAIMaker-sub000/internal/compute"
)

// Element is a constraint for buffer element types.
type Element = compute.Element

// DataType identifies the element type of an operand.
type DataType = compute.DataType

// Data type constants.
const (
	Float32 DataType = compute.Float32
)

// MatrixOrder is the storage order of a matrix operand.
type MatrixOrder = compute.MatrixOrder

// Storage orders. OrderDefault resolves to RowMajor.
const (
	OrderDefault MatrixOrder = compute.OrderDefault
	RowMajor     MatrixOrder = compute.RowMajor
	ColumnMajor  MatrixOrder = compute.ColumnMajor
)

// Kind identifies a backend.
type Kind = compute.Kind

// Backend kinds.
const (
	CPU  Kind = compute.CPU
	GPU  Kind = compute.GPU
	BLAS Kind = compute.BLAS
)

// Info describes a device.
type Info = compute.Info

// Device is the interface every backend implements.
//
// Async operations on one device run in submission order; Join waits for
// all of them. Operands of pending async work must not be touched or
// released until Join returns.
type Device = compute.Device

// Buffer is reference-counted device memory.
type Buffer = compute.Buffer

// Operand is one GEMM argument.
type Operand = compute.Operand

// Error is a reported backend failure.
type Error = compute.Error

// ErrorKind classifies an Error.
type ErrorKind = compute.ErrorKind

// ContractViolation is the panic value for precondition violations.
type ContractViolation = compute.ContractViolation

// Sentinel errors matched with errors.Is.
var (
	ErrUnavailable         = compute.ErrUnavailable
	ErrAllocation          = compute.ErrAllocation
	ErrOperationFailed     = compute.ErrOperationFailed
	ErrUnsupportedDataType = compute.ErrUnsupportedDataType
	ErrUnsupportedOrder    = compute.ErrUnsupportedOrder
	ErrAlreadyInitialized  = compute.ErrAlreadyInitialized
)

// F32 returns a float32 operand.
func F32(b *Buffer, order MatrixOrder) Operand {
	return compute.F32(b, order)
}

// CreateBuffer allocates room for count elements of T on d.
func CreateBuffer[T Element](d Device, count int) (*Buffer, error) {
	return compute.CreateBuffer[T](d, count)
}

// ReadSlice copies src into dst and waits for completion.
func ReadSlice[T Element](d Device, dst []T, src *Buffer) error {
	return compute.ReadSlice(d, dst, src)
}

// WriteSlice copies src into dst and waits for completion.
func WriteSlice[T Element](d Device, dst *Buffer, src []T) error {
	return compute.WriteSlice(d, dst, src)
}

// ReadSliceAsync schedules a read of src into dst; dst is valid after Join.
func ReadSliceAsync[T Element](d Device, dst []T, src *Buffer) error {
	return compute.ReadSliceAsync(d, dst, src)
}

// WriteSliceAsync schedules a write of src into dst.
func WriteSliceAsync[T Element](d Device, dst *Buffer, src []T) error {
	return compute.WriteSliceAsync(d, dst, src)
}

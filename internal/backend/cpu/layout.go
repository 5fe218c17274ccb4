package cpu

import "github.com/kmc7468/ShitAIMaker-sub000/internal/compute"

// Layout is a storage-order strategy for a rows×cols matrix in a flat slice.
// Kernels are instantiated per layout, so the inner loops never branch on
// the storage order.
type Layout[T compute.Element] interface {
	Get(data []T, rows, cols, i, j int) T
	Set(data []T, rows, cols, i, j int, v T)
}

// rowMajor indexes element (i, j) as i*cols+j.
type rowMajor[T compute.Element] struct{}

func (rowMajor[T]) Get(data []T, _, cols, i, j int) T {
	return data[i*cols+j]
}

func (rowMajor[T]) Set(data []T, _, cols, i, j int, v T) {
	data[i*cols+j] = v
}

// colMajor indexes element (i, j) as j*rows+i.
type colMajor[T compute.Element] struct{}

func (colMajor[T]) Get(data []T, rows, _, i, j int) T {
	return data[j*rows+i]
}

func (colMajor[T]) Set(data []T, rows, _, i, j int, v T) {
	data[j*rows+i] = v
}

package compute

// MatrixOrder describes how an m×n matrix is laid out inside a flat Buffer.
type MatrixOrder int

// Storage orders.
const (
	// OrderDefault is treated as RowMajor.
	OrderDefault MatrixOrder = iota
	RowMajor
	ColumnMajor
)

// Resolve maps OrderDefault to RowMajor and returns every other order unchanged.
func (o MatrixOrder) Resolve() MatrixOrder {
	if o == OrderDefault {
		return RowMajor
	}
	return o
}

// Valid reports whether o is a known storage order.
func (o MatrixOrder) Valid() bool {
	switch o {
	case OrderDefault, RowMajor, ColumnMajor:
		return true
	default:
		return false
	}
}

// String returns a human-readable order name.
func (o MatrixOrder) String() string {
	switch o {
	case OrderDefault:
		return "default"
	case RowMajor:
		return "row-major"
	case ColumnMajor:
		return "column-major"
	default:
		return "unknown"
	}
}

// Index returns the flat element index of (i, j) in a rows×cols matrix
// stored with order o.
func (o MatrixOrder) Index(rows, cols, i, j int) int {
	if o.Resolve() == ColumnMajor {
		return j*rows + i
	}
	return i*cols + j
}

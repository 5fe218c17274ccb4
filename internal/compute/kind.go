package compute

// Kind identifies an execution backend.
type Kind int

// Supported backend kinds. The registry holds at most one device per kind.
const (
	CPU Kind = iota
	GPU
	BLAS
)

// Kinds lists every backend kind in registry order.
var Kinds = []Kind{CPU, GPU, BLAS}

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case CPU:
		return "CPU"
	case GPU:
		return "GPU"
	case BLAS:
		return "BLAS"
	default:
		return "Unknown"
	}
}

// Info describes a device for enumeration and diagnostics.
type Info struct {
	Name        string
	Kind        Kind
	TotalMemory uint64   // bytes, 0 if unknown
	Features    []string // e.g. SIMD flags or adapter vendor
}

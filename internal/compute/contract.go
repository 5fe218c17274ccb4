package compute

import "fmt"

// ContractViolation is the panic value raised when a caller breaks a
// precondition (zero sizes, foreign buffers, inconsistent shapes).
// It is never returned as an error.
type ContractViolation struct {
	Op  string
	Msg string
}

// Error implements the error interface.
func (c *ContractViolation) Error() string {
	return c.Op + ": " + c.Msg
}

// Require panics with a ContractViolation when cond is false.
func Require(cond bool, op, format string, args ...any) {
	if !cond {
		panic(&ContractViolation{Op: op, Msg: fmt.Sprintf(format, args...)})
	}
}

// RequireOwned panics unless every buffer belongs to d.
func RequireOwned(d Device, op string, bufs ...*Buffer) {
	for i, b := range bufs {
		Require(b != nil, op, "buffer %d is nil", i)
		Require(b.Device() == d, op, "buffer %d belongs to %s, not %s", i, deviceName(b.Device()), d.Name())
		Require(b.Live(), op, "buffer %d already released", i)
	}
}

func deviceName(d Device) string {
	if d == nil {
		return "<nil>"
	}
	return d.Name()
}

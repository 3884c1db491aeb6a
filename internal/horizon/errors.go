package horizon

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange indicates a caller-supplied index or range that falls
// outside a buffer's valid bounds. It always means an indexing bug in the
// control-loop driver, never a recoverable runtime condition: retrying the
// same call cannot succeed.
var ErrIndexOutOfRange = errors.New("horizon: index out of range")

// IndexError carries the operation and offending bounds of an out-of-range
// access. It unwraps to ErrIndexOutOfRange.
type IndexError struct {
	Op    string
	Index int
	Bound int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("horizon: %s: index %d out of bounds %d (likely an indexing bug upstream)",
		e.Op, e.Index, e.Bound)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

func indexErr(op string, index, bound int) error {
	return &IndexError{Op: op, Index: index, Bound: bound}
}

package vmem

import "errors"
import "fmt"

// ErrNoMem is returned by Alloc/Xalloc when no segment in the arena, nor
// any import from the arena's source, can satisfy the request. This is the
// only recoverable failure in this package — everything else (overlap in
// Add, freeing an unknown address, destroying an arena with live
// allocations) is a caller bug and is raised as a panic instead, per
// spec.md §7: any attempt to recover from those would leave the arena in
// an inconsistent state.
var ErrNoMem = errors.New("vmem.nomem")

func panicf(format string, args ...interface{}) {
	panic(&Error{msg: fmt.Sprintf(format, args...)})
}

// Error is the panic value raised for caller-bug preconditions: overlapping
// Add, freeing an unknown or mismatched-size address, destroying an arena
// with outstanding allocations, a non-power-of-two alignment, or a cyclic
// source graph.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

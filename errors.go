package boot

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrCapabilityUnavailable is wrapped by surface factories when the host
	// cannot provide the graphics capability the application needs.
	ErrCapabilityUnavailable = errors.New("boot: capability unavailable")

	// ErrInvalidState is returned when a lifecycle operation is called out of order.
	ErrInvalidState = errors.New("boot: invalid lifecycle state")

	// ErrDisposed is returned by Run after Dispose.
	ErrDisposed = errors.New("boot: driver disposed")
)

// FatalError is an error or panic that escaped hosted application code.
// Once returned, the driver is in StateFailed and executes no more frames.
type FatalError struct {
	// Op names the lifecycle step, e.g. "create", "render", "deferred".
	Op  string
	Err error
	// Stack is set when the failure was a recovered panic.
	Stack []byte
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("boot: fatal error in %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// panicError carries a recovered panic value.
type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

// guard runs fn and converts an error or panic into a *FatalError for op.
func guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &FatalError{Op: op, Err: panicError{value: r}, Stack: debug.Stack()}
		}
	}()
	if ferr := fn(); ferr != nil {
		return &FatalError{Op: op, Err: ferr}
	}
	return nil
}

// guardFunc adapts guard to hooks without an error return.
func guardFunc(op string) func(fn func()) error {
	return func(fn func()) error {
		return guard(op, func() error {
			fn()
			return nil
		})
	}
}

// internal/recovery/recovery.go
package recovery

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
)

// exit is swapped out by tests.
var exit = os.Exit

// PanicError carries a recovered panic value and the stack it was raised on.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func report(w io.Writer, r any, stack []byte) {
	_, _ = fmt.Fprintf(w, "FATAL: %v\n\nStack trace:\n%s\n", r, stack)
}

// HandlePanic should be deferred at the top of main().
// It prints the panic and its stack to stderr and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		report(os.Stderr, r, debug.Stack())
		exit(1)
	}
}

// HandlePanicFunc is HandlePanic with a cleanup hook that runs before the exit,
// e.g. to close the serial link or stop audio capture.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		report(os.Stderr, r, debug.Stack())
		if cleanup != nil {
			cleanup()
		}
		exit(1)
	}
}

// Go starts fn on its own goroutine tracked by wg.
// A panic in fn is fatal for the process, after cleanup has run.
func Go(wg *sync.WaitGroup, cleanup func(), fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer HandlePanicFunc(cleanup)
		fn()
	}()
}

// Catch runs fn and returns a *PanicError instead of unwinding if fn panics.
func Catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}

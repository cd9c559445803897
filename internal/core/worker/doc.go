// Package worker runs a repeated unit of work on its own goroutine with a
// cooperative stop signal.
//
// A Worker calls its Func in a loop until Stop is called or an iteration
// returns a fatal error (see Fatal). Transient errors and recovered panics
// are logged and counted, and the loop keeps going. A worker runs once: to
// restart work, build a new Worker.
package worker

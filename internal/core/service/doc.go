// Package service wires the snapshot buffer to its producer and consumers.
//
// This package contains:
//
//   - ProducerTick: one producer iteration (drain commands, step, commit)
//   - BroadcastTick: one consumer iteration (wait for a commit, publish it)
//   - Pipeline: the supervisor slots running both as workers
//
// The producer and the broadcaster share nothing but the buffer. Each
// supervisor restart builds a fresh worker, stepper and closure state.
package service

// Package domain defines the core domain models for SimSync.
//
// Domain models are pure values without any IO dependencies or
// framework coupling. This package contains:
//
//   - Snapshot: the world state keyed by model name
//   - ModelState: position, rotation and free-form extra fields
//   - Command: an inbound control message from a client
//   - Errors: domain error definitions shared by every layer
//
// Snapshots are treated as immutable once published; Clone produces a
// deep copy that callers may mutate freely.
package domain

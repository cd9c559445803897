// Package domain defines the core domain models for SimSync.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes follow the format SS-<AREA>-<NNNN>; the numeric part mirrors the
// closest HTTP status so transports can map them mechanically.
type DomainError struct {
	Code    string // Error code (e.g., "SS-MODEL-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Worker Errors (WORK)
// ============================================================================

var (
	// ErrTransientWork indicates a single loop iteration failed.
	// The worker logs it and keeps looping.
	ErrTransientWork = NewDomainError("SS-WORK-5000", "work iteration failed")

	// ErrFatalWork indicates the work function cannot continue.
	// The worker loop exits and the supervisor restarts a fresh instance.
	ErrFatalWork = NewDomainError("SS-WORK-5001", "work cannot continue")

	// ErrWorkPanic indicates the work function panicked during an iteration.
	ErrWorkPanic = NewDomainError("SS-WORK-5002", "work iteration panicked")
)

// ============================================================================
// Snapshot Buffer Errors (BUF)
// ============================================================================

var (
	// ErrWriteSessionAbandoned indicates a write session ended without commit.
	// The committed snapshot is unaffected.
	ErrWriteSessionAbandoned = NewDomainError("SS-BUF-4090", "write session abandoned")

	// ErrSessionClosed indicates an operation on a write session that already ended.
	ErrSessionClosed = NewDomainError("SS-BUF-4091", "write session already closed")
)

// ============================================================================
// Supervisor Errors (SUP)
// ============================================================================

var (
	// ErrShutdownJoinTimeout indicates a worker did not stop within its join timeout.
	ErrShutdownJoinTimeout = NewDomainError("SS-SUP-5040", "worker did not stop in time")

	// ErrSupervisorStarted indicates Start was called more than once.
	ErrSupervisorStarted = NewDomainError("SS-SUP-4090", "supervisor already started")

	// ErrSupervisorStopped indicates the supervisor has been shut down.
	ErrSupervisorStopped = NewDomainError("SS-SUP-4091", "supervisor stopped")

	// ErrInvalidSlot indicates a slot specification is unusable.
	ErrInvalidSlot = NewDomainError("SS-SUP-4000", "invalid worker slot")
)

// ============================================================================
// Model and Command Errors (MODEL, CMD)
// ============================================================================

var (
	// ErrModelNotFound indicates the named model is not part of the snapshot.
	ErrModelNotFound = NewDomainError("SS-MODEL-4040", "model not found")

	// ErrInvalidScene indicates a scene description failed validation.
	ErrInvalidScene = NewDomainError("SS-MODEL-4000", "invalid scene")

	// ErrInvalidCommand indicates a malformed or unknown command.
	ErrInvalidCommand = NewDomainError("SS-CMD-4000", "invalid command")

	// ErrCommandRejected indicates a command was refused (queue full or rate limited).
	ErrCommandRejected = NewDomainError("SS-CMD-4290", "command rejected")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("SS-SYS-5000", "internal server error")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = NewDomainError("SS-SYS-5030", "service unavailable")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("SS-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("SS-SYS-4290", "too many requests")

	// ErrNotFound indicates an unknown resource path.
	ErrNotFound = NewDomainError("SS-SYS-4040", "not found")

	// ErrForbidden indicates the client may not use the endpoint.
	ErrForbidden = NewDomainError("SS-SYS-4030", "forbidden")
)

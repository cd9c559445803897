// Package handler provides HTTP request handlers for SimSync.
//
// This package contains handlers for the JSON endpoints:
//
//   - health.go: Health and readiness checks
//   - models.go: Current snapshot and single model lookup
//   - commands.go: Command submission
//   - status.go: Supervisor, buffer, inbox and hub state
//
// Every response uses the Response envelope; errors carry an SS-* code
// mapped to an HTTP status by errorCodeToHTTPStatus.
package handler

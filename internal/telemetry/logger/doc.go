// Package logger provides structured logging for SimSync.
//
// This package wraps log/slog for structured logging:
//
//   - logger.go: Logger interface, configuration and the global default
//   - context.go: Context-aware logging with request/trace IDs
//
// Features:
//
//   - JSON and text output formats
//   - Log level filtering, adjustable at runtime
//   - Context propagation for request tracing
package logger

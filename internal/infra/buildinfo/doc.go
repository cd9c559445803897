// Package buildinfo provides build information for SimSync.
//
// This package exposes build-time information injected via ldflags:
//
//   - Version: Semantic version (e.g., "1.0.0")
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// When Commit or GoVersion are not injected they are read from the
// module build info embedded by the Go toolchain.
//
// Usage:
//
//	go build -ldflags "-X github.com/yndnr/simsync-go/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo

// Package config provides server configuration for SimSync.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (addresses, rates, TLS pairs, file existence)
//   - convert.go: Mapping onto component configs, log summary
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags.
package config

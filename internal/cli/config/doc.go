// Package config provides the simsync-cli configuration file.
//
//   - spec.go: CLIConfig struct (~/.simsync/cli.yaml)
//   - loader.go: loading, saving and server resolution
//
// Flags and SIMSYNC_ environment variables take precedence over the file.
package config

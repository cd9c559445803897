// Package command provides CLI command definitions for simsync-cli.
//
// It uses urfave/cli/v2 for command parsing. Commands:
//
//   - models list | get NAME
//   - status, health
//   - send set-speed MODEL VALUE | pause | resume | reset
//   - watch [--count N] [--model NAME]
//   - version
package command

// Package main provides the entry point for simsync-cli.
//
// The CLI talks to a running simsync-server over HTTP and WebSocket:
//
//   - Inspect the latest snapshot (models list, models get)
//   - Report worker, buffer and client state (status, health)
//   - Send control commands (send set-speed, pause, resume, reset)
//   - Stream snapshots as they are committed (watch)
//
// Usage:
//
//	simsync-cli [global flags] command [flags]
//	simsync-cli -o json models list
//	simsync-cli --server lab send set-speed gear_A 3.5
//	simsync-cli watch --count 10 --model gear_A
package main

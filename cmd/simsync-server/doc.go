// Package main provides the entry point for simsync-server.
//
// simsync-server runs the kinematic producer and the broadcaster under a
// supervisor and streams committed snapshots to WebSocket clients.
//
// Usage:
//
//	simsync-server [-config simsync.yaml]
//
// Every setting can be overridden with SIMSYNC_ environment variables,
// using "__" between levels (SIMSYNC_SIM__TICK_RATE=120).
package main

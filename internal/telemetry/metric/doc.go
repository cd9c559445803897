// Package metric provides Prometheus metrics for SimSync.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Registry with the server metrics and the /metrics handler
//   - observer.go: Registry methods fed by the buffer, workers, supervisor
//     and WebSocket hub
//   - collector.go: Collector exporting supervisor slot status at scrape time
//
// Metrics include:
//
//   - Commit and abandon counters, snapshot sequence and write session hold time
//   - Worker failures, starts, restarts and join timeouts per slot
//   - Connected clients, sent and dropped frames, inbound commands
//   - HTTP request counts and latency
package metric

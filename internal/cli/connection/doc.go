// Package connection provides the simsync-cli transports.
//
//   - http.go: JSON API client that unwraps the response envelope
//   - stream.go: WebSocket snapshot stream for the watch command
package connection

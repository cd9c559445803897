// Package tests holds end-to-end tests that run the full SimSync stack:
// scene, snapshot buffer, supervised producer and broadcaster, WebSocket
// hub and HTTP router, wired the way cmd/simsync-server wires them.
package tests

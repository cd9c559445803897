// Package httpserver provides the HTTP/HTTPS server for SimSync.
//
// This package implements the external API using stdlib net/http:
//
//   - Snapshot endpoints: /models, /models/{name}
//   - Control endpoints: POST /commands, /status
//   - Streaming: /ws (WebSocket hub)
//   - Static model files: /resources/{path...}
//   - Health endpoints: /health, /ready, /metrics
//
// Middleware chain: Recover, RequestID, AccessLog, CORS on every route;
// per-IP RateLimit on API routes; NetworkACL on control routes.
package httpserver

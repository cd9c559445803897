// Package shutdown provides graceful shutdown for SimSync.
//
// This package handles process termination:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Programmatic shutdown (Trigger), e.g. when a listener fails
//   - Named cleanup hooks run in reverse registration order
//   - A single timeout bounding all hooks together
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown("http", srv.Shutdown)
//	if err := h.Wait(); err != nil {
//		log.Error("shutdown", "error", err)
//	}
package shutdown

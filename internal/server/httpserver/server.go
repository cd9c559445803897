package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	listener   net.Listener
}

// New creates a new HTTP server.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		handler: handler,
	}
}

// Listen binds the listening socket so address errors surface before
// the rest of the process starts.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// SetTLSConfig serves HTTPS with cfg, which must provide certificates
// (e.g. through GetCertificate). Call it before Serve.
func (s *Server) SetTLSConfig(cfg *tls.Config) {
	s.httpServer.TLSConfig = cfg
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Serve serves HTTPS when a TLS config was set or both files are given,
// plain HTTP otherwise. It returns nil after Shutdown.
func (s *Server) Serve(certFile, keyFile string) error {
	if err := s.Listen(); err != nil {
		return err
	}

	var err error
	switch {
	case s.httpServer.TLSConfig != nil:
		err = s.httpServer.ServeTLS(s.listener, "", "")
	case certFile != "" && keyFile != "":
		err = s.httpServer.ServeTLS(s.listener, certFile, keyFile)
	default:
		err = s.httpServer.Serve(s.listener)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.Serve("", "")
}

// ListenAndServeTLS starts the HTTPS server.
func (s *Server) ListenAndServeTLS(certFile, keyFile string) error {
	return s.Serve(certFile, keyFile)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Server is an http.Server whose request contexts can be cancelled on
// shutdown, so generations still running after the grace period end with
// 503 canceled instead of being cut off.
type Server struct {
	httpServer     *http.Server
	cancelRequests context.CancelFunc
}

func NewServer(addr string, handler http.Handler) *Server {
	baseCtx, cancel := context.WithCancel(context.Background())

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       60 * time.Second,
			BaseContext: func(net.Listener) context.Context {
				return baseCtx
			},
		},
		cancelRequests: cancel,
	}
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Serve(listener net.Listener) error {
	return s.httpServer.Serve(listener)
}

// Shutdown stops accepting connections and waits up to grace for in-flight
// requests. Requests still running after that are cancelled and given drain
// to write their error response.
func (s *Server) Shutdown(grace time.Duration, drain time.Duration) error {
	defer s.cancelRequests()

	graceCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	err := s.httpServer.Shutdown(graceCtx)
	if err == nil || !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	s.cancelRequests()

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), drain)
	defer cancelDrain()

	if err := s.httpServer.Shutdown(drainCtx); err != nil {
		_ = s.httpServer.Close()
		return fmt.Errorf("forced close after drain: %w", err)
	}
	return nil
}

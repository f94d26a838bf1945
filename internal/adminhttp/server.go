package adminhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Server wraps http.Server as a lifecycle.Hook: Start launches the listener
// in the background and returns immediately (a bind error surfaces
// through the logger, matching how a long-running listener can't return
// its own error synchronously), Stop drains in-flight requests.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

func NewServer(addr string, router http.Handler, logger *slog.Logger) *Server {
	return &Server{
		http:   &http.Server{Addr: addr, Handler: router},
		logger: logger.With("component", "adminhttp"),
	}
}

func (s *Server) Start(_ context.Context) error {
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin http server stopped unexpectedly", "error", err)
		}
	}()
	return nil
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("admin http server shutdown error", "error", err)
	}
}

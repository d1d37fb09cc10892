package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/roomset/internal/config"
	"github.com/JaimeStill/roomset/pkg/lifecycle"
)

// httpServer runs the listener and drains it when the lifecycle shuts down.
type httpServer struct {
	srv     *http.Server
	logger  *slog.Logger
	timeout time.Duration
}

// newHTTPServer builds the listener. Each closer runs when shutdown begins
// so long-lived responses such as event streams release their connections.
func newHTTPServer(cfg *config.ServerConfig, handler http.Handler, logger *slog.Logger, closers ...func()) *httpServer {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeoutDuration(),
		ReadTimeout:       cfg.ReadTimeoutDuration(),
		WriteTimeout:      cfg.WriteTimeoutDuration(),
		IdleTimeout:       cfg.IdleTimeoutDuration(),
	}
	for _, fn := range closers {
		srv.RegisterOnShutdown(fn)
	}

	return &httpServer{
		srv:     srv,
		logger:  logger.With("system", "http"),
		timeout: cfg.ShutdownTimeoutDuration(),
	}
}

func (s *httpServer) Start(lc *lifecycle.Coordinator) error {
	go func() {
		s.logger.Info("listening", "addr", s.srv.Addr)
		err := s.srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("listener failed", "error", err)
		}
	}()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := s.Stop(); err != nil {
			s.logger.Error("listener shutdown failed", "error", err)
			return
		}
		s.logger.Info("listener stopped")
	})

	return nil
}

// Stop drains open connections within the configured timeout.
func (s *httpServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

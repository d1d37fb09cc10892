package main

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/JaimeStill/roomset/internal/config"
)

func TestHTTPServerStopRunsClosers(t *testing.T) {
	cfg := &config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: "1s"}
	closed := make(chan struct{})

	s := newHTTPServer(cfg, http.NotFoundHandler(), slog.New(slog.NewTextHandler(io.Discard, nil)), func() {
		close(closed)
	})

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Error("closer did not run on shutdown")
	}
}

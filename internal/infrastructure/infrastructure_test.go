package infrastructure_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/roomset/internal/config"
	"github.com/JaimeStill/roomset/internal/infrastructure"
	"github.com/JaimeStill/roomset/internal/sessions"
	"github.com/JaimeStill/roomset/pkg/database"
	"github.com/JaimeStill/roomset/pkg/storage"
)

func baseConfig() *config.Config {
	return &config.Config{
		Log:      config.LogConfig{Level: "info", Format: config.LogFormatText},
		Sessions: sessions.Config{Driver: sessions.DriverMemory},
		Storage:  storage.Config{Driver: storage.DriverInline},
	}
}

func TestNewInline(t *testing.T) {
	infra, err := infrastructure.NewWithOutput(baseConfig(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil || infra.Logger == nil {
		t.Fatal("lifecycle and logger are required")
	}
	if infra.Database != nil {
		t.Error("database should not be created for memory sessions")
	}
	if infra.Storage != nil {
		t.Error("storage should be nil for the inline driver")
	}
}

func TestNewMemoryStorage(t *testing.T) {
	cfg := baseConfig()
	cfg.Storage.Driver = storage.DriverMemory

	infra, err := infrastructure.NewWithOutput(cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if infra.Storage == nil {
		t.Fatal("memory storage not created")
	}
	if err := infra.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}

func TestNewPostgresSessionsCreatesDatabase(t *testing.T) {
	cfg := baseConfig()
	cfg.Sessions.Driver = sessions.DriverPostgres
	cfg.Database = database.Config{
		Host:            "localhost",
		Port:            5432,
		Name:            "roomset",
		User:            "roomset",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: "15m",
		ConnTimeout:     "5s",
	}

	infra, err := infrastructure.NewWithOutput(cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if infra.Database == nil {
		t.Fatal("database not created")
	}
	infra.Database.Connection().Close()
}

func TestReady(t *testing.T) {
	infra, err := infrastructure.NewWithOutput(baseConfig(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Ready() {
		t.Error("ready before startup")
	}
	infra.Lifecycle.WaitForStartup()
	if !infra.Ready() {
		t.Error("not ready after startup")
	}
	infra.Lifecycle.Shutdown(time.Second)
	if infra.Ready() {
		t.Error("ready after shutdown")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LogConfig
		check func(t *testing.T, out string)
	}{
		{
			name: "json",
			cfg:  config.LogConfig{Level: "info", Format: config.LogFormatJSON},
			check: func(t *testing.T, out string) {
				var entry map[string]any
				if err := json.Unmarshal([]byte(out), &entry); err != nil {
					t.Fatalf("output is not JSON: %q", out)
				}
				if entry["msg"] != "hello" {
					t.Errorf("msg: got %v", entry["msg"])
				}
			},
		},
		{
			name: "text",
			cfg:  config.LogConfig{Level: "info", Format: config.LogFormatText},
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "msg=hello") {
					t.Errorf("text output: %q", out)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			infrastructure.NewLogger(&tt.cfg, &buf).Info("hello")
			tt.check(t, buf.String())
		})
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := infrastructure.NewLogger(&config.LogConfig{Level: "warn", Format: config.LogFormatText}, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("level filtering: %q", out)
	}
}

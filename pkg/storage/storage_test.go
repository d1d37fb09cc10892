package storage_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/roomset/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=roomsetstore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/roomsetstore;"

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewByDriver(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr error
	}{
		{"memory", storage.Config{Driver: storage.DriverMemory}, nil},
		{"azure", storage.Config{Driver: storage.DriverAzure, ContainerName: "products", ConnectionString: azuriteConnString}, nil},
		{"inline", storage.Config{Driver: storage.DriverInline}, storage.ErrNoDriver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, err := storage.New(&tt.cfg, discard())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if sys == nil {
				t.Fatal("New() returned nil system")
			}
		})
	}
}

func TestNewInvalidConnectionString(t *testing.T) {
	cfg := &storage.Config{
		Driver:           storage.DriverAzure,
		ContainerName:    "products",
		ConnectionString: "not-a-connection-string",
	}

	if _, err := storage.New(cfg, discard()); err == nil {
		t.Fatal("expected error for invalid connection string, got nil")
	}
}

func TestConfigFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr bool
	}{
		{"defaults to inline", storage.Config{}, false},
		{"memory", storage.Config{Driver: storage.DriverMemory}, false},
		{"azure without credentials", storage.Config{Driver: storage.DriverAzure}, true},
		{"azure with service url", storage.Config{Driver: storage.DriverAzure, ServiceURL: "https://acct.blob.core.windows.net"}, false},
		{"unknown driver", storage.Config{Driver: "s3"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Finalize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	var c storage.Config
	c.Finalize(nil)
	if !c.Inline() {
		t.Errorf("default driver: got %q, want inline", c.Driver)
	}
	if c.ContainerName != "products" {
		t.Errorf("default container: got %q, want products", c.ContainerName)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory(discard())
	key := "products/session/id/chair.png"

	if err := mem.Upload(ctx, key, strings.NewReader("png-bytes"), "image/png"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	exists, err := mem.Exists(ctx, key)
	if err != nil || !exists {
		t.Fatalf("Exists() = %v, %v; want true, nil", exists, err)
	}

	blob, err := mem.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer blob.Body.Close()

	data, _ := io.ReadAll(blob.Body)
	if string(data) != "png-bytes" {
		t.Errorf("body: got %q", data)
	}
	if blob.ContentType != "image/png" {
		t.Errorf("content type: got %q", blob.ContentType)
	}
	if blob.ContentLength != int64(len("png-bytes")) {
		t.Errorf("content length: got %d", blob.ContentLength)
	}

	if err := mem.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := mem.Delete(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := mem.Download(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download() after delete error = %v, want ErrNotFound", err)
	}
	if mem.Len() != 0 {
		t.Errorf("Len() = %d, want 0", mem.Len())
	}
}

func TestMemoryKeyValidation(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory(discard())

	if err := mem.Upload(ctx, "", strings.NewReader("x"), "image/png"); !errors.Is(err, storage.ErrEmptyKey) {
		t.Errorf("empty key: got %v, want ErrEmptyKey", err)
	}
	if _, err := mem.Download(ctx, "products/../secrets"); !errors.Is(err, storage.ErrInvalidKey) {
		t.Errorf("traversal key: got %v, want ErrInvalidKey", err)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{storage.ErrEmptyKey, http.StatusBadRequest},
		{storage.ErrInvalidKey, http.StatusBadRequest},
		{storage.ErrNoDriver, http.StatusNotFound},
		{fmt.Errorf("download: %w", storage.ErrNotFound), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := storage.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

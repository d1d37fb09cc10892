package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/JaimeStill/roomset/pkg/lifecycle"
)

type memoryBlob struct {
	data        []byte
	contentType string
}

// Memory is a process-local System. Blobs vanish with the process.
type Memory struct {
	mu     sync.RWMutex
	blobs  map[string]memoryBlob
	logger *slog.Logger
}

// NewMemory creates an empty in-memory storage system.
func NewMemory(logger *slog.Logger) *Memory {
	return &Memory{
		blobs:  make(map[string]memoryBlob),
		logger: logger.With("system", "storage", "driver", DriverMemory),
	}
}

func (m *Memory) Start(lc *lifecycle.Coordinator) error {
	m.logger.Info("starting storage system")
	return nil
}

func (m *Memory) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}

	m.mu.Lock()
	m.blobs[key] = memoryBlob{data: data, contentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Download(ctx context.Context, key string) (*Blob, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	b, ok := m.blobs[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	return &Blob{
		Body:          io.NopCloser(bytes.NewReader(b.data)),
		ContentType:   b.contentType,
		ContentLength: int64(len(b.data)),
	}, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return ErrNotFound
	}
	delete(m.blobs, key)
	return nil
}

func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	m.mu.RLock()
	_, ok := m.blobs[key]
	m.mu.RUnlock()
	return ok, nil
}

// Len returns the number of stored blobs.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

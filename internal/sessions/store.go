package sessions

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/roomset/internal/workflow"
)

// ErrNotFound reports that no live snapshot exists for a session.
var ErrNotFound = errors.New("session not found")

// MapHTTPStatus maps session errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Expired is a snapshot removed by Purge.
type Expired struct {
	ID    uuid.UUID
	State workflow.State
}

// Store keeps controller snapshots so a session outlives its controller.
type Store interface {
	// Load returns the unexpired snapshot for id or ErrNotFound.
	Load(ctx context.Context, id uuid.UUID) (workflow.State, error)
	// Save upserts the snapshot for id and sets its expiry.
	Save(ctx context.Context, id uuid.UUID, state workflow.State, expires time.Time) error
	// Delete removes the snapshot for id. Returns ErrNotFound if none exists.
	Delete(ctx context.Context, id uuid.UUID) error
	// Purge removes every snapshot that expired at or before the given time
	// and returns them.
	Purge(ctx context.Context, before time.Time) ([]Expired, error)
}

type memoryEntry struct {
	state   workflow.State
	expires time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[uuid.UUID]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Load(ctx context.Context, id uuid.UUID) (workflow.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || !e.expires.After(s.now()) {
		return workflow.State{}, ErrNotFound
	}
	return e.state, nil
}

func (s *MemoryStore) Save(ctx context.Context, id uuid.UUID, state workflow.State, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryEntry{state: state, expires: expires}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Purge(ctx context.Context, before time.Time) ([]Expired, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Expired
	for id, e := range s.entries {
		if !e.expires.After(before) {
			out = append(out, Expired{ID: id, State: e.state})
			delete(s.entries, id)
		}
	}
	return out, nil
}

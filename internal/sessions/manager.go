// Package sessions binds browser sessions to workflow controllers.
//
// Each browser carries an opaque session cookie. The Manager keeps one live
// Controller per session, persists its state to a Store whenever it
// changes, and retires sessions that stay idle longer than the configured
// TTL.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/roomset/internal/workflow"
	"github.com/JaimeStill/roomset/pkg/handlers"
	"github.com/JaimeStill/roomset/pkg/lifecycle"
)

const (
	saveTimeout  = 5 * time.Second
	releaseLimit = 4
)

// Session is a live studio session.
type Session struct {
	ID         uuid.UUID
	Controller *workflow.Controller
}

// Factory builds the controller for a new session.
type Factory func(id uuid.UUID) *workflow.Controller

type entry struct {
	session     *Session
	lastSeen    time.Time
	changed     chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	unsubscribe func()
}

// Manager owns the live sessions of the process.
type Manager struct {
	cookieName   string
	cookieSecure bool
	ttl          time.Duration
	interval     time.Duration

	store    Store
	factory  Factory
	releaser workflow.Releaser
	logger   *slog.Logger
	now      func() time.Time
	newID    func() uuid.UUID

	mu     sync.Mutex
	live   map[uuid.UUID]*entry
	flight singleflight.Group
}

// NewManager creates a Manager. The releaser frees product images of
// sessions that expire.
func NewManager(cfg *Config, store Store, factory Factory, releaser workflow.Releaser, logger *slog.Logger) *Manager {
	return &Manager{
		cookieName:   cfg.CookieName,
		cookieSecure: cfg.CookieSecure,
		ttl:          cfg.TTLDuration(),
		interval:     cfg.PurgeIntervalDuration(),
		store:        store,
		factory:      factory,
		releaser:     releaser,
		logger:       logger.With("system", "sessions"),
		now:          time.Now,
		newID:        uuid.New,
		live:         make(map[uuid.UUID]*entry),
	}
}

// Start schedules the idle-session sweep and flushes live sessions on
// shutdown.
func (m *Manager) Start(lc *lifecycle.Coordinator) error {
	m.logger.Info("starting session manager", "ttl", m.ttl, "purge_interval", m.interval)

	lc.Every(m.interval, func(ctx context.Context) {
		if err := m.Sweep(ctx); err != nil {
			m.logger.Error("session sweep failed", "error", err)
		}
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		m.Close()
		m.logger.Info("session manager stopped")
	})

	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Acquire returns the live session for id, restoring it from the store or
// creating it when it is not live.
func (m *Manager) Acquire(ctx context.Context, id uuid.UUID) (*Session, error) {
	if s := m.touch(id); s != nil {
		return s, nil
	}

	v, err, _ := m.flight.Do("acquire:"+id.String(), func() (any, error) {
		if s := m.touch(id); s != nil {
			return s, nil
		}
		return m.open(ctx, id, true)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Lookup returns the live or stored session for id without creating one.
// It returns ErrNotFound when the session is unknown.
func (m *Manager) Lookup(ctx context.Context, id uuid.UUID) (*Session, error) {
	if s := m.touch(id); s != nil {
		return s, nil
	}

	v, err, _ := m.flight.Do("lookup:"+id.String(), func() (any, error) {
		if s := m.touch(id); s != nil {
			return s, nil
		}
		return m.open(ctx, id, false)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Middleware resolves the session cookie, attaches the session to the
// request context, and refreshes the cookie.
//
// Read-only requests for an unknown session are answered from a blank
// session that is discarded with the request. A session only becomes live
// on the first command sent with its cookie.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := m.resolve(r)
			if err != nil {
				handlers.RespondError(w, m.logger, MapHTTPStatus(err), err)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     m.cookieName,
				Value:    s.ID.String(),
				Path:     "/",
				MaxAge:   int(m.ttl.Seconds()),
				HttpOnly: true,
				Secure:   m.cookieSecure,
				SameSite: http.SameSiteLaxMode,
			})

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
		})
	}
}

// Sweep retires live sessions idle for longer than the TTL and purges
// expired snapshots from the store, releasing their product images.
func (m *Manager) Sweep(ctx context.Context) error {
	now := m.now()
	cutoff := now.Add(-m.ttl)

	m.mu.Lock()
	var stale []*entry
	for id, e := range m.live {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e)
			delete(m.live, id)
		}
	}
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for _, e := range stale {
			m.retire(gctx, e)
		}
		return nil
	})

	g.Go(func() error {
		expired, err := m.store.Purge(gctx, now)
		if err != nil {
			return fmt.Errorf("purge snapshots: %w", err)
		}
		return m.releaseExpired(gctx, expired)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if len(stale) > 0 {
		m.logger.Info("sessions retired", "count", len(stale))
	}
	return nil
}

// Close stops every live session after writing its final state.
func (m *Manager) Close() {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.live))
	for id, e := range m.live {
		entries = append(entries, e)
		delete(m.live, id)
	}
	m.mu.Unlock()

	for _, e := range entries {
		m.stop(e)
		m.save(e)
		e.session.Controller.Close()
	}
}

func (m *Manager) resolve(r *http.Request) (*Session, error) {
	id, known := m.cookieID(r)
	if !readOnly(r.Method) {
		return m.Acquire(r.Context(), id)
	}

	if known {
		s, err := m.Lookup(r.Context(), id)
		if !errors.Is(err, ErrNotFound) {
			return s, err
		}
	}

	ctrl := m.factory(id)
	context.AfterFunc(r.Context(), ctrl.Close)
	return &Session{ID: id, Controller: ctrl}, nil
}

func readOnly(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func (m *Manager) touch(id uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.live[id]; ok {
		e.lastSeen = m.now()
		return e.session
	}
	return nil
}

func (m *Manager) open(ctx context.Context, id uuid.UUID, create bool) (*Session, error) {
	state, err := m.store.Load(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound) && !create:
		return nil, err
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	ctrl := m.factory(id)
	if err == nil {
		ctrl.Restore(state)
	}

	e := &entry{
		session:  &Session{ID: id, Controller: ctrl},
		lastSeen: m.now(),
		changed:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	e.unsubscribe = ctrl.Subscribe(func(workflow.State) {
		select {
		case e.changed <- struct{}{}:
		default:
		}
	})

	m.mu.Lock()
	if existing, ok := m.live[id]; ok {
		existing.lastSeen = m.now()
		m.mu.Unlock()
		e.unsubscribe()
		ctrl.Close()
		return existing.session, nil
	}
	m.live[id] = e
	m.mu.Unlock()

	go m.persist(e)

	if err == nil {
		m.logger.Debug("session restored", "session", id, "step", state.Step)
	} else {
		m.logger.Debug("session created", "session", id)
	}
	return e.session, nil
}

// persist writes the controller state after every change, coalescing
// changes that arrive while a write is in progress.
func (m *Manager) persist(e *entry) {
	defer close(e.stopped)
	for {
		select {
		case <-e.done:
			return
		case <-e.changed:
			m.save(e)
		}
	}
}

func (m *Manager) save(e *entry) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	id := e.session.ID
	if err := m.store.Save(ctx, id, e.session.Controller.State(), m.now().Add(m.ttl)); err != nil {
		m.logger.Error("save session failed", "session", id, "error", err)
	}
}

func (m *Manager) stop(e *entry) {
	e.unsubscribe()
	close(e.done)
	<-e.stopped
}

func (m *Manager) retire(ctx context.Context, e *entry) {
	m.stop(e)
	ctrl := e.session.Controller
	ctrl.Close()

	if err := m.store.Delete(ctx, e.session.ID); err != nil && !errors.Is(err, ErrNotFound) {
		m.logger.Warn("delete session snapshot failed", "session", e.session.ID, "error", err)
	}
	if p := ctrl.State().Product; p != nil && m.releaser != nil {
		if err := m.releaser.Release(ctx, *p); err != nil {
			m.logger.Warn("release product image failed", "session", e.session.ID, "error", err)
		}
	}
}

func (m *Manager) releaseExpired(ctx context.Context, expired []Expired) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(releaseLimit)

	for _, x := range expired {
		m.mu.Lock()
		e, live := m.live[x.ID]
		m.mu.Unlock()

		if live {
			// Live sessions keep their snapshot.
			select {
			case e.changed <- struct{}{}:
			default:
			}
			continue
		}

		p := x.State.Product
		if p == nil || m.releaser == nil {
			continue
		}
		g.Go(func() error {
			if err := m.releaser.Release(gctx, *p); err != nil {
				return fmt.Errorf("release product of session %s: %w", x.ID, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// cookieID returns the session id carried by the request, or a new id and
// false when the request has no valid session cookie.
func (m *Manager) cookieID(r *http.Request) (uuid.UUID, bool) {
	if c, err := r.Cookie(m.cookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id, true
		}
	}
	return m.newID(), false
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by Middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL is the expiry of distributed locks when none is configured.
const DefaultLockTTL = 30 * time.Second

// ErrSessionExists is returned by Create when the id is already taken.
var ErrSessionExists = errors.New("session already exists")

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore
	opts  []Option
	cfg   options

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks
}

// NewManager creates a new Session Manager with the given persistence store.
// The options are also applied to every session it creates or loads.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	return &Manager{
		store: store,
		opts:  opts,
		cfg:   newOptions(opts),
		locks: make(map[string]*lockEntry),
	}
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Create starts a new session and persists it. An empty id is replaced by a
// random UUID.
func (m *Manager) Create(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var s *Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		_, err := m.store.Load(ctx, sessionID)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
		}
		if !errors.Is(err, ports.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		s = New(sessionID, m.opts...)
		return m.commit(ctx, s)
	})
	return s, err
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*Session, error) {
	var s *Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.load(ctx, sessionID)
		return err
	})
	return s, err
}

// LoadOrCreate loads a session, creating and persisting it when missing.
func (m *Manager) LoadOrCreate(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return m.Create(ctx, "")
	}

	var s *Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.load(ctx, sessionID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ports.ErrSessionNotFound) {
			return err
		}

		s = New(sessionID, m.opts...)
		return m.commit(ctx, s)
	})
	return s, err
}

// Update loads a session, runs fn on it and saves the result. Nothing is
// saved when fn fails or when no operation changed the session.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(*Session) error) (*Session, error) {
	var s *Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		if s, err = m.load(ctx, sessionID); err != nil {
			return err
		}
		if err := fn(s); err != nil {
			m.cfg.hooks.fail(ctx, sessionID, err)
			return err
		}
		return m.commit(ctx, s)
	})
	return s, err
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	// Distributed Locking
	if m.cfg.locker != nil {
		unlock, err := m.cfg.locker.Lock(ctx, sessionID, m.cfg.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.cfg.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) load(ctx context.Context, sessionID string) (*Session, error) {
	rec, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s, err := FromRecord(rec, m.opts...)
	if err != nil {
		m.cfg.logger.Error("Stored session is corrupt", "session_id", sessionID, "err", err)
		return nil, err
	}
	return s, nil
}

// commit saves the session if any pending event changed it, then delivers
// the pending events.
func (m *Manager) commit(ctx context.Context, s *Session) error {
	events := s.Events()
	dirty := false
	for _, e := range events {
		if e.Changed {
			dirty = true
			break
		}
	}

	if dirty {
		if err := m.store.Save(ctx, s.Record()); err != nil {
			err = fmt.Errorf("failed to save session: %w", err)
			m.cfg.hooks.fail(ctx, s.ID(), err)
			return err
		}
	}

	m.cfg.hooks.emit(ctx, events)
	return nil
}

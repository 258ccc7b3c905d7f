package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/ports"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*ports.SessionRecord
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*ports.SessionRecord),
	}
}

// Save persists a copy of the record in memory.
func (s *Store) Save(ctx context.Context, record *ports.SessionRecord) error {
	copied := copyRecord(record)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[record.ID] = copied
	return nil
}

// Load retrieves a copy of the record so callers can't mutate the stored stacks.
func (s *Store) Load(ctx context.Context, sessionID string) (*ports.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[sessionID]
	if !ok {
		return nil, ports.ErrSessionNotFound
	}
	return copyRecord(record), nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns stored session IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}

// Documents are immutable values, so copying the stacks is enough to isolate a record.
func copyRecord(r *ports.SessionRecord) *ports.SessionRecord {
	c := *r
	c.Past = append(c.Past[:0:0], r.Past...)
	c.Future = append(c.Future[:0:0], r.Future...)
	return &c
}

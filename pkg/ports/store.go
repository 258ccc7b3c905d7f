package ports

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/history"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// SessionRecord is the persisted form of an editing session: the present
// document plus its undo and redo stacks.
type SessionRecord struct {
	ID string `json:"id"`
	history.Snapshot[domain.Document]
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionStore defines the interface for persisting editing sessions.
// Implementations must not alias the records they are given or return.
type SessionStore interface {
	// Save persists the record under its ID, replacing any previous value.
	Save(ctx context.Context, record *SessionRecord) error

	// Load retrieves the record for a session ID.
	// Returns ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*SessionRecord, error)

	// Delete removes the record for a session ID. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of stored sessions.
	List(ctx context.Context) ([]string, error)
}

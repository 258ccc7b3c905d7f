package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/history"
	"github.com/aretw0/arbor/pkg/idgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newRecord := func(id string) *SessionRecord {
		ids := idgen.NewSequence("")
		h := history.New(domain.CreateInitial(ids), history.WithLimit(5))
		h.Set(func(d domain.Document) domain.Document {
			return domain.AddNodeAfter(d, d.RootID, domain.NextConnection(), domain.KindBranch, ids)
		})
		h.Set(func(d domain.Document) domain.Document {
			return domain.AddNodeAfter(d, "branch-2", domain.BranchConnection("second"), domain.KindEnd, ids)
		})
		h.Undo()
		return &SessionRecord{
			ID:        id,
			Snapshot:  h.Snapshot(),
			UpdatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		// 1. Create a record with both stacks populated
		record := newRecord(sessionID)

		// 2. Save
		err := store.Save(ctx, record)
		require.NoError(t, err, "Save should not return error")

		// 3. Load
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, record.ID, loaded.ID)
		assert.Equal(t, record.Limit, loaded.Limit)
		assert.True(t, domain.Equal(record.Present, loaded.Present), "present document should round-trip")
		require.Len(t, loaded.Past, len(record.Past))
		require.Len(t, loaded.Future, len(record.Future))
		assert.True(t, domain.Equal(record.Future[0], loaded.Future[0]))
		assert.True(t, record.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Load Isolation", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Past = nil

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.NotEmpty(t, again.Past, "mutating a loaded record must not affect the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		// Setup
		err := store.Save(ctx, newRecord(sessionID))
		require.NoError(t, err)

		// Delete
		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		// Verify gone
		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		// Setup: Create 2 sessions
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, newRecord(id1)))
		require.NoError(t, store.Save(ctx, newRecord(id2)))

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)

		// Cleanup
		_ = store.Delete(ctx, id1)
		_ = store.Delete(ctx, id2)
	})
}

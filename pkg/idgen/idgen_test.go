package idgen

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter_Unique(t *testing.T) {
	frozen := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	gen := NewWithClock(func() time.Time { return frozen })

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen.Next("action")
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestCounter_Concurrent(t *testing.T) {
	gen := New()

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := gen.Next("branch")
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 8*200)
}

func TestCounter_Format(t *testing.T) {
	gen := New()

	id := gen.Next("end")
	assert.True(t, strings.HasPrefix(id, "end-"), "id %q should start with hint", id)
	assert.Len(t, strings.Split(id, "-"), 3)

	assert.True(t, strings.HasPrefix(gen.Next(""), "node-"))
}

func TestSequence(t *testing.T) {
	seq := NewSequence("")
	assert.Equal(t, "action-1", seq.Next("action"))
	assert.Equal(t, "branch-2", seq.Next("branch"))

	prefixed := NewSequence("t-")
	assert.Equal(t, "t-end-1", prefixed.Next("end"))
}

func TestPackageNext(t *testing.T) {
	a := Next("start")
	b := Next("start")
	assert.NotEqual(t, a, b)
}

// Package history wraps a value in undo/redo semantics with a bounded past.
//
// A History is owned by a single caller and is not safe for concurrent use.
// Stored values are treated as immutable snapshots: callers must produce new
// values in their updaters rather than mutating the present in place.
package history

// DefaultLimit is the number of past values kept when no limit is configured.
const DefaultLimit = 50

// History holds a present value plus undo (past) and redo (future) stacks.
type History[T any] struct {
	past    []T
	present T
	future  []T
	limit   int
}

// Option configures a History.
type Option func(*config)

type config struct {
	limit int
}

// WithLimit bounds the past stack. Non-positive values select DefaultLimit.
func WithLimit(limit int) Option {
	return func(c *config) {
		c.limit = limit
	}
}

func newConfig(opts []Option) config {
	c := config{limit: DefaultLimit}
	for _, opt := range opts {
		opt(&c)
	}
	if c.limit <= 0 {
		c.limit = DefaultLimit
	}
	return c
}

// New creates a History with the given present value and empty stacks.
func New[T any](present T, opts ...Option) *History[T] {
	c := newConfig(opts)
	return &History[T]{
		present: present,
		limit:   c.limit,
	}
}

// Present returns the current value.
func (h *History[T]) Present() T {
	return h.present
}

// Limit returns the configured bound of the past stack.
func (h *History[T]) Limit() int {
	return h.limit
}

// Set pushes the present onto the past, discards any redo history and
// installs updater(present) as the new present.
func (h *History[T]) Set(updater func(T) T) {
	next := updater(h.present)
	h.pushPast(h.present)
	h.future = nil
	h.present = next
}

// Undo restores the most recent past value. No-op when there is nothing to undo.
func (h *History[T]) Undo() {
	if len(h.past) == 0 {
		return
	}
	last := len(h.past) - 1
	previous := h.past[last]
	h.past[last] = zero[T]()
	h.past = h.past[:last]

	h.future = append([]T{h.present}, h.future...)
	h.present = previous
}

// Redo re-applies the earliest future value. No-op when there is nothing to redo.
func (h *History[T]) Redo() {
	if len(h.future) == 0 {
		return
	}
	next := h.future[0]
	h.future = append([]T(nil), h.future[1:]...)

	h.pushPast(h.present)
	h.present = next
}

// Clear drops both stacks and installs value as the present.
// It is a session reset and cannot be undone.
func (h *History[T]) Clear(value T) {
	h.past = nil
	h.future = nil
	h.present = value
}

// CanUndo reports whether Undo would change the present.
func (h *History[T]) CanUndo() bool {
	return len(h.past) > 0
}

// CanRedo reports whether Redo would change the present.
func (h *History[T]) CanRedo() bool {
	return len(h.future) > 0
}

// Past returns a copy of the undo stack, oldest first.
func (h *History[T]) Past() []T {
	return append([]T(nil), h.past...)
}

// Future returns a copy of the redo stack, next-to-redo first.
func (h *History[T]) Future() []T {
	return append([]T(nil), h.future...)
}

func (h *History[T]) pushPast(value T) {
	h.past = append(h.past, value)
	if over := len(h.past) - h.limit; over > 0 {
		// Copy down so the evicted prefix can be collected.
		h.past = append([]T(nil), h.past[over:]...)
	}
}

func zero[T any]() T {
	var v T
	return v
}

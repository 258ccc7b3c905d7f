package history

// Snapshot is the serializable form of a History.
type Snapshot[T any] struct {
	Past    []T `json:"past"`
	Present T   `json:"present"`
	Future  []T `json:"future"`
	Limit   int `json:"limit"`
}

// Snapshot captures the stacks so the history can be persisted and resumed.
func (h *History[T]) Snapshot() Snapshot[T] {
	return Snapshot[T]{
		Past:    h.Past(),
		Present: h.present,
		Future:  h.Future(),
		Limit:   h.limit,
	}
}

// Restore rebuilds a History from a snapshot. Options override the snapshot's
// limit; the past is trimmed (oldest first) to fit the effective bound.
func Restore[T any](snap Snapshot[T], opts ...Option) *History[T] {
	limit := snap.Limit
	if len(opts) > 0 {
		limit = newConfig(opts).limit
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	past := append([]T(nil), snap.Past...)
	if over := len(past) - limit; over > 0 {
		past = past[over:]
	}

	return &History[T]{
		past:    past,
		present: snap.Present,
		future:  append([]T(nil), snap.Future...),
		limit:   limit,
	}
}

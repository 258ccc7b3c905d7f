package session

import (
	"context"
	"time"
)

// Op names a session operation.
type Op string

const (
	OpCreate      Op = "create"
	OpAddNode     Op = "add_node"
	OpUpdateLabel Op = "update_label"
	OpDeleteNode  Op = "delete_node"
	OpUndo        Op = "undo"
	OpRedo        Op = "redo"
	OpReset       Op = "reset"
	OpImport      Op = "import"
)

// Event describes one applied operation.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Op        Op        `json:"op"`
	NodeID    string    `json:"node_id,omitempty"`
	Changed   bool      `json:"changed"`
	Nodes     int       `json:"nodes"`
}

// LifecycleHooks defines callbacks for session observability.
// Events are delivered by the Manager once the session has been saved.
type LifecycleHooks struct {
	OnEvent func(context.Context, *Event)
	OnError func(ctx context.Context, sessionID string, err error)
}

func (h LifecycleHooks) emit(ctx context.Context, events []Event) {
	if h.OnEvent == nil {
		return
	}
	for i := range events {
		h.OnEvent(ctx, &events[i])
	}
}

func (h LifecycleHooks) fail(ctx context.Context, sessionID string, err error) {
	if h.OnError != nil {
		h.OnError(ctx, sessionID, err)
	}
}

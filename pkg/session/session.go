package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/history"
	"github.com/aretw0/arbor/pkg/idgen"
	"github.com/aretw0/arbor/pkg/ports"
)

// ErrCorrupt is returned when an operation would commit a document that
// breaks a structural invariant. The session is left unchanged.
var ErrCorrupt = errors.New("session: document failed validation")

// Session is an editing session over one workflow document.
// It is not safe for concurrent use; the Manager serializes access.
type Session struct {
	id     string
	hist   *history.History[domain.Document]
	ids    idgen.Generator
	logger *slog.Logger
	now    func() time.Time

	// pending holds events not yet delivered to hooks.
	pending []Event
}

// Option configures a Session or a Manager. Options that only make sense
// for one of them are ignored by the other.
type Option func(*options)

type options struct {
	ids    idgen.Generator
	limit  int
	logger *slog.Logger
	now    func() time.Time

	locker  ports.DistributedLocker
	lockTTL time.Duration
	hooks   LifecycleHooks
}

// WithIDGenerator sets the generator used for new node ids.
func WithIDGenerator(ids idgen.Generator) Option {
	return func(o *options) {
		o.ids = ids
	}
}

// WithHistoryLimit bounds the undo stack. Zero keeps the default (or the
// limit stored in a restored record).
func WithHistoryLimit(limit int) Option {
	return func(o *options) {
		o.limit = limit
	}
}

// WithLogger configures a logger for the Session.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLocker enables distributed locking in the Manager.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(o *options) {
		o.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks taken by the Manager.
func WithLockTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.lockTTL = ttl
		}
	}
}

// WithHooks registers lifecycle callbacks on the Manager.
func WithHooks(hooks LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithClock overrides the time source used for events and records.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{
		ids:    idgen.Default,
		logger: logging.NewNop(),
		now:    time.Now,

		lockTTL: DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) historyOptions() []history.Option {
	if o.limit > 0 {
		return []history.Option{history.WithLimit(o.limit)}
	}
	return nil
}

// New starts a session on a fresh document holding a single Start node.
func New(id string, opts ...Option) *Session {
	o := newOptions(opts)
	s := &Session{
		id:     id,
		hist:   history.New(domain.CreateInitial(o.ids), o.historyOptions()...),
		ids:    o.ids,
		logger: o.logger,
		now:    o.now,
	}
	s.record(OpCreate, "", true)
	return s
}

// FromRecord resumes a persisted session. The present document must pass
// validation; entries in the undo and redo stacks are trusted.
func FromRecord(rec *ports.SessionRecord, opts ...Option) (*Session, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrCorrupt)
	}
	if err := domain.Validate(rec.Present); err != nil {
		return nil, fmt.Errorf("%w: session %q: %w", ErrCorrupt, rec.ID, err)
	}

	o := newOptions(opts)
	return &Session{
		id:     rec.ID,
		hist:   history.Restore(rec.Snapshot, o.historyOptions()...),
		ids:    o.ids,
		logger: o.logger,
		now:    o.now,
	}, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Document returns the present document.
func (s *Session) Document() domain.Document { return s.hist.Present() }

// CanUndo reports whether Undo would change the document.
func (s *Session) CanUndo() bool { return s.hist.CanUndo() }

// CanRedo reports whether Redo would change the document.
func (s *Session) CanRedo() bool { return s.hist.CanRedo() }

// Limit returns the bound of the undo stack.
func (s *Session) Limit() int { return s.hist.Limit() }

// AddNode inserts a node of the given kind at a parent's connection slot.
func (s *Session) AddNode(parentID string, conn domain.Connection, kind domain.Kind) (bool, error) {
	return s.apply(OpAddNode, parentID, func(doc domain.Document) domain.Document {
		return domain.AddNodeAfter(doc, parentID, conn, kind, s.ids)
	})
}

// UpdateLabel relabels a node. The label is trimmed; an empty result keeps
// the previous label and reports no change.
func (s *Session) UpdateLabel(nodeID, label string) (bool, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return false, nil
	}
	return s.apply(OpUpdateLabel, nodeID, func(doc domain.Document) domain.Document {
		return domain.UpdateNodeLabel(doc, nodeID, label)
	})
}

// DeleteNode removes a node and splices its continuation into the parent.
func (s *Session) DeleteNode(nodeID string) (bool, error) {
	return s.apply(OpDeleteNode, nodeID, func(doc domain.Document) domain.Document {
		return domain.DeleteNode(doc, nodeID, s.ids)
	})
}

// Undo steps back one edit.
func (s *Session) Undo() bool {
	changed := s.hist.CanUndo()
	s.hist.Undo()
	s.record(OpUndo, "", changed)
	return changed
}

// Redo re-applies the most recently undone edit.
func (s *Session) Redo() bool {
	changed := s.hist.CanRedo()
	s.hist.Redo()
	s.record(OpRedo, "", changed)
	return changed
}

// Reset replaces the document with a fresh one and drops both stacks.
func (s *Session) Reset() {
	s.hist.Clear(domain.CreateInitial(s.ids))
	s.record(OpReset, "", true)
}

// Import replaces the document with doc and drops both stacks.
// The document must pass validation.
func (s *Session) Import(doc domain.Document) error {
	if err := domain.Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrMalformedDocument, err)
	}
	s.hist.Clear(domain.PruneUnreachable(doc))
	s.record(OpImport, "", true)
	return nil
}

// LastChange compares the present document with the one before the most
// recent edit. It is nil when there is nothing to undo.
func (s *Session) LastChange() *domain.DocumentDiff {
	past := s.hist.Past()
	if len(past) == 0 {
		return nil
	}
	return domain.Diff(past[len(past)-1], s.hist.Present())
}

// Record returns the persistable form of the session.
func (s *Session) Record() *ports.SessionRecord {
	return &ports.SessionRecord{
		ID:        s.id,
		Snapshot:  s.hist.Snapshot(),
		UpdatedAt: s.now().UTC(),
	}
}

// Events drains the events recorded since the last call.
func (s *Session) Events() []Event {
	events := s.pending
	s.pending = nil
	return events
}

// apply runs a pure document operation through the history. No-ops are not
// committed, so they leave the undo stack untouched.
func (s *Session) apply(op Op, nodeID string, fn func(domain.Document) domain.Document) (bool, error) {
	current := s.hist.Present()
	next := fn(current)
	if domain.Equal(current, next) {
		s.record(op, nodeID, false)
		return false, nil
	}

	if err := domain.Validate(next); err != nil {
		s.logger.Error("Refusing to commit invalid document",
			"session_id", s.id,
			"op", string(op),
			"node_id", nodeID,
			"err", err,
		)
		return false, fmt.Errorf("%w: %s %q: %w", ErrCorrupt, op, nodeID, err)
	}

	s.hist.Set(func(domain.Document) domain.Document { return next })
	s.record(op, nodeID, true)
	s.logger.Debug("Session updated", "session_id", s.id, "op", string(op), "node_id", nodeID)
	return true, nil
}

func (s *Session) record(op Op, nodeID string, changed bool) {
	s.pending = append(s.pending, Event{
		Timestamp: s.now().UTC(),
		SessionID: s.id,
		Op:        op,
		NodeID:    nodeID,
		Changed:   changed,
		Nodes:     s.hist.Present().Len(),
	})
}

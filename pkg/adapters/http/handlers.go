package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies, including imported documents.
const maxBodyBytes = 4 << 20

var errBadRequest = errors.New("bad request")

// SessionResponse is the view of a session returned by every endpoint that
// reads or edits one.
type SessionResponse struct {
	ID       string          `json:"id"`
	Document domain.Document `json:"document"`
	CanUndo  bool            `json:"canUndo"`
	CanRedo  bool            `json:"canRedo"`
	Changed  *bool           `json:"changed,omitempty"`
}

// AddNodeRequest is the body of POST /sessions/{id}/nodes.
type AddNodeRequest struct {
	ParentID   string            `json:"parentId"`
	Connection domain.Connection `json:"connection"`
	Kind       string            `json:"kind"`
}

// UpdateLabelRequest is the body of PATCH /sessions/{id}/nodes/{nodeId}.
type UpdateLabelRequest struct {
	Label string `json:"label"`
}

func newSessionResponse(s *session.Session, changed *bool) SessionResponse {
	return SessionResponse{
		ID:       s.ID(),
		Document: s.Document(),
		CanUndo:  s.CanUndo(),
		CanRedo:  s.CanRedo(),
		Changed:  changed,
	}
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Manager.Create(r.Context(), "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newSessionResponse(sess, nil))
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Manager.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Manager.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionResponse(sess, nil))
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddNode handles POST /sessions/{id}/nodes.
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var body AddNodeRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	kind, err := domain.ParseKind(body.Kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	switch body.Connection.Type {
	case domain.ConnectionNext, domain.ConnectionBranch:
	default:
		s.writeError(w, r, fmt.Errorf("%w: unknown connection type %q", errBadRequest, body.Connection.Type))
		return
	}

	s.edit(w, r, func(sess *session.Session) (bool, error) {
		return sess.AddNode(body.ParentID, body.Connection, kind)
	})
}

// UpdateLabel handles PATCH /sessions/{id}/nodes/{nodeId}.
func (s *Server) UpdateLabel(w http.ResponseWriter, r *http.Request) {
	var body UpdateLabelRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	nodeID := chi.URLParam(r, "nodeId")
	s.edit(w, r, func(sess *session.Session) (bool, error) {
		return sess.UpdateLabel(nodeID, body.Label)
	})
}

// DeleteNode handles DELETE /sessions/{id}/nodes/{nodeId}.
func (s *Server) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeId")
	s.edit(w, r, func(sess *session.Session) (bool, error) {
		return sess.DeleteNode(nodeID)
	})
}

// Undo handles POST /sessions/{id}/undo.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(sess *session.Session) (bool, error) {
		return sess.Undo(), nil
	})
}

// Redo handles POST /sessions/{id}/redo.
func (s *Server) Redo(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(sess *session.Session) (bool, error) {
		return sess.Redo(), nil
	})
}

// Reset handles POST /sessions/{id}/reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(sess *session.Session) (bool, error) {
		sess.Reset()
		return true, nil
	})
}

// ImportDocument handles PUT /sessions/{id}/document.
func (s *Server) ImportDocument(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	doc, err := domain.Parse(string(data))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.edit(w, r, func(sess *session.Session) (bool, error) {
		return true, sess.Import(doc)
	})
}

// ExportDocument handles GET /sessions/{id}/export.
func (s *Server) ExportDocument(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Manager.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := domain.Serialize(sess.Document())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sess.ID()+".json"))
	_, _ = io.WriteString(w, out)
}

// GetGraph handles GET /sessions/{id}/graph. With ?highlight=last the
// nodes touched by the most recent edit are styled.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Manager.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var overlay *graph.GraphOverlay
	if r.URL.Query().Get("highlight") == "last" {
		overlay = graph.OverlayFromDiff(sess.LastChange())
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(sess.Document(), overlay))
}

// edit runs an operation through the manager, broadcasts the resulting diff
// to event subscribers and writes the session view.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, op func(*session.Session) (bool, error)) {
	sessionID := chi.URLParam(r, "id")

	var (
		changed bool
		before  domain.Document
	)
	sess, err := s.Manager.Update(r.Context(), sessionID, func(sess *session.Session) error {
		before = sess.Document()
		var err error
		changed, err = op(sess)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if diff := domain.Diff(before, sess.Document()); diff != nil {
		s.logger.Debug("Edit: Diff calculated", "diff", diff, "session_id", sessionID)
		if payload, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(sessionID, string(payload))
		}
	}

	s.writeJSON(w, http.StatusOK, newSessionResponse(sess, &changed))
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", errBadRequest, err)
	}
	return nil
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/idgen"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t       *testing.T
	server  *Server
	handler http.Handler
	metrics *observability.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	metrics := observability.NewMetrics()
	mgr := session.NewManager(memory.NewStore(), session.WithIDGenerator(idgen.NewSequence("")))
	srv := NewServer(mgr, WithLogger(logging.NewNop()), WithMetrics(metrics))
	return &fixture{t: t, server: srv, handler: srv.Routes(), metrics: metrics}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	f.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *fixture) session(w *httptest.ResponseRecorder) SessionResponse {
	f.t.Helper()
	var resp SessionResponse
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func (f *fixture) create() SessionResponse {
	f.t.Helper()
	w := f.do("POST", "/sessions", "")
	require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())
	return f.session(w)
}

func TestHealthAndInfo(t *testing.T) {
	f := newFixture(t)

	w := f.do("GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = f.do("GET", "/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"app":"arbor-http"`)
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)

	created := f.create()
	root := created.Document.RootID
	assert.Equal(t, 1, created.Document.Len())
	assert.False(t, created.CanUndo)
	base := "/sessions/" + created.ID

	// 1. Insert a branch after the root
	w := f.do("POST", base+"/nodes", `{"parentId":"`+root+`","connection":{"type":"next"},"kind":"branch"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := f.session(w)
	require.NotNil(t, resp.Changed)
	assert.True(t, *resp.Changed)
	assert.True(t, resp.CanUndo)
	branchID := domain.GetChildAt(resp.Document, root, domain.NextConnection())
	require.NotEmpty(t, branchID)

	// 2. Fill the second path with an end
	w = f.do("POST", base+"/nodes", `{"parentId":"`+branchID+`","connection":{"type":"branch","pathId":"second"},"kind":"end"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 3, f.session(w).Document.Len())

	// 3. Relabel, trimming whitespace
	w = f.do("PATCH", base+"/nodes/"+branchID, `{"label":"  Approved?  "}`)
	require.Equal(t, http.StatusOK, w.Code)
	n, ok := f.session(w).Document.Node(branchID)
	require.True(t, ok)
	assert.Equal(t, "Approved?", n.NodeLabel())

	// 4. Blank label is a no-op
	w = f.do("PATCH", base+"/nodes/"+branchID, `{"label":"   "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, *f.session(w).Changed)

	// 5. Delete the branch: the single live path is spliced in
	w = f.do("DELETE", base+"/nodes/"+branchID, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = f.session(w)
	assert.Equal(t, 2, resp.Document.Len())
	assert.Equal(t, "end-3", domain.GetChildAt(resp.Document, root, domain.NextConnection()))

	// 6. Undo and redo
	w = f.do("POST", base+"/undo", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = f.session(w)
	assert.Equal(t, 3, resp.Document.Len())
	assert.True(t, resp.CanRedo)

	w = f.do("POST", base+"/redo", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, f.session(w).Document.Len())

	// 7. Read back
	w = f.do("GET", base, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, f.session(w).Document.Len())

	w = f.do("GET", "/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessions":["`+created.ID+`"]}`, w.Body.String())

	// 8. Reset
	w = f.do("POST", base+"/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = f.session(w)
	assert.Equal(t, 1, resp.Document.Len())
	assert.False(t, resp.CanUndo)

	// 9. Delete the session
	w = f.do("DELETE", base, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do("GET", base, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportImport(t *testing.T) {
	f := newFixture(t)
	created := f.create()
	base := "/sessions/" + created.ID

	w := f.do("POST", base+"/nodes", `{"parentId":"`+created.Document.RootID+`","connection":{"type":"next"},"kind":"action"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do("GET", base+"/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	exported := w.Body.String()
	doc, err := domain.Parse(exported)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Len())

	other := f.create()
	w = f.do("PUT", "/sessions/"+other.ID+"/document", exported)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := f.session(w)
	assert.True(t, domain.Equal(doc, resp.Document))
	assert.False(t, resp.CanUndo, "import resets history")

	w = f.do("PUT", "/sessions/"+other.ID+"/document", `{"rootId":"x","nodes":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestGraph(t *testing.T) {
	f := newFixture(t)
	created := f.create()
	base := "/sessions/" + created.ID

	w := f.do("POST", base+"/nodes", `{"parentId":"`+created.Document.RootID+`","connection":{"type":"next"},"kind":"end"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do("GET", base+"/graph?highlight=last", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "graph TD"))
	assert.Contains(t, body, "end_2([\"End\"])")
	assert.Contains(t, body, "class end_2 changed;")
}

func TestErrors(t *testing.T) {
	f := newFixture(t)
	created := f.create()
	base := "/sessions/" + created.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown session", "GET", "/sessions/ghost", "", http.StatusNotFound},
		{"edit unknown session", "POST", "/sessions/ghost/undo", "", http.StatusNotFound},
		{"malformed body", "POST", base + "/nodes", `{"parentId":`, http.StatusBadRequest},
		{"unknown field", "PATCH", base + "/nodes/x", `{"text":"a"}`, http.StatusBadRequest},
		{"unknown kind", "POST", base + "/nodes", `{"parentId":"a","connection":{"type":"next"},"kind":"loop"}`, http.StatusBadRequest},
		{"unknown connection", "POST", base + "/nodes", `{"parentId":"a","connection":{"type":"side"},"kind":"end"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestNoOpEditReportsUnchanged(t *testing.T) {
	f := newFixture(t)
	created := f.create()

	w := f.do("DELETE", "/sessions/"+created.ID+"/nodes/"+created.Document.RootID, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := f.session(w)
	assert.False(t, *resp.Changed)
	assert.Equal(t, 1, resp.Document.Len())
}

func TestCORS(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	handler := NewHandler(mgr, WithLogger(logging.NewNop()), WithAllowedOrigins("http://ui.test"))

	req := httptest.NewRequest("OPTIONS", "/sessions", nil)
	req.Header.Set("Origin", "http://ui.test")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://ui.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.create()

	w := f.do("GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "arbor_http_requests_total")
	assert.Contains(t, body, `route="/sessions`)
}

func TestSubscribeEvents_Session(t *testing.T) {
	f := newFixture(t)
	created := f.create()

	// 1. Subscribe
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/sessions/"+created.ID+"/events", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.handler.ServeHTTP(wSub, reqSub)
	}()

	require.Eventually(t, func() bool {
		f.server.Streams.mu.RLock()
		defer f.server.Streams.mu.RUnlock()
		return len(f.server.Streams.subscribers[created.ID]) == 1
	}, time.Second, 5*time.Millisecond)

	// 2. Trigger an edit
	w := f.do("POST", "/sessions/"+created.ID+"/nodes",
		`{"parentId":"`+created.Document.RootID+`","connection":{"type":"next"},"kind":"action"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// 3. Stop subscription to flush
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	output := wSub.Body.String()
	assert.Contains(t, output, "event: ping")
	assert.Contains(t, output, `"added":["action-2"]`)
}

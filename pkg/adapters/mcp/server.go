package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	documentURI = "arbor://document"
	graphURI    = "arbor://graph"
)

// DocumentResponse is the structured result of every tool: the session's
// document after the call.
type DocumentResponse struct {
	SessionID string          `json:"session_id" jsonschema_description:"The edited session"`
	Document  domain.Document `json:"document" jsonschema_description:"The workflow document (rootId + nodes)"`
	CanUndo   bool            `json:"can_undo" jsonschema_description:"Whether undo would change the document"`
	CanRedo   bool            `json:"can_redo" jsonschema_description:"Whether redo would change the document"`
	Changed   bool            `json:"changed" jsonschema_description:"Whether this call changed the document"`
}

// Server exposes one editing session as an MCP Server.
type Server struct {
	manager   *session.Manager
	sessionID string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger. It must not write to Stdout when serving Stdio.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server operating on sessionID. The session is
// created on first use.
func NewServer(manager *session.Manager, sessionID string, opts ...Option) *Server {
	s := &Server{
		manager:   manager,
		sessionID: sessionID,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: get_document
	s.mcpServer.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Get the current workflow document with undo/redo availability."),
		mcp.WithOutputSchema[DocumentResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetDocument))

	// TOOL: add_node
	s.mcpServer.AddTool(mcp.NewTool("add_node",
		mcp.WithDescription("Insert a node after a parent. Omit path_id to use the parent's next link; "+
			"give a path id to insert on a branch path. The displaced continuation moves under the new node."),
		mcp.WithString("parent_id", mcp.Required(), mcp.Description("ID of the parent node")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Kind of the new node"),
			mcp.Enum(string(domain.KindAction), string(domain.KindBranch), string(domain.KindEnd))),
		mcp.WithString("path_id", mcp.Description("Branch path id on the parent (e.g. first, second)")),
		mcp.WithOutputSchema[DocumentResponse](),
	), mcp.NewStructuredToolHandler(s.handleAddNode))

	// TOOL: update_label
	s.mcpServer.AddTool(mcp.NewTool("update_label",
		mcp.WithDescription("Relabel a node. Blank labels are ignored."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("ID of the node")),
		mcp.WithString("label", mcp.Required(), mcp.Description("New label")),
		mcp.WithOutputSchema[DocumentResponse](),
	), mcp.NewStructuredToolHandler(s.handleUpdateLabel))

	// TOOL: delete_node
	s.mcpServer.AddTool(mcp.NewTool("delete_node",
		mcp.WithDescription("Delete a node, splicing its continuation into the parent. The start node cannot be deleted."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("ID of the node")),
		mcp.WithOutputSchema[DocumentResponse](),
	), mcp.NewStructuredToolHandler(s.handleDeleteNode))

	// TOOLS: undo, redo, reset
	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last edit."),
		mcp.WithOutputSchema[DocumentResponse](),
	), mcp.NewStructuredToolHandler(s.handleUndo))
	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone edit."),
		mcp.WithOutputSchema[DocumentResponse](),
	), mcp.NewStructuredToolHandler(s.handleRedo))
	s.mcpServer.AddTool(mcp.NewTool("reset",
		mcp.WithDescription("Replace the document with a fresh one and clear the history."),
		mcp.WithOutputSchema[DocumentResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))
}

// Handler methods for structured tools

func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentResponse, error) {
	sess, err := s.manager.LoadOrCreate(ctx, s.sessionID)
	if err != nil {
		return DocumentResponse{}, fmt.Errorf("load failed: %w", err)
	}
	return newDocumentResponse(sess, false), nil
}

func (s *Server) handleAddNode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentResponse, error) {
	parentID, _ := args["parent_id"].(string)
	kindName, _ := args["kind"].(string)
	pathID, _ := args["path_id"].(string)

	kind, err := domain.ParseKind(kindName)
	if err != nil {
		return DocumentResponse{}, err
	}
	conn := domain.NextConnection()
	if pathID != "" {
		conn = domain.BranchConnection(pathID)
	}

	return s.edit(ctx, func(sess *session.Session) (bool, error) {
		return sess.AddNode(parentID, conn, kind)
	})
}

func (s *Server) handleUpdateLabel(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentResponse, error) {
	nodeID, _ := args["node_id"].(string)
	label, _ := args["label"].(string)
	return s.edit(ctx, func(sess *session.Session) (bool, error) {
		return sess.UpdateLabel(nodeID, label)
	})
}

func (s *Server) handleDeleteNode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentResponse, error) {
	nodeID, _ := args["node_id"].(string)
	return s.edit(ctx, func(sess *session.Session) (bool, error) {
		return sess.DeleteNode(nodeID)
	})
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentResponse, error) {
	return s.edit(ctx, func(sess *session.Session) (bool, error) {
		return sess.Undo(), nil
	})
}

func (s *Server) handleRedo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentResponse, error) {
	return s.edit(ctx, func(sess *session.Session) (bool, error) {
		return sess.Redo(), nil
	})
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentResponse, error) {
	return s.edit(ctx, func(sess *session.Session) (bool, error) {
		sess.Reset()
		return true, nil
	})
}

func (s *Server) edit(ctx context.Context, op func(*session.Session) (bool, error)) (DocumentResponse, error) {
	if _, err := s.manager.LoadOrCreate(ctx, s.sessionID); err != nil {
		return DocumentResponse{}, fmt.Errorf("load failed: %w", err)
	}

	var changed bool
	sess, err := s.manager.Update(ctx, s.sessionID, func(sess *session.Session) error {
		var err error
		changed, err = op(sess)
		return err
	})
	if err != nil {
		s.logger.Error("MCP edit failed", "session_id", s.sessionID, "err", err)
		return DocumentResponse{}, fmt.Errorf("edit failed: %w", err)
	}
	return newDocumentResponse(sess, changed), nil
}

func newDocumentResponse(sess *session.Session, changed bool) DocumentResponse {
	return DocumentResponse{
		SessionID: sess.ID(),
		Document:  sess.Document(),
		CanUndo:   sess.CanUndo(),
		CanRedo:   sess.CanRedo(),
		Changed:   changed,
	}
}

func (s *Server) registerResources() {
	// EXPOSE: arbor://document
	s.mcpServer.AddResource(mcp.NewResource(documentURI, "Current Workflow Document",
		mcp.WithMIMEType("application/json"),
	), s.readDocument)

	// EXPOSE: arbor://graph
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Current Workflow Graph (Mermaid)",
		mcp.WithMIMEType("text/plain"),
	), s.readGraph)
}

func (s *Server) readDocument(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sess, err := s.manager.LoadOrCreate(ctx, s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	text, err := domain.Serialize(sess.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      documentURI,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}

func (s *Server) readGraph(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sess, err := s.manager.LoadOrCreate(ctx, s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      graphURI,
			MIMEType: "text/plain",
			Text:     graph.GenerateMermaid(sess.Document(), graph.OverlayFromDiff(sess.LastChange())),
		},
	}, nil
}

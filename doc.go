/*
Package arbor is the editing core for branching workflows.

A workflow document is a tree of four node kinds (start, action, branch, end)
edited through pure operations in package domain. Every edit goes through a
bounded undo/redo history (package history) owned by a session (package
session). Sessions are persisted by pluggable stores and exposed over a CLI,
an HTTP API and an MCP server.

# Usage

Open wires a session manager from configuration:

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal(err)
	}
	ed, err := arbor.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer ed.Close()

	sess, err := ed.Manager.LoadOrCreate(ctx, "demo")
	...
	sess, err = ed.Manager.Update(ctx, "demo", func(s *session.Session) error {
		_, err := s.AddNode(s.Document().RootID, domain.NextConnection(), domain.KindAction)
		return err
	})

The domain and history packages can also be used on their own, with no store
or session in between.
*/
package arbor

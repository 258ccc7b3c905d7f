package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with a fresh flag state and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func fileStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ARBOR_STORE_DRIVER", "file")
	t.Setenv("ARBOR_STORE_PATH", dir)
	t.Setenv("ARBOR_LOG_LEVEL", "error")
	return dir
}

func showDocument(t *testing.T, session string) domain.Document {
	t.Helper()
	out, err := run(t, "show", "-s", session, "--format", "json")
	require.NoError(t, err)
	doc, err := domain.Parse(out)
	require.NoError(t, err)
	return doc
}

func nodeOfKind(doc domain.Document, kind domain.Kind) (domain.Node, bool) {
	for _, n := range doc.Nodes {
		if n.NodeKind() == kind {
			return n, true
		}
	}
	return nil, false
}

func TestCLI_EditUndoRedo(t *testing.T) {
	fileStore(t)

	out, err := run(t, "new", "-s", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "created session demo")

	doc := showDocument(t, "demo")
	require.Len(t, doc.Nodes, 1)

	out, err = run(t, "add", "-s", "demo", doc.RootID, "action")
	require.NoError(t, err)
	assert.Contains(t, out, "add action -> action-")

	doc = showDocument(t, "demo")
	require.Len(t, doc.Nodes, 2)
	action, ok := nodeOfKind(doc, domain.KindAction)
	require.True(t, ok)

	_, err = run(t, "label", "-s", "demo", action.NodeID(), "Send", "email")
	require.NoError(t, err)
	doc = showDocument(t, "demo")
	n, _ := doc.Node(action.NodeID())
	assert.Equal(t, "Send email", n.NodeLabel())

	_, err = run(t, "undo", "-s", "demo")
	require.NoError(t, err)
	doc = showDocument(t, "demo")
	n, _ = doc.Node(action.NodeID())
	assert.Equal(t, "Action", n.NodeLabel())

	_, err = run(t, "redo", "-s", "demo")
	require.NoError(t, err)
	doc = showDocument(t, "demo")
	n, _ = doc.Node(action.NodeID())
	assert.Equal(t, "Send email", n.NodeLabel())

	_, err = run(t, "rm", "-s", "demo", action.NodeID())
	require.NoError(t, err)
	doc = showDocument(t, "demo")
	assert.Len(t, doc.Nodes, 1)
}

func TestCLI_BranchPath(t *testing.T) {
	fileStore(t)

	_, err := run(t, "new", "-s", "b")
	require.NoError(t, err)
	doc := showDocument(t, "b")

	_, err = run(t, "add", "-s", "b", doc.RootID, "branch")
	require.NoError(t, err)
	doc = showDocument(t, "b")
	branch, ok := nodeOfKind(doc, domain.KindBranch)
	require.True(t, ok)

	_, err = run(t, "add", "-s", "b", branch.NodeID(), "end", "--path", domain.SecondPathID)
	require.NoError(t, err)

	doc = showDocument(t, "b")
	end, ok := nodeOfKind(doc, domain.KindEnd)
	require.True(t, ok)
	assert.Equal(t, end.NodeID(), domain.GetChildAt(doc, branch.NodeID(), domain.BranchConnection(domain.SecondPathID)))

	// A following add without --path targets the next link again.
	out, err := run(t, "add", "-s", "b", branch.NodeID(), "action")
	require.NoError(t, err)
	assert.Contains(t, out, "no change")
}

func TestCLI_NoOpIsReported(t *testing.T) {
	fileStore(t)

	out, err := run(t, "undo", "-s", "fresh")
	require.NoError(t, err)
	assert.Contains(t, out, "no change")

	out, err = run(t, "add", "-s", "fresh", "missing-node", "action")
	require.NoError(t, err)
	assert.Contains(t, out, "no change")
}

func TestCLI_InvalidInput(t *testing.T) {
	fileStore(t)

	_, err := run(t, "add", "-s", "x", "start-1", "loop")
	assert.ErrorIs(t, err, domain.ErrMalformedDocument)

	_, err = run(t, "show", "-s", "absent")
	assert.Error(t, err)

	_, err = run(t, "new", "-s", "x")
	require.NoError(t, err)
	_, err = run(t, "show", "-s", "x", "--format", "yaml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, "new", "-s", "x")
	assert.Error(t, err, "creating an existing session without --force")
	_, err = run(t, "new", "-s", "x", "--force")
	assert.NoError(t, err)
}

func TestCLI_ExportImport(t *testing.T) {
	fileStore(t)
	export := filepath.Join(t.TempDir(), "doc.json")

	_, err := run(t, "new", "-s", "src")
	require.NoError(t, err)
	doc := showDocument(t, "src")
	_, err = run(t, "add", "-s", "src", doc.RootID, "end")
	require.NoError(t, err)

	_, err = run(t, "export", "-s", "src", export)
	require.NoError(t, err)
	data, err := os.ReadFile(export)
	require.NoError(t, err)

	_, err = run(t, "import", "-s", "dst", export)
	require.NoError(t, err)

	src := showDocument(t, "src")
	dst := showDocument(t, "dst")
	assert.True(t, domain.Equal(src, dst))
	assert.JSONEq(t, strings.TrimSpace(string(data)), mustSerialize(t, dst))

	// Imports clear the history.
	out, err := run(t, "undo", "-s", "dst")
	require.NoError(t, err)
	assert.Contains(t, out, "no change")
}

func TestCLI_ShowFormats(t *testing.T) {
	fileStore(t)

	_, err := run(t, "new", "-s", "f")
	require.NoError(t, err)
	doc := showDocument(t, "f")
	_, err = run(t, "add", "-s", "f", doc.RootID, "action")
	require.NoError(t, err)

	out, err := run(t, "show", "-s", "f", "--format", "mermaid", "--highlight")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "classDef changed")

	out, err = run(t, "show", "-s", "f")
	require.NoError(t, err)
	assert.Contains(t, out, "# Workflow")
	assert.Contains(t, out, "2 nodes")
}

func TestCLI_Sessions(t *testing.T) {
	fileStore(t)

	for _, id := range []string{"b", "a"} {
		_, err := run(t, "new", "-s", id)
		require.NoError(t, err)
	}

	out, err := run(t, "sessions", "ls")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", out)

	_, err = run(t, "sessions", "rm", "a")
	require.NoError(t, err)
	out, err = run(t, "sessions", "ls")
	require.NoError(t, err)
	assert.Equal(t, "b\n", out)
}

func TestCLI_Version(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "arbor version "))
}

func mustSerialize(t *testing.T, doc domain.Document) string {
	t.Helper()
	out, err := domain.Serialize(doc)
	require.NoError(t, err)
	return out
}

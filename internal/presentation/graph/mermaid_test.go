package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/idgen"
)

func sample() domain.Document {
	ids := idgen.NewSequence("")
	doc := domain.CreateInitial(ids)
	doc = domain.AddNodeAfter(doc, doc.RootID, domain.NextConnection(), domain.KindBranch, ids)
	doc = domain.AddNodeAfter(doc, "branch-2", domain.BranchConnection(domain.FirstPathID), domain.KindAction, ids)
	doc = domain.AddNodeAfter(doc, "action-3", domain.NextConnection(), domain.KindEnd, ids)
	doc = domain.UpdateNodeLabel(doc, "action-3", `Say "hi"`)
	return doc
}

func TestGenerateMermaid(t *testing.T) {
	doc := sample()

	tests := []struct {
		name     string
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Node Shapes",
			contains: []string{
				"start_1((\"Start\"))",
				"branch_2{\"Branch\"}",
				"action_3[\"Say 'hi'\"]",
				"end_4([\"End\"])",
			},
		},
		{
			name: "Edges",
			contains: []string{
				"start_1 --> branch_2",
				"branch_2 -- \"First\" --> action_3",
				"action_3 --> end_4",
			},
			excludes: []string{
				"-- \"Second\" -->",
			},
		},
		{
			name:    "Overlay",
			overlay: &graph.GraphOverlay{ChangedNodes: []string{"end-4", "end-4", "ghost"}, CurrentNode: "action-3"},
			contains: []string{
				"classDef changed",
				"class end_4 changed;",
				"class action_3 current;",
			},
			excludes: []string{
				"class ghost",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(doc, tt.overlay)
			if !strings.HasPrefix(got, "graph TD\n") {
				t.Errorf("missing header:\n%s", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, got)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("expected output not to contain %q, got:\n%s", bad, got)
				}
			}
			if n := strings.Count(got, "class end_4 changed;"); tt.overlay != nil && n != 1 {
				t.Errorf("changed class emitted %d times", n)
			}
		})
	}
}

func TestOverlayFromDiff(t *testing.T) {
	before := sample()
	after := domain.AddNodeAfter(before, "branch-2", domain.BranchConnection(domain.SecondPathID), domain.KindEnd, idgen.NewSequence("x-"))

	overlay := graph.OverlayFromDiff(domain.Diff(before, after))
	if overlay == nil {
		t.Fatal("expected overlay")
	}
	got := strings.Join(overlay.ChangedNodes, ",")
	if got != "x-end-1,branch-2" {
		t.Errorf("unexpected changed nodes: %s", got)
	}

	if graph.OverlayFromDiff(domain.Diff(before, before)) != nil {
		t.Error("equal documents produce no overlay")
	}
}

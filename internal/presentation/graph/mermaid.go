package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// GraphOverlay contains edit state to visualize on the graph.
type GraphOverlay struct {
	ChangedNodes []string
	CurrentNode  string
}

// OverlayFromDiff highlights the nodes a diff added or changed.
func OverlayFromDiff(diff *domain.DocumentDiff) *GraphOverlay {
	if diff == nil {
		return nil
	}
	changed := make([]string, 0, len(diff.Added)+len(diff.Changed))
	changed = append(changed, diff.Added...)
	changed = append(changed, diff.Changed...)
	return &GraphOverlay{ChangedNodes: changed}
}

// GenerateMermaid produces a Mermaid flowchart for a document.
// Nodes are emitted in traversal order and shaped by kind:
// - Start: ((Circle))
// - Action: [Rectangle]
// - Branch: {Diamond}
// - End: ([Stadium])
// Branch paths become labelled edges; empty slots are omitted.
func GenerateMermaid(doc domain.Document, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range domain.Reachable(doc) {
		node, _ := doc.Node(id)
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		switch node.NodeKind() {
		case domain.KindStart:
			opener, closer = "((", "))"
		case domain.KindBranch:
			opener, closer = "{", "}"
		case domain.KindEnd:
			opener, closer = "([", "])"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(node.NodeLabel()), closer))

		switch n := node.(type) {
		case domain.StartNode:
			writeEdge(&sb, safeID, n.Next, "")
		case domain.ActionNode:
			writeEdge(&sb, safeID, n.Next, "")
		case domain.BranchNode:
			for _, p := range n.Branches {
				writeEdge(&sb, safeID, p.ChildID, p.Label)
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef changed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.ChangedNodes {
			if _, ok := doc.Node(id); !ok {
				continue
			}
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s changed;\n", safeID))
			}
		}

		if _, ok := doc.Node(overlay.CurrentNode); ok {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

func writeEdge(sb *strings.Builder, from, to, label string) {
	if to == "" {
		return
	}
	arrow := "-->"
	if label != "" {
		arrow = fmt.Sprintf("-- \"%s\" -->", escapeLabel(label))
	}
	sb.WriteString(fmt.Sprintf("    %s %s %s\n", from, arrow, sanitizeMermaidID(to)))
}

func escapeLabel(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}

package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Outline writes a document as a nested markdown list, following next links
// and branch paths from the root. Empty slots are shown as "(empty)".
func Outline(doc domain.Document) string {
	var sb strings.Builder
	sb.WriteString("# Workflow\n\n")

	s := domain.Summarize(doc)
	sb.WriteString(fmt.Sprintf("%d nodes, depth %d, %d open slots\n\n", s.Nodes, s.Depth, s.OpenSlots))

	seen := make(map[string]bool)
	writeChain(&sb, doc, doc.RootID, 0, seen)
	return sb.String()
}

// writeChain renders a linear run of nodes at one depth; branch paths open
// a nested level.
func writeChain(sb *strings.Builder, doc domain.Document, id string, depth int, seen map[string]bool) {
	indent := strings.Repeat("  ", depth)
	for id != "" && !seen[id] {
		seen[id] = true
		node, ok := doc.Node(id)
		if !ok {
			return
		}
		sb.WriteString(fmt.Sprintf("%s- **%s** `%s` _%s_\n", indent, escape(node.NodeLabel()), id, node.NodeKind()))

		switch n := node.(type) {
		case domain.StartNode:
			id = n.Next
		case domain.ActionNode:
			id = n.Next
		case domain.BranchNode:
			for _, p := range n.Branches {
				sb.WriteString(fmt.Sprintf("%s  - %s `%s`\n", indent, escape(p.Label), p.ID))
				if p.ChildID == "" {
					sb.WriteString(fmt.Sprintf("%s    - (empty)\n", indent))
					continue
				}
				writeChain(sb, doc, p.ChildID, depth+2, seen)
			}
			return
		default:
			return
		}
	}
}

func escape(s string) string {
	r := strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`")
	return r.Replace(s)
}

package domain

// Stats summarizes the shape of a document.
type Stats struct {
	Nodes  int          `json:"nodes"`
	ByKind map[Kind]int `json:"byKind"`
	Depth  int          `json:"depth"`
	// OpenSlots counts empty outgoing connections where a node can be inserted.
	OpenSlots int `json:"openSlots"`
}

// Summarize computes Stats over the nodes reachable from the root.
func Summarize(doc Document) Stats {
	stats := Stats{ByKind: make(map[Kind]int, len(Kinds))}

	seen := make(map[string]bool, len(doc.Nodes))
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		n, ok := doc.Node(id)
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		stats.Nodes++
		stats.ByKind[n.NodeKind()]++
		if depth > stats.Depth {
			stats.Depth = depth
		}

		switch v := n.(type) {
		case StartNode:
			if v.Next == "" {
				stats.OpenSlots++
			}
		case ActionNode:
			if v.Next == "" {
				stats.OpenSlots++
			}
		case BranchNode:
			for _, p := range v.Branches {
				if p.ChildID == "" {
					stats.OpenSlots++
				}
			}
		case EndNode:
		default:
			panic(unknownVariant(n))
		}

		for _, e := range edges(n) {
			visit(e.target, depth+1)
		}
	}
	visit(doc.RootID, 1)
	return stats
}

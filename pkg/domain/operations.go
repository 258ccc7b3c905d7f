package domain

import "github.com/aretw0/arbor/pkg/idgen"

// GetChildAt resolves a connection on a parent to its current target.
// It returns "" when the parent is missing, the connection does not fit the
// parent's variant, the branch path is unknown, or the slot is empty.
func GetChildAt(doc Document, parentID string, conn Connection) string {
	parent, ok := doc.Node(parentID)
	if !ok {
		return ""
	}

	switch p := parent.(type) {
	case StartNode:
		if conn.Type == ConnectionNext {
			return p.Next
		}
	case ActionNode:
		if conn.Type == ConnectionNext {
			return p.Next
		}
	case BranchNode:
		if conn.Type == ConnectionBranch {
			if i := p.Path(conn.PathID); i >= 0 {
				return p.Branches[i].ChildID
			}
		}
	case EndNode:
	default:
		panic(unknownVariant(parent))
	}
	return ""
}

// SetChildAt writes childID into the given connection slot. The input is
// returned unchanged when the parent is missing or the connection is
// incompatible with its variant.
func SetChildAt(doc Document, parentID string, conn Connection, childID string) Document {
	parent, ok := doc.Node(parentID)
	if !ok {
		return doc
	}

	var updated Node
	switch p := parent.(type) {
	case StartNode:
		if conn.Type != ConnectionNext {
			return doc
		}
		p.Next = childID
		updated = p
	case ActionNode:
		if conn.Type != ConnectionNext {
			return doc
		}
		p.Next = childID
		updated = p
	case BranchNode:
		if conn.Type != ConnectionBranch {
			return doc
		}
		i := p.Path(conn.PathID)
		if i < 0 {
			return doc
		}
		p.Branches = cloneBranches(p.Branches)
		p.Branches[i].ChildID = childID
		updated = p
	case EndNode:
		return doc
	default:
		panic(unknownVariant(parent))
	}

	next := doc.clone()
	next.Nodes[parentID] = updated
	return next
}

// FindParentPointer locates the edge pointing at targetID by a depth-first
// walk from the root (next links, then branch paths in order). It reports
// false for the root and for nodes that are not reachable.
func FindParentPointer(doc Document, targetID string) (ParentPointer, bool) {
	var found ParentPointer
	ok := false

	walk(doc, func(n Node) bool {
		for _, edge := range edges(n) {
			if edge.target == targetID {
				found = ParentPointer{ParentID: n.NodeID(), Connection: edge.conn}
				ok = true
				return false
			}
		}
		return true
	})
	return found, ok
}

// AddNodeAfter inserts a new node of the given kind at (parentID, conn).
// The previous occupant of the slot becomes the new node's continuation:
// the next link of an action, the first path of a branch. An end node drops
// it, and the orphaned tail is pruned. Unknown parents, incompatible
// connections and KindStart are no-ops.
func AddNodeAfter(doc Document, parentID string, conn Connection, kind Kind, ids idgen.Generator) Document {
	if _, ok := doc.Node(parentID); !ok {
		return doc
	}
	displaced := GetChildAt(doc, parentID, conn)

	var node Node
	switch kind {
	case KindAction:
		node = ActionNode{
			ID:    nextID(ids, kind),
			Label: kind.DefaultLabel(),
			Next:  displaced,
		}
	case KindBranch:
		node = BranchNode{
			ID:    nextID(ids, kind),
			Label: kind.DefaultLabel(),
			Branches: []BranchPath{
				{ID: FirstPathID, Label: "First", ChildID: displaced},
				{ID: SecondPathID, Label: "Second"},
			},
		}
	case KindEnd:
		node = EndNode{
			ID:    nextID(ids, kind),
			Label: kind.DefaultLabel(),
		}
	default:
		return doc
	}

	next := doc.clone()
	next.Nodes[node.NodeID()] = node
	next = SetChildAt(next, parentID, conn, node.NodeID())
	return PruneUnreachable(next)
}

// UpdateNodeLabel replaces a node's label. Any string is accepted; trimming
// and emptiness policy belong to the caller.
func UpdateNodeLabel(doc Document, nodeID, label string) Document {
	n, ok := doc.Node(nodeID)
	if !ok {
		return doc
	}
	next := doc.clone()
	next.Nodes[nodeID] = n.withLabel(label)
	return next
}

// DeleteNode removes a node and splices its continuation into the parent slot.
//
// A branch with one live path collapses onto that path. A branch with two or
// more live paths is replaced by a fresh branch node carrying copies of all
// its paths, so no reachable work is lost. The root cannot be deleted, and
// unreachable ids are ignored.
func DeleteNode(doc Document, nodeID string, ids idgen.Generator) Document {
	if nodeID == doc.RootID {
		return doc
	}
	target, ok := doc.Node(nodeID)
	if !ok {
		return doc
	}
	ptr, ok := FindParentPointer(doc, nodeID)
	if !ok {
		return doc
	}

	next := doc.clone()
	var replacement string

	switch n := target.(type) {
	case StartNode:
		replacement = n.Next
	case ActionNode:
		replacement = n.Next
	case BranchNode:
		live := n.LivePaths()
		switch len(live) {
		case 0:
			replacement = ""
		case 1:
			replacement = live[0].ChildID
		default:
			rehomed := BranchNode{
				ID:       nextID(ids, KindBranch),
				Label:    n.Label,
				Branches: cloneBranches(n.Branches),
			}
			next.Nodes[rehomed.ID] = rehomed
			replacement = rehomed.ID
		}
	case EndNode:
		replacement = ""
	default:
		panic(unknownVariant(target))
	}

	next = SetChildAt(next, ptr.ParentID, ptr.Connection, replacement)
	delete(next.Nodes, nodeID)
	return PruneUnreachable(next)
}

// PruneUnreachable drops every node that cannot be reached from the root.
// It is idempotent.
func PruneUnreachable(doc Document) Document {
	reachable := Reachable(doc)
	nodes := make(map[string]Node, len(reachable))
	for _, id := range reachable {
		nodes[id] = doc.Nodes[id]
	}
	return Document{RootID: doc.RootID, Nodes: nodes}
}

// Reachable lists the ids reachable from the root in depth-first order.
// Dangling targets are skipped.
func Reachable(doc Document) []string {
	var ids []string
	walk(doc, func(n Node) bool {
		ids = append(ids, n.NodeID())
		return true
	})
	return ids
}

type edge struct {
	conn   Connection
	target string
}

// edges lists the populated outgoing slots of a node in traversal order.
func edges(n Node) []edge {
	switch v := n.(type) {
	case StartNode:
		if v.Next != "" {
			return []edge{{conn: NextConnection(), target: v.Next}}
		}
	case ActionNode:
		if v.Next != "" {
			return []edge{{conn: NextConnection(), target: v.Next}}
		}
	case BranchNode:
		out := make([]edge, 0, len(v.Branches))
		for _, p := range v.Branches {
			if p.ChildID != "" {
				out = append(out, edge{conn: BranchConnection(p.ID), target: p.ChildID})
			}
		}
		return out
	case EndNode:
	default:
		panic(unknownVariant(n))
	}
	return nil
}

// walk visits nodes depth-first from the root, following next links before
// branch paths in declaration order. Each node is visited at most once.
// Returning false from visit stops the walk.
func walk(doc Document, visit func(Node) bool) {
	root, ok := doc.Node(doc.RootID)
	if !ok {
		return
	}

	visited := make(map[string]bool, len(doc.Nodes))
	stack := []Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n.NodeID()] {
			continue
		}
		visited[n.NodeID()] = true

		if !visit(n) {
			return
		}

		out := edges(n)
		// Push in reverse so the first edge is explored first.
		for i := len(out) - 1; i >= 0; i-- {
			child, ok := doc.Node(out[i].target)
			if ok && !visited[child.NodeID()] {
				stack = append(stack, child)
			}
		}
	}
}

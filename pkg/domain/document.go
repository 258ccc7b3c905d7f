package domain

import (
	"reflect"

	"github.com/aretw0/arbor/pkg/idgen"
)

// Document is a workflow: a root Start node id plus the node mapping.
// Treat values as immutable; use the package operations to derive new ones.
type Document struct {
	RootID string
	Nodes  map[string]Node
}

// CreateInitial returns a document holding only a Start node with no continuation.
// A nil generator draws ids from idgen.Default.
func CreateInitial(ids idgen.Generator) Document {
	root := StartNode{
		ID:    nextID(ids, KindStart),
		Label: KindStart.DefaultLabel(),
	}
	return Document{
		RootID: root.ID,
		Nodes:  map[string]Node{root.ID: root},
	}
}

// Node returns the node with the given id.
func (d Document) Node(id string) (Node, bool) {
	if id == "" {
		return nil, false
	}
	n, ok := d.Nodes[id]
	if !ok || n == nil {
		return nil, false
	}
	return n, true
}

// Root returns the root node, if the document has one.
func (d Document) Root() (StartNode, bool) {
	n, ok := d.Node(d.RootID)
	if !ok {
		return StartNode{}, false
	}
	start, ok := n.(StartNode)
	return start, ok
}

// Len returns the number of nodes.
func (d Document) Len() int {
	return len(d.Nodes)
}

// Equal reports whether two documents are structurally identical.
func Equal(a, b Document) bool {
	if a.RootID != b.RootID || len(a.Nodes) != len(b.Nodes) {
		return false
	}
	for id, na := range a.Nodes {
		nb, ok := b.Nodes[id]
		if !ok || !reflect.DeepEqual(normalize(na), normalize(nb)) {
			return false
		}
	}
	return true
}

// normalize maps an empty branch slice to nil so decoded and built nodes compare equal.
func normalize(n Node) Node {
	if b, ok := n.(BranchNode); ok && len(b.Branches) == 0 {
		b.Branches = nil
		return b
	}
	return n
}

// clone copies the node mapping. Node values are copied by the map assignment;
// branch slices stay shared until a writer replaces them.
func (d Document) clone() Document {
	nodes := make(map[string]Node, len(d.Nodes)+1)
	for id, n := range d.Nodes {
		nodes[id] = n
	}
	return Document{RootID: d.RootID, Nodes: nodes}
}

func nextID(ids idgen.Generator, kind Kind) string {
	if ids == nil {
		ids = idgen.Default
	}
	return ids.Next(string(kind))
}

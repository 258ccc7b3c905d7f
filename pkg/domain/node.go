package domain

import "fmt"

// Kind tags the variant of a Node.
type Kind string

const (
	// KindStart is the unique entry point of a document. It cannot be deleted.
	KindStart Kind = "start"
	// KindAction is a plain step with a single continuation.
	KindAction Kind = "action"
	// KindBranch splits the flow into two or more named paths.
	KindBranch Kind = "branch"
	// KindEnd terminates a path.
	KindEnd Kind = "end"
)

// Kinds lists every node kind in declaration order.
var Kinds = []Kind{KindStart, KindAction, KindBranch, KindEnd}

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindStart, KindAction, KindBranch, KindEnd:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown node kind %q", ErrMalformedDocument, s)
	}
}

// DefaultLabel is the label given to freshly created nodes of a kind.
func (k Kind) DefaultLabel() string {
	switch k {
	case KindStart:
		return "Start"
	case KindAction:
		return "Action"
	case KindBranch:
		return "Branch"
	case KindEnd:
		return "End"
	default:
		return string(k)
	}
}

// Default path ids and labels of a new branch node.
const (
	FirstPathID  = "first"
	SecondPathID = "second"
)

// Node is one workflow step. The set of implementations is closed:
// StartNode, ActionNode, BranchNode and EndNode.
type Node interface {
	NodeID() string
	NodeKind() Kind
	NodeLabel() string

	// withLabel returns a copy of the node carrying the given label.
	withLabel(label string) Node
}

// StartNode is the root of every document.
type StartNode struct {
	ID    string
	Label string
	Next  string // empty when the start has no continuation
}

// ActionNode is a single step with one continuation.
type ActionNode struct {
	ID    string
	Label string
	Next  string
}

// BranchPath is one named alternative of a BranchNode.
type BranchPath struct {
	ID      string
	Label   string
	ChildID string
}

// BranchNode forks the flow. It carries at least two paths with unique ids.
type BranchNode struct {
	ID       string
	Label    string
	Branches []BranchPath
}

// EndNode terminates a path. It has no outgoing connection.
type EndNode struct {
	ID    string
	Label string
}

func (n StartNode) NodeID() string    { return n.ID }
func (n StartNode) NodeKind() Kind    { return KindStart }
func (n StartNode) NodeLabel() string { return n.Label }
func (n StartNode) withLabel(label string) Node {
	n.Label = label
	return n
}

func (n ActionNode) NodeID() string    { return n.ID }
func (n ActionNode) NodeKind() Kind    { return KindAction }
func (n ActionNode) NodeLabel() string { return n.Label }
func (n ActionNode) withLabel(label string) Node {
	n.Label = label
	return n
}

func (n BranchNode) NodeID() string    { return n.ID }
func (n BranchNode) NodeKind() Kind    { return KindBranch }
func (n BranchNode) NodeLabel() string { return n.Label }
func (n BranchNode) withLabel(label string) Node {
	n.Label = label
	n.Branches = cloneBranches(n.Branches)
	return n
}

// Path returns the index of the path with the given id, or -1.
func (n BranchNode) Path(pathID string) int {
	for i, p := range n.Branches {
		if p.ID == pathID {
			return i
		}
	}
	return -1
}

// LivePaths returns the paths that have a continuation.
func (n BranchNode) LivePaths() []BranchPath {
	var live []BranchPath
	for _, p := range n.Branches {
		if p.ChildID != "" {
			live = append(live, p)
		}
	}
	return live
}

func (n EndNode) NodeID() string    { return n.ID }
func (n EndNode) NodeKind() Kind    { return KindEnd }
func (n EndNode) NodeLabel() string { return n.Label }
func (n EndNode) withLabel(label string) Node {
	n.Label = label
	return n
}

// Targets returns the non-empty outgoing targets of a node in traversal order:
// the next link first, then branch paths in declaration order.
func Targets(n Node) []string {
	switch v := n.(type) {
	case StartNode:
		return single(v.Next)
	case ActionNode:
		return single(v.Next)
	case BranchNode:
		out := make([]string, 0, len(v.Branches))
		for _, p := range v.Branches {
			if p.ChildID != "" {
				out = append(out, p.ChildID)
			}
		}
		return out
	case EndNode:
		return nil
	default:
		panic(unknownVariant(n))
	}
}

func single(id string) []string {
	if id == "" {
		return nil
	}
	return []string{id}
}

func cloneBranches(in []BranchPath) []BranchPath {
	if in == nil {
		return nil
	}
	out := make([]BranchPath, len(in))
	copy(out, in)
	return out
}

// unknownVariant reports a Node implementation outside the closed set.
// Reaching it is an internal consistency fault.
func unknownVariant(n Node) error {
	return fmt.Errorf("%w: unknown node variant %T", ErrInvariant, n)
}

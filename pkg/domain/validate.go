package domain

import (
	"errors"
	"fmt"
	"sort"
)

// Validate checks the structural invariants of a document:
//
//   - the root id resolves to the only Start node,
//   - map keys match node ids,
//   - branch nodes have at least two paths with unique, non-empty ids,
//   - every target exists, is not a self reference, and has a single incoming edge,
//   - every node is reachable from the root.
//
// Each violation is wrapped with ErrInvariant; all of them are joined.
func Validate(doc Document) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...)))
	}

	if doc.RootID == "" {
		fail("root id is empty")
	} else if n, ok := doc.Nodes[doc.RootID]; !ok {
		fail("root %q is missing", doc.RootID)
	} else if n == nil {
		fail("root %q is nil", doc.RootID)
	} else if n.NodeKind() != KindStart {
		fail("root %q is a %s node", doc.RootID, n.NodeKind())
	}

	incoming := make(map[string]int, len(doc.Nodes))
	for _, id := range sortedIDs(doc) {
		n := doc.Nodes[id]
		if n == nil {
			fail("node %q is nil", id)
			continue
		}
		if n.NodeID() != id {
			fail("node keyed %q carries id %q", id, n.NodeID())
		}
		if n.NodeKind() == KindStart && id != doc.RootID {
			fail("extra start node %q", id)
		}

		if b, ok := n.(BranchNode); ok {
			if len(b.Branches) < 2 {
				fail("branch %q has %d paths, need at least 2", id, len(b.Branches))
			}
			seen := make(map[string]bool, len(b.Branches))
			for _, p := range b.Branches {
				if p.ID == "" {
					fail("branch %q has a path without id", id)
				} else if seen[p.ID] {
					fail("branch %q repeats path id %q", id, p.ID)
				}
				seen[p.ID] = true
			}
		}

		for _, target := range Targets(n) {
			if target == id {
				fail("node %q points at itself", id)
				continue
			}
			if _, ok := doc.Nodes[target]; !ok {
				fail("node %q points at missing node %q", id, target)
				continue
			}
			incoming[target]++
		}
	}

	for _, id := range sortedIDs(doc) {
		if incoming[id] > 1 {
			fail("node %q has %d incoming edges", id, incoming[id])
		}
	}
	if incoming[doc.RootID] > 0 {
		fail("root %q has an incoming edge", doc.RootID)
	}

	reachable := make(map[string]bool, len(doc.Nodes))
	for _, id := range Reachable(doc) {
		reachable[id] = true
	}
	for _, id := range sortedIDs(doc) {
		if !reachable[id] {
			fail("node %q is unreachable from the root", id)
		}
	}

	return errors.Join(errs...)
}

func sortedIDs(doc Document) []string {
	ids := make([]string, 0, len(doc.Nodes))
	for id := range doc.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

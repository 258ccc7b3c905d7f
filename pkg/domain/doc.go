/*
Package domain contains the workflow document model and the operations that transform it.

A Document is a tree of typed nodes rooted at a single Start node. Every operation in
this package is a pure function: it takes a Document and returns a new Document, never
mutating the input. This lets callers keep old values around as undo snapshots without
any aliasing between the live document and history.

# Key Entities

  - Node: a sealed sum type implemented by StartNode, ActionNode, BranchNode and EndNode.
  - Connection: locates one outgoing edge slot on a node (its "next" link or a branch path).
  - ParentPointer: the unique incoming edge of a non-root node, recomputed by traversal.
  - Document: the root id plus the node mapping.

The model stores forward edges only. Parent lookups walk the tree from the root
(FindParentPointer), and every mutating operation finishes with PruneUnreachable so
no orphaned subtree outlives the operation that detached it.
*/
package domain

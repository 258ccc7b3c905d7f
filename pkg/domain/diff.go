package domain

import (
	"reflect"
	"sort"
)

// DocumentDiff lists the node ids that differ between two documents.
// It is designed to be serialized to JSON for partial updates on a client.
type DocumentDiff struct {
	RootID  *string  `json:"rootId,omitempty"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

// Diff compares two documents. It returns nil when they are structurally equal.
func Diff(oldDoc, newDoc Document) *DocumentDiff {
	diff := &DocumentDiff{}

	if oldDoc.RootID != newDoc.RootID {
		root := newDoc.RootID
		diff.RootID = &root
	}

	for id, n := range newDoc.Nodes {
		old, ok := oldDoc.Nodes[id]
		switch {
		case !ok:
			diff.Added = append(diff.Added, id)
		case !reflect.DeepEqual(normalize(old), normalize(n)):
			diff.Changed = append(diff.Changed, id)
		}
	}
	for id := range oldDoc.Nodes {
		if _, ok := newDoc.Nodes[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Changed)
	return diff
}

// IsEmpty checks if the diff contains any changes.
func (d *DocumentDiff) IsEmpty() bool {
	return d == nil || (d.RootID == nil && len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0)
}

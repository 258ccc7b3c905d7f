package domain

import (
	"encoding/json"
	"fmt"
)

// Wire records. Field names are the interchange format shared with earlier
// exports; do not rename them.
type documentRecord struct {
	RootID string                     `json:"rootId"`
	Nodes  map[string]json.RawMessage `json:"nodes"`
}

type linearRecord struct {
	ID    string  `json:"id"`
	Kind  Kind    `json:"kind"`
	Label string  `json:"label"`
	Next  *string `json:"next"`
}

type branchRecord struct {
	ID       string       `json:"id"`
	Kind     Kind         `json:"kind"`
	Label    string       `json:"label"`
	Branches []pathRecord `json:"branches"`
}

type pathRecord struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	ChildID *string `json:"childId"`
}

type endRecord struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Label string `json:"label"`
}

// Serialize encodes a document as indented JSON. Map keys are sorted, so the
// output is deterministic.
func Serialize(doc Document) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize document: %w", err)
	}
	return string(data), nil
}

// Parse decodes a document produced by Serialize and validates it.
func Parse(data string) (Document, error) {
	var doc Document
	if err := doc.UnmarshalJSON([]byte(data)); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	nodes := make(map[string]any, len(d.Nodes))
	for id, n := range d.Nodes {
		nodes[id] = encodeNode(n)
	}
	return json.Marshal(struct {
		RootID string         `json:"rootId"`
		Nodes  map[string]any `json:"nodes"`
	}{RootID: d.RootID, Nodes: nodes})
}

// UnmarshalJSON implements json.Unmarshaler. The decoded document must pass Validate.
func (d *Document) UnmarshalJSON(data []byte) error {
	var rec documentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if rec.Nodes == nil {
		return fmt.Errorf("%w: missing nodes", ErrMalformedDocument)
	}

	doc := Document{RootID: rec.RootID, Nodes: make(map[string]Node, len(rec.Nodes))}
	for key, raw := range rec.Nodes {
		n, err := decodeNode(raw)
		if err != nil {
			return fmt.Errorf("node %q: %w", key, err)
		}
		doc.Nodes[key] = n
	}

	if err := Validate(doc); err != nil {
		return err
	}
	*d = doc
	return nil
}

func encodeNode(n Node) any {
	switch v := n.(type) {
	case StartNode:
		return linearRecord{ID: v.ID, Kind: KindStart, Label: v.Label, Next: nullable(v.Next)}
	case ActionNode:
		return linearRecord{ID: v.ID, Kind: KindAction, Label: v.Label, Next: nullable(v.Next)}
	case BranchNode:
		paths := make([]pathRecord, len(v.Branches))
		for i, p := range v.Branches {
			paths[i] = pathRecord{ID: p.ID, Label: p.Label, ChildID: nullable(p.ChildID)}
		}
		return branchRecord{ID: v.ID, Kind: KindBranch, Label: v.Label, Branches: paths}
	case EndNode:
		return endRecord{ID: v.ID, Kind: KindEnd, Label: v.Label}
	default:
		panic(unknownVariant(n))
	}
}

func decodeNode(raw json.RawMessage) (Node, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	kind, err := ParseKind(head.Kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindStart, KindAction:
		var rec linearRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		if kind == KindStart {
			return StartNode{ID: rec.ID, Label: rec.Label, Next: deref(rec.Next)}, nil
		}
		return ActionNode{ID: rec.ID, Label: rec.Label, Next: deref(rec.Next)}, nil
	case KindBranch:
		var rec branchRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		var paths []BranchPath
		for _, p := range rec.Branches {
			paths = append(paths, BranchPath{ID: p.ID, Label: p.Label, ChildID: deref(p.ChildID)})
		}
		return BranchNode{ID: rec.ID, Label: rec.Label, Branches: paths}, nil
	default:
		var rec endRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		return EndNode{ID: rec.ID, Label: rec.Label}, nil
	}
}

func nullable(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func deref(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

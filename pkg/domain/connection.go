package domain

import "fmt"

// ConnectionType discriminates the kind of outgoing edge slot.
type ConnectionType string

const (
	// ConnectionNext addresses the sole next link of a Start or Action node.
	ConnectionNext ConnectionType = "next"
	// ConnectionBranch addresses one path of a Branch node.
	ConnectionBranch ConnectionType = "branch"
)

// Connection locates an outgoing edge slot on a parent node.
type Connection struct {
	Type   ConnectionType `json:"type" yaml:"type"`
	PathID string         `json:"pathId,omitempty" yaml:"pathId,omitempty"`
}

// NextConnection addresses a node's next link.
func NextConnection() Connection {
	return Connection{Type: ConnectionNext}
}

// BranchConnection addresses the branch path with the given id.
func BranchConnection(pathID string) Connection {
	return Connection{Type: ConnectionBranch, PathID: pathID}
}

func (c Connection) String() string {
	if c.Type == ConnectionBranch {
		return fmt.Sprintf("branch:%s", c.PathID)
	}
	return string(c.Type)
}

// ParentPointer is the unique incoming edge of a non-root node.
type ParentPointer struct {
	ParentID   string
	Connection Connection
}

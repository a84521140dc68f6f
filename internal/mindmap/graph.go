package mindmap

// Node is a single concept in the mind map.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Edge links two concepts. Endpoints must reference existing node IDs.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Graph is a validated node/edge structure ready for rendering.
// The first node is the root every other node is reachable from.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Root returns the root node ID, or "" for an empty graph.
func (g Graph) Root() string {
	if len(g.Nodes) == 0 {
		return ""
	}
	return g.Nodes[0].ID
}

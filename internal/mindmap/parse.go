package mindmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedGraph is returned when the model's response cannot be
// turned into a renderable graph. Callers surface it to the user for a
// regenerate rather than rendering a partial graph.
var ErrMalformedGraph = errors.New("malformed mind-map graph")

// treeNode is the hierarchical shape some models produce instead of the
// requested node/edge object.
type treeNode struct {
	Name     string     `json:"name"`
	Children []treeNode `json:"children,omitempty"`
}

// Parse decodes a model response into a validated Graph. It tolerates
// markdown code fences and surrounding prose, and accepts either the
// {nodes, edges} object or a {name, children} tree.
func Parse(raw string) (Graph, error) {
	payload := extractJSON(stripCodeFences(raw))
	if payload == "" {
		return Graph{}, fmt.Errorf("%w: no JSON object in response", ErrMalformedGraph)
	}

	var g Graph
	if err := json.Unmarshal([]byte(payload), &g); err == nil && len(g.Nodes) > 0 {
		if err := Validate(g); err != nil {
			return Graph{}, err
		}
		return g, nil
	}

	var tree treeNode
	if err := json.Unmarshal([]byte(payload), &tree); err != nil || strings.TrimSpace(tree.Name) == "" {
		return Graph{}, fmt.Errorf("%w: neither node/edge object nor tree", ErrMalformedGraph)
	}

	g = fromTree(tree)
	if err := Validate(g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// Validate checks the structural invariants: non-empty, unique node IDs,
// every edge endpoint present, and every node reachable from the root.
func Validate(g Graph) error {
	if len(g.Nodes) == 0 {
		return fmt.Errorf("%w: graph has no nodes", ErrMalformedGraph)
	}

	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if strings.TrimSpace(n.ID) == "" {
			return fmt.Errorf("%w: node with empty id", ErrMalformedGraph)
		}
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrMalformedGraph, n.ID)
		}
		ids[n.ID] = struct{}{}
	}

	adjacency := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		if _, ok := ids[e.Source]; !ok {
			return fmt.Errorf("%w: edge references unknown node %q", ErrMalformedGraph, e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return fmt.Errorf("%w: edge references unknown node %q", ErrMalformedGraph, e.Target)
		}
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		adjacency[e.Target] = append(adjacency[e.Target], e.Source)
	}

	seen := map[string]struct{}{g.Root(): {}}
	queue := []string{g.Root()}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[cur] {
			if _, ok := seen[next]; !ok {
				seen[next] = struct{}{}
				queue = append(queue, next)
			}
		}
	}
	if len(seen) != len(g.Nodes) {
		return fmt.Errorf("%w: %d of %d nodes unreachable from root", ErrMalformedGraph, len(g.Nodes)-len(seen), len(g.Nodes))
	}

	return nil
}

func fromTree(root treeNode) Graph {
	var g Graph
	counter := 0

	var walk func(node treeNode, parentID string)
	walk = func(node treeNode, parentID string) {
		counter++
		id := fmt.Sprintf("n%d", counter)
		g.Nodes = append(g.Nodes, Node{ID: id, Label: strings.TrimSpace(node.Name)})
		if parentID != "" {
			g.Edges = append(g.Edges, Edge{Source: parentID, Target: id})
		}
		for _, child := range node.Children {
			walk(child, id)
		}
	}
	walk(root, "")

	return g
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		// Skip a language tag like "json".
		if nl := strings.Index(s, "\n"); nl >= 0 {
			firstLine := strings.TrimSpace(s[:nl])
			if firstLine != "" && !strings.HasPrefix(firstLine, "{") {
				s = s[nl+1:]
			}
		}
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	return strings.TrimSpace(s)
}

// extractJSON returns the first balanced top-level JSON object in s.
func extractJSON(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			// Quotes outside the object matter too: prose can contain
			// a quoted brace before the payload starts.
			inString = true
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

package mindmap

import (
	"errors"
	"testing"
)

func TestParsePlainGraph(t *testing.T) {
	raw := `{"nodes":[{"id":"n1","label":"Root"},{"id":"n2","label":"Child"}],"edges":[{"source":"n1","target":"n2"}]}`
	g, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Fatalf("unexpected graph shape: %+v", g)
	}
	if g.Root() != "n1" {
		t.Fatalf("expected root n1, got %s", g.Root())
	}
}

func TestParseStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"nodes\":[{\"id\":\"a\",\"label\":\"A\"}],\"edges\":[]}\n```"
	g, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse fenced: %v", err)
	}
	if len(g.Nodes) != 1 || g.Nodes[0].ID != "a" {
		t.Fatalf("unexpected graph: %+v", g)
	}
}

func TestParseIgnoresSurroundingProse(t *testing.T) {
	raw := `Here is your mind map: {"nodes":[{"id":"a","label":"A"}],"edges":[]} hope it helps!`
	if _, err := Parse(raw); err != nil {
		t.Fatalf("parse with prose: %v", err)
	}
}

func TestParseIgnoresQuotedBraceInProse(t *testing.T) {
	raw := `Note that the "{" character starts the object: {"nodes":[{"id":"a","label":"A"}],"edges":[]}`
	g, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse with quoted brace in prose: %v", err)
	}
	if len(g.Nodes) != 1 || g.Nodes[0].ID != "a" {
		t.Fatalf("unexpected graph: %+v", g)
	}
}

func TestParseTreeShape(t *testing.T) {
	raw := `{"name":"Root","children":[{"name":"Left","children":[{"name":"Leaf"}]},{"name":"Right"}]}`
	g, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse tree: %v", err)
	}
	if len(g.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(g.Nodes))
	}
	if g.Nodes[0].Label != "Root" {
		t.Fatalf("expected first node to be the root, got %+v", g.Nodes[0])
	}
	if len(g.Edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(g.Edges))
	}
	if err := Validate(g); err != nil {
		t.Fatalf("converted tree should validate: %v", err)
	}
}

func TestParseMalformedOutput(t *testing.T) {
	for _, raw := range []string{
		"",
		"not json at all",
		`{"nodes": [}`,
		`[1, 2, 3]`,
	} {
		if _, err := Parse(raw); !errors.Is(err, ErrMalformedGraph) {
			t.Fatalf("raw %q: expected ErrMalformedGraph, got %v", raw, err)
		}
	}
}

func TestValidateRejectsEmptyGraph(t *testing.T) {
	if err := Validate(Graph{}); !errors.Is(err, ErrMalformedGraph) {
		t.Fatalf("expected ErrMalformedGraph for empty graph, got %v", err)
	}
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	g := Graph{Nodes: []Node{{ID: "a", Label: "A"}, {ID: "a", Label: "B"}}}
	if err := Validate(g); !errors.Is(err, ErrMalformedGraph) {
		t.Fatalf("expected ErrMalformedGraph for duplicate ids, got %v", err)
	}
}

func TestValidateRejectsUnknownEdgeEndpoint(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}},
		Edges: []Edge{{Source: "a", Target: "ghost"}},
	}
	if err := Validate(g); !errors.Is(err, ErrMalformedGraph) {
		t.Fatalf("expected ErrMalformedGraph for unknown endpoint, got %v", err)
	}
}

func TestValidateRejectsUnreachableNode(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}, {ID: "c", Label: "C"}},
		Edges: []Edge{{Source: "a", Target: "b"}},
	}
	if err := Validate(g); !errors.Is(err, ErrMalformedGraph) {
		t.Fatalf("expected ErrMalformedGraph for unreachable node, got %v", err)
	}
}

func TestValidateAcceptsConnectedGraph(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}, {ID: "c", Label: "C"}},
		Edges: []Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "c", Label: "leads to"}},
	}
	if err := Validate(g); err != nil {
		t.Fatalf("expected valid graph, got %v", err)
	}
}

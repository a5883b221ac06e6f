package model

import (
	"reflect"
	"testing"
)

func TestCloneIsDeep(t *testing.T) {
	color := "#112233"
	original := &GraphNode{
		ID:            "a.md",
		OutgoingEdges: []Edge{{TargetID: "b.md", Label: "links"}},
		Content:       "body",
		Meta: UIMetadata{
			Title:            "A",
			Color:            &color,
			Position:         &Position{X: 1, Y: 2},
			ContainedNodeIDs: []string{"x.md"},
			AdditionalProps:  map[string]any{"k": "v"},
		},
	}

	clone := original.Clone()
	if !reflect.DeepEqual(original, clone) {
		t.Fatal("Clone should be equal to the original")
	}

	clone.OutgoingEdges[0].TargetID = "changed"
	*clone.Meta.Color = "#000000"
	clone.Meta.Position.X = 99
	clone.Meta.ContainedNodeIDs[0] = "changed"
	clone.Meta.AdditionalProps["k"] = "changed"

	if original.OutgoingEdges[0].TargetID != "b.md" {
		t.Error("Edge mutation leaked into the original")
	}
	if *original.Meta.Color != "#112233" {
		t.Error("Color mutation leaked into the original")
	}
	if original.Meta.Position.X != 1 {
		t.Error("Position mutation leaked into the original")
	}
	if original.Meta.ContainedNodeIDs[0] != "x.md" {
		t.Error("Contained ids mutation leaked into the original")
	}
	if original.Meta.AdditionalProps["k"] != "v" {
		t.Error("Props mutation leaked into the original")
	}
}

func TestCloneNil(t *testing.T) {
	var n *GraphNode
	if n.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestNodeIDsSorted(t *testing.T) {
	g := NewGraph()
	for _, id := range []NodeID{"z.md", "a.md", "m/n.md"} {
		g.Nodes[id] = &GraphNode{ID: id}
	}

	got := g.NodeIDs()
	want := []NodeID{"a.md", "m/n.md", "z.md"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NodeIDs() = %v, want %v", got, want)
	}
}

func TestRedirectEdgeTarget(t *testing.T) {
	node := &GraphNode{
		ID: "src.md",
		OutgoingEdges: []Edge{
			{TargetID: "old.md", Label: "first"},
			{TargetID: "other.md", Label: "second"},
			{TargetID: "old.md", Label: "third"},
		},
	}

	out := RedirectEdgeTarget(node, "old.md", "new.md")

	want := []Edge{
		{TargetID: "new.md", Label: "first"},
		{TargetID: "other.md", Label: "second"},
		{TargetID: "new.md", Label: "third"},
	}
	if !reflect.DeepEqual(out.OutgoingEdges, want) {
		t.Errorf("Redirected edges = %v, want %v", out.OutgoingEdges, want)
	}
	if node.OutgoingEdges[0].TargetID != "old.md" {
		t.Error("Redirect should not mutate the input node")
	}
}

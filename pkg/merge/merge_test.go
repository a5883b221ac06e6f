package merge

import (
	"strings"
	"testing"

	"vaultgraph/pkg/delta"
	"vaultgraph/pkg/model"
)

func node(id model.NodeID, title string) *model.GraphNode {
	return &model.GraphNode{ID: id, Meta: model.UIMetadata{Title: title}}
}

func graphOf(nodes ...*model.GraphNode) *model.Graph {
	g := model.NewGraph()
	for _, n := range nodes {
		g.Nodes[n.ID] = n
	}
	return g
}

// repOf digs the representative node out of a merge delta.
func repOf(t *testing.T, d delta.GraphDelta) *model.GraphNode {
	t.Helper()
	if len(d) == 0 {
		t.Fatal("Empty delta")
	}
	up, ok := d[0].(delta.UpsertNodeDelta)
	if !ok {
		t.Fatalf("First change should be the representative upsert, got %T", d[0])
	}
	if up.PreviousNode != nil {
		t.Error("The representative is a fresh node, previous should be nil")
	}
	return up.NodeToUpsert
}

func TestMergeTwoNodes(t *testing.T) {
	a := node("a.md", "First")
	a.Meta.Position = &model.Position{X: 0, Y: 0}
	b := node("b.md", "Second")
	b.Meta.Position = &model.Position{X: 100, Y: 200}
	g := graphOf(a, b)

	d := ComputeMergeGraphDelta([]model.NodeID{"a.md", "b.md"}, g)
	rep := repOf(t, d)

	if rep.Content != "Merged: First, Second" {
		t.Errorf("Unexpected merged content %q", rep.Content)
	}
	if rep.Meta.Title != rep.Content {
		t.Error("Representative title should equal its content")
	}
	if rep.Meta.Position == nil || rep.Meta.Position.X != 50 || rep.Meta.Position.Y != 100 {
		t.Errorf("Expected centroid (50, 100), got %v", rep.Meta.Position)
	}
	if !strings.HasPrefix(rep.ID, "merged/") {
		t.Errorf("Representative id should live in the merged namespace, got %s", rep.ID)
	}
	if len(rep.OutgoingEdges) != 0 {
		t.Errorf("Representative should start with no edges, got %v", rep.OutgoingEdges)
	}

	next := delta.Apply(g, d)
	if next.HasNode("a.md") || next.HasNode("b.md") {
		t.Error("Merge sources should be deleted")
	}
	if !next.HasNode(rep.ID) {
		t.Error("Representative should be present")
	}
}

func TestMergeRedirectsExternalEdges(t *testing.T) {
	a := node("a.md", "A")
	b := node("b.md", "B")
	outside := node("outside.md", "Outside")
	outside.OutgoingEdges = []model.Edge{
		{TargetID: "a.md", Label: "refers to"},
		{TargetID: "elsewhere.md", Label: "unrelated"},
	}
	g := graphOf(a, b, outside, node("elsewhere.md", "E"))

	d := ComputeMergeGraphDelta([]model.NodeID{"a.md", "b.md"}, g)
	rep := repOf(t, d)
	next := delta.Apply(g, d)

	edges := next.Node("outside.md").OutgoingEdges
	if edges[0].TargetID != rep.ID {
		t.Errorf("External edge should point at the representative, got %s", edges[0].TargetID)
	}
	if edges[0].Label != "refers to" {
		t.Error("Redirection should preserve the label")
	}
	if edges[1].TargetID != "elsewhere.md" {
		t.Error("Edges outside the selection should be untouched")
	}

	// The redirected node's pre-image enables undo.
	var found bool
	for _, change := range d {
		up, ok := change.(delta.UpsertNodeDelta)
		if ok && up.NodeToUpsert.ID == "outside.md" {
			found = true
			if up.PreviousNode == nil || up.PreviousNode.OutgoingEdges[0].TargetID != "a.md" {
				t.Error("Redirection upsert should capture the previous node")
			}
		}
	}
	if !found {
		t.Error("Expected an upsert for outside.md")
	}
}

func TestMergeInternalEdgesDiscarded(t *testing.T) {
	a := node("a.md", "A")
	a.OutgoingEdges = []model.Edge{{TargetID: "b.md", Label: "links"}}
	b := node("b.md", "B")
	g := graphOf(a, b)

	d := ComputeMergeGraphDelta([]model.NodeID{"a.md", "b.md"}, g)
	next := delta.Apply(g, d)

	rep := repOf(t, d)
	if len(next.Node(rep.ID).OutgoingEdges) != 0 {
		t.Error("Edges between merged nodes should not survive")
	}
}

func TestMergePrimaryAnchorsTitle(t *testing.T) {
	// a reaches b through a resolved edge, so a anchors the title even though
	// b comes first in the selection.
	a := node("a.md", "A")
	a.OutgoingEdges = []model.Edge{{TargetID: "b.md", Label: ""}}
	b := node("b.md", "B")
	g := graphOf(a, b)

	d := ComputeMergeGraphDelta([]model.NodeID{"b.md", "a.md"}, g)
	rep := repOf(t, d)

	if rep.Content != "Merged: A, B" {
		t.Errorf("Primary source should lead the title, got %q", rep.Content)
	}
}

func TestMergeContextNodesExcluded(t *testing.T) {
	a := node("a.md", "A")
	b := node("b.md", "B")
	ctx := node("ctx.md", "Context")
	ctx.Meta.IsContextNode = true
	g := graphOf(a, b, ctx)

	d := ComputeMergeGraphDelta([]model.NodeID{"a.md", "ctx.md", "b.md"}, g)
	rep := repOf(t, d)

	if strings.Contains(rep.Content, "Context") {
		t.Errorf("Context node title should not appear in %q", rep.Content)
	}

	next := delta.Apply(g, d)
	for _, id := range []model.NodeID{"a.md", "b.md", "ctx.md"} {
		if next.HasNode(id) {
			t.Errorf("%s should be deleted", id)
		}
	}
}

func TestMergeFewerThanTwoSources(t *testing.T) {
	t.Run("single source", func(t *testing.T) {
		g := graphOf(node("a.md", "A"))
		if d := ComputeMergeGraphDelta([]model.NodeID{"a.md"}, g); len(d) != 0 {
			t.Errorf("A single source should produce no changes, got %v", d)
		}
	})

	t.Run("only context nodes still deleted", func(t *testing.T) {
		ctx := node("ctx.md", "Context")
		ctx.Meta.IsContextNode = true
		g := graphOf(ctx, node("a.md", "A"))

		d := ComputeMergeGraphDelta([]model.NodeID{"ctx.md", "a.md"}, g)
		if len(d) != 1 {
			t.Fatalf("Expected only the context delete, got %d changes", len(d))
		}
		next := delta.Apply(g, d)
		if next.HasNode("ctx.md") {
			t.Error("Context node should be deleted")
		}
		if !next.HasNode("a.md") {
			t.Error("The lone source should survive")
		}
	})

	t.Run("unknown ids ignored", func(t *testing.T) {
		g := graphOf(node("a.md", "A"))
		if d := ComputeMergeGraphDelta([]model.NodeID{"a.md", "ghost.md"}, g); len(d) != 0 {
			t.Errorf("Unknown ids should not count as sources, got %v", d)
		}
	})
}

func TestMergeNoPositions(t *testing.T) {
	g := graphOf(node("a.md", "A"), node("b.md", "B"))
	d := ComputeMergeGraphDelta([]model.NodeID{"a.md", "b.md"}, g)
	if pos := repOf(t, d).Meta.Position; pos != nil {
		t.Errorf("Expected no position when no source has one, got %v", pos)
	}
}

func TestMergeColorFromFirstSource(t *testing.T) {
	color := "#abcdef"
	a := node("a.md", "A")
	a.Meta.Color = &color
	g := graphOf(a, node("b.md", "B"))

	d := ComputeMergeGraphDelta([]model.NodeID{"a.md", "b.md"}, g)
	rep := repOf(t, d)
	if rep.Meta.Color == nil || *rep.Meta.Color != "#abcdef" {
		t.Errorf("Representative should take the first source's color, got %v", rep.Meta.Color)
	}
}

func TestMergeIDsAreUnique(t *testing.T) {
	g := graphOf(node("a.md", "A"), node("b.md", "B"))
	d1 := ComputeMergeGraphDelta([]model.NodeID{"a.md", "b.md"}, g)
	d2 := ComputeMergeGraphDelta([]model.NodeID{"a.md", "b.md"}, g)
	if repOf(t, d1).ID == repOf(t, d2).ID {
		t.Error("Two merges should never produce the same id")
	}
}

func TestMergeUndo(t *testing.T) {
	a := node("a.md", "A")
	b := node("b.md", "B")
	outside := node("outside.md", "Outside")
	outside.OutgoingEdges = []model.Edge{{TargetID: "b.md", Label: "ref"}}
	g := graphOf(a, b, outside)

	d := ComputeMergeGraphDelta([]model.NodeID{"a.md", "b.md"}, g)
	merged := delta.Apply(g, d)
	restored := delta.Apply(merged, d.Invert())

	if len(restored.Nodes) != len(g.Nodes) {
		t.Fatalf("Undo should restore %d nodes, got %d", len(g.Nodes), len(restored.Nodes))
	}
	if restored.Node("outside.md").OutgoingEdges[0].TargetID != "b.md" {
		t.Error("Undo should restore the original edge target")
	}
}

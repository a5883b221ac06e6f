// Package merge collapses a selection of nodes into one representative node,
// redirecting external incoming edges and discarding the internal ones.
package merge

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"vaultgraph/pkg/delta"
	"vaultgraph/pkg/markdown"
	"vaultgraph/pkg/model"
)

// ComputeMergeGraphDelta builds the delta that merges the selected nodes.
// Context nodes are never merge sources; with fewer than two eligible
// sources the delta only deletes any selected context nodes. Otherwise it
// upserts a fresh representative node, rewrites every external edge into the
// selection, and deletes every originally selected id, context or not.
func ComputeMergeGraphDelta(selectedIDs []model.NodeID, g *model.Graph) delta.GraphDelta {
	var sources []*model.GraphNode
	var contextIDs []model.NodeID
	for _, id := range selectedIDs {
		node := g.Node(id)
		if node == nil {
			continue
		}
		if node.Meta.IsContextNode {
			contextIDs = append(contextIDs, id)
		} else {
			sources = append(sources, node)
		}
	}

	if len(sources) < 2 {
		// No merge, but context nodes are always removable.
		d := delta.GraphDelta{}
		for _, id := range contextIDs {
			d = d.Delete(id, g.Node(id))
		}
		return d
	}

	rep := buildRepresentative(sources)

	d := delta.GraphDelta{}.Upsert(rep, nil)

	// Redirect incoming edges from outside the selection, one upsert per
	// external source, labels kept as written.
	selected := make(map[model.NodeID]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}
	merged := make(map[model.NodeID]bool, len(sources))
	for _, src := range sources {
		merged[src.ID] = true
	}
	for _, outsideID := range g.NodeIDs() {
		if selected[outsideID] {
			continue
		}
		outside := g.Node(outsideID)
		if !targetsAny(outside, merged) {
			continue
		}
		redirected := outside.Clone()
		for i, edge := range redirected.OutgoingEdges {
			if merged[edge.TargetID] {
				redirected.OutgoingEdges[i].TargetID = rep.ID
			}
		}
		d = d.Upsert(redirected, outside)
	}

	for _, id := range selectedIDs {
		d = d.Delete(id, g.Node(id))
	}
	return d
}

// buildRepresentative constructs the merged node: concatenated titles
// anchored by the primary source, centroid position, first source's color,
// and no outgoing edges since internal links would be self-referential.
func buildRepresentative(sources []*model.GraphNode) *model.GraphNode {
	titles := make([]string, 0, len(sources))
	primary := primaryIndex(sources)
	titles = append(titles, markdown.NodeTitle(sources[primary]))
	for i, src := range sources {
		if i != primary {
			titles = append(titles, markdown.NodeTitle(src))
		}
	}
	content := "Merged: " + strings.Join(titles, ", ")

	rep := &model.GraphNode{
		ID:      newMergedID(),
		Content: content,
	}
	rep.Meta.Title = content
	rep.Meta.Position = centroid(sources)
	if c := sources[0].Meta.Color; c != nil {
		col := *c
		rep.Meta.Color = &col
	}
	return rep
}

// newMergedID generates a fresh namespaced node id that cannot collide with
// a file path already in the vault.
func newMergedID() model.NodeID {
	return fmt.Sprintf("merged/merged-%d-%s.md", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// primaryIndex picks the source whose title anchors the merged content: the
// node that reaches the most other selected nodes through resolved edges
// inside the selection. Ties go to input order.
func primaryIndex(sources []*model.GraphNode) int {
	index := make(map[model.NodeID]int64, len(sources))
	dg := simple.NewDirectedGraph()
	for i, src := range sources {
		index[src.ID] = int64(i)
		dg.AddNode(simple.Node(int64(i)))
	}
	for i, src := range sources {
		for _, edge := range src.OutgoingEdges {
			j, ok := index[edge.TargetID]
			if !ok || j == int64(i) {
				continue
			}
			if !dg.HasEdgeFromTo(int64(i), j) {
				dg.SetEdge(dg.NewEdge(simple.Node(int64(i)), simple.Node(j)))
			}
		}
	}

	best, bestReach := 0, -1
	for i := range sources {
		reached := 0
		bfs := traverse.BreadthFirst{Visit: func(graph.Node) { reached++ }}
		bfs.Walk(dg, dg.Node(int64(i)), nil)
		if reached-1 > bestReach {
			best, bestReach = i, reached-1
		}
	}
	return best
}

// centroid averages the positions of the sources that have one; nil when
// none do.
func centroid(sources []*model.GraphNode) *model.Position {
	var sumX, sumY float64
	count := 0
	for _, src := range sources {
		if pos := src.Meta.Position; pos != nil {
			sumX += pos.X
			sumY += pos.Y
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return &model.Position{X: sumX / float64(count), Y: sumY / float64(count)}
}

func targetsAny(n *model.GraphNode, ids map[model.NodeID]bool) bool {
	for _, edge := range n.OutgoingEdges {
		if ids[edge.TargetID] {
			return true
		}
	}
	return false
}

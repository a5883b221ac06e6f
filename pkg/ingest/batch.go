package ingest

import (
	"vaultgraph/pkg/markdown"
	"vaultgraph/pkg/model"
	"vaultgraph/pkg/resolve"
)

// File is one markdown file of a bulk load, already read from disk.
type File struct {
	ID      model.NodeID
	Content string
}

// LoadBatch builds a graph from a full vault scan. Every node is parsed
// before any link is resolved, so resolution sees the complete node set and
// the result is independent of file order. This is the reference state that
// incremental ingestion converges to for backward references.
func LoadBatch(files []File) *model.Graph {
	g := model.NewGraph()
	for _, f := range files {
		g.Nodes[f.ID] = markdown.Parse(f.ID, f.Content)
	}

	for _, id := range g.NodeIDs() {
		node := g.Node(id)
		for i, edge := range node.OutgoingEdges {
			if best, ok := resolve.FindBestMatchingNode(edge.TargetID, g); ok && best != id {
				node.OutgoingEdges[i].TargetID = best
			}
		}
	}

	// Place nodes lacking a frontmatter position next to their first linker
	// that has one, same heuristic as incremental arrival.
	for _, id := range g.NodeIDs() {
		node := g.Node(id)
		if node.Meta.Position != nil {
			continue
		}
		for _, parentID := range g.NodeIDs() {
			if parentID == id {
				continue
			}
			parent := g.Node(parentID)
			if parent.Meta.Position == nil || !linksTo(parent, id) {
				continue
			}
			node.Meta.Position = &model.Position{
				X: parent.Meta.Position.X + childOffsetX,
				Y: parent.Meta.Position.Y + childOffsetY,
			}
			break
		}
	}

	return g
}

func linksTo(n *model.GraphNode, id model.NodeID) bool {
	for _, edge := range n.OutgoingEdges {
		if edge.TargetID == id {
			return true
		}
	}
	return false
}

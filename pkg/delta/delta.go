// Package delta defines the replayable change-set produced by ingestion and
// merge, and the reducer that folds it into a graph snapshot. Every change
// carries the pre-image it replaces so a persistence layer can undo it.
package delta

import (
	"vaultgraph/pkg/model"
)

// Change is one entry of a GraphDelta: either an upsert or a delete.
type Change interface {
	isChange()
}

// UpsertNodeDelta inserts or replaces a node. PreviousNode is the node that
// held this id before the delta was applied, nil for a fresh insert.
type UpsertNodeDelta struct {
	NodeToUpsert *model.GraphNode
	PreviousNode *model.GraphNode
}

// DeleteNodeDelta removes a node. DeletedNode captures the removed node, nil
// when the id was already absent.
type DeleteNodeDelta struct {
	NodeID      model.NodeID
	DeletedNode *model.GraphNode
}

func (UpsertNodeDelta) isChange() {}
func (DeleteNodeDelta) isChange() {}

// GraphDelta is an ordered sequence of changes.
type GraphDelta []Change

// Upsert appends an upsert change.
func (d GraphDelta) Upsert(node, previous *model.GraphNode) GraphDelta {
	return append(d, UpsertNodeDelta{NodeToUpsert: node, PreviousNode: previous})
}

// Delete appends a delete change.
func (d GraphDelta) Delete(id model.NodeID, deleted *model.GraphNode) GraphDelta {
	return append(d, DeleteNodeDelta{NodeID: id, DeletedNode: deleted})
}

// Apply folds the delta into the graph and returns the resulting snapshot.
// The input graph is not mutated. Nodes are replaced wholesale and treated as
// immutable once in a graph, so a fresh node map is all the isolation needed.
// Deleting an id that is not present is a no-op, and applying [d1, d2] equals
// applying d1 then d2.
func Apply(g *model.Graph, d GraphDelta) *model.Graph {
	next := &model.Graph{Nodes: make(map[model.NodeID]*model.GraphNode, len(g.Nodes))}
	for id, node := range g.Nodes {
		next.Nodes[id] = node
	}

	for _, change := range d {
		switch c := change.(type) {
		case UpsertNodeDelta:
			next.Nodes[c.NodeToUpsert.ID] = c.NodeToUpsert
		case DeleteNodeDelta:
			delete(next.Nodes, c.NodeID)
		}
	}
	return next
}

// Invert derives the delta that undoes d, using the captured pre-images.
// Changes are emitted in reverse order. A delete whose node was already
// absent inverts to nothing.
func (d GraphDelta) Invert() GraphDelta {
	var inv GraphDelta
	for i := len(d) - 1; i >= 0; i-- {
		switch c := d[i].(type) {
		case UpsertNodeDelta:
			if c.PreviousNode == nil {
				inv = inv.Delete(c.NodeToUpsert.ID, c.NodeToUpsert)
			} else {
				inv = inv.Upsert(c.PreviousNode, c.NodeToUpsert)
			}
		case DeleteNodeDelta:
			if c.DeletedNode != nil {
				inv = inv.Upsert(c.DeletedNode, nil)
			}
		}
	}
	return inv
}

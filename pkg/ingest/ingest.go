// Package ingest folds single file events into graph deltas. Arrival of a
// node resolves its own links against the current graph and heals any
// existing node whose unresolved links can now reach it.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"vaultgraph/pkg/delta"
	"vaultgraph/pkg/logging"
	"vaultgraph/pkg/markdown"
	"vaultgraph/pkg/model"
	"vaultgraph/pkg/resolve"
)

// EventType classifies a filesystem event.
type EventType string

const (
	EventAdded   EventType = "Added"
	EventChanged EventType = "Changed"
	EventDeleted EventType = "Deleted"
)

// ErrOutsideVault is returned for event paths that do not live under the
// vault root.
var ErrOutsideVault = errors.New("path is outside the vault")

// FileEvent is one serialized filesystem change delivered by the watcher or
// the bulk scanner. Content is empty for deletions.
type FileEvent struct {
	AbsolutePath string
	Content      string
	Type         EventType
}

// Children of a linking node are placed at a fixed offset from it until the
// layout engine takes over.
const (
	childOffsetX = 120
	childOffsetY = 80
)

// NodeIDFromPath converts an absolute file path into the vault-relative,
// slash-separated node id.
func NodeIDFromPath(absPath, vaultRoot string) (model.NodeID, error) {
	rel, err := filepath.Rel(vaultRoot, absPath)
	if err != nil {
		return "", fmt.Errorf("relativize %s: %w", absPath, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s not under %s", ErrOutsideVault, absPath, vaultRoot)
	}
	return filepath.ToSlash(rel), nil
}

// IngestFileEvent computes the delta for one file event against the current
// graph. The caller applies the delta before delivering the next event.
func IngestFileEvent(event FileEvent, vaultRoot string, g *model.Graph) (delta.GraphDelta, error) {
	id, err := NodeIDFromPath(event.AbsolutePath, vaultRoot)
	if err != nil {
		return nil, err
	}

	if event.Type == EventDeleted {
		return delta.GraphDelta{}.Delete(id, g.Node(id)), nil
	}

	// Parse and resolve the node's own links against the graph as it stands,
	// which does not yet contain this version of the node. Resolution to the
	// node itself is skipped so healing never manufactures a self-loop.
	node := markdown.Parse(id, event.Content)
	for i, edge := range node.OutgoingEdges {
		if best, ok := resolve.FindBestMatchingNode(edge.TargetID, g); ok && best != id {
			node.OutgoingEdges[i].TargetID = best
		}
	}

	previous := g.Node(id)
	affected := affectedNodeIDs(id, g)
	resolvePosition(node, previous, affected, g)

	d := delta.GraphDelta{}.Upsert(node, previous)

	// Heal: with this node present, previously unresolved links elsewhere may
	// now resolve. Each healed node carries its pre-heal state for undo.
	plus := withNode(g, node)
	for _, affectedID := range affected {
		preHeal := g.Node(affectedID)
		healed, changed := healNode(preHeal, g, plus)
		if changed {
			d = d.Upsert(healed, preHeal)
		}
	}

	if len(affected) > 0 {
		logging.Debug("healed incoming links", "node", id, "candidates", len(affected))
	}
	return d, nil
}

// affectedNodeIDs lists every existing node holding an unresolved link that
// scores against the arriving id, in stable sorted order.
func affectedNodeIDs(id model.NodeID, g *model.Graph) []model.NodeID {
	var ids []model.NodeID
	for _, otherID := range g.NodeIDs() {
		if otherID == id {
			continue
		}
		for _, edge := range g.Node(otherID).OutgoingEdges {
			if g.HasNode(edge.TargetID) {
				continue
			}
			if resolve.LinkMatchScore(edge.TargetID, id) > 0 {
				ids = append(ids, otherID)
				break
			}
		}
	}
	return ids
}

// healNode re-resolves the node's unresolved edges against the graph plus
// the arriving node. Edges that stay unresolved are left verbatim.
func healNode(n *model.GraphNode, g, plus *model.Graph) (*model.GraphNode, bool) {
	healed := n.Clone()
	changed := false
	for i, edge := range healed.OutgoingEdges {
		if g.HasNode(edge.TargetID) {
			continue
		}
		best, ok := resolve.FindBestMatchingNode(edge.TargetID, plus)
		if !ok || best == n.ID || best == edge.TargetID {
			continue
		}
		healed.OutgoingEdges[i].TargetID = best
		changed = true
	}
	return healed, changed
}

// resolvePosition applies the placement priority: the previous node's stored
// position, then the file's own frontmatter position, then an offset from
// the first affected node that has one, then nothing.
func resolvePosition(node, previous *model.GraphNode, affected []model.NodeID, g *model.Graph) {
	if previous != nil && previous.Meta.Position != nil {
		pos := *previous.Meta.Position
		node.Meta.Position = &pos
		return
	}
	if node.Meta.Position != nil {
		return
	}
	for _, parentID := range affected {
		if parentPos := g.Node(parentID).Meta.Position; parentPos != nil {
			node.Meta.Position = &model.Position{
				X: parentPos.X + childOffsetX,
				Y: parentPos.Y + childOffsetY,
			}
			return
		}
	}
}

// withNode returns a snapshot of g that also contains node.
func withNode(g *model.Graph, node *model.GraphNode) *model.Graph {
	plus := &model.Graph{Nodes: make(map[model.NodeID]*model.GraphNode, len(g.Nodes)+1)}
	for id, n := range g.Nodes {
		plus.Nodes[id] = n
	}
	plus.Nodes[node.ID] = node
	return plus
}

package model

import "sort"

// NodeID identifies a node by its vault-relative path (e.g. "folder/note.md").
// Identity is the path: renaming a file is modeled as delete plus insert.
type NodeID = string

// Position is an x/y placement hint for the rendering layer.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is an outgoing link from a node. TargetID is either a resolved NodeID
// or the raw link text as written in the file, kept verbatim until a matching
// node appears. Label is the free text preceding the link on its source line.
type Edge struct {
	TargetID string `json:"targetId"`
	Label    string `json:"label"`
}

// UIMetadata carries display state parsed from frontmatter or set by the UI.
type UIMetadata struct {
	Title            string         `json:"title,omitempty"`
	Color            *string        `json:"color,omitempty"`
	Position         *Position      `json:"position,omitempty"`
	IsContextNode    bool           `json:"isContextNode"`
	ContainedNodeIDs []string       `json:"containedNodeIds,omitempty"`
	AdditionalProps  map[string]any `json:"additionalProps,omitempty"`
}

// GraphNode is one markdown file in the graph. Nodes are replaced wholesale
// on change, never field-patched.
type GraphNode struct {
	ID            NodeID     `json:"id"`
	OutgoingEdges []Edge     `json:"outgoingEdges"`
	Content       string     `json:"content"`
	Meta          UIMetadata `json:"uiMetadata"`
}

// Clone returns a deep copy of the node.
func (n *GraphNode) Clone() *GraphNode {
	if n == nil {
		return nil
	}
	c := *n
	c.OutgoingEdges = append([]Edge(nil), n.OutgoingEdges...)
	if n.Meta.Color != nil {
		col := *n.Meta.Color
		c.Meta.Color = &col
	}
	if n.Meta.Position != nil {
		pos := *n.Meta.Position
		c.Meta.Position = &pos
	}
	c.Meta.ContainedNodeIDs = append([]string(nil), n.Meta.ContainedNodeIDs...)
	if n.Meta.AdditionalProps != nil {
		props := make(map[string]any, len(n.Meta.AdditionalProps))
		for k, v := range n.Meta.AdditionalProps {
			props[k] = v
		}
		c.Meta.AdditionalProps = props
	}
	return &c
}

// Graph is the in-memory snapshot of the whole vault. All transformations are
// Graph -> Graph or Graph -> GraphDelta; callers own the single current value.
type Graph struct {
	Nodes map[NodeID]*GraphNode `json:"nodes"`
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{Nodes: make(map[NodeID]*GraphNode)}
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id NodeID) *GraphNode {
	if g == nil {
		return nil
	}
	return g.Nodes[id]
}

// HasNode reports whether id is present in the graph.
func (g *Graph) HasNode(id NodeID) bool {
	return g.Node(id) != nil
}

// NodeIDs returns all node ids in sorted order. Map iteration is randomized,
// so every place that scores or scans candidates goes through this to keep
// tie-breaking stable.
func (g *Graph) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := &Graph{Nodes: make(map[NodeID]*GraphNode, len(g.Nodes))}
	for id, node := range g.Nodes {
		c.Nodes[id] = node.Clone()
	}
	return c
}

// RedirectEdgeTarget returns a copy of node with every edge targeting
// oldTarget rewritten to newTarget, labels preserved. Edges with other
// targets are untouched.
func RedirectEdgeTarget(node *GraphNode, oldTarget, newTarget string) *GraphNode {
	out := node.Clone()
	for i := range out.OutgoingEdges {
		if out.OutgoingEdges[i].TargetID == oldTarget {
			out.OutgoingEdges[i].TargetID = newTarget
		}
	}
	return out
}

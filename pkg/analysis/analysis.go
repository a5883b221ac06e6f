// Package analysis reports on vault health: links that never resolved and
// nodes disconnected from the rest of the graph. Unresolved links are a
// normal state, not an error; the report exists so users can see them.
package analysis

import (
	"vaultgraph/pkg/model"
)

// UnresolvedLink is an outgoing edge whose target matches no node.
type UnresolvedLink struct {
	SourceID model.NodeID `json:"sourceId"`
	Target   string       `json:"target"` // raw link text, kept verbatim
	Label    string       `json:"label"`
}

// Report summarizes the state of a graph snapshot.
type Report struct {
	Nodes      int              `json:"nodes"`
	Edges      int              `json:"edges"`
	Resolved   int              `json:"resolved"`
	Unresolved []UnresolvedLink `json:"unresolved"`
	Orphans    []model.NodeID   `json:"orphans"`
}

// FindUnresolvedLinks lists every edge whose target is not a node id, in
// sorted source order.
func FindUnresolvedLinks(g *model.Graph) []UnresolvedLink {
	var out []UnresolvedLink
	for _, id := range g.NodeIDs() {
		for _, edge := range g.Node(id).OutgoingEdges {
			if !g.HasNode(edge.TargetID) {
				out = append(out, UnresolvedLink{
					SourceID: id,
					Target:   edge.TargetID,
					Label:    edge.Label,
				})
			}
		}
	}
	return out
}

// FindOrphanNodes lists nodes with no resolved edges in either direction.
func FindOrphanNodes(g *model.Graph) []model.NodeID {
	hasLink := make(map[model.NodeID]bool)
	for _, id := range g.NodeIDs() {
		for _, edge := range g.Node(id).OutgoingEdges {
			if g.HasNode(edge.TargetID) {
				hasLink[id] = true
				hasLink[edge.TargetID] = true
			}
		}
	}

	var orphans []model.NodeID
	for _, id := range g.NodeIDs() {
		if !hasLink[id] {
			orphans = append(orphans, id)
		}
	}
	return orphans
}

// BuildReport computes the full health report for a snapshot.
func BuildReport(g *model.Graph) *Report {
	report := &Report{
		Nodes:      len(g.Nodes),
		Unresolved: FindUnresolvedLinks(g),
		Orphans:    FindOrphanNodes(g),
	}
	for _, id := range g.NodeIDs() {
		report.Edges += len(g.Node(id).OutgoingEdges)
	}
	report.Resolved = report.Edges - len(report.Unresolved)
	return report
}

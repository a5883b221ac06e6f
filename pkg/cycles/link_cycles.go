// Package cycles detects reference loops between notes: strongly connected
// components of the resolved link graph.
package cycles

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"vaultgraph/pkg/model"
)

// LinkCycle is a group of notes that reach each other through their links.
type LinkCycle struct {
	Nodes []model.NodeID `json:"nodes"`
}

// FindLinkCycles returns every cycle of two or more notes, deterministic in
// both member order and cycle order. Unresolved edges never participate.
func FindLinkCycles(g *model.Graph) []LinkCycle {
	ids := g.NodeIDs()
	index := make(map[model.NodeID]int64, len(ids))
	dg := simple.NewDirectedGraph()
	for i, id := range ids {
		index[id] = int64(i)
		dg.AddNode(simple.Node(int64(i)))
	}

	for i, id := range ids {
		for _, edge := range g.Node(id).OutgoingEdges {
			j, ok := index[edge.TargetID]
			if !ok || j == int64(i) {
				continue
			}
			if !dg.HasEdgeFromTo(int64(i), j) {
				dg.SetEdge(dg.NewEdge(simple.Node(int64(i)), simple.Node(j)))
			}
		}
	}

	var cycles []LinkCycle
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < 2 {
			continue
		}
		members := make([]model.NodeID, 0, len(scc))
		for _, n := range scc {
			members = append(members, ids[n.ID()])
		}
		sort.Strings(members)
		cycles = append(cycles, LinkCycle{Nodes: members})
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Nodes[0] < cycles[j].Nodes[0]
	})
	return cycles
}

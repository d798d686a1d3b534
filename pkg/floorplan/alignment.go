package floorplan

import (
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// alignmentGroups assigns every partnered block a group id. Groups are the
// connected components of the partner graph, numbered from 0 in the order
// their first block appears in the partner list.
type alignmentGroups struct {
	byBlock map[int]int
	count   int
}

func groupPartners(pairs []PartnerPair) *alignmentGroups {
	g := simple.NewUndirectedGraph()
	rank := make(map[int64]int)
	see := func(i int) {
		if _, ok := rank[int64(i)]; !ok {
			rank[int64(i)] = len(rank)
		}
	}
	for _, p := range pairs {
		see(p.Blk0)
		see(p.Blk1)
		g.SetEdge(g.NewEdge(simple.Node(p.Blk0), simple.Node(p.Blk1)))
	}

	components := topo.ConnectedComponents(g)
	first := make([]int, len(components))
	for i, comp := range components {
		first[i] = len(rank)
		for _, n := range comp {
			first[i] = min(first[i], rank[n.ID()])
		}
	}
	order := make([]int, len(components))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int { return first[a] - first[b] })

	out := &alignmentGroups{byBlock: make(map[int]int, len(rank)), count: len(components)}
	for id, ci := range order {
		for _, n := range components[ci] {
			out.byBlock[int(n.ID())] = id
		}
	}
	return out
}

package analyzer

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// ToDirected projects g onto a gonum directed graph whose node ids are block
// ids. Parallel edges collapse into one and self loops are dropped, which
// changes neither reachability nor dominance. With reachableOnly set, dead
// blocks are left out.
func ToDirected(g *CFG, reachableOnly bool) *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	if g == nil {
		return dg
	}

	include := func(b *Block) bool {
		return !reachableOnly || g.IsReachable(b)
	}

	for _, b := range g.blocks {
		if include(b) {
			dg.AddNode(simple.Node(b.id))
		}
	}
	for _, e := range g.edges {
		if e.from == e.to || !include(e.from) || !include(e.to) {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(e.from.id), simple.Node(e.to.id)))
	}
	return dg
}

// blockOf maps a gonum node of a ToDirected projection back to its block
func (g *CFG) blockOf(n graph.Node) *Block {
	if n == nil {
		return nil
	}
	b, ok := g.Block(int(n.ID()))
	if !ok {
		return nil
	}
	return b
}

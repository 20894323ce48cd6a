package analyzer

import (
	"slices"

	"gonum.org/v1/gonum/graph/flow"
	"gonum.org/v1/gonum/graph/simple"
)

// DominatorInfo answers dominance queries over the reachable part of a CFG
type DominatorInfo struct {
	cfg  *CFG
	tree flow.DominatorTree
}

// Dominators computes the dominator tree of g rooted at its entry sentinel.
// Dead blocks have no dominator and dominate nothing.
func Dominators(g *CFG) *DominatorInfo {
	dg := ToDirected(g, true)
	return &DominatorInfo{
		cfg:  g,
		tree: flow.Dominators(simple.Node(g.entry.id), dg),
	}
}

// ImmediateDominator returns the closest strict dominator of b, or nil for
// the entry and for dead blocks
func (d *DominatorInfo) ImmediateDominator(b *Block) *Block {
	if !d.cfg.IsReachable(b) || b == d.cfg.entry {
		return nil
	}
	return d.cfg.blockOf(d.tree.DominatorOf(int64(b.id)))
}

// Dominated returns the blocks whose immediate dominator is b
func (d *DominatorInfo) Dominated(b *Block) []*Block {
	if !d.cfg.IsReachable(b) {
		return nil
	}
	var out []*Block
	for _, n := range d.tree.DominatedBy(int64(b.id)) {
		if blk := d.cfg.blockOf(n); blk != nil {
			out = append(out, blk)
		}
	}
	slices.SortFunc(out, func(x, y *Block) int { return x.id - y.id })
	return out
}

// Dominates reports whether every path from the entry to b passes through a.
// A block dominates itself.
func (d *DominatorInfo) Dominates(a, b *Block) bool {
	if !d.cfg.IsReachable(a) || !d.cfg.IsReachable(b) {
		return false
	}
	for cur := b; cur != nil; cur = d.ImmediateDominator(cur) {
		if cur == a {
			return true
		}
	}
	return false
}

// GuardConditions returns the branching blocks that strictly dominate b,
// outermost first. Every condition among them has been evaluated on any
// path that reaches b.
func (d *DominatorInfo) GuardConditions(b *Block) []*Block {
	var guards []*Block
	for cur := d.ImmediateDominator(b); cur != nil; cur = d.ImmediateDominator(cur) {
		if isBranching(cur) {
			guards = append(guards, cur)
		}
	}
	slices.Reverse(guards)
	return guards
}

// BackEdges returns the edges whose target dominates their source, that is
// the edges closing a natural loop
func (d *DominatorInfo) BackEdges() []*Edge {
	var back []*Edge
	for _, e := range d.cfg.edges {
		if d.Dominates(e.to, e.from) {
			back = append(back, e)
		}
	}
	return back
}

// LoopCount returns the number of distinct loop headers
func (d *DominatorInfo) LoopCount() int {
	headers := make(map[int]struct{})
	for _, e := range d.BackEdges() {
		headers[e.to.id] = struct{}{}
	}
	return len(headers)
}

func isBranching(b *Block) bool {
	if len(b.succs) < 2 {
		return false
	}
	first := b.succs[0].to
	for _, e := range b.succs[1:] {
		if e.to != first {
			return true
		}
	}
	return false
}

package analyzer

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/ludo-technologies/ccfg/internal/parser"
)

// EdgeKind classifies a control transfer between two blocks
type EdgeKind int

const (
	EdgeUnconditional EdgeKind = iota
	EdgeTrueBranch
	EdgeFalseBranch
	EdgeFallthrough
	EdgeCaseMatch
	EdgeDefaultMatch
)

// String returns the edge kind name used in exports
func (k EdgeKind) String() string {
	switch k {
	case EdgeUnconditional:
		return "Unconditional"
	case EdgeTrueBranch:
		return "TrueBranch"
	case EdgeFalseBranch:
		return "FalseBranch"
	case EdgeFallthrough:
		return "Fallthrough"
	case EdgeCaseMatch:
		return "CaseMatch"
	case EdgeDefaultMatch:
		return "DefaultMatch"
	default:
		return "Unknown"
	}
}

// ParseEdgeKind is the inverse of EdgeKind.String
func ParseEdgeKind(s string) (EdgeKind, error) {
	for k := EdgeUnconditional; k <= EdgeDefaultMatch; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown edge kind %q", s)
}

// Block label constants
const (
	LabelEntry         = "entry"
	LabelExit          = "exit"
	LabelFunctionBody  = "func_body"
	LabelUnreachable   = "unreachable"
	LabelIfThen        = "if_then"
	LabelIfElse        = "if_else"
	LabelIfMerge       = "if_merge"
	LabelLoopHeader    = "loop_header"
	LabelLoopBody      = "loop_body"
	LabelLoopCondition = "loop_cond"
	LabelLoopStep      = "loop_step"
	LabelLoopExit      = "loop_exit"
	LabelSwitchCase    = "switch_case"
	LabelSwitchDefault = "switch_default"
	LabelSwitchExit    = "switch_exit"
)

// Block is a basic block: a straight-line run of statements with a single
// entry point. A branching block carries its controlling expression last.
type Block struct {
	id    int
	label string
	stmts []*parser.Node
	succs []*Edge
	preds []*Edge
	dead  bool
	cause DeadCodeReason
	owner *CFG
}

// ID returns the block identifier, unique within its CFG
func (b *Block) ID() int { return b.id }

// Name returns the display name of the block, e.g. "B4"
func (b *Block) Name() string { return fmt.Sprintf("B%d", b.id) }

// Label describes the role the block plays in its construct
func (b *Block) Label() string { return b.label }

// Len returns the number of statements in the block
func (b *Block) Len() int { return len(b.stmts) }

// IsEmpty reports whether the block holds no statements
func (b *Block) IsEmpty() bool { return len(b.stmts) == 0 }

// Statements returns a copy of the block's statements in execution order
func (b *Block) Statements() []*parser.Node { return slices.Clone(b.stmts) }

// IsEntry reports whether the block is the entry sentinel
func (b *Block) IsEntry() bool { return b.owner != nil && b.owner.entry == b }

// IsExit reports whether the block is the exit sentinel
func (b *Block) IsExit() bool { return b.owner != nil && b.owner.exit == b }

// IsDead reports whether the reachability pass tagged the block unreachable
func (b *Block) IsDead() bool { return b.dead }

// String returns a short description of the block
func (b *Block) String() string {
	return fmt.Sprintf("%s[%s] (%d stmts)", b.Name(), b.label, len(b.stmts))
}

// Edge is a directed control transfer between two blocks of the same CFG
type Edge struct {
	from  *Block
	to    *Block
	kind  EdgeKind
	value string
}

// From returns the source block
func (e *Edge) From() *Block { return e.from }

// To returns the target block
func (e *Edge) To() *Block { return e.to }

// Kind returns the edge kind
func (e *Edge) Kind() EdgeKind { return e.kind }

// Value returns the case label of a CaseMatch edge
func (e *Edge) Value() string { return e.value }

// Label renders the edge kind, including the case value for CaseMatch
func (e *Edge) Label() string {
	if e.kind == EdgeCaseMatch {
		return fmt.Sprintf("CaseMatch(%s)", e.value)
	}
	return e.kind.String()
}

// String renders the edge as `source -> target [kind]`
func (e *Edge) String() string {
	return fmt.Sprintf("%s -> %s [%s]", e.from.Name(), e.to.Name(), e.Label())
}

// CFG is the control-flow graph of one function. A CFG returned by
// CFGBuilder is immutable and safe for concurrent readers.
type CFG struct {
	name        string
	function    *parser.Node
	entry       *Block
	exit        *Block
	blocks      []*Block
	edges       []*Edge
	reachable   *bitset.BitSet
	rpo         []*Block
	diagnostics []*UnreachableCodeDiagnostic
}

func newCFG(name string, fn *parser.Node) *CFG {
	g := &CFG{name: name, function: fn}
	g.entry = g.newBlock(LabelEntry)
	g.exit = g.newBlock(LabelExit)
	return g
}

func (g *CFG) newBlock(label string) *Block {
	b := &Block{id: len(g.blocks), label: label, owner: g}
	g.blocks = append(g.blocks, b)
	return b
}

func (g *CFG) connect(from, to *Block, kind EdgeKind, value string) *Edge {
	e := &Edge{from: from, to: to, kind: kind, value: value}
	from.succs = append(from.succs, e)
	to.preds = append(to.preds, e)
	g.edges = append(g.edges, e)
	return e
}

func (b *Block) append(stmt *parser.Node) {
	if stmt != nil {
		b.stmts = append(b.stmts, stmt)
	}
}

// seal runs the reachability pass from the entry, records the reverse
// postorder and tags every unreached block dead. No mutation happens after.
func (g *CFG) seal() {
	g.reachable = bitset.New(uint(len(g.blocks)))

	type frame struct {
		block *Block
		next  int
	}
	postorder := make([]*Block, 0, len(g.blocks))
	stack := []frame{{block: g.entry}}
	g.reachable.Set(uint(g.entry.id))

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.block.succs) {
			succ := top.block.succs[top.next].to
			top.next++
			if !g.reachable.Test(uint(succ.id)) {
				g.reachable.Set(uint(succ.id))
				stack = append(stack, frame{block: succ})
			}
			continue
		}
		postorder = append(postorder, top.block)
		stack = stack[:len(stack)-1]
	}

	slices.Reverse(postorder)
	g.rpo = postorder

	for _, b := range g.blocks {
		if g.reachable.Test(uint(b.id)) {
			continue
		}
		b.dead = true
		if !b.IsEmpty() {
			g.diagnostics = append(g.diagnostics, newUnreachableDiagnostic(g, b))
		}
	}
}

// Name returns the function name
func (g *CFG) Name() string { return g.name }

// Function returns the statement tree the graph was built from
func (g *CFG) Function() *parser.Node { return g.function }

// Entry returns the entry sentinel
func (g *CFG) Entry() *Block { return g.entry }

// Exit returns the exit sentinel
func (g *CFG) Exit() *Block { return g.exit }

// Size returns the number of blocks, sentinels included
func (g *CFG) Size() int { return len(g.blocks) }

// Blocks returns every block ordered by id
func (g *CFG) Blocks() []*Block { return slices.Clone(g.blocks) }

// Block looks up a block by id
func (g *CFG) Block(id int) (*Block, bool) {
	if id < 0 || id >= len(g.blocks) {
		return nil, false
	}
	return g.blocks[id], true
}

// Edges returns every edge in creation order
func (g *CFG) Edges() []*Edge { return slices.Clone(g.edges) }

// OutEdges returns the outgoing edges of b
func (g *CFG) OutEdges(b *Block) []*Edge {
	if !g.owns(b) {
		return nil
	}
	return slices.Clone(b.succs)
}

// InEdges returns the incoming edges of b
func (g *CFG) InEdges(b *Block) []*Edge {
	if !g.owns(b) {
		return nil
	}
	return slices.Clone(b.preds)
}

// Successors returns the target of every outgoing edge of b, in edge order
func (g *CFG) Successors(b *Block) []*Block {
	if !g.owns(b) {
		return nil
	}
	out := make([]*Block, 0, len(b.succs))
	for _, e := range b.succs {
		out = append(out, e.to)
	}
	return out
}

// Predecessors returns the source of every incoming edge of b, in edge order
func (g *CFG) Predecessors(b *Block) []*Block {
	if !g.owns(b) {
		return nil
	}
	out := make([]*Block, 0, len(b.preds))
	for _, e := range b.preds {
		out = append(out, e.from)
	}
	return out
}

// IsReachable reports whether b can be reached from the entry sentinel
func (g *CFG) IsReachable(b *Block) bool {
	return g.owns(b) && g.reachable.Test(uint(b.id))
}

// ReachableCount returns the number of blocks reachable from the entry
func (g *CFG) ReachableCount() int { return int(g.reachable.Count()) }

// ReversePostorder yields the reachable blocks in reverse postorder of a
// depth-first search from the entry. Each range restarts the sequence.
func (g *CFG) ReversePostorder() iter.Seq[*Block] {
	return func(yield func(*Block) bool) {
		for _, b := range g.rpo {
			if !yield(b) {
				return
			}
		}
	}
}

// Traverse yields every block exactly once: the reverse postorder of the
// reachable blocks followed by the dead blocks in id order.
func (g *CFG) Traverse() iter.Seq[*Block] {
	return func(yield func(*Block) bool) {
		for b := range g.ReversePostorder() {
			if !yield(b) {
				return
			}
		}
		for _, b := range g.blocks {
			if b.dead && !yield(b) {
				return
			}
		}
	}
}

// Diagnostics returns one diagnostic per unreachable block that holds code
func (g *CFG) Diagnostics() []*UnreachableCodeDiagnostic {
	return slices.Clone(g.diagnostics)
}

// String renders the textual export of the graph
func (g *CFG) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CFG %s (%d blocks, %d edges)\n", g.name, len(g.blocks), len(g.edges))
	for _, b := range g.blocks {
		fmt.Fprintf(&sb, "%s\n", b)
	}
	for _, e := range g.edges {
		fmt.Fprintf(&sb, "%s\n", e)
	}
	return sb.String()
}

func (g *CFG) owns(b *Block) bool {
	return b != nil && b.owner == g
}

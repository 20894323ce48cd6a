package analyzer

import (
	"github.com/ludo-technologies/ccfg/internal/parser"
)

// buildSequence lays an ordered statement list out into basic blocks.
// Straight-line statements extend the current block; constructs and jumps
// end it. A statement following a jump is a leader with no predecessor, so
// it opens a fresh block that the reachability pass later tags dead.
func (b *CFGBuilder) buildSequence(stmts []*parser.Node) error {
	for _, stmt := range stmts {
		if stmt == nil {
			continue
		}
		if b.current == nil {
			b.current = b.cfg.newBlock(LabelUnreachable)
			b.current.cause = b.lastJump
		}
		if err := b.processStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// startBlock returns the block a new jump target should live in. An empty
// current block is a leader with nothing after it yet, so it is reused
// rather than chained to another empty block. Otherwise a new block is
// opened and the current one flows into it.
func (b *CFGBuilder) startBlock(label string) *Block {
	cur := b.current
	if cur != nil && cur.IsEmpty() && cur != b.cfg.entry && len(cur.succs) == 0 {
		cur.label = label
		return cur
	}

	next := b.cfg.newBlock(label)
	if cur != nil {
		b.cfg.connect(cur, next, EdgeUnconditional, "")
	}
	return next
}

// jump ends the current block with stmt and an unconditional edge to target
func (b *CFGBuilder) jump(stmt *parser.Node, target *Block, reason DeadCodeReason) {
	b.current.append(stmt)
	b.cfg.connect(b.current, target, EdgeUnconditional, "")
	b.current = nil
	b.lastJump = reason
}

// flowInto connects the current block to target when control can fall off
// its end
func (b *CFGBuilder) flowInto(target *Block, kind EdgeKind) {
	if b.current != nil {
		b.cfg.connect(b.current, target, kind, "")
	}
}

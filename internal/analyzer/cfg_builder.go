package analyzer

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ludo-technologies/ccfg/internal/parser"
)

// CFGBuilder builds the control-flow graph of one function at a time. A
// builder is not safe for concurrent use; BuildAll gives each goroutine its
// own.
type CFGBuilder struct {
	cfg      *CFG
	current  *Block
	scopes   *ScopeStack
	lastJump DeadCodeReason
	logger   *zap.Logger
}

// NewCFGBuilder creates a new CFG builder
func NewCFGBuilder() *CFGBuilder {
	return &CFGBuilder{
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger used for construction tracing
func (b *CFGBuilder) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b.logger = logger
}

// Build constructs the CFG of a function node. On a StructuralError or
// MalformedSwitchError no graph is returned.
func (b *CFGBuilder) Build(fn *parser.Node) (*CFG, error) {
	if fn == nil {
		return nil, fmt.Errorf("cannot build CFG from nil node")
	}

	name := fn.Name
	if name == "" {
		name = fmt.Sprintf("anonymous_%d", fn.Location.StartLine)
	}

	b.cfg = newCFG(name, fn)
	b.scopes = NewScopeStack()
	b.lastJump = ""

	body := b.cfg.newBlock(LabelFunctionBody)
	b.cfg.connect(b.cfg.entry, body, EdgeUnconditional, "")
	b.current = body

	stmts := fn.Body
	if fn.Type != parser.NodeFunction {
		stmts = []*parser.Node{fn}
	}
	if err := b.buildSequence(stmts); err != nil {
		b.logger.Debug("cfg construction aborted",
			zap.String("function", name), zap.Error(err))
		b.cfg = nil
		return nil, err
	}
	b.flowInto(b.cfg.exit, EdgeUnconditional)

	g := b.cfg
	g.seal()
	b.cfg, b.current = nil, nil

	b.logger.Debug("cfg built",
		zap.String("function", name),
		zap.Int("blocks", g.Size()),
		zap.Int("edges", len(g.edges)),
		zap.Int("unreachable", len(g.diagnostics)))

	return g, nil
}

// processStatement dispatches one statement by kind
func (b *CFGBuilder) processStatement(node *parser.Node) error {
	switch node.Type {
	case parser.NodeIf:
		return b.buildIf(node)
	case parser.NodeWhile:
		return b.buildWhile(node)
	case parser.NodeDoWhile:
		return b.buildDoWhile(node)
	case parser.NodeFor:
		return b.buildFor(node)
	case parser.NodeSwitch:
		return b.buildSwitch(node)
	case parser.NodeBreak:
		target, err := b.scopes.ResolveBreak()
		if err != nil {
			return b.structuralError(node, err)
		}
		b.jump(node, target, ReasonUnreachableAfterBreak)
	case parser.NodeContinue:
		target, err := b.scopes.ResolveContinue()
		if err != nil {
			return b.structuralError(node, err)
		}
		b.jump(node, target, ReasonUnreachableAfterContinue)
	case parser.NodeReturn:
		b.jump(node, b.cfg.exit, ReasonUnreachableAfterReturn)
	case parser.NodeBlock, parser.NodeLabeled, parser.NodeCase, parser.NodeDefault:
		return b.buildSequence(node.Body)
	case parser.NodeExpressionStatement, parser.NodeDeclaration, parser.NodeGoto,
		parser.NodeExpression, parser.NodeLeaf, parser.NodeFunction, parser.NodeTranslationUnit:
		b.current.append(node)
	default:
		b.current.append(node)
	}
	return nil
}

// buildBranch lays out a nested statement starting in block start and
// returns the block control falls out of, or nil
func (b *CFGBuilder) buildBranch(start *Block, stmt *parser.Node) (*Block, error) {
	b.current = start
	if stmt != nil {
		if err := b.buildSequence([]*parser.Node{stmt}); err != nil {
			return nil, err
		}
	}
	return b.current, nil
}

func (b *CFGBuilder) buildIf(node *parser.Node) error {
	cond := b.current
	cond.append(node.Test)

	thenBlock := b.cfg.newBlock(LabelIfThen)
	b.cfg.connect(cond, thenBlock, EdgeTrueBranch, "")

	var elseBlock *Block
	merge := b.cfg.newBlock(LabelIfMerge)
	if node.Alternate != nil {
		elseBlock = b.cfg.newBlock(LabelIfElse)
		b.cfg.connect(cond, elseBlock, EdgeFalseBranch, "")
	} else {
		b.cfg.connect(cond, merge, EdgeFalseBranch, "")
	}

	if _, err := b.buildBranch(thenBlock, node.Consequent); err != nil {
		return err
	}
	b.flowInto(merge, EdgeUnconditional)

	if elseBlock != nil {
		if _, err := b.buildBranch(elseBlock, node.Alternate); err != nil {
			return err
		}
		b.flowInto(merge, EdgeUnconditional)
	}

	// both arms jumped away, so whatever follows is dead for the same reason
	if len(merge.preds) == 0 {
		merge.cause = b.lastJump
	}
	b.current = merge
	return nil
}

func (b *CFGBuilder) buildWhile(node *parser.Node) error {
	header := b.startBlock(LabelLoopHeader)
	header.append(node.Test)

	body := b.cfg.newBlock(LabelLoopBody)
	exit := b.cfg.newBlock(LabelLoopExit)
	b.branchOnTest(header, node.Test, body, exit)

	b.pushScope(ScopeContext{Kind: ScopeLoop, Continue: header, Break: exit, Node: node})
	defer b.popScope()

	if _, err := b.buildBranch(body, loopBody(node)); err != nil {
		return err
	}
	b.flowInto(header, EdgeUnconditional)

	b.current = exit
	return nil
}

func (b *CFGBuilder) buildDoWhile(node *parser.Node) error {
	body := b.startBlock(LabelLoopBody)
	cond := b.cfg.newBlock(LabelLoopCondition)
	exit := b.cfg.newBlock(LabelLoopExit)

	b.pushScope(ScopeContext{Kind: ScopeLoop, Continue: cond, Break: exit, Node: node})
	defer b.popScope()

	if _, err := b.buildBranch(body, loopBody(node)); err != nil {
		return err
	}
	b.flowInto(cond, EdgeUnconditional)

	cond.append(node.Test)
	b.branchOnTest(cond, node.Test, body, exit)

	b.current = exit
	return nil
}

func (b *CFGBuilder) buildFor(node *parser.Node) error {
	b.current.append(node.Init)

	header := b.startBlock(LabelLoopHeader)
	header.append(node.Test)

	body := b.cfg.newBlock(LabelLoopBody)
	step := b.cfg.newBlock(LabelLoopStep)
	exit := b.cfg.newBlock(LabelLoopExit)
	b.branchOnTest(header, node.Test, body, exit)

	step.append(node.Update)
	b.cfg.connect(step, header, EdgeUnconditional, "")

	b.pushScope(ScopeContext{Kind: ScopeLoop, Continue: step, Break: exit, Node: node})
	defer b.popScope()

	if _, err := b.buildBranch(body, loopBody(node)); err != nil {
		return err
	}
	b.flowInto(step, EdgeUnconditional)

	b.current = exit
	return nil
}

// branchOnTest wires a loop test. A loop without a test always enters its
// body; its exit is then reached only through break.
func (b *CFGBuilder) branchOnTest(test *Block, expr *parser.Node, body, exit *Block) {
	if expr == nil {
		b.cfg.connect(test, body, EdgeUnconditional, "")
		return
	}
	b.cfg.connect(test, body, EdgeTrueBranch, "")
	b.cfg.connect(test, exit, EdgeFalseBranch, "")
}

func (b *CFGBuilder) buildSwitch(node *parser.Node) error {
	if err := b.checkSwitchLabels(node); err != nil {
		return err
	}

	selector := b.current
	selector.append(node.Test)
	exit := b.cfg.newBlock(LabelSwitchExit)

	clauses := make([]*Block, len(node.Cases))
	hasDefault := false
	for i, clause := range node.Cases {
		if clause.Type == parser.NodeDefault {
			clauses[i] = b.cfg.newBlock(LabelSwitchDefault)
			b.cfg.connect(selector, clauses[i], EdgeDefaultMatch, "")
			hasDefault = true
			continue
		}
		clauses[i] = b.cfg.newBlock(LabelSwitchCase)
		b.cfg.connect(selector, clauses[i], EdgeCaseMatch, clause.Value)
	}
	if !hasDefault {
		b.cfg.connect(selector, exit, EdgeDefaultMatch, "")
	}

	b.pushScope(ScopeContext{Kind: ScopeSwitch, Break: exit, Node: node})
	defer b.popScope()

	// Statements ahead of the first label can only be entered by a jump.
	b.current = nil
	if len(node.Body) > 0 {
		b.current = b.cfg.newBlock(LabelUnreachable)
		b.current.cause = ReasonUnlabeledSwitchCode
		if err := b.buildSequence(node.Body); err != nil {
			return err
		}
	}

	for i, clause := range node.Cases {
		b.flowInto(clauses[i], EdgeFallthrough)
		b.current = clauses[i]
		if err := b.buildSequence(clause.Body); err != nil {
			return err
		}
	}
	b.flowInto(exit, EdgeUnconditional)

	b.current = exit
	return nil
}

// checkSwitchLabels rejects duplicate case values and repeated defaults
func (b *CFGBuilder) checkSwitchLabels(node *parser.Node) error {
	seen := make(map[string]*parser.Node, len(node.Cases))
	for _, clause := range node.Cases {
		key, label := "default", "default"
		if clause.Type == parser.NodeCase {
			key, label = caseKey(clause.Value), clause.Value
		}
		if first, dup := seen[key]; dup {
			return &MalformedSwitchError{
				Function: b.cfg.name,
				Value:    label,
				First:    first.Location,
				Location: clause.Location,
			}
		}
		seen[key] = clause
	}
	return nil
}

// caseKey normalizes a case label so that equal constants compare equal:
// integer literals in any base and character literals by value, anything
// else by its whitespace-free text
func caseKey(value string) string {
	v := strings.TrimSpace(value)

	if n, err := strconv.ParseInt(strings.TrimRight(v, "uUlL"), 0, 64); err == nil {
		return "int:" + strconv.FormatInt(n, 10)
	}
	if len(v) >= 3 && v[0] == '\'' && v[len(v)-1] == '\'' {
		if r, _, tail, err := strconv.UnquoteChar(v[1:len(v)-1], '\''); err == nil && tail == "" {
			return "int:" + strconv.Itoa(int(r))
		}
	}
	return "expr:" + strings.Join(strings.Fields(v), "")
}

func loopBody(node *parser.Node) *parser.Node {
	if len(node.Body) == 0 {
		return nil
	}
	return node.Body[0]
}

func (b *CFGBuilder) pushScope(ctx ScopeContext) {
	b.scopes.Push(ctx)
}

func (b *CFGBuilder) popScope() {
	if _, err := b.scopes.Pop(); err != nil {
		b.logger.Warn("unbalanced scope stack", zap.Error(err))
	}
}

func (b *CFGBuilder) structuralError(node *parser.Node, err error) error {
	return &StructuralError{
		Function:  b.cfg.name,
		Statement: node.Type,
		Location:  node.Location,
		Err:       err,
	}
}

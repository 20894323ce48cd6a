package analyzer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ludo-technologies/ccfg/internal/parser"
	"github.com/ludo-technologies/ccfg/internal/testutil"
)

// buildGraph parses source and builds the graph of the named function
func buildGraph(t *testing.T, source, name string) *CFG {
	t.Helper()
	fn := testutil.ParseFunction(t, source, name)
	g, err := NewCFGBuilder().Build(fn)
	require.NoError(t, err)
	require.NotNil(t, g)
	return g
}

// blockWith returns the block holding a statement with the given text
func blockWith(t *testing.T, g *CFG, text string) *Block {
	t.Helper()
	for _, b := range g.blocks {
		for _, s := range b.stmts {
			if s.Text() == text {
				return b
			}
		}
	}
	t.Fatalf("no block holds %q\n%s", text, g)
	return nil
}

func edgeBetween(g *CFG, from, to *Block) *Edge {
	for _, e := range g.OutEdges(from) {
		if e.To() == to {
			return e
		}
	}
	return nil
}

func texts(b *Block) []string {
	var out []string
	for _, s := range b.stmts {
		out = append(out, s.Text())
	}
	return out
}

func TestNewCFGBuilder(t *testing.T) {
	builder := NewCFGBuilder()
	require.NotNil(t, builder)
	assert.NotNil(t, builder.logger)
	assert.Nil(t, builder.cfg)
}

func TestCFGBuilder_SetLogger(t *testing.T) {
	builder := NewCFGBuilder()
	logger := zap.NewExample()

	builder.SetLogger(logger)
	assert.Same(t, logger, builder.logger)

	builder.SetLogger(nil)
	assert.NotNil(t, builder.logger)
}

func TestCFGBuilder_Build_NilNode(t *testing.T) {
	g, err := NewCFGBuilder().Build(nil)
	assert.Error(t, err)
	assert.Nil(t, g)
}

func TestCFGBuilder_EmptyFunction(t *testing.T) {
	g := buildGraph(t, "void f(void) {}", "f")

	assert.Equal(t, "f", g.Name())
	assert.Equal(t, 3, g.Size())
	assert.Equal(t, []*Block{g.Blocks()[2]}, g.Successors(g.Entry()))
	assert.Equal(t, []*Block{g.Exit()}, g.Successors(g.Blocks()[2]))
	assert.Empty(t, g.Diagnostics())
}

func TestCFGBuilder_StraightLine(t *testing.T) {
	g := buildGraph(t, `int f(int a) { int b = a + 1; b = b * 2; return b; }`, "f")

	body := blockWith(t, g, "return b;")
	assert.Equal(t, []string{"int b = a + 1;", "b = b * 2;", "return b;"}, texts(body))
	assert.Equal(t, LabelFunctionBody, body.Label())
	assert.Equal(t, []*Block{g.Exit()}, g.Successors(body))
}

func TestCFGBuilder_IfElse(t *testing.T) {
	g := buildGraph(t, `int f(int a) {
    int r;
    if (a > 0) {
        r = 1;
    } else {
        r = 2;
    }
    return r;
}`, "f")

	cond := blockWith(t, g, "a > 0")
	then := blockWith(t, g, "r = 1;")
	els := blockWith(t, g, "r = 2;")
	merge := blockWith(t, g, "return r;")

	assert.Equal(t, []string{"int r;", "a > 0"}, texts(cond))
	assert.Equal(t, EdgeTrueBranch, edgeBetween(g, cond, then).Kind())
	assert.Equal(t, EdgeFalseBranch, edgeBetween(g, cond, els).Kind())
	assert.Equal(t, []*Block{merge}, g.Successors(then))
	assert.Equal(t, []*Block{merge}, g.Successors(els))
	assert.Equal(t, LabelIfMerge, merge.Label())
}

func TestCFGBuilder_IfWithoutElse(t *testing.T) {
	g := buildGraph(t, `void f(int a) { if (a) a = 0; a++; }`, "f")

	cond := blockWith(t, g, "a")
	merge := blockWith(t, g, "a++;")
	assert.Equal(t, EdgeFalseBranch, edgeBetween(g, cond, merge).Kind())
	assert.Len(t, g.Successors(cond), 2)
}

func TestCFGBuilder_While(t *testing.T) {
	g := buildGraph(t, `void f(int x) { while (x < 10) { x++; } x = 0; }`, "f")

	header := blockWith(t, g, "x < 10")
	body := blockWith(t, g, "x++;")
	exit := blockWith(t, g, "x = 0;")

	assert.Equal(t, LabelLoopHeader, header.Label())
	assert.Equal(t, EdgeTrueBranch, edgeBetween(g, header, body).Kind())
	assert.Equal(t, EdgeFalseBranch, edgeBetween(g, header, exit).Kind())
	assert.Equal(t, []*Block{header}, g.Successors(body))
}

func TestCFGBuilder_ForWithoutCondition(t *testing.T) {
	g := buildGraph(t, `void f(void) { for (;;) { work(); } }`, "f")

	body := blockWith(t, g, "work();")
	header := g.Predecessors(body)[0]
	assert.Equal(t, LabelLoopHeader, header.Label())
	assert.Equal(t, EdgeUnconditional, edgeBetween(g, header, body).Kind())
	assert.False(t, g.IsReachable(g.Exit()), "an infinite loop never reaches the exit")
}

func TestCFGBuilder_BreakAndContinueInNestedLoops(t *testing.T) {
	g := buildGraph(t, `void f(int n) {
    while (n > 0) {
        for (int i = 0; i < n; i++) {
            if (i == 3) break;
            if (i == 1) continue;
            n--;
        }
        n -= 2;
    }
}`, "f")

	brk := blockWith(t, g, "break;")
	cont := blockWith(t, g, "continue;")
	step := blockWith(t, g, "i++")
	innerExit := blockWith(t, g, "n -= 2;")

	assert.Equal(t, []*Block{innerExit}, g.Successors(brk))
	assert.Equal(t, []*Block{step}, g.Successors(cont))
}

func TestCFGBuilder_ContinueInsideSwitchTargetsLoop(t *testing.T) {
	g := buildGraph(t, `void f(int x) {
    while (x) {
        switch (x) {
        case 1:
            continue;
        default:
            x--;
        }
    }
}`, "f")

	header := blockWith(t, g, "x")
	cont := blockWith(t, g, "continue;")
	assert.Equal(t, []*Block{header}, g.Successors(cont))
}

func TestCFGBuilder_GotoAndLabels(t *testing.T) {
	g := buildGraph(t, `void f(int x) {
again:
    x--;
    if (x) goto again;
}`, "f")

	assert.Equal(t, []string{"x--;", "x"}, texts(blockWith(t, g, "x--;")))
	jump := blockWith(t, g, "goto again;")
	assert.Equal(t, LabelIfThen, jump.Label())
}

// continue in a for loop runs the step before the next test
func TestCFGBuilder_ContinueTargetsStep(t *testing.T) {
	g := buildGraph(t, testutil.FixtureProgram, "main")

	cont := blockWith(t, g, "continue;")
	step := blockWith(t, g, "i++")
	header := blockWith(t, g, "i < 5")
	accumulate := blockWith(t, g, "x += i;")

	assert.Equal(t, LabelLoopStep, step.Label())
	assert.Equal(t, []*Block{step}, g.Successors(cont))
	assert.NotContains(t, g.Successors(cont), accumulate)
	assert.Equal(t, []*Block{step}, g.Successors(accumulate))
	assert.Equal(t, []*Block{header}, g.Successors(step))
}

func TestCFGBuilder_DoWhile(t *testing.T) {
	g := buildGraph(t, testutil.FixtureProgram, "main")

	body := blockWith(t, g, "x--;")
	cond := blockWith(t, g, "x > 5")
	exit := blockWith(t, g, "x")

	assert.Equal(t, LabelLoopBody, body.Label())
	assert.Equal(t, LabelLoopCondition, cond.Label())
	assert.Equal(t, []*Block{cond}, g.Successors(body))
	assert.Equal(t, EdgeTrueBranch, edgeBetween(g, cond, body).Kind())
	assert.Equal(t, EdgeFalseBranch, edgeBetween(g, cond, exit).Kind())
}

func TestCFGBuilder_SwitchFallthrough(t *testing.T) {
	g := buildGraph(t, testutil.FixtureProgram, "main")

	selector := blockWith(t, g, "x")
	case1 := blockWith(t, g, "x = 10;")
	case2 := blockWith(t, g, "x = 20;")
	case3 := blockWith(t, g, "x += 5;")
	dflt := blockWith(t, g, "x = 0;")
	exit := blockWith(t, g, "return x;")

	out := g.OutEdges(selector)
	require.Len(t, out, 4)
	assert.Equal(t, "CaseMatch(1)", out[0].Label())
	assert.Equal(t, case1, out[0].To())
	assert.Equal(t, "CaseMatch(2)", out[1].Label())
	assert.Equal(t, case2, out[1].To())
	assert.Equal(t, "CaseMatch(3)", out[2].Label())
	assert.Equal(t, case3, out[2].To())
	assert.Equal(t, EdgeDefaultMatch, out[3].Kind())
	assert.Equal(t, dflt, out[3].To())

	// value 2 runs case 2, falls into case 3 and leaves through its break
	assert.Equal(t, EdgeFallthrough, edgeBetween(g, case2, case3).Kind())
	assert.Equal(t, []*Block{exit}, g.Successors(case3))

	// value 1 leaves directly
	assert.Equal(t, []*Block{exit}, g.Successors(case1))
	assert.Equal(t, []*Block{exit}, g.Successors(dflt))
	assert.Equal(t, EdgeUnconditional, edgeBetween(g, dflt, exit).Kind())
}

func TestCFGBuilder_DoWhileContinue(t *testing.T) {
	g := buildGraph(t, `void f(int x, int a) {
    do {
        if (a) continue;
        x--;
    } while (x > 5);
}`, "f")

	body := blockWith(t, g, "a")
	cont := blockWith(t, g, "continue;")
	dec := blockWith(t, g, "x--;")
	cond := blockWith(t, g, "x > 5")

	assert.Equal(t, LabelLoopBody, body.Label())
	assert.Equal(t, LabelLoopCondition, cond.Label())
	assert.Equal(t, []*Block{cond}, g.Successors(cont))
	assert.NotContains(t, g.Successors(cont), body)
	assert.Equal(t, []*Block{cond}, g.Successors(dec))
	assert.Equal(t, EdgeTrueBranch, edgeBetween(g, cond, body).Kind())
}

func TestCFGBuilder_SwitchFallthroughFollowsSourceOrder(t *testing.T) {
	g := buildGraph(t, `void f(int x) {
    int a;
    switch (x) {
    case 3:
        a = 3;
    case 1:
        a = 1;
        break;
    default:
        a = 0;
    case 2:
        a = 2;
    }
    a = 9;
}`, "f")

	selector := blockWith(t, g, "x")
	case3 := blockWith(t, g, "a = 3;")
	case1 := blockWith(t, g, "a = 1;")
	dflt := blockWith(t, g, "a = 0;")
	case2 := blockWith(t, g, "a = 2;")
	exit := blockWith(t, g, "a = 9;")

	out := g.OutEdges(selector)
	require.Len(t, out, 4)
	assert.Equal(t, "CaseMatch(3)", out[0].Label())
	assert.Equal(t, "CaseMatch(1)", out[1].Label())
	assert.Equal(t, EdgeDefaultMatch, out[2].Kind())
	assert.Equal(t, dflt, out[2].To())
	assert.Equal(t, "CaseMatch(2)", out[3].Label())

	// next clause in the text, not the next value
	assert.Equal(t, []*Block{case1}, g.Successors(case3))
	assert.Equal(t, EdgeFallthrough, edgeBetween(g, case3, case1).Kind())
	assert.Equal(t, []*Block{case2}, g.Successors(dflt))
	assert.Equal(t, EdgeFallthrough, edgeBetween(g, dflt, case2).Kind())

	assert.Equal(t, []*Block{exit}, g.Successors(case1))
	assert.Equal(t, EdgeUnconditional, edgeBetween(g, case1, exit).Kind())
	assert.Equal(t, []*Block{exit}, g.Successors(case2))

	fallthroughs := 0
	for _, e := range g.Edges() {
		if e.Kind() == EdgeFallthrough {
			fallthroughs++
		}
	}
	assert.Equal(t, 2, fallthroughs)
	assert.Empty(t, g.Diagnostics())
}

func TestCFGBuilder_SwitchWithoutDefault(t *testing.T) {
	g := buildGraph(t, `void f(int x) { switch (x) { case 1: x = 2; } x = 3; }`, "f")

	selector := blockWith(t, g, "x")
	exit := blockWith(t, g, "x = 3;")
	e := edgeBetween(g, selector, exit)
	require.NotNil(t, e)
	assert.Equal(t, EdgeDefaultMatch, e.Kind())
}

func TestCFGBuilder_FixtureShape(t *testing.T) {
	g := buildGraph(t, testutil.FixtureProgram, "main")

	assert.Equal(t, 19, g.Size())
	assert.Len(t, g.Edges(), 25)
	assert.Equal(t, g.Size(), g.ReachableCount())
	assert.Empty(t, g.Diagnostics())

	// the for exit is empty and becomes the do-while body
	assert.Equal(t, []string{"x--;"}, texts(blockWith(t, g, "x--;")))
	// the while exit picks up the for initializer
	assert.Equal(t, []string{"int i = 0"}, texts(blockWith(t, g, "int i = 0")))
}

func TestCFGBuilder_StructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kind   parser.NodeType
	}{
		{"break outside loop", `void f(void) { break; }`, parser.NodeBreak},
		{"continue outside loop", `void f(void) { continue; }`, parser.NodeContinue},
		{"continue in bare switch", `void f(int x) { switch (x) { case 1: continue; } }`, parser.NodeContinue},
		{"break in nested block", `void f(int x) { if (x) { { break; } } }`, parser.NodeBreak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := testutil.ParseFunction(t, tt.source, "f")
			g, err := NewCFGBuilder().Build(fn)
			require.Error(t, err)
			assert.Nil(t, g)

			var serr *StructuralError
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, tt.kind, serr.Statement)
			assert.Equal(t, "f", serr.Function)
			assert.Equal(t, 1, serr.Location.StartLine)
		})
	}
}

func TestCFGBuilder_MalformedSwitch(t *testing.T) {
	tests := []struct {
		name   string
		source string
		value  string
	}{
		{"duplicate literal", `void f(int x) { switch (x) { case 1: break; case 1: break; } }`, "1"},
		{"same value other base", `void f(int x) { switch (x) { case 16: break; case 0x10: break; } }`, "0x10"},
		{"char and int", `void f(int x) { switch (x) { case 'A': break; case 65: break; } }`, "65"},
		{"two defaults", `void f(int x) { switch (x) { default: break; default: break; } }`, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := testutil.ParseFunction(t, tt.source, "f")
			_, err := NewCFGBuilder().Build(fn)

			var merr *MalformedSwitchError
			require.True(t, errors.As(err, &merr), "got %v", err)
			assert.Equal(t, tt.value, merr.Value)
		})
	}
}

func TestCFGBuilder_BuilderIsReusable(t *testing.T) {
	builder := NewCFGBuilder()

	_, err := builder.Build(testutil.ParseFunction(t, `void f(void) { break; }`, "f"))
	require.Error(t, err)

	g, err := builder.Build(testutil.ParseFunction(t, `void g(void) { return; }`, "g"))
	require.NoError(t, err)
	assert.Equal(t, "g", g.Name())
	assert.Equal(t, 3, g.Size())
}

func TestCaseKey(t *testing.T) {
	assert.Equal(t, caseKey("16"), caseKey("0x10"))
	assert.Equal(t, caseKey("8"), caseKey("010"))
	assert.Equal(t, caseKey("1"), caseKey("1UL"))
	assert.Equal(t, caseKey("'A'"), caseKey("65"))
	assert.Equal(t, caseKey("'\\n'"), caseKey("10"))
	assert.Equal(t, caseKey("RED + 1"), caseKey("RED+1"))
	assert.NotEqual(t, caseKey("RED"), caseKey("GREEN"))
}

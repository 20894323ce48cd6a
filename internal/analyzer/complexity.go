package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ludo-technologies/ccfg/internal/config"
	"github.com/ludo-technologies/ccfg/internal/parser"
)

// ComplexityResult holds cyclomatic complexity metrics for a function
type ComplexityResult struct {
	Complexity       int
	Edges            int
	Nodes            int
	FunctionName     string
	StartLine        int
	StartCol         int
	EndLine          int
	NestingDepth     int
	DecisionPoints   int
	IfStatements     int
	LoopStatements   int
	Loops            int
	SwitchCases      int
	LogicalOperators int
	TernaryOperators int
	DeadBlocks       int
	RiskLevel        string
}

func (cr *ComplexityResult) GetComplexity() int      { return cr.Complexity }
func (cr *ComplexityResult) GetFunctionName() string { return cr.FunctionName }
func (cr *ComplexityResult) GetRiskLevel() string    { return cr.RiskLevel }

func (cr *ComplexityResult) GetDetailedMetrics() map[string]int {
	return map[string]int{
		"nodes":             cr.Nodes,
		"edges":             cr.Edges,
		"decision_points":   cr.DecisionPoints,
		"if_statements":     cr.IfStatements,
		"loop_statements":   cr.LoopStatements,
		"loops":             cr.Loops,
		"switch_cases":      cr.SwitchCases,
		"logical_operators": cr.LogicalOperators,
		"ternary_operators": cr.TernaryOperators,
		"dead_blocks":       cr.DeadBlocks,
	}
}

func (cr *ComplexityResult) String() string {
	return fmt.Sprintf("Function: %s, Complexity: %d, Risk: %s",
		cr.FunctionName, cr.Complexity, cr.RiskLevel)
}

// CalculateComplexity computes McCabe cyclomatic complexity for a CFG using default thresholds
func CalculateComplexity(g *CFG) *ComplexityResult {
	defaultConfig := config.DefaultConfig()
	return CalculateComplexityWithConfig(g, &defaultConfig.Complexity)
}

// CalculateComplexityWithConfig computes E - N + 2 over the reachable part of
// g, sentinels included. Dead blocks and the edges touching them do not count.
func CalculateComplexityWithConfig(g *CFG, complexityConfig *config.ComplexityConfig) *ComplexityResult {
	if g == nil {
		return &ComplexityResult{
			Complexity: 0,
			RiskLevel:  "low",
		}
	}

	nodes := g.ReachableCount()
	edges := 0
	decisions := 0
	for b := range g.ReversePostorder() {
		out := g.OutEdges(b)
		edges += len(out)
		if len(out) > 1 {
			decisions += len(out) - 1
		}
	}

	complexity := edges - nodes + 2
	if complexity < 1 {
		complexity = 1
	}

	result := &ComplexityResult{
		Complexity:     complexity,
		Edges:          edges,
		Nodes:          nodes,
		FunctionName:   g.name,
		DecisionPoints: decisions,
		Loops:          Dominators(g).LoopCount(),
		DeadBlocks:     g.Size() - nodes,
		RiskLevel:      determineRiskLevel(complexity, complexityConfig),
	}

	if fn := g.function; fn != nil {
		result.StartLine = fn.Location.StartLine
		result.StartCol = fn.Location.StartCol
		result.EndLine = fn.Location.EndLine
		result.NestingDepth = CalculateNestingDepth(fn)
		countConstructs(fn, result)
	}

	return result
}

func determineRiskLevel(complexity int, cfg *config.ComplexityConfig) string {
	if cfg == nil {
		cfg = &config.DefaultConfig().Complexity
	}
	return cfg.AssessRiskLevel(complexity)
}

// countConstructs fills the per-construct counters from the function's AST
func countConstructs(fn *parser.Node, result *ComplexityResult) {
	fn.Walk(func(n *parser.Node) bool {
		switch n.Type {
		case parser.NodeIf:
			result.IfStatements++
		case parser.NodeWhile, parser.NodeDoWhile, parser.NodeFor:
			result.LoopStatements++
		case parser.NodeCase:
			result.SwitchCases++
		case parser.NodeExpression:
			result.LogicalOperators += strings.Count(n.Raw, "&&") + strings.Count(n.Raw, "||")
			result.TernaryOperators += strings.Count(n.Raw, "?")
		}
		return true
	})
}

// CalculateNestingDepth calculates the maximum nesting depth of control
// constructs in a function
func CalculateNestingDepth(node *parser.Node) int {
	if node == nil {
		return 0
	}
	return nestingDepth(node, 0)
}

func nestingDepth(node *parser.Node, depth int) int {
	if node.IsConstruct() {
		depth++
	}
	maxDepth := depth
	for _, child := range nestedChildren(node) {
		if d := nestingDepth(child, depth); d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth
}

// nestedChildren returns the statement children of n. Else-if chains count
// as one level, so an If in the alternate slot of an If is flattened.
func nestedChildren(n *parser.Node) []*parser.Node {
	var out []*parser.Node
	add := func(c *parser.Node) {
		if c != nil {
			out = append(out, c)
		}
	}
	switch n.Type {
	case parser.NodeIf:
		add(n.Consequent)
		if alt := n.Alternate; alt != nil && alt.Type == parser.NodeIf {
			out = append(out, nestedChildren(alt)...)
		} else {
			add(alt)
		}
	case parser.NodeSwitch:
		out = append(out, n.Body...)
		for _, c := range n.Cases {
			out = append(out, c.Body...)
		}
	default:
		out = append(out, n.Body...)
	}
	return out
}

// ComplexityAnalyzer analyzes complexity for every function of a translation unit
type ComplexityAnalyzer struct {
	cfg *config.ComplexityConfig
}

func NewComplexityAnalyzer(cfg *config.ComplexityConfig) *ComplexityAnalyzer {
	return &ComplexityAnalyzer{cfg: cfg}
}

// AnalyzeFile builds the graph of each function in ast and measures it.
// Functions whose graph cannot be built are skipped and reported in the error.
func (ca *ComplexityAnalyzer) AnalyzeFile(ast *parser.Node) ([]*ComplexityResult, error) {
	if ast == nil {
		return nil, fmt.Errorf("AST is nil")
	}

	built := BuildAll(context.Background(), ast, BuildOptions{})

	var results []*ComplexityResult
	for _, g := range built.Graphs {
		results = append(results, CalculateComplexityWithConfig(g, ca.cfg))
	}

	if err := built.Err(); err != nil {
		return results, fmt.Errorf("failed to build CFGs: %w", err)
	}
	return results, nil
}

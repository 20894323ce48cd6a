package analyzer

import (
	"time"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// ReachabilityResult contains the results of reachability analysis
type ReachabilityResult struct {
	ReachableBlocks   map[int]*Block
	UnreachableBlocks map[int]*Block
	TotalBlocks       int
	ReachableCount    int
	UnreachableCount  int
	AnalysisTime      time.Duration
}

// ReachabilityAnalyzer answers reachability from arbitrary start blocks.
// Reachability from the entry is already recorded on the CFG itself.
type ReachabilityAnalyzer struct {
	cfg *CFG
}

func NewReachabilityAnalyzer(cfg *CFG) *ReachabilityAnalyzer {
	return &ReachabilityAnalyzer{cfg: cfg}
}

// AnalyzeReachability reports reachability from the entry sentinel
func (ra *ReachabilityAnalyzer) AnalyzeReachability() *ReachabilityResult {
	if ra.cfg == nil {
		return &ReachabilityResult{
			ReachableBlocks:   map[int]*Block{},
			UnreachableBlocks: map[int]*Block{},
		}
	}
	return ra.AnalyzeReachabilityFrom(ra.cfg.entry)
}

// AnalyzeReachabilityFrom reports the blocks reachable from startBlock
func (ra *ReachabilityAnalyzer) AnalyzeReachabilityFrom(startBlock *Block) *ReachabilityResult {
	startTime := time.Now()

	result := &ReachabilityResult{
		ReachableBlocks:   make(map[int]*Block),
		UnreachableBlocks: make(map[int]*Block),
	}

	if ra.cfg == nil || !ra.cfg.owns(startBlock) {
		result.AnalysisTime = time.Since(startTime)
		return result
	}

	result.TotalBlocks = ra.cfg.Size()

	dfs := traverse.DepthFirst{}
	dfs.Walk(ToDirected(ra.cfg, false), simple.Node(startBlock.id), nil)

	for _, b := range ra.cfg.blocks {
		if dfs.Visited(simple.Node(b.id)) {
			result.ReachableBlocks[b.id] = b
		} else {
			result.UnreachableBlocks[b.id] = b
		}
	}

	result.ReachableCount = len(result.ReachableBlocks)
	result.UnreachableCount = len(result.UnreachableBlocks)
	result.AnalysisTime = time.Since(startTime)

	return result
}

// CanReach reports whether some path leads from a to b
func (ra *ReachabilityAnalyzer) CanReach(a, b *Block) bool {
	if ra.cfg == nil || !ra.cfg.owns(a) || !ra.cfg.owns(b) {
		return false
	}
	dfs := traverse.DepthFirst{}
	found := dfs.Walk(ToDirected(ra.cfg, false), simple.Node(a.id), func(n graph.Node) bool {
		return n.ID() == int64(b.id)
	})
	return found != nil
}

func (result *ReachabilityResult) GetUnreachableBlocksWithStatements() map[int]*Block {
	blocksWithStatements := make(map[int]*Block)
	for id, block := range result.UnreachableBlocks {
		if !block.IsEmpty() {
			blocksWithStatements[id] = block
		}
	}
	return blocksWithStatements
}

func (result *ReachabilityResult) GetReachabilityRatio() float64 {
	if result.TotalBlocks == 0 {
		return 1.0
	}
	return float64(result.ReachableCount) / float64(result.TotalBlocks)
}

func (result *ReachabilityResult) HasUnreachableCode() bool {
	for _, block := range result.UnreachableBlocks {
		if !block.IsEmpty() {
			return true
		}
	}
	return false
}

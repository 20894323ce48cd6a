package service

import (
	"context"
	"errors"

	"github.com/ludo-technologies/ccfg/domain"
	"github.com/ludo-technologies/ccfg/internal/analyzer"
	"github.com/ludo-technologies/ccfg/internal/config"
	"github.com/ludo-technologies/ccfg/internal/parser"
)

// ExportOptions shapes the DTO produced by ExportGraph
type ExportOptions struct {
	IncludeSentinels  bool
	IncludeDeadBlocks bool
	ShowStatements    bool
}

// DefaultExportOptions keeps everything
func DefaultExportOptions() ExportOptions {
	return ExportOptions{IncludeSentinels: true, IncludeDeadBlocks: true, ShowStatements: true}
}

// ExportOptionsFromRequest reads the export flags of a CFG request
func ExportOptionsFromRequest(req domain.CFGRequest) ExportOptions {
	return ExportOptions{
		IncludeSentinels:  req.IncludeSentinels,
		IncludeDeadBlocks: req.IncludeDeadBlocks,
		ShowStatements:    req.ShowStatements,
	}
}

// ExportGraph converts a built graph into its serializable form
func ExportGraph(g *analyzer.CFG, file string, opts ExportOptions, complexityCfg *config.ComplexityConfig) domain.FunctionGraph {
	dom := analyzer.Dominators(g)

	keep := func(b *analyzer.Block) bool {
		if !opts.IncludeSentinels && (b.IsEntry() || b.IsExit()) {
			return false
		}
		if !opts.IncludeDeadBlocks && b.IsDead() {
			return false
		}
		return true
	}

	fg := domain.FunctionGraph{
		Name:       g.Name(),
		File:       file,
		Entry:      g.Entry().ID(),
		Exit:       g.Exit().ID(),
		Blocks:     []domain.BlockInfo{},
		Edges:      []domain.EdgeInfo{},
		Complexity: analyzer.CalculateComplexityWithConfig(g, complexityCfg).Complexity,
		Loops:      dom.LoopCount(),
	}
	if fn := g.Function(); fn != nil {
		fg.Location = toLocation(fn.Location)
	}

	for _, b := range g.Blocks() {
		if !keep(b) {
			continue
		}
		info := domain.BlockInfo{
			ID:        b.ID(),
			Name:      b.Name(),
			Label:     b.Label(),
			Reachable: g.IsReachable(b),
			Entry:     b.IsEntry(),
			Exit:      b.IsExit(),
		}
		if opts.ShowStatements {
			for _, stmt := range b.Statements() {
				info.Statements = append(info.Statements, stmt.Text())
			}
		}
		for _, guard := range dom.GuardConditions(b) {
			info.Guards = append(info.Guards, guard.ID())
		}
		fg.Blocks = append(fg.Blocks, info)
	}

	back := make(map[*analyzer.Edge]bool)
	for _, e := range dom.BackEdges() {
		back[e] = true
	}
	for _, e := range g.Edges() {
		if !keep(e.From()) || !keep(e.To()) {
			continue
		}
		fg.Edges = append(fg.Edges, domain.EdgeInfo{
			From:  e.From().ID(),
			To:    e.To().ID(),
			Kind:  e.Kind().String(),
			Value: e.Value(),
			Back:  back[e],
		})
	}

	for b := range g.Traverse() {
		if keep(b) {
			fg.Order = append(fg.Order, b.ID())
		}
	}

	for _, d := range g.Diagnostics() {
		fg.Unreachable = append(fg.Unreachable, domain.UnreachableCode{
			Block:  d.BlockID,
			Reason: string(d.Reason),
			Location: domain.Location{
				File:      d.Start.File,
				StartLine: d.Start.StartLine,
				StartCol:  d.Start.StartCol,
				EndLine:   d.End.EndLine,
				EndCol:    d.End.EndCol,
			},
			Statements: d.Statements,
		})
	}
	return fg
}

// ExportError classifies a per-function build failure
func ExportError(err error, file string) domain.FunctionError {
	fe := domain.FunctionError{File: file, Kind: "error", Message: err.Error()}

	var serr *analyzer.StructuralError
	var merr *analyzer.MalformedSwitchError
	switch {
	case errors.As(err, &serr):
		fe.Kind = "structural"
		fe.Function = serr.Function
		fe.Location = toLocation(serr.Location)
	case errors.As(err, &merr):
		fe.Kind = "malformed_switch"
		fe.Function = merr.Function
		fe.Location = toLocation(merr.Location)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fe.Kind = "cancelled"
	}
	return fe
}

func toLocation(l parser.Location) domain.Location {
	return domain.Location{
		File:      l.File,
		StartLine: l.StartLine,
		StartCol:  l.StartCol,
		EndLine:   l.EndLine,
		EndCol:    l.EndCol,
	}
}

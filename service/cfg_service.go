package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ludo-technologies/ccfg/domain"
	"github.com/ludo-technologies/ccfg/internal/analyzer"
	"github.com/ludo-technologies/ccfg/internal/config"
	"github.com/ludo-technologies/ccfg/internal/constants"
	"github.com/ludo-technologies/ccfg/internal/parser"
	"github.com/ludo-technologies/ccfg/internal/version"
)

// Side artifact extensions, appended to the source file name
const (
	ASTArtifactExt     = constants.ASTFileExt
	CFGArtifactExt     = constants.CFGFileExt
	SafeSetArtifactExt = constants.SafeSetFileExt
)

// CFGServiceImpl implements domain.CFGService
type CFGServiceImpl struct {
	config    *config.Config
	progress  domain.ProgressManager
	formatter *GraphFormatterImpl
	logger    *zap.Logger
}

// NewCFGService creates a CFG service. A nil config means defaults.
func NewCFGService(cfg *config.Config) *CFGServiceImpl {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &CFGServiceImpl{
		config:    cfg,
		formatter: NewGraphFormatter(),
		logger:    zap.NewNop(),
	}
}

// NewCFGServiceWithProgress creates a CFG service that reports per-file progress
func NewCFGServiceWithProgress(cfg *config.Config, pm domain.ProgressManager) *CFGServiceImpl {
	s := NewCFGService(cfg)
	s.progress = pm
	return s
}

// SetLogger replaces the service logger; nil restores the no-op logger
func (s *CFGServiceImpl) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s.logger = logger
}

// Build builds the graphs of every function in req.Paths
func (s *CFGServiceImpl) Build(ctx context.Context, req domain.CFGRequest) (*domain.CFGResponse, error) {
	resp := &domain.CFGResponse{
		Files:       []domain.FileGraphs{},
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
	}

	var task domain.TaskProgress = &NoOpTaskProgress{}
	if s.progress != nil {
		task = s.progress.StartTask("Building control-flow graphs", len(req.Paths))
	}
	defer task.Complete()

	for _, path := range req.Paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cfg build cancelled: %w", err)
		}
		task.Describe(filepath.Base(path))

		fileGraphs, err := s.BuildFile(ctx, path, req)
		task.Increment(1)
		if err != nil {
			s.logger.Warn("file skipped", zap.String("file", path), zap.Error(err))
			resp.Errors = append(resp.Errors, fmt.Sprintf("[%s] %v", path, err))
			continue
		}
		if len(fileGraphs.Functions) == 0 && len(fileGraphs.Errors) == 0 {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("[%s] No functions found in file", path))
		}
		resp.Files = append(resp.Files, *fileGraphs)
	}

	if len(resp.Files) == 0 && len(resp.Errors) > 0 {
		return resp, domain.NewAnalysisError("no file could be analyzed", nil)
	}
	resp.Summary = summarizeGraphs(resp.Files)
	return resp, nil
}

// BuildFile parses one source file and builds its graphs. Per-function
// failures are reported in the result, not as an error.
func (s *CFGServiceImpl) BuildFile(ctx context.Context, filePath string, req domain.CFGRequest) (*domain.FileGraphs, error) {
	unit, err := parser.ParsePath(ctx, filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewFileNotFoundError(filePath, err)
		}
		return nil, domain.NewParseError(filePath, err)
	}

	result := analyzer.BuildAll(ctx, unit, analyzer.BuildOptions{
		MaxGoroutines: s.config.Performance.MaxGoroutines,
		Function:      req.Function,
		Logger:        s.logger,
	})
	if req.Function != "" && len(result.Graphs) == 0 && len(result.Errors) == 0 {
		return nil, domain.NewInvalidInputError(
			fmt.Sprintf("function %q not found in %s", req.Function, filePath), nil)
	}

	opts := ExportOptionsFromRequest(req)
	fileGraphs := &domain.FileGraphs{
		File:      filePath,
		Functions: make([]domain.FunctionGraph, 0, len(result.Graphs)),
	}
	for _, g := range result.Graphs {
		fileGraphs.Functions = append(fileGraphs.Functions, ExportGraph(g, filePath, opts, &s.config.Complexity))
	}
	for _, err := range result.Errors {
		fileGraphs.Errors = append(fileGraphs.Errors, ExportError(err, filePath))
	}
	s.logger.Debug("file built",
		zap.String("file", filePath),
		zap.Int("functions", len(result.Graphs)),
		zap.Int("errors", len(result.Errors)),
		zap.Int("diagnostics", len(result.Diagnostics)))

	if err := s.writeArtifacts(unit, result, fileGraphs, req); err != nil {
		return nil, err
	}
	return fileGraphs, nil
}

// writeArtifacts writes the --show-ast, --show-cfg and --safe-set side files
func (s *CFGServiceImpl) writeArtifacts(unit *parser.Node, result *analyzer.BuildResult, fileGraphs *domain.FileGraphs, req domain.CFGRequest) error {
	write := func(ext string, content []byte) error {
		target := ArtifactPath(fileGraphs.File, req.OutputDir, ext)
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return domain.NewOutputError("failed to write "+target, err)
		}
		fileGraphs.Artifacts = append(fileGraphs.Artifacts, target)
		return nil
	}

	if req.ShowAST {
		if err := write(ASTArtifactExt, []byte(parser.DumpString(unit))); err != nil {
			return err
		}
	}
	if req.ShowCFG {
		var buf bytes.Buffer
		single := &domain.CFGResponse{Files: []domain.FileGraphs{*fileGraphs}}
		if err := s.formatter.Write(single, domain.CFGRequest{OutputFormat: domain.OutputFormatText}, &buf); err != nil {
			return err
		}
		if err := write(CFGArtifactExt, buf.Bytes()); err != nil {
			return err
		}
	}
	if req.ShowSafeSet {
		if err := write(SafeSetArtifactExt, []byte(SafeSets(result.Graphs))); err != nil {
			return err
		}
	}
	return nil
}

// ArtifactPath names the side file for source. An empty dir keeps it next
// to the source.
func ArtifactPath(source, dir, ext string) string {
	if dir == "" {
		return source + ext
	}
	return filepath.Join(dir, filepath.Base(source)+ext)
}

// SafeSets renders, for every reachable block, the branch conditions that
// are evaluated on every path reaching it
func SafeSets(graphs []*analyzer.CFG) string {
	var sb strings.Builder
	for _, g := range graphs {
		dom := analyzer.Dominators(g)
		fmt.Fprintf(&sb, "function %s\n", g.Name())
		for b := range g.ReversePostorder() {
			guards := dom.GuardConditions(b)
			conds := make([]string, 0, len(guards))
			for _, guard := range guards {
				conds = append(conds, guardText(guard))
			}
			fmt.Fprintf(&sb, "Safe Set for %s[%s]: [%s]\n", b.Name(), b.Label(), strings.Join(conds, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// guardText names a branching block by its controlling expression
func guardText(b *analyzer.Block) string {
	stmts := b.Statements()
	if len(stmts) == 0 {
		return b.Name()
	}
	return fmt.Sprintf("%s: %s", b.Name(), stmts[len(stmts)-1].Text())
}

func summarizeGraphs(files []domain.FileGraphs) domain.CFGSummary {
	summary := domain.CFGSummary{FilesAnalyzed: len(files)}
	for _, f := range files {
		summary.FunctionsBuilt += len(f.Functions)
		summary.FunctionsFailed += len(f.Errors)
		for _, fn := range f.Functions {
			summary.TotalBlocks += len(fn.Blocks)
			summary.TotalEdges += len(fn.Edges)
			summary.UnreachableCount += len(fn.Unreachable)
		}
	}
	return summary
}

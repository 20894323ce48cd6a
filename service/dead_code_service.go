package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ludo-technologies/ccfg/domain"
	"github.com/ludo-technologies/ccfg/internal/analyzer"
	"github.com/ludo-technologies/ccfg/internal/parser"
	"github.com/ludo-technologies/ccfg/internal/version"
)

// DeadCodeServiceImpl implements the DeadCodeService interface
type DeadCodeServiceImpl struct {
	progress      domain.ProgressManager
	maxGoroutines int
	logger        *zap.Logger
}

// NewDeadCodeService creates a new dead code service implementation
func NewDeadCodeService() *DeadCodeServiceImpl {
	return &DeadCodeServiceImpl{logger: zap.NewNop()}
}

// NewDeadCodeServiceWithProgress creates a dead code service with progress reporting
func NewDeadCodeServiceWithProgress(pm domain.ProgressManager) *DeadCodeServiceImpl {
	s := NewDeadCodeService()
	s.progress = pm
	return s
}

// SetMaxGoroutines bounds the per-file function builds
func (s *DeadCodeServiceImpl) SetMaxGoroutines(n int) {
	s.maxGoroutines = n
}

// SetLogger replaces the service logger
func (s *DeadCodeServiceImpl) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Analyze performs dead code analysis on multiple files
func (s *DeadCodeServiceImpl) Analyze(ctx context.Context, req domain.DeadCodeRequest) (*domain.DeadCodeResponse, error) {
	var allFiles []domain.FileDeadCode
	var warnings []string
	var errors []string
	filesProcessed := 0

	var task domain.TaskProgress = &NoOpTaskProgress{}
	if s.progress != nil {
		task = s.progress.StartTask("Detecting dead code", len(req.Paths))
	}
	defer task.Complete()

	for _, filePath := range req.Paths {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("dead code analysis cancelled: %w", ctx.Err())
		default:
		}

		fileResult, fileWarnings, fileErrors := s.analyzeFile(ctx, filePath, req)
		task.Increment(1)

		if len(fileErrors) > 0 {
			errors = append(errors, fileErrors...)
			continue
		}

		// Files without findings still count towards the totals
		if fileResult != nil {
			allFiles = append(allFiles, *fileResult)
		}

		warnings = append(warnings, fileWarnings...)
		filesProcessed++
	}

	summary := s.generateSummary(allFiles, filesProcessed)
	filteredFiles := s.filterFiles(allFiles, req)
	sortedFiles := s.sortFiles(filteredFiles, req.SortBy)

	return &domain.DeadCodeResponse{
		Files:       sortedFiles,
		Summary:     summary,
		Warnings:    warnings,
		Errors:      errors,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
		Config:      s.buildConfigForResponse(req),
	}, nil
}

// AnalyzeFile analyzes a single C source file for dead code
func (s *DeadCodeServiceImpl) AnalyzeFile(ctx context.Context, filePath string, req domain.DeadCodeRequest) (*domain.FileDeadCode, error) {
	fileResult, _, fileErrors := s.analyzeFile(ctx, filePath, req)

	if len(fileErrors) > 0 {
		return nil, domain.NewAnalysisError(fmt.Sprintf("failed to analyze file %s", filePath), fmt.Errorf("%s", strings.Join(fileErrors, "; ")))
	}

	return fileResult, nil
}

// AnalyzeFunction analyzes a single built graph for dead code
func (s *DeadCodeServiceImpl) AnalyzeFunction(g *analyzer.CFG, req domain.DeadCodeRequest) (*domain.FunctionDeadCode, error) {
	if g == nil {
		return nil, domain.NewInvalidInputError("nil control-flow graph", nil)
	}

	result := analyzer.NewDeadCodeDetector(g).Detect()
	funcResult := s.convertToFunctionDeadCode(result, nil, req)
	return &funcResult, nil
}

// analyzeFile performs dead code analysis on a single file
func (s *DeadCodeServiceImpl) analyzeFile(ctx context.Context, filePath string, req domain.DeadCodeRequest) (*domain.FileDeadCode, []string, []string) {
	var warnings []string
	var errors []string

	unit, err := parser.ParsePath(ctx, filePath)
	if err != nil {
		errors = append(errors, fmt.Sprintf("[%s] Parse error: %v", filePath, err))
		return nil, warnings, errors
	}

	result := analyzer.BuildAll(ctx, unit, analyzer.BuildOptions{
		MaxGoroutines: s.maxGoroutines,
		Logger:        s.logger,
	})
	for _, buildErr := range result.Errors {
		warnings = append(warnings, fmt.Sprintf("[%s] Skipped function: %v", filePath, buildErr))
	}

	if len(result.Graphs) == 0 {
		if len(result.Errors) == 0 {
			warnings = append(warnings, fmt.Sprintf("[%s] No functions found in file", filePath))
		}
		return &domain.FileDeadCode{
			FilePath:  filePath,
			Functions: []domain.FunctionDeadCode{},
		}, warnings, errors
	}

	var lines []string
	if domain.BoolValue(req.ShowContext, false) && req.ContextLines >= 0 {
		if content, err := os.ReadFile(filePath); err == nil {
			lines = strings.Split(string(content), "\n")
		}
	}

	var functions []domain.FunctionDeadCode
	totalFindings := 0
	for _, g := range result.Graphs {
		detected := analyzer.NewDeadCodeDetectorWithFilePath(g, filePath).Detect()
		funcResult := s.convertToFunctionDeadCode(detected, lines, req)
		functions = append(functions, funcResult)
		totalFindings += len(funcResult.Findings)
	}

	affected := 0
	for _, fn := range functions {
		if len(fn.Findings) > 0 {
			affected++
		}
	}

	return &domain.FileDeadCode{
		FilePath:          filePath,
		Functions:         functions,
		TotalFindings:     totalFindings,
		TotalFunctions:    len(result.Graphs),
		AffectedFunctions: affected,
		DeadCodeRatio:     float64(affected) / float64(len(result.Graphs)),
	}, warnings, errors
}

// convertToFunctionDeadCode converts internal dead code result to domain model.
// lines holds the source file when context was requested.
func (s *DeadCodeServiceImpl) convertToFunctionDeadCode(result *analyzer.DeadCodeResult, lines []string, req domain.DeadCodeRequest) domain.FunctionDeadCode {
	findings := []domain.DeadCodeFinding{}

	for _, finding := range result.Findings {
		severity := domain.DeadCodeSeverity(finding.Severity)
		if !severity.IsAtLeast(req.MinSeverity) {
			continue
		}

		f := domain.DeadCodeFinding{
			Location: domain.DeadCodeLocation{
				FilePath:    finding.FilePath,
				StartLine:   finding.StartLine,
				EndLine:     finding.EndLine,
				StartColumn: finding.StartCol,
			},
			FunctionName: finding.FunctionName,
			Code:         finding.Code,
			Reason:       string(finding.Reason),
			Severity:     severity,
			Description:  finding.Description,
			BlockID:      finding.BlockID,
		}
		if lines != nil {
			f.Context = contextLines(lines, finding.StartLine, finding.EndLine, req.ContextLines)
		}

		findings = append(findings, f)
	}

	funcDeadCode := domain.FunctionDeadCode{
		Name:           result.FunctionName,
		FilePath:       result.FilePath,
		Findings:       findings,
		TotalBlocks:    result.TotalBlocks,
		DeadBlocks:     result.DeadBlocks,
		ReachableRatio: result.ReachableRatio,
	}

	funcDeadCode.CalculateSeverityCounts()
	return funcDeadCode
}

// contextLines returns source lines start-n..end+n (1-based), each prefixed
// with its line number
func contextLines(lines []string, start, end, n int) []string {
	if start <= 0 || len(lines) == 0 {
		return nil
	}
	if end < start {
		end = start
	}
	from := max(1, start-n)
	to := min(len(lines), end+n)

	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprintf("%4d | %s", i, strings.TrimRight(lines[i-1], "\r")))
	}
	return out
}

// filterFiles keeps functions with findings at the requested severity
func (s *DeadCodeServiceImpl) filterFiles(files []domain.FileDeadCode, req domain.DeadCodeRequest) []domain.FileDeadCode {
	filtered := []domain.FileDeadCode{}

	for _, file := range files {
		var filteredFunctions []domain.FunctionDeadCode
		for _, fn := range file.Functions {
			if len(fn.Findings) > 0 && fn.HasFindingsAtSeverity(req.MinSeverity) {
				filteredFunctions = append(filteredFunctions, fn)
			}
		}

		if len(filteredFunctions) > 0 {
			file.Functions = filteredFunctions
			file.TotalFindings = 0
			for _, fn := range filteredFunctions {
				file.TotalFindings += len(fn.Findings)
			}
			file.AffectedFunctions = len(filteredFunctions)
			filtered = append(filtered, file)
		}
	}

	return filtered
}

// sortFiles sorts files based on the specified criteria
func (s *DeadCodeServiceImpl) sortFiles(files []domain.FileDeadCode, sortBy domain.DeadCodeSortCriteria) []domain.FileDeadCode {
	sorted := make([]domain.FileDeadCode, len(files))
	copy(sorted, files)

	switch sortBy {
	case domain.DeadCodeSortByLine:
		sort.SliceStable(sorted, func(i, j int) bool {
			return s.getFirstLine(sorted[i]) < s.getFirstLine(sorted[j])
		})
	case domain.DeadCodeSortByFile:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].FilePath < sorted[j].FilePath
		})
	case domain.DeadCodeSortByFunction:
		sort.SliceStable(sorted, func(i, j int) bool {
			return s.getFirstFunction(sorted[i]) < s.getFirstFunction(sorted[j])
		})
	default:
		sort.SliceStable(sorted, func(i, j int) bool {
			iMax, jMax := s.getMaxSeverity(sorted[i]), s.getMaxSeverity(sorted[j])
			if iMax != jMax {
				return iMax > jMax
			}
			return sorted[i].TotalFindings > sorted[j].TotalFindings
		})
	}

	return sorted
}

// getMaxSeverity returns the maximum severity level in a file
func (s *DeadCodeServiceImpl) getMaxSeverity(file domain.FileDeadCode) int {
	maxSeverity := 0
	for _, fn := range file.Functions {
		for _, finding := range fn.Findings {
			maxSeverity = max(maxSeverity, finding.Severity.Level())
		}
	}
	return maxSeverity
}

// getFirstLine returns the first line number in a file's findings
func (s *DeadCodeServiceImpl) getFirstLine(file domain.FileDeadCode) int {
	if len(file.Functions) == 0 || len(file.Functions[0].Findings) == 0 {
		return 0
	}
	return file.Functions[0].Findings[0].Location.StartLine
}

// getFirstFunction returns the name of the first function in a file
func (s *DeadCodeServiceImpl) getFirstFunction(file domain.FileDeadCode) string {
	if len(file.Functions) == 0 {
		return ""
	}
	return file.Functions[0].Name
}

// generateSummary aggregates every analyzed file, before severity filtering
// of whole functions, so block totals cover the full code base
func (s *DeadCodeServiceImpl) generateSummary(files []domain.FileDeadCode, filesProcessed int) domain.DeadCodeSummary {
	summary := domain.DeadCodeSummary{
		TotalFiles:       filesProcessed,
		FindingsByReason: make(map[string]int),
	}

	for _, file := range files {
		summary.TotalFunctions += file.TotalFunctions
		summary.FunctionsWithDeadCode += file.AffectedFunctions
		summary.TotalFindings += file.TotalFindings
		if file.TotalFindings > 0 {
			summary.FilesWithDeadCode++
		}

		for _, fn := range file.Functions {
			summary.TotalBlocks += fn.TotalBlocks
			summary.DeadBlocks += fn.DeadBlocks
			summary.CriticalFindings += fn.CriticalCount
			summary.WarningFindings += fn.WarningCount
			summary.InfoFindings += fn.InfoCount

			for _, finding := range fn.Findings {
				summary.FindingsByReason[finding.Reason]++
			}
		}
	}

	if summary.TotalBlocks > 0 {
		summary.OverallDeadRatio = float64(summary.DeadBlocks) / float64(summary.TotalBlocks)
	}

	return summary
}

// buildConfigForResponse builds the configuration section for the response
func (s *DeadCodeServiceImpl) buildConfigForResponse(req domain.DeadCodeRequest) map[string]interface{} {
	return map[string]interface{}{
		"min_severity":  req.MinSeverity,
		"sort_by":       req.SortBy,
		"show_context":  domain.BoolValue(req.ShowContext, false),
		"context_lines": req.ContextLines,
	}
}

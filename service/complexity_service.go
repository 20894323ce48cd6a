package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ludo-technologies/ccfg/domain"
	"github.com/ludo-technologies/ccfg/internal/analyzer"
	"github.com/ludo-technologies/ccfg/internal/config"
	"github.com/ludo-technologies/ccfg/internal/parser"
	"github.com/ludo-technologies/ccfg/internal/version"
)

// ComplexityServiceImpl implements the ComplexityService interface
type ComplexityServiceImpl struct {
	config        *config.ComplexityConfig
	progress      domain.ProgressManager
	maxGoroutines int
	logger        *zap.Logger
}

// NewComplexityService creates a new complexity service implementation
func NewComplexityService(cfg *config.ComplexityConfig) *ComplexityServiceImpl {
	if cfg == nil {
		cfg = &config.DefaultConfig().Complexity
	}
	return &ComplexityServiceImpl{
		config: cfg,
		logger: zap.NewNop(),
	}
}

// NewComplexityServiceWithProgress creates a new complexity service with progress reporting
func NewComplexityServiceWithProgress(cfg *config.ComplexityConfig, pm domain.ProgressManager) *ComplexityServiceImpl {
	s := NewComplexityService(cfg)
	s.progress = pm
	return s
}

// SetMaxGoroutines bounds the per-file function builds; 0 means GOMAXPROCS
func (s *ComplexityServiceImpl) SetMaxGoroutines(n int) {
	s.maxGoroutines = n
}

// SetLogger replaces the service logger
func (s *ComplexityServiceImpl) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Analyze performs complexity analysis on multiple files
func (s *ComplexityServiceImpl) Analyze(ctx context.Context, req domain.ComplexityRequest) (*domain.ComplexityResponse, error) {
	var allFunctions []domain.FunctionComplexity
	var warnings []string
	var errors []string
	filesProcessed := 0

	// Set up progress tracking (use no-op if progress manager not set)
	var task domain.TaskProgress = &NoOpTaskProgress{}
	if s.progress != nil {
		task = s.progress.StartTask("Analyzing complexity", len(req.Paths))
	}
	defer task.Complete()

	for _, filePath := range req.Paths {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("complexity analysis cancelled: %w", ctx.Err())
		default:
		}

		// Analyze single file
		functions, fileWarnings, fileErrors := s.analyzeFile(ctx, filePath, req)

		if len(fileErrors) > 0 {
			errors = append(errors, fileErrors...)
			task.Increment(1)
			continue // Skip this file but continue with others
		}

		allFunctions = append(allFunctions, functions...)
		warnings = append(warnings, fileWarnings...)
		filesProcessed++
		task.Increment(1)
	}

	if len(allFunctions) == 0 {
		return nil, domain.NewAnalysisError("no functions found to analyze", nil)
	}

	// Filter and sort results
	filteredFunctions := s.filterFunctions(allFunctions, req)
	sortedFunctions := s.sortFunctions(filteredFunctions, req.SortBy)

	// Generate summary
	summary := s.generateSummary(sortedFunctions, filesProcessed, req)

	return &domain.ComplexityResponse{
		Functions:   sortedFunctions,
		Summary:     summary,
		Warnings:    warnings,
		Errors:      errors,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
		Config:      s.buildConfigForResponse(req),
	}, nil
}

// AnalyzeFile analyzes a single C source file
func (s *ComplexityServiceImpl) AnalyzeFile(ctx context.Context, filePath string, req domain.ComplexityRequest) (*domain.ComplexityResponse, error) {
	singleFileReq := req
	singleFileReq.Paths = []string{filePath}

	return s.Analyze(ctx, singleFileReq)
}

// analyzeFile performs complexity analysis on a single file
func (s *ComplexityServiceImpl) analyzeFile(ctx context.Context, filePath string, req domain.ComplexityRequest) ([]domain.FunctionComplexity, []string, []string) {
	var functions []domain.FunctionComplexity
	var warnings []string
	var errors []string

	unit, err := parser.ParsePath(ctx, filePath)
	if err != nil {
		errors = append(errors, fmt.Sprintf("[%s] Failed to parse: %v", filePath, err))
		return functions, warnings, errors
	}

	result := analyzer.BuildAll(ctx, unit, analyzer.BuildOptions{
		MaxGoroutines: s.maxGoroutines,
		Logger:        s.logger,
	})
	for _, buildErr := range result.Errors {
		warnings = append(warnings, fmt.Sprintf("[%s] Skipped function: %v", filePath, buildErr))
	}

	cfg := s.thresholds(req)
	for _, g := range result.Graphs {
		r := analyzer.CalculateComplexityWithConfig(g, cfg)

		functions = append(functions, domain.FunctionComplexity{
			Name:        r.FunctionName,
			FilePath:    filePath,
			StartLine:   r.StartLine,
			StartColumn: r.StartCol,
			EndLine:     r.EndLine,
			Metrics: domain.ComplexityMetrics{
				Complexity:       r.Complexity,
				Nodes:            r.Nodes,
				Edges:            r.Edges,
				NestingDepth:     r.NestingDepth,
				IfStatements:     r.IfStatements,
				LoopStatements:   r.LoopStatements,
				Loops:            r.Loops,
				SwitchCases:      r.SwitchCases,
				LogicalOperators: r.LogicalOperators,
				TernaryOperators: r.TernaryOperators,
				DeadBlocks:       r.DeadBlocks,
			},
			RiskLevel: domain.RiskLevel(r.RiskLevel),
		})
	}

	return functions, warnings, errors
}

// thresholds overlays request thresholds on the configured ones
func (s *ComplexityServiceImpl) thresholds(req domain.ComplexityRequest) *config.ComplexityConfig {
	cfg := *s.config
	if req.LowThreshold > 0 {
		cfg.LowThreshold = req.LowThreshold
	}
	if req.MediumThreshold > cfg.LowThreshold {
		cfg.MediumThreshold = req.MediumThreshold
	}
	return &cfg
}

// filterFunctions filters functions based on request criteria
func (s *ComplexityServiceImpl) filterFunctions(functions []domain.FunctionComplexity, req domain.ComplexityRequest) []domain.FunctionComplexity {
	var filtered []domain.FunctionComplexity

	for _, fn := range functions {
		// Filter by minimum complexity
		if req.MinComplexity > 0 && fn.Metrics.Complexity < req.MinComplexity {
			continue
		}

		// Filter by maximum complexity
		if req.MaxComplexity > 0 && fn.Metrics.Complexity > req.MaxComplexity {
			continue
		}

		// Skip unchanged (complexity = 1) if requested
		if !s.config.ReportUnchanged && fn.Metrics.Complexity == 1 {
			continue
		}

		filtered = append(filtered, fn)
	}

	return filtered
}

// sortFunctions sorts functions based on the specified criteria
func (s *ComplexityServiceImpl) sortFunctions(functions []domain.FunctionComplexity, sortBy domain.SortCriteria) []domain.FunctionComplexity {
	sorted := make([]domain.FunctionComplexity, len(functions))
	copy(sorted, functions)

	switch sortBy {
	case domain.SortByName:
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Name < sorted[j].Name
		})
	case domain.SortByRisk:
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].RiskLevel != sorted[j].RiskLevel {
				return sorted[i].RiskLevel.Rank() > sorted[j].RiskLevel.Rank()
			}
			return sorted[i].Metrics.Complexity > sorted[j].Metrics.Complexity
		})
	default:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Metrics.Complexity > sorted[j].Metrics.Complexity
		})
	}

	return sorted
}

// generateSummary generates a summary of the complexity analysis
func (s *ComplexityServiceImpl) generateSummary(functions []domain.FunctionComplexity, filesProcessed int, req domain.ComplexityRequest) domain.ComplexitySummary {
	summary := domain.ComplexitySummary{
		FilesAnalyzed:  filesProcessed,
		TotalFunctions: len(functions),
	}

	if len(functions) == 0 {
		return summary
	}

	summary.ComplexityDistribution = make(map[string]int)
	totalComplexity := 0
	maxComplexity := 0
	minComplexity := functions[0].Metrics.Complexity

	for _, fn := range functions {
		totalComplexity += fn.Metrics.Complexity

		if fn.Metrics.Complexity > maxComplexity {
			maxComplexity = fn.Metrics.Complexity
		}
		if fn.Metrics.Complexity < minComplexity {
			minComplexity = fn.Metrics.Complexity
		}

		summary.ComplexityDistribution[complexityBucket(fn.Metrics.Complexity)]++

		switch fn.RiskLevel {
		case domain.RiskLevelHigh:
			summary.HighRiskFunctions++
		case domain.RiskLevelMedium:
			summary.MediumRiskFunctions++
		case domain.RiskLevelLow:
			summary.LowRiskFunctions++
		}
	}

	summary.AverageComplexity = float64(totalComplexity) / float64(len(functions))
	summary.MaxComplexity = maxComplexity
	summary.MinComplexity = minComplexity

	return summary
}

// complexityBucket names the distribution bucket of a complexity value
func complexityBucket(c int) string {
	switch {
	case c <= 5:
		return "1-5"
	case c <= 10:
		return "6-10"
	case c <= 20:
		return "11-20"
	default:
		return "21+"
	}
}

// buildConfigForResponse builds the configuration section for the response
func (s *ComplexityServiceImpl) buildConfigForResponse(req domain.ComplexityRequest) map[string]interface{} {
	return map[string]interface{}{
		"low_threshold":    s.thresholds(req).LowThreshold,
		"medium_threshold": s.thresholds(req).MediumThreshold,
		"max_complexity":   s.config.MaxComplexity,
		"sort_by":          req.SortBy,
		"min_complexity":   req.MinComplexity,
	}
}


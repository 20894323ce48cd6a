package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ludo-technologies/ccfg/domain"
	"github.com/ludo-technologies/ccfg/internal/constants"
	"github.com/ludo-technologies/ccfg/internal/version"
	servicepkg "github.com/ludo-technologies/ccfg/service"
)

// Task names, also used in warnings
const (
	taskCFG        = "cfg"
	taskComplexity = constants.AnalysisComplexity
	taskDeadCode   = constants.AnalysisDeadCode
)

// AnalyzeConfig holds configuration for the analyze use case
type AnalyzeConfig struct {
	EnableComplexity bool
	EnableDeadCode   bool

	// Complexity options
	MinComplexity   int
	MaxComplexity   int
	LowThreshold    int
	MediumThreshold int

	// Dead code options
	MinSeverity  domain.DeadCodeSeverity
	ShowContext  bool
	ContextLines int

	// File options
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// DefaultAnalyzeConfig returns default configuration
func DefaultAnalyzeConfig() AnalyzeConfig {
	return AnalyzeConfig{
		EnableComplexity: true,
		EnableDeadCode:   true,
		LowThreshold:     constants.DefaultLowThreshold,
		MediumThreshold:  constants.DefaultMediumThreshold,
		MinSeverity:      domain.DeadCodeSeverityWarning,
		Recursive:        true,
	}
}

// AnalyzeUseCase runs graph construction, complexity and dead code
// analysis side by side on one set of files
type AnalyzeUseCase struct {
	cfgService        domain.CFGService
	complexityUseCase *ComplexityUseCase
	deadCodeUseCase   *DeadCodeUseCase
	executor          domain.ParallelExecutor
	fileHelper        *FileHelper
	logger            *zap.Logger
}

// NewAnalyzeUseCase creates a new analyze use case
func NewAnalyzeUseCase(
	cfgService domain.CFGService,
	complexityUseCase *ComplexityUseCase,
	deadCodeUseCase *DeadCodeUseCase,
) *AnalyzeUseCase {
	return &AnalyzeUseCase{
		cfgService:        cfgService,
		complexityUseCase: complexityUseCase,
		deadCodeUseCase:   deadCodeUseCase,
		executor:          servicepkg.NewParallelExecutor(),
		fileHelper:        NewFileHelper(),
		logger:            zap.NewNop(),
	}
}

// AnalyzeResult holds the results of comprehensive analysis
type AnalyzeResult struct {
	CFG        *domain.CFGResponse
	Complexity *domain.ComplexityResponse
	DeadCode   *domain.DeadCodeResponse
	Summary    *domain.AnalyzeSummary
	Warnings   []string
	Duration   time.Duration
}

// analysisTask adapts one analysis to domain.ExecutableTask
type analysisTask struct {
	name    string
	enabled bool
	run     func(ctx context.Context) error
}

func (t *analysisTask) Name() string    { return t.name }
func (t *analysisTask) IsEnabled() bool { return t.enabled }

func (t *analysisTask) Execute(ctx context.Context) (interface{}, error) {
	return nil, t.run(ctx)
}

// Execute performs comprehensive analysis. A failing analysis becomes a
// warning; Execute fails only when every enabled analysis failed.
func (uc *AnalyzeUseCase) Execute(ctx context.Context, config AnalyzeConfig, paths []string) (*AnalyzeResult, error) {
	startTime := time.Now()

	files, err := ResolveFilePaths(
		uc.fileHelper,
		paths,
		config.Recursive,
		config.IncludePatterns,
		config.ExcludePatterns,
	)
	if err != nil {
		return nil, domain.NewFileNotFoundError("failed to collect C source files", err)
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no C source files found in the specified paths", nil)
	}

	result := &AnalyzeResult{
		Summary: &domain.AnalyzeSummary{
			TotalFiles: len(files),
		},
	}

	tasks := []domain.ExecutableTask{
		&analysisTask{
			name:    taskCFG,
			enabled: uc.cfgService != nil,
			run: func(ctx context.Context) error {
				resp, err := uc.cfgService.Build(ctx, domain.CFGRequest{Paths: files})
				if err != nil {
					return err
				}
				result.CFG = resp
				return nil
			},
		},
		&analysisTask{
			name:    taskComplexity,
			enabled: config.EnableComplexity && uc.complexityUseCase != nil,
			run: func(ctx context.Context) error {
				resp, err := uc.complexityUseCase.Execute(ctx, domain.ComplexityRequest{
					Paths:           files,
					MinComplexity:   config.MinComplexity,
					MaxComplexity:   config.MaxComplexity,
					LowThreshold:    config.LowThreshold,
					MediumThreshold: config.MediumThreshold,
					SortBy:          domain.SortByComplexity,
				})
				if err != nil {
					return err
				}
				result.Complexity = resp
				return nil
			},
		},
		&analysisTask{
			name:    taskDeadCode,
			enabled: config.EnableDeadCode && uc.deadCodeUseCase != nil,
			run: func(ctx context.Context) error {
				resp, err := uc.deadCodeUseCase.Execute(ctx, domain.DeadCodeRequest{
					Paths:        files,
					MinSeverity:  config.MinSeverity,
					ShowContext:  domain.BoolPtr(config.ShowContext),
					ContextLines: config.ContextLines,
				})
				if err != nil {
					return err
				}
				result.DeadCode = resp
				return nil
			},
		},
	}

	var enabled int
	for _, t := range tasks {
		if t.IsEnabled() {
			enabled++
		}
	}

	execErr := uc.executor.Execute(ctx, tasks)
	failures := servicepkg.TaskErrors(execErr)
	for _, te := range failures {
		uc.logger.Warn("analysis failed", zap.String("analysis", te.TaskName), zap.Error(te.Err))
		result.Warnings = append(result.Warnings, te.Error())
	}
	if execErr != nil && len(failures) >= enabled {
		return nil, domain.NewAnalysisError("all analyses failed", execErr)
	}

	uc.summarize(result)
	_ = result.Summary.CalculateHealthScore()
	result.Duration = time.Since(startTime)

	return result, nil
}

// summarize copies the per-analysis totals into the summary
func (uc *AnalyzeUseCase) summarize(result *AnalyzeResult) {
	s := result.Summary
	if result.CFG != nil {
		s.AnalyzedFiles = result.CFG.Summary.FilesAnalyzed
		s.FailedFunctions = result.CFG.Summary.FunctionsFailed
		s.TotalFunctions = result.CFG.Summary.FunctionsBuilt
	}
	if c := result.Complexity; c != nil {
		s.ComplexityEnabled = true
		s.TotalFunctions = c.Summary.TotalFunctions
		s.AverageComplexity = c.Summary.AverageComplexity
		s.HighComplexityCount = c.Summary.HighRiskFunctions
		s.MediumComplexityCount = c.Summary.MediumRiskFunctions
		if s.AnalyzedFiles == 0 {
			s.AnalyzedFiles = c.Summary.FilesAnalyzed
		}
	}
	if d := result.DeadCode; d != nil {
		s.DeadCodeEnabled = true
		s.DeadCodeCount = d.Summary.TotalFindings
		s.CriticalDeadCode = d.Summary.CriticalFindings
		s.WarningDeadCode = d.Summary.WarningFindings
		s.InfoDeadCode = d.Summary.InfoFindings
	}
}

// ToAnalyzeResponse converts AnalyzeResult to domain.AnalyzeResponse
func (r *AnalyzeResult) ToAnalyzeResponse() *domain.AnalyzeResponse {
	return &domain.AnalyzeResponse{
		CFG:         r.CFG,
		Complexity:  r.Complexity,
		DeadCode:    r.DeadCode,
		Summary:     *r.Summary,
		GeneratedAt: time.Now(),
		Duration:    r.Duration.Milliseconds(),
		Version:     version.Version,
	}
}

// AnalyzeUseCaseBuilder builds an AnalyzeUseCase
type AnalyzeUseCaseBuilder struct {
	cfgService        domain.CFGService
	complexityUseCase *ComplexityUseCase
	deadCodeUseCase   *DeadCodeUseCase
	executor          domain.ParallelExecutor
	fileHelper        *FileHelper
	logger            *zap.Logger
}

// NewAnalyzeUseCaseBuilder creates a new builder
func NewAnalyzeUseCaseBuilder() *AnalyzeUseCaseBuilder {
	return &AnalyzeUseCaseBuilder{}
}

// WithCFGService sets the graph service
func (b *AnalyzeUseCaseBuilder) WithCFGService(s domain.CFGService) *AnalyzeUseCaseBuilder {
	b.cfgService = s
	return b
}

// WithComplexityUseCase sets the complexity use case
func (b *AnalyzeUseCaseBuilder) WithComplexityUseCase(uc *ComplexityUseCase) *AnalyzeUseCaseBuilder {
	b.complexityUseCase = uc
	return b
}

// WithDeadCodeUseCase sets the dead code use case
func (b *AnalyzeUseCaseBuilder) WithDeadCodeUseCase(uc *DeadCodeUseCase) *AnalyzeUseCaseBuilder {
	b.deadCodeUseCase = uc
	return b
}

// WithExecutor sets the executor running the analyses
func (b *AnalyzeUseCaseBuilder) WithExecutor(e domain.ParallelExecutor) *AnalyzeUseCaseBuilder {
	b.executor = e
	return b
}

// WithFileHelper sets the file helper
func (b *AnalyzeUseCaseBuilder) WithFileHelper(fh *FileHelper) *AnalyzeUseCaseBuilder {
	b.fileHelper = fh
	return b
}

// WithLogger sets the logger used for analysis failures
func (b *AnalyzeUseCaseBuilder) WithLogger(logger *zap.Logger) *AnalyzeUseCaseBuilder {
	b.logger = logger
	return b
}

// Build creates the AnalyzeUseCase
func (b *AnalyzeUseCaseBuilder) Build() (*AnalyzeUseCase, error) {
	if b.cfgService == nil && b.complexityUseCase == nil && b.deadCodeUseCase == nil {
		return nil, fmt.Errorf("at least one analysis is required")
	}

	uc := &AnalyzeUseCase{
		cfgService:        b.cfgService,
		complexityUseCase: b.complexityUseCase,
		deadCodeUseCase:   b.deadCodeUseCase,
		executor:          b.executor,
		fileHelper:        b.fileHelper,
		logger:            b.logger,
	}

	if uc.executor == nil {
		uc.executor = servicepkg.NewParallelExecutor()
	}
	if uc.fileHelper == nil {
		uc.fileHelper = NewFileHelper()
	}
	if uc.logger == nil {
		uc.logger = zap.NewNop()
	}

	return uc, nil
}

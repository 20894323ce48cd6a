package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ludo-technologies/ccfg/app"
	"github.com/ludo-technologies/ccfg/domain"
	"github.com/ludo-technologies/ccfg/internal/config"
	"github.com/ludo-technologies/ccfg/internal/constants"
	"github.com/ludo-technologies/ccfg/service"
)

var (
	selectAnalyses []string
	outputFormat   string
	configPath     string
	jsonOutput     bool
	outputPath     string
	analyzeVerbose bool
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [path...]",
		Short: "Analyze C files",
		Long: `Build the control-flow graphs of C files and report cyclomatic complexity,
unreachable code and a health score.

Examples:
  ccfg analyze src/
  ccfg analyze --select complexity src/
  ccfg analyze --select complexity,deadcode --json src/
  ccfg analyze --format yaml -o report.yaml src/`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringSliceVarP(&selectAnalyses, "select", "s",
		[]string{constants.AnalysisComplexity, constants.AnalysisDeadCode},
		"Analyses to run (comma-separated): complexity,deadcode")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text",
		"Output format: text, json, yaml, msgpack")
	cmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON (shorthand for --format json)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Output file path (default: stdout)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false,
		"Enable debug logging")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	for _, s := range selectAnalyses {
		if s != constants.AnalysisComplexity && s != constants.AnalysisDeadCode {
			return domain.NewInvalidInputError(fmt.Sprintf("unknown analysis %q", s), nil)
		}
	}

	format, err := domain.ParseOutputFormat(outputFormat)
	if err != nil {
		return err
	}
	if jsonOutput {
		format = domain.OutputFormatJSON
	}

	cfg, err := loadConfig(configPath, args)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, analyzeVerbose)
	defer func() { _ = logger.Sync() }()

	writer, closeOutput, err := openOutput(outputPath, cmd.OutOrStdout())
	if err != nil {
		return domain.NewOutputError("cannot open output", err)
	}
	defer func() { _ = closeOutput() }()

	if format.IsBinary() && isTerminal(writer) {
		return domain.NewInvalidInputError(
			fmt.Sprintf("refusing to write %s to a terminal, use -o", format), nil)
	}

	// Progress bars are auto-disabled for structured output or non-TTY
	pm := service.NewProgressManager(format == domain.OutputFormatText)
	defer pm.Close()

	useCase, err := newAnalyzeUseCase(cfg, pm, logger)
	if err != nil {
		return err
	}

	analyzeCfg := analyzeConfigFrom(cfg)
	analyzeCfg.EnableComplexity = contains(selectAnalyses, constants.AnalysisComplexity)
	analyzeCfg.EnableDeadCode = contains(selectAnalyses, constants.AnalysisDeadCode)

	result, err := useCase.Execute(context.Background(), analyzeCfg, args)
	if err != nil {
		return err
	}

	formatter := service.NewOutputFormatter()
	formatter.SetColor(cfg.Output.Color)
	if err := formatter.WriteAnalyze(result.ToAnalyzeResponse(), format, writer); err != nil {
		return domain.NewOutputError("failed to write report", err)
	}
	return nil
}

// newAnalyzeUseCase wires the services behind the analyze command
func newAnalyzeUseCase(cfg *config.Config, pm domain.ProgressManager, logger *zap.Logger) (*app.AnalyzeUseCase, error) {
	fileHelper := app.NewFileHelper()
	fileHelper.SetRespectGitignore(cfg.Analysis.RespectGitignore)

	cfgSvc := service.NewCFGServiceWithProgress(cfg, pm)
	cfgSvc.SetLogger(logger)

	complexitySvc := service.NewComplexityServiceWithProgress(&cfg.Complexity, pm)
	complexitySvc.SetMaxGoroutines(cfg.Performance.MaxGoroutines)
	complexitySvc.SetLogger(logger)
	complexityUC, err := app.NewComplexityUseCaseBuilder().
		WithService(complexitySvc).
		WithFileHelper(fileHelper).
		Build()
	if err != nil {
		return nil, err
	}

	deadCodeSvc := service.NewDeadCodeServiceWithProgress(pm)
	deadCodeSvc.SetMaxGoroutines(cfg.Performance.MaxGoroutines)
	deadCodeSvc.SetLogger(logger)
	deadCodeUC, err := app.NewDeadCodeUseCaseBuilder().
		WithService(deadCodeSvc).
		WithFileHelper(fileHelper).
		Build()
	if err != nil {
		return nil, err
	}

	return app.NewAnalyzeUseCaseBuilder().
		WithCFGService(cfgSvc).
		WithComplexityUseCase(complexityUC).
		WithDeadCodeUseCase(deadCodeUC).
		WithExecutor(service.NewParallelExecutorFromConfig(&cfg.Performance)).
		WithFileHelper(fileHelper).
		WithLogger(logger).
		Build()
}

func analyzeConfigFrom(cfg *config.Config) app.AnalyzeConfig {
	ac := app.DefaultAnalyzeConfig()
	ac.LowThreshold = cfg.Complexity.LowThreshold
	ac.MediumThreshold = cfg.Complexity.MediumThreshold
	ac.MinComplexity = cfg.Output.MinComplexity
	if cfg.DeadCode.MinSeverity != "" {
		ac.MinSeverity = domain.DeadCodeSeverity(cfg.DeadCode.MinSeverity)
	}
	ac.ShowContext = cfg.DeadCode.ShowContext
	ac.ContextLines = cfg.DeadCode.ContextLines
	ac.Recursive = cfg.Analysis.Recursive
	ac.IncludePatterns = cfg.Analysis.IncludePatterns
	ac.ExcludePatterns = cfg.Analysis.ExcludePatterns
	return ac
}

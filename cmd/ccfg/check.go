package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/ccfg/app"
	"github.com/ludo-technologies/ccfg/domain"
	"github.com/ludo-technologies/ccfg/internal/config"
	"github.com/ludo-technologies/ccfg/internal/version"
	"github.com/ludo-technologies/ccfg/service"
)

// Check categories, also accepted by --select
const (
	checkCategoryComplexity = "complexity"
	checkCategoryDeadCode   = "deadcode"
	checkCategoryStructure  = "structure"
)

// CheckExitError is a custom error type for check command exit codes
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

var (
	checkMaxComplexity  int
	checkAllowDeadCode  bool
	checkSelectAnalyses []string
	checkVerbose        bool
	checkJSON           bool
	checkConfigPath     string
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Fast quality check for CI/CD pipelines",
		Long: `Run quality checks against configurable thresholds for CI/CD integration.

Exit codes:
  0 - All checks pass
  1 - Quality threshold(s) violated
  2 - Analysis error (file not found, parse error, etc.)

Examples:
  # Basic check with defaults
  ccfg check src/

  # Strict complexity check
  ccfg check --max-complexity 8 src/

  # Only fail on misplaced break/continue and unknown goto labels
  ccfg check --select structure src/

  # JSON output for machine parsing
  ccfg check --json src/`,
		RunE:          runCheck,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().IntVar(&checkMaxComplexity, "max-complexity", 10,
		"Maximum allowed cyclomatic complexity per function")
	cmd.Flags().BoolVar(&checkAllowDeadCode, "allow-dead-code", false,
		"Allow dead code findings without failing")
	cmd.Flags().StringSliceVarP(&checkSelectAnalyses, "select", "s",
		[]string{checkCategoryComplexity, checkCategoryDeadCode, checkCategoryStructure},
		"Checks to run: complexity,deadcode,structure")
	cmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false,
		"Show detailed output")
	cmd.Flags().BoolVar(&checkJSON, "json", false,
		"Output results as JSON")
	cmd.Flags().StringVarP(&checkConfigPath, "config", "c", "",
		"Path to config file")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return &CheckExitError{Code: domain.ExitCodeError, Message: "no paths specified"}
	}

	startTime := time.Now()

	cfg, err := loadConfig(checkConfigPath, args)
	if err != nil {
		return &CheckExitError{Code: domain.ExitCodeError, Message: err.Error()}
	}

	if !cmd.Flags().Changed("max-complexity") && cfg.Complexity.MaxComplexity > 0 {
		checkMaxComplexity = cfg.Complexity.MaxComplexity
	}

	fileHelper := app.NewFileHelper()
	fileHelper.SetRespectGitignore(cfg.Analysis.RespectGitignore)
	files, err := app.ResolveFilePaths(fileHelper, args, cfg.Analysis.Recursive,
		cfg.Analysis.IncludePatterns, cfg.Analysis.ExcludePatterns)
	if err != nil {
		return &CheckExitError{Code: domain.ExitCodeError, Message: fmt.Sprintf("failed to collect files: %v", err)}
	}
	if len(files) == 0 {
		return &CheckExitError{Code: domain.ExitCodeError, Message: "no C source files found"}
	}

	pm := service.NewProgressManager(!checkJSON)
	defer pm.Close()

	result := &domain.CheckResult{
		Passed:     true,
		ExitCode:   domain.ExitCodePassed,
		Violations: []domain.CheckViolation{},
		Summary: domain.CheckSummary{
			FilesAnalyzed: len(files),
		},
	}

	ctx := context.Background()

	if contains(checkSelectAnalyses, checkCategoryComplexity) {
		if err := checkComplexity(ctx, files, cfg, result, pm); err != nil {
			return &CheckExitError{Code: domain.ExitCodeError, Message: err.Error()}
		}
	}

	if contains(checkSelectAnalyses, checkCategoryDeadCode) {
		if err := checkDeadCode(ctx, files, cfg, result, pm); err != nil {
			return &CheckExitError{Code: domain.ExitCodeError, Message: err.Error()}
		}
	}

	if contains(checkSelectAnalyses, checkCategoryStructure) {
		if err := checkStructure(ctx, files, cfg, result, pm); err != nil {
			return &CheckExitError{Code: domain.ExitCodeError, Message: err.Error()}
		}
	}

	return outputCheckResult(cmd.OutOrStdout(), result, startTime)
}

func checkComplexity(ctx context.Context, files []string, cfg *config.Config, result *domain.CheckResult, pm domain.ProgressManager) error {
	result.Summary.ComplexityChecked = true

	svc := service.NewComplexityServiceWithProgress(&cfg.Complexity, pm)
	svc.SetMaxGoroutines(cfg.Performance.MaxGoroutines)
	resp, err := svc.Analyze(ctx, domain.ComplexityRequest{
		Paths:           files,
		LowThreshold:    cfg.Complexity.LowThreshold,
		MediumThreshold: cfg.Complexity.MediumThreshold,
		SortBy:          domain.SortByComplexity,
	})
	if err != nil {
		return fmt.Errorf("complexity analysis failed: %w", err)
	}

	for _, fn := range resp.Functions {
		if fn.Metrics.Complexity <= checkMaxComplexity {
			continue
		}
		result.Summary.HighComplexityFunctions++
		result.AddViolation(domain.CheckViolation{
			Category:  checkCategoryComplexity,
			Rule:      "max-complexity",
			Severity:  "error",
			Message:   fmt.Sprintf("Function '%s' has complexity %d", fn.Name, fn.Metrics.Complexity),
			Location:  fmt.Sprintf("%s:%d", fn.FilePath, fn.StartLine),
			Actual:    strconv.Itoa(fn.Metrics.Complexity),
			Threshold: strconv.Itoa(checkMaxComplexity),
		})
	}

	return nil
}

func checkDeadCode(ctx context.Context, files []string, cfg *config.Config, result *domain.CheckResult, pm domain.ProgressManager) error {
	result.Summary.DeadCodeChecked = true

	svc := service.NewDeadCodeServiceWithProgress(pm)
	svc.SetMaxGoroutines(cfg.Performance.MaxGoroutines)
	minSeverity := domain.DeadCodeSeverity(cfg.DeadCode.MinSeverity)
	if minSeverity == "" {
		minSeverity = domain.DeadCodeSeverityWarning
	}
	resp, err := svc.Analyze(ctx, domain.DeadCodeRequest{
		Paths:       files,
		MinSeverity: minSeverity,
		ShowContext: domain.BoolPtr(false),
		SortBy:      domain.DeadCodeSortBySeverity,
	})
	if err != nil {
		return fmt.Errorf("dead code analysis failed: %w", err)
	}

	result.Summary.DeadCodeFindings = resp.Summary.TotalFindings
	if checkAllowDeadCode || resp.Summary.TotalFindings == 0 {
		return nil
	}

	if resp.Summary.CriticalFindings > 0 {
		result.AddViolation(domain.CheckViolation{
			Category:  checkCategoryDeadCode,
			Rule:      "no-dead-code",
			Severity:  "error",
			Message:   fmt.Sprintf("Found %d critical dead code issues", resp.Summary.CriticalFindings),
			Actual:    strconv.Itoa(resp.Summary.CriticalFindings),
			Threshold: "0",
		})
	}
	if resp.Summary.WarningFindings > 0 {
		result.AddViolation(domain.CheckViolation{
			Category:  checkCategoryDeadCode,
			Rule:      "no-dead-code",
			Severity:  "warning",
			Message:   fmt.Sprintf("Found %d warning-level dead code issues", resp.Summary.WarningFindings),
			Actual:    strconv.Itoa(resp.Summary.WarningFindings),
			Threshold: "0",
		})
	}

	if checkVerbose {
		for _, file := range resp.Files {
			for _, fn := range file.Functions {
				for _, f := range fn.Findings {
					result.AddViolation(domain.CheckViolation{
						Category: checkCategoryDeadCode,
						Rule:     "unreachable-code",
						Severity: string(f.Severity),
						Message:  fmt.Sprintf("%s: %s", fn.Name, f.Description),
						Location: f.Location.String(),
						Actual:   f.Reason,
					})
				}
			}
		}
	}

	return nil
}

// checkStructure reports functions whose graph could not be built, e.g. a
// break outside any loop or a goto to an unknown label
func checkStructure(ctx context.Context, files []string, cfg *config.Config, result *domain.CheckResult, pm domain.ProgressManager) error {
	result.Summary.StructureChecked = true

	svc := service.NewCFGServiceWithProgress(cfg, pm)
	resp, err := svc.Build(ctx, domain.CFGRequest{Paths: files})
	if err != nil && resp == nil {
		return fmt.Errorf("cfg build failed: %w", err)
	}

	for _, file := range resp.Files {
		for _, fe := range file.Errors {
			result.Summary.StructuralErrors++
			result.AddViolation(domain.CheckViolation{
				Category: checkCategoryStructure,
				Rule:     "valid-structure",
				Severity: "error",
				Message:  fmt.Sprintf("Function '%s': %s", fe.Function, fe.Message),
				Location: fmt.Sprintf("%s:%d", fe.File, fe.Location.StartLine),
				Actual:   fe.Kind,
			})
		}
	}
	for _, msg := range resp.Errors {
		result.Summary.StructuralErrors++
		result.AddViolation(domain.CheckViolation{
			Category: checkCategoryStructure,
			Rule:     "parse",
			Severity: "error",
			Message:  msg,
		})
	}

	return nil
}

func outputCheckResult(w io.Writer, result *domain.CheckResult, startTime time.Time) error {
	result.Duration = time.Since(startTime).Milliseconds()
	result.GeneratedAt = time.Now().Format(time.RFC3339)
	result.Version = version.Version
	result.ExitCode = domain.ExitCodePassed
	if !result.Passed {
		result.ExitCode = domain.ExitCodeViolation
	}
	result.Summary.TotalViolations = len(result.Violations)

	if checkJSON {
		return outputCheckJSON(w, result)
	}
	return outputCheckText(w, result)
}

func outputCheckText(w io.Writer, result *domain.CheckResult) error {
	if result.Passed {
		fmt.Fprintln(w, "PASS: All quality checks passed")
		if checkVerbose {
			fmt.Fprintf(w, "  Files analyzed: %d\n", result.Summary.FilesAnalyzed)
			fmt.Fprintf(w, "  Duration: %dms\n", result.Duration)
			if result.Summary.ComplexityChecked {
				fmt.Fprintf(w, "  Complexity: checked (max: %d)\n", checkMaxComplexity)
			}
			if result.Summary.DeadCodeChecked {
				fmt.Fprintln(w, "  Dead code: checked")
			}
			if result.Summary.StructureChecked {
				fmt.Fprintln(w, "  Structure: checked")
			}
		}
		return nil
	}

	fmt.Fprintln(w, "FAIL: Quality check failed")
	fmt.Fprintf(w, "  Violations: %d\n", result.Summary.TotalViolations)

	for _, v := range result.Violations {
		severity := "ERROR"
		if v.Severity != "error" && v.Severity != string(domain.DeadCodeSeverityCritical) {
			severity = "WARN"
		}
		fmt.Fprintf(w, "  [%s] %s: %s\n", severity, v.Category, v.Message)
		if checkVerbose && v.Location != "" {
			fmt.Fprintf(w, "         at %s\n", v.Location)
		}
	}

	if checkVerbose {
		fmt.Fprintf(w, "\nSummary:\n")
		fmt.Fprintf(w, "  Files: %d\n", result.Summary.FilesAnalyzed)
		if result.Summary.ComplexityChecked {
			fmt.Fprintf(w, "  High complexity functions: %d\n", result.Summary.HighComplexityFunctions)
		}
		if result.Summary.DeadCodeChecked {
			fmt.Fprintf(w, "  Dead code findings: %d\n", result.Summary.DeadCodeFindings)
		}
		if result.Summary.StructureChecked {
			fmt.Fprintf(w, "  Structural errors: %d\n", result.Summary.StructuralErrors)
		}
		fmt.Fprintf(w, "  Duration: %dms\n", result.Duration)
	}

	return &CheckExitError{Code: domain.ExitCodeViolation}
}

func outputCheckJSON(w io.Writer, result *domain.CheckResult) error {
	if err := service.WriteJSON(w, result); err != nil {
		return &CheckExitError{Code: domain.ExitCodeError, Message: fmt.Sprintf("failed to encode JSON: %v", err)}
	}

	if !result.Passed {
		return &CheckExitError{Code: domain.ExitCodeViolation}
	}
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/ccfg/app"
	"github.com/ludo-technologies/ccfg/domain"
	"github.com/ludo-technologies/ccfg/service"
)

var (
	buildFormat     string
	buildFunction   string
	buildShowAST    bool
	buildShowCFG    bool
	buildSafeSet    bool
	buildOutputPath string
	buildOutputDir  string
	buildRankDir    string
	buildConfigPath string
	buildVerbose    bool
)

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [path...]",
		Short: "Build and export control-flow graphs",
		Long: `Build a control-flow graph for every function definition in the given C files
or directories and print them in the selected format.

Side artifacts are written next to each source file, or into --output-dir:
  --show-ast   <file>.ast   parse tree dump
  --show-cfg   <file>.cfg   block and edge listing of every function
  --safe-set   <file>.ss    conditions known to hold in each block

Examples:
  # Text listing of every graph
  ccfg build main.c

  # DOT for a single function, rendered with graphviz
  ccfg build -f dot --function parse_args main.c | dot -Tsvg > parse_args.svg

  # JSON for tooling
  ccfg build -f json -o graphs.json src/`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBuild,
	}

	cmd.Flags().StringVarP(&buildFormat, "format", "f", "",
		"Output format: text, dot, json, yaml, msgpack")
	cmd.Flags().StringVar(&buildFunction, "function", "",
		"Only export the function with this name")
	cmd.Flags().BoolVar(&buildShowAST, "show-ast", false,
		"Write the parse tree of each file to <file>.ast")
	cmd.Flags().BoolVar(&buildShowCFG, "show-cfg", false,
		"Write the graph listing of each file to <file>.cfg")
	cmd.Flags().BoolVar(&buildSafeSet, "safe-set", false,
		"Write per-block safe conditions of each file to <file>.ss")
	cmd.Flags().StringVarP(&buildOutputPath, "output", "o", "",
		"Write the export to this file instead of stdout")
	cmd.Flags().StringVar(&buildOutputDir, "output-dir", "",
		"Directory for side artifacts (default: next to the source)")
	cmd.Flags().StringVar(&buildRankDir, "rank-dir", "",
		"DOT layout direction: TB, BT, LR, RL")
	cmd.Flags().StringVarP(&buildConfigPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().BoolVarP(&buildVerbose, "verbose", "v", false,
		"Enable debug logging")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(buildConfigPath, args)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, buildVerbose)
	defer func() { _ = logger.Sync() }()

	loader := service.NewConfigurationLoader()
	req := *loader.CFGRequest(cfg)
	req.Paths = args
	req.Function = buildFunction
	req.ShowAST = buildShowAST
	req.ShowCFG = buildShowCFG
	req.ShowSafeSet = buildSafeSet
	if buildFormat != "" {
		req.OutputFormat = domain.OutputFormat(buildFormat)
	}
	if buildOutputDir != "" {
		req.OutputDir = buildOutputDir
	}
	if buildRankDir != "" {
		req.RankDir = buildRankDir
	}

	writer, closeOutput, err := openOutput(buildOutputPath, cmd.OutOrStdout())
	if err != nil {
		return domain.NewOutputError("cannot open output", err)
	}
	defer func() { _ = closeOutput() }()

	if req.OutputFormat.IsBinary() && isTerminal(writer) {
		return domain.NewInvalidInputError(
			fmt.Sprintf("refusing to write %s to a terminal, use -o", req.OutputFormat), nil)
	}
	req.OutputWriter = writer

	// Progress bars only when a human watches a text export
	pm := service.NewProgressManager(req.OutputFormat == domain.OutputFormatText || req.OutputFormat == "")
	defer pm.Close()

	svc := service.NewCFGServiceWithProgress(cfg, pm)
	svc.SetLogger(logger)

	fileHelper := app.NewFileHelper()
	fileHelper.SetRespectGitignore(cfg.Analysis.RespectGitignore)

	useCase, err := app.NewBuildUseCaseBuilder().
		WithService(svc).
		WithFileHelper(fileHelper).
		Build()
	if err != nil {
		return err
	}

	resp, err := useCase.Execute(context.Background(), req)
	if resp != nil {
		printMessages(cmd.ErrOrStderr(), "warning", resp.Warnings)
		printMessages(cmd.ErrOrStderr(), "error", resp.Errors)
	}
	if err != nil {
		return err
	}
	return buildFailure(resp)
}

// buildFailure turns functions that could not be built into an error, after
// the graphs that did build have been written
func buildFailure(resp *domain.CFGResponse) error {
	if resp == nil || resp.Summary.FunctionsFailed == 0 {
		return nil
	}
	return domain.NewAnalysisError(
		fmt.Sprintf("%d function(s) failed to build", resp.Summary.FunctionsFailed), nil)
}

package domain

import (
	"context"
	"io"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText    OutputFormat = "text"
	OutputFormatJSON    OutputFormat = "json"
	OutputFormatYAML    OutputFormat = "yaml"
	OutputFormatDOT     OutputFormat = "dot"
	OutputFormatMsgPack OutputFormat = "msgpack"
)

// ParseOutputFormat validates a user-supplied format name
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatDOT, OutputFormatMsgPack:
		return f, nil
	}
	return "", NewUnsupportedFormatError(s)
}

// IsBinary reports whether the format should not be written to a terminal
func (f OutputFormat) IsBinary() bool {
	return f == OutputFormatMsgPack
}

// SortCriteria represents the criteria for sorting results
type SortCriteria string

const (
	SortByComplexity SortCriteria = "complexity"
	SortByName       SortCriteria = "name"
	SortByRisk       SortCriteria = "risk"
)

// RiskLevel represents the complexity risk level
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// Rank orders risk levels for sorting
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLevelHigh:
		return 3
	case RiskLevelMedium:
		return 2
	case RiskLevelLow:
		return 1
	}
	return 0
}

// ComplexityRequest represents a request for complexity analysis
type ComplexityRequest struct {
	// Input files or directories to analyze
	Paths []string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	ShowDetails  bool

	// Filtering and sorting
	MinComplexity int
	MaxComplexity int // 0 means no limit
	SortBy        SortCriteria

	// Complexity thresholds
	LowThreshold    int
	MediumThreshold int

	ConfigPath string

	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// ComplexityMetrics represents detailed complexity metrics for a function
type ComplexityMetrics struct {
	// McCabe cyclomatic complexity over the reachable subgraph
	Complexity int `json:"complexity" yaml:"complexity" msgpack:"complexity"`

	Nodes int `json:"nodes" yaml:"nodes" msgpack:"nodes"`
	Edges int `json:"edges" yaml:"edges" msgpack:"edges"`

	NestingDepth int `json:"nesting_depth" yaml:"nesting_depth" msgpack:"nesting_depth"`

	IfStatements     int `json:"if_statements" yaml:"if_statements" msgpack:"if_statements"`
	LoopStatements   int `json:"loop_statements" yaml:"loop_statements" msgpack:"loop_statements"`
	Loops            int `json:"loops" yaml:"loops" msgpack:"loops"`
	SwitchCases      int `json:"switch_cases" yaml:"switch_cases" msgpack:"switch_cases"`
	LogicalOperators int `json:"logical_operators" yaml:"logical_operators" msgpack:"logical_operators"`
	TernaryOperators int `json:"ternary_operators" yaml:"ternary_operators" msgpack:"ternary_operators"`
	DeadBlocks       int `json:"dead_blocks" yaml:"dead_blocks" msgpack:"dead_blocks"`
}

// FunctionComplexity represents complexity analysis result for a single function
type FunctionComplexity struct {
	Name        string `json:"name" yaml:"name" msgpack:"name"`
	FilePath    string `json:"file_path" yaml:"file_path" msgpack:"file_path"`
	StartLine   int    `json:"start_line" yaml:"start_line" msgpack:"start_line"`
	StartColumn int    `json:"start_column" yaml:"start_column" msgpack:"start_column"`
	EndLine     int    `json:"end_line" yaml:"end_line" msgpack:"end_line"`

	Metrics ComplexityMetrics `json:"metrics" yaml:"metrics" msgpack:"metrics"`

	RiskLevel RiskLevel `json:"risk_level" yaml:"risk_level" msgpack:"risk_level"`
}

// ComplexitySummary represents aggregate statistics
type ComplexitySummary struct {
	TotalFunctions    int     `json:"total_functions" yaml:"total_functions" msgpack:"total_functions"`
	AverageComplexity float64 `json:"average_complexity" yaml:"average_complexity" msgpack:"average_complexity"`
	MaxComplexity     int     `json:"max_complexity" yaml:"max_complexity" msgpack:"max_complexity"`
	MinComplexity     int     `json:"min_complexity" yaml:"min_complexity" msgpack:"min_complexity"`
	FilesAnalyzed     int     `json:"files_analyzed" yaml:"files_analyzed" msgpack:"files_analyzed"`

	LowRiskFunctions    int `json:"low_risk_functions" yaml:"low_risk_functions" msgpack:"low_risk_functions"`
	MediumRiskFunctions int `json:"medium_risk_functions" yaml:"medium_risk_functions" msgpack:"medium_risk_functions"`
	HighRiskFunctions   int `json:"high_risk_functions" yaml:"high_risk_functions" msgpack:"high_risk_functions"`

	ComplexityDistribution map[string]int `json:"complexity_distribution,omitempty" yaml:"complexity_distribution,omitempty" msgpack:"complexity_distribution,omitempty"`
}

// ComplexityResponse represents the complete analysis result
type ComplexityResponse struct {
	Functions []FunctionComplexity `json:"functions" yaml:"functions" msgpack:"functions"`
	Summary   ComplexitySummary    `json:"summary" yaml:"summary" msgpack:"summary"`

	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty" msgpack:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty" msgpack:"errors,omitempty"`

	GeneratedAt string      `json:"generated_at" yaml:"generated_at" msgpack:"generated_at"`
	Version     string      `json:"version" yaml:"version" msgpack:"version"`
	Config      interface{} `json:"config,omitempty" yaml:"config,omitempty" msgpack:"config,omitempty"`
}

// ComplexityService defines the core business logic for complexity analysis
type ComplexityService interface {
	Analyze(ctx context.Context, req ComplexityRequest) (*ComplexityResponse, error)

	// AnalyzeFile analyzes a single C source file
	AnalyzeFile(ctx context.Context, filePath string, req ComplexityRequest) (*ComplexityResponse, error)
}

// CFileReader defines the file operations needed to collect C sources
type CFileReader interface {
	CollectCFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)
	ReadFile(path string) ([]byte, error)
	IsValidCFile(path string) bool
	FileExists(path string) (bool, error)
}

// OutputFormatter defines the interface for formatting analysis results
type OutputFormatter interface {
	Format(response *ComplexityResponse, format OutputFormat) (string, error)
	Write(response *ComplexityResponse, format OutputFormat, writer io.Writer) error
}

// ConfigurationLoader defines the interface for loading configuration
type ConfigurationLoader interface {
	LoadConfig(path string) (*ComplexityRequest, error)
	LoadDefaultConfig() *ComplexityRequest

	// MergeConfig merges CLI flags with configuration file
	MergeConfig(base *ComplexityRequest, override *ComplexityRequest) *ComplexityRequest
}

package domain

import (
	"context"
	"fmt"
	"io"
)

// DeadCodeSeverity is the severity of an unreachable-code finding
type DeadCodeSeverity string

const (
	DeadCodeSeverityCritical DeadCodeSeverity = "critical"
	DeadCodeSeverityWarning  DeadCodeSeverity = "warning"
	DeadCodeSeverityInfo     DeadCodeSeverity = "info"
)

// Level returns the numeric level of the severity, higher is worse
func (s DeadCodeSeverity) Level() int {
	switch s {
	case DeadCodeSeverityCritical:
		return 3
	case DeadCodeSeverityWarning:
		return 2
	case DeadCodeSeverityInfo:
		return 1
	}
	return 0
}

// IsAtLeast reports whether s is at or above min. An empty min admits everything.
func (s DeadCodeSeverity) IsAtLeast(min DeadCodeSeverity) bool {
	if min == "" {
		return true
	}
	return s.Level() >= min.Level()
}

// DeadCodeSortCriteria orders dead code output
type DeadCodeSortCriteria string

const (
	DeadCodeSortBySeverity DeadCodeSortCriteria = "severity"
	DeadCodeSortByLine     DeadCodeSortCriteria = "line"
	DeadCodeSortByFile     DeadCodeSortCriteria = "file"
	DeadCodeSortByFunction DeadCodeSortCriteria = "function"
)

// DeadCodeRequest represents a request for unreachable-code detection
type DeadCodeRequest struct {
	Paths []string

	OutputFormat OutputFormat
	OutputWriter io.Writer

	ShowContext  *bool
	ContextLines int
	MinSeverity  DeadCodeSeverity
	SortBy       DeadCodeSortCriteria

	ConfigPath string

	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// DeadCodeLocation is the source range of a finding
type DeadCodeLocation struct {
	FilePath    string `json:"file_path" yaml:"file_path" msgpack:"file_path"`
	StartLine   int    `json:"start_line" yaml:"start_line" msgpack:"start_line"`
	EndLine     int    `json:"end_line" yaml:"end_line" msgpack:"end_line"`
	StartColumn int    `json:"start_column" yaml:"start_column" msgpack:"start_column"`
	EndColumn   int    `json:"end_column" yaml:"end_column" msgpack:"end_column"`
}

// String formats the location as file:line
func (l DeadCodeLocation) String() string {
	return fmt.Sprintf("%s:%d", l.FilePath, l.StartLine)
}

// DeadCodeFinding is one unreachable block that holds statements
type DeadCodeFinding struct {
	Location     DeadCodeLocation `json:"location" yaml:"location" msgpack:"location"`
	FunctionName string           `json:"function_name" yaml:"function_name" msgpack:"function_name"`
	Code         string           `json:"code" yaml:"code" msgpack:"code"`
	Reason       string           `json:"reason" yaml:"reason" msgpack:"reason"`
	Severity     DeadCodeSeverity `json:"severity" yaml:"severity" msgpack:"severity"`
	Description  string           `json:"description" yaml:"description" msgpack:"description"`
	Context      []string         `json:"context,omitempty" yaml:"context,omitempty" msgpack:"context,omitempty"`
	BlockID      string           `json:"block_id" yaml:"block_id" msgpack:"block_id"`
}

// FunctionDeadCode holds the findings of one function
type FunctionDeadCode struct {
	Name           string            `json:"name" yaml:"name" msgpack:"name"`
	FilePath       string            `json:"file_path" yaml:"file_path" msgpack:"file_path"`
	Findings       []DeadCodeFinding `json:"findings" yaml:"findings" msgpack:"findings"`
	TotalBlocks    int               `json:"total_blocks" yaml:"total_blocks" msgpack:"total_blocks"`
	DeadBlocks     int               `json:"dead_blocks" yaml:"dead_blocks" msgpack:"dead_blocks"`
	ReachableRatio float64           `json:"reachable_ratio" yaml:"reachable_ratio" msgpack:"reachable_ratio"`
	CriticalCount  int               `json:"critical_count" yaml:"critical_count" msgpack:"critical_count"`
	WarningCount   int               `json:"warning_count" yaml:"warning_count" msgpack:"warning_count"`
	InfoCount      int               `json:"info_count" yaml:"info_count" msgpack:"info_count"`
}

// CalculateSeverityCounts recomputes the per-severity counters from Findings
func (f *FunctionDeadCode) CalculateSeverityCounts() {
	f.CriticalCount, f.WarningCount, f.InfoCount = 0, 0, 0
	for _, finding := range f.Findings {
		switch finding.Severity {
		case DeadCodeSeverityCritical:
			f.CriticalCount++
		case DeadCodeSeverityWarning:
			f.WarningCount++
		case DeadCodeSeverityInfo:
			f.InfoCount++
		}
	}
}

// HasFindingsAtSeverity reports whether any finding reaches min
func (f *FunctionDeadCode) HasFindingsAtSeverity(min DeadCodeSeverity) bool {
	for _, finding := range f.Findings {
		if finding.Severity.IsAtLeast(min) {
			return true
		}
	}
	return false
}

// FileDeadCode holds the findings of one source file
type FileDeadCode struct {
	FilePath          string             `json:"file_path" yaml:"file_path" msgpack:"file_path"`
	Functions         []FunctionDeadCode `json:"functions" yaml:"functions" msgpack:"functions"`
	TotalFindings     int                `json:"total_findings" yaml:"total_findings" msgpack:"total_findings"`
	TotalFunctions    int                `json:"total_functions" yaml:"total_functions" msgpack:"total_functions"`
	AffectedFunctions int                `json:"affected_functions" yaml:"affected_functions" msgpack:"affected_functions"`
	DeadCodeRatio     float64            `json:"dead_code_ratio" yaml:"dead_code_ratio" msgpack:"dead_code_ratio"`
}

// DeadCodeSummary aggregates findings across files
type DeadCodeSummary struct {
	TotalFiles            int            `json:"total_files" yaml:"total_files" msgpack:"total_files"`
	TotalFunctions        int            `json:"total_functions" yaml:"total_functions" msgpack:"total_functions"`
	TotalFindings         int            `json:"total_findings" yaml:"total_findings" msgpack:"total_findings"`
	FilesWithDeadCode     int            `json:"files_with_dead_code" yaml:"files_with_dead_code" msgpack:"files_with_dead_code"`
	FunctionsWithDeadCode int            `json:"functions_with_dead_code" yaml:"functions_with_dead_code" msgpack:"functions_with_dead_code"`
	CriticalFindings      int            `json:"critical_findings" yaml:"critical_findings" msgpack:"critical_findings"`
	WarningFindings       int            `json:"warning_findings" yaml:"warning_findings" msgpack:"warning_findings"`
	InfoFindings          int            `json:"info_findings" yaml:"info_findings" msgpack:"info_findings"`
	FindingsByReason      map[string]int `json:"findings_by_reason" yaml:"findings_by_reason" msgpack:"findings_by_reason"`
	TotalBlocks           int            `json:"total_blocks" yaml:"total_blocks" msgpack:"total_blocks"`
	DeadBlocks            int            `json:"dead_blocks" yaml:"dead_blocks" msgpack:"dead_blocks"`
	OverallDeadRatio      float64        `json:"overall_dead_ratio" yaml:"overall_dead_ratio" msgpack:"overall_dead_ratio"`
}

// DeadCodeResponse is the result of a dead code request
type DeadCodeResponse struct {
	Files       []FileDeadCode  `json:"files" yaml:"files" msgpack:"files"`
	Summary     DeadCodeSummary `json:"summary" yaml:"summary" msgpack:"summary"`
	Warnings    []string        `json:"warnings,omitempty" yaml:"warnings,omitempty" msgpack:"warnings,omitempty"`
	Errors      []string        `json:"errors,omitempty" yaml:"errors,omitempty" msgpack:"errors,omitempty"`
	GeneratedAt string          `json:"generated_at" yaml:"generated_at" msgpack:"generated_at"`
	Version     string          `json:"version" yaml:"version" msgpack:"version"`
	Config      interface{}     `json:"config,omitempty" yaml:"config,omitempty" msgpack:"config,omitempty"`
}

// DeadCodeService detects unreachable code
type DeadCodeService interface {
	Analyze(ctx context.Context, req DeadCodeRequest) (*DeadCodeResponse, error)
	AnalyzeFile(ctx context.Context, filePath string, req DeadCodeRequest) (*FileDeadCode, error)
}

// BoolValue dereferences p, falling back to def when p is nil
func BoolValue(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// BoolPtr returns a pointer to v
func BoolPtr(v bool) *bool {
	return &v
}

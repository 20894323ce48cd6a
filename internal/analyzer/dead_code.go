package analyzer

import (
	"sort"
	"strings"
	"time"
)

type SeverityLevel string

const (
	SeverityLevelCritical SeverityLevel = "critical"
	SeverityLevelWarning  SeverityLevel = "warning"
	SeverityLevelInfo     SeverityLevel = "info"
)

// SeverityRank orders severities so that filters can compare them
func SeverityRank(s SeverityLevel) int {
	switch s {
	case SeverityLevelCritical:
		return 3
	case SeverityLevelWarning:
		return 2
	case SeverityLevelInfo:
		return 1
	}
	return 0
}

type DeadCodeFinding struct {
	FunctionName string         `json:"function_name"`
	FilePath     string         `json:"file_path"`
	StartLine    int            `json:"start_line"`
	StartCol     int            `json:"start_col"`
	EndLine      int            `json:"end_line"`
	BlockID      string         `json:"block_id"`
	Code         string         `json:"code"`
	Reason       DeadCodeReason `json:"reason"`
	Severity     SeverityLevel  `json:"severity"`
	Description  string         `json:"description"`
	Context      []string       `json:"context,omitempty"`
}

type DeadCodeResult struct {
	FunctionName   string             `json:"function_name"`
	FilePath       string             `json:"file_path"`
	Findings       []*DeadCodeFinding `json:"findings"`
	TotalBlocks    int                `json:"total_blocks"`
	DeadBlocks     int                `json:"dead_blocks"`
	ReachableRatio float64            `json:"reachable_ratio"`
	AnalysisTime   time.Duration      `json:"analysis_time"`
}

// DeadCodeDetector turns the unreachable-code diagnostics of a CFG into findings
type DeadCodeDetector struct {
	cfg      *CFG
	filePath string
}

func NewDeadCodeDetector(cfg *CFG) *DeadCodeDetector {
	return &DeadCodeDetector{cfg: cfg}
}

func NewDeadCodeDetectorWithFilePath(cfg *CFG, filePath string) *DeadCodeDetector {
	return &DeadCodeDetector{cfg: cfg, filePath: filePath}
}

func (dcd *DeadCodeDetector) Detect() *DeadCodeResult {
	startTime := time.Now()

	result := &DeadCodeResult{
		FilePath: dcd.filePath,
		Findings: make([]*DeadCodeFinding, 0),
	}

	if dcd.cfg == nil {
		result.AnalysisTime = time.Since(startTime)
		return result
	}

	result.FunctionName = dcd.cfg.name
	reach := NewReachabilityAnalyzer(dcd.cfg).AnalyzeReachability()
	result.TotalBlocks = reach.TotalBlocks
	result.ReachableRatio = reach.GetReachabilityRatio()

	for _, diag := range dcd.cfg.diagnostics {
		result.Findings = append(result.Findings, dcd.newFinding(diag))
	}
	result.DeadBlocks = len(result.Findings)

	sort.SliceStable(result.Findings, func(i, j int) bool {
		return result.Findings[i].StartLine < result.Findings[j].StartLine
	})

	result.AnalysisTime = time.Since(startTime)
	return result
}

func (dcd *DeadCodeDetector) newFinding(diag *UnreachableCodeDiagnostic) *DeadCodeFinding {
	severity := SeverityLevelWarning
	switch diag.Reason {
	case ReasonUnreachableAfterReturn, ReasonUnreachableAfterBreak, ReasonUnreachableAfterContinue:
		severity = SeverityLevelCritical
	case ReasonUnreachableLoopStep:
		severity = SeverityLevelInfo
	}

	filePath := dcd.filePath
	if filePath == "" {
		filePath = diag.Start.File
	}

	return &DeadCodeFinding{
		FunctionName: diag.Function,
		FilePath:     filePath,
		StartLine:    diag.Start.StartLine,
		StartCol:     diag.Start.StartCol,
		EndLine:      diag.End.EndLine,
		BlockID:      blockName(diag.BlockID),
		Code:         codeSnippet(diag.Statements),
		Reason:       diag.Reason,
		Severity:     severity,
		Description:  describeReason(diag.Reason),
	}
}

func describeReason(reason DeadCodeReason) string {
	descriptions := map[DeadCodeReason]string{
		ReasonUnreachableAfterReturn:   "Code after return statement is unreachable",
		ReasonUnreachableAfterBreak:    "Code after break statement is unreachable",
		ReasonUnreachableAfterContinue: "Code after continue statement is unreachable",
		ReasonUnreachableBranch:        "This branch is unreachable",
		ReasonUnreachableLoopStep:      "Loop step is never executed",
		ReasonUnlabeledSwitchCode:      "Code before the first case label is unreachable",
	}

	if desc, exists := descriptions[reason]; exists {
		return desc
	}
	return "Code is unreachable"
}

func codeSnippet(statements []string) string {
	snippet := strings.Join(statements, " ")
	if len(snippet) > 100 {
		snippet = snippet[:100] + "..."
	}
	return snippet
}

func blockName(id int) string {
	return (&Block{id: id}).Name()
}

// DetectAll runs the detector over every graph of a file
func DetectAll(cfgs map[string]*CFG, filePath string) map[string]*DeadCodeResult {
	results := make(map[string]*DeadCodeResult)

	for name, cfg := range cfgs {
		detector := NewDeadCodeDetectorWithFilePath(cfg, filePath)
		results[name] = detector.Detect()
	}

	return results
}

func (dcr *DeadCodeResult) HasFindings() bool {
	return len(dcr.Findings) > 0
}

func (dcr *DeadCodeResult) GetCriticalFindings() []*DeadCodeFinding {
	var critical []*DeadCodeFinding
	for _, finding := range dcr.Findings {
		if finding.Severity == SeverityLevelCritical {
			critical = append(critical, finding)
		}
	}
	return critical
}

func (dcr *DeadCodeResult) GetWarningFindings() []*DeadCodeFinding {
	var warnings []*DeadCodeFinding
	for _, finding := range dcr.Findings {
		if finding.Severity == SeverityLevelWarning {
			warnings = append(warnings, finding)
		}
	}
	return warnings
}

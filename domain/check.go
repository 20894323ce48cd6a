package domain

// CheckResult represents the result of a quality check
type CheckResult struct {
	Passed      bool             `json:"passed" yaml:"passed"`
	ExitCode    int              `json:"exit_code" yaml:"exit_code"`
	Violations  []CheckViolation `json:"violations" yaml:"violations"`
	Summary     CheckSummary     `json:"summary" yaml:"summary"`
	Duration    int64            `json:"duration_ms" yaml:"duration_ms"`
	GeneratedAt string           `json:"generated_at" yaml:"generated_at"`
	Version     string           `json:"version" yaml:"version"`
}

// CheckViolation represents a single threshold violation
type CheckViolation struct {
	Category  string `json:"category" yaml:"category"`                       // complexity, deadcode, structure
	Rule      string `json:"rule" yaml:"rule"`                               // max-complexity, no-dead-code, valid-structure
	Severity  string `json:"severity" yaml:"severity"`                       // error, warning
	Message   string `json:"message" yaml:"message"`                         // Human-readable description
	Location  string `json:"location,omitempty" yaml:"location,omitempty"`   // File:line if applicable
	Actual    string `json:"actual" yaml:"actual"`                           // Actual value
	Threshold string `json:"threshold,omitempty" yaml:"threshold,omitempty"` // Configured threshold
}

// CheckSummary provides aggregate statistics
type CheckSummary struct {
	FilesAnalyzed           int  `json:"files_analyzed" yaml:"files_analyzed"`
	TotalViolations         int  `json:"total_violations" yaml:"total_violations"`
	ComplexityChecked       bool `json:"complexity_checked" yaml:"complexity_checked"`
	DeadCodeChecked         bool `json:"deadcode_checked" yaml:"deadcode_checked"`
	StructureChecked        bool `json:"structure_checked" yaml:"structure_checked"`
	HighComplexityFunctions int  `json:"high_complexity_functions" yaml:"high_complexity_functions"`
	DeadCodeFindings        int  `json:"dead_code_findings" yaml:"dead_code_findings"`
	StructuralErrors        int  `json:"structural_errors" yaml:"structural_errors"`
}

// Check exit codes
const (
	ExitCodePassed    = 0
	ExitCodeViolation = 1
	ExitCodeError     = 2
)

// AddViolation appends v and keeps the summary counters in step
func (r *CheckResult) AddViolation(v CheckViolation) {
	r.Violations = append(r.Violations, v)
	r.Summary.TotalViolations = len(r.Violations)
	r.Passed = false
	r.ExitCode = ExitCodeViolation
}

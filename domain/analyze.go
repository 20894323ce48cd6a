package domain

import (
	"fmt"
	"math"
	"time"
)

// Score thresholds used for grading
const (
	ScoreThresholdExcellent = 90
	ScoreThresholdGood      = 75
	ScoreThresholdFair      = 50

	// Maximum points each category may take off the overall score
	MaxComplexityPenalty = 40
	MaxDeadCodePenalty   = 30
	MaxFailurePenalty    = 30
)

// AnalyzeSummary aggregates the results of a full analysis run
type AnalyzeSummary struct {
	TotalFiles    int `json:"total_files" yaml:"total_files" msgpack:"total_files"`
	AnalyzedFiles int `json:"analyzed_files" yaml:"analyzed_files" msgpack:"analyzed_files"`

	ComplexityEnabled     bool    `json:"complexity_enabled" yaml:"complexity_enabled" msgpack:"complexity_enabled"`
	TotalFunctions        int     `json:"total_functions" yaml:"total_functions" msgpack:"total_functions"`
	AverageComplexity     float64 `json:"average_complexity" yaml:"average_complexity" msgpack:"average_complexity"`
	HighComplexityCount   int     `json:"high_complexity_count" yaml:"high_complexity_count" msgpack:"high_complexity_count"`
	MediumComplexityCount int     `json:"medium_complexity_count" yaml:"medium_complexity_count" msgpack:"medium_complexity_count"`

	DeadCodeEnabled  bool `json:"dead_code_enabled" yaml:"dead_code_enabled" msgpack:"dead_code_enabled"`
	DeadCodeCount    int  `json:"dead_code_count" yaml:"dead_code_count" msgpack:"dead_code_count"`
	CriticalDeadCode int  `json:"critical_dead_code" yaml:"critical_dead_code" msgpack:"critical_dead_code"`
	WarningDeadCode  int  `json:"warning_dead_code" yaml:"warning_dead_code" msgpack:"warning_dead_code"`
	InfoDeadCode     int  `json:"info_dead_code" yaml:"info_dead_code" msgpack:"info_dead_code"`

	// Functions whose graph could not be built (structural or malformed switch errors)
	FailedFunctions int `json:"failed_functions" yaml:"failed_functions" msgpack:"failed_functions"`

	ComplexityScore int    `json:"complexity_score" yaml:"complexity_score" msgpack:"complexity_score"`
	DeadCodeScore   int    `json:"dead_code_score" yaml:"dead_code_score" msgpack:"dead_code_score"`
	StructureScore  int    `json:"structure_score" yaml:"structure_score" msgpack:"structure_score"`
	HealthScore     int    `json:"health_score" yaml:"health_score" msgpack:"health_score"`
	Grade           string `json:"grade" yaml:"grade" msgpack:"grade"`
}

// Validate rejects summaries whose counters cannot be scored
func (s *AnalyzeSummary) Validate() error {
	if s.TotalFiles < 0 || s.AnalyzedFiles < 0 || s.TotalFunctions < 0 {
		return NewValidationError("summary counts must not be negative")
	}
	if s.AverageComplexity < 0 || math.IsNaN(s.AverageComplexity) {
		return NewValidationError(fmt.Sprintf("invalid average complexity %v", s.AverageComplexity))
	}
	if s.DeadCodeCount < 0 || s.FailedFunctions < 0 {
		return NewValidationError("finding counts must not be negative")
	}
	return nil
}

// CalculateHealthScore fills the category scores, the overall score and the grade
func (s *AnalyzeSummary) CalculateHealthScore() error {
	if err := s.Validate(); err != nil {
		s.HealthScore = 0
		s.Grade = "N/A"
		return err
	}

	complexityPenalty := 0
	if s.ComplexityEnabled {
		complexityPenalty = s.complexityPenalty()
	}
	deadCodePenalty := 0
	if s.DeadCodeEnabled {
		deadCodePenalty = s.deadCodePenalty()
	}
	failurePenalty := s.failurePenalty()

	s.ComplexityScore = penaltyToScore(complexityPenalty, MaxComplexityPenalty)
	s.DeadCodeScore = penaltyToScore(deadCodePenalty, MaxDeadCodePenalty)
	s.StructureScore = penaltyToScore(failurePenalty, MaxFailurePenalty)

	score := 100 - complexityPenalty - deadCodePenalty - failurePenalty
	if score < 0 {
		score = 0
	}
	s.HealthScore = score
	s.Grade = GetGradeFromScore(score)
	return nil
}

func (s *AnalyzeSummary) complexityPenalty() int {
	// 0 at average 2, growing linearly to 20 at average 12
	avg := (s.AverageComplexity - 2) * 2
	avg = math.Max(0, math.Min(20, avg))

	ratio := 0.0
	if s.TotalFunctions > 0 {
		ratio = float64(s.HighComplexityCount*2+s.MediumComplexityCount) / float64(2*s.TotalFunctions)
	}
	share := math.Min(20, ratio*40)

	return int(math.Round(math.Min(MaxComplexityPenalty, avg+share)))
}

func (s *AnalyzeSummary) deadCodePenalty() int {
	weighted := float64(s.CriticalDeadCode)*1.0 + float64(s.WarningDeadCode)*0.5 + float64(s.InfoDeadCode)*0.2
	if weighted == 0 {
		return 0
	}
	// log floor keeps a handful of findings visible in large code bases
	logF := 4 * math.Log2(weighted+1)
	prop := 0.0
	if s.TotalFunctions > 0 {
		prop = MaxDeadCodePenalty * math.Min(1, weighted/float64(s.TotalFunctions))
	}
	return int(math.Round(math.Min(MaxDeadCodePenalty, math.Max(logF, prop))))
}

func (s *AnalyzeSummary) failurePenalty() int {
	if s.FailedFunctions == 0 {
		return 0
	}
	return int(math.Round(math.Min(MaxFailurePenalty, 10*math.Log2(float64(s.FailedFunctions)+1))))
}

func penaltyToScore(penalty, max int) int {
	if max <= 0 {
		return 100
	}
	score := 100 - int(math.Round(float64(penalty)*100/float64(max)))
	if score < 0 {
		return 0
	}
	return score
}

// GetGradeFromScore maps a 0-100 score to a letter grade
func GetGradeFromScore(score int) string {
	switch {
	case score >= ScoreThresholdExcellent:
		return "A"
	case score >= ScoreThresholdGood:
		return "B"
	case score >= ScoreThresholdFair:
		return "C"
	case score >= 25:
		return "D"
	default:
		return "F"
	}
}

// AnalyzeResponse is the combined output of the analyze command
type AnalyzeResponse struct {
	CFG         *CFGResponse        `json:"cfg,omitempty" yaml:"cfg,omitempty" msgpack:"cfg,omitempty"`
	Complexity  *ComplexityResponse `json:"complexity,omitempty" yaml:"complexity,omitempty" msgpack:"complexity,omitempty"`
	DeadCode    *DeadCodeResponse   `json:"dead_code,omitempty" yaml:"dead_code,omitempty" msgpack:"dead_code,omitempty"`
	Summary     AnalyzeSummary      `json:"summary" yaml:"summary" msgpack:"summary"`
	GeneratedAt time.Time           `json:"generated_at" yaml:"generated_at" msgpack:"generated_at"`
	Duration    int64               `json:"duration_ms" yaml:"duration_ms" msgpack:"duration_ms"`
	Version     string              `json:"version" yaml:"version" msgpack:"version"`
}

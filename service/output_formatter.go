package service

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ludo-technologies/ccfg/domain"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct {
	high   *color.Color
	medium *color.Color
	low    *color.Color
	header *color.Color
	faint  *color.Color
}

// NewOutputFormatter creates a new output formatter. Colors follow
// color.NoColor unless disabled with SetColor.
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{
		high:   color.New(color.FgRed, color.Bold),
		medium: color.New(color.FgYellow),
		low:    color.New(color.FgGreen),
		header: color.New(color.Bold),
		faint:  color.New(color.Faint),
	}
}

// SetColor turns ANSI colors off when enabled is false
func (f *OutputFormatterImpl) SetColor(enabled bool) {
	if enabled {
		return
	}
	for _, c := range []*color.Color{f.high, f.medium, f.low, f.header, f.faint} {
		c.DisableColor()
	}
}

// Format renders a complexity response into a string
func (f *OutputFormatterImpl) Format(response *domain.ComplexityResponse, format domain.OutputFormat) (string, error) {
	var buf bytes.Buffer
	if err := f.Write(response, format, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write writes the complexity response in the specified format
func (f *OutputFormatterImpl) Write(response *domain.ComplexityResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatText, "":
		return f.writeComplexityText(response, writer)
	default:
		return writeStructured(response, format, writer)
	}
}

// WriteDeadCode writes the dead code response in the specified format
func (f *OutputFormatterImpl) WriteDeadCode(response *domain.DeadCodeResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatText, "":
		return f.writeDeadCodeText(response, writer)
	default:
		return writeStructured(response, format, writer)
	}
}

// WriteAnalyze writes the unified analysis response in the specified format
func (f *OutputFormatterImpl) WriteAnalyze(response *domain.AnalyzeResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatText, "":
		return f.writeAnalyzeText(response, writer)
	default:
		return writeStructured(response, format, writer)
	}
}

// writeStructured handles the machine-readable formats shared by every report
func writeStructured(data interface{}, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, data)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, data)
	case domain.OutputFormatMsgPack:
		return WriteMsgPack(writer, data)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// riskColor picks the color of a risk level
func (f *OutputFormatterImpl) riskColor(level domain.RiskLevel) *color.Color {
	switch level {
	case domain.RiskLevelHigh:
		return f.high
	case domain.RiskLevelMedium:
		return f.medium
	default:
		return f.low
	}
}

// severityColor picks the color of a dead code severity
func (f *OutputFormatterImpl) severityColor(s domain.DeadCodeSeverity) *color.Color {
	switch s {
	case domain.DeadCodeSeverityCritical:
		return f.high
	case domain.DeadCodeSeverityWarning:
		return f.medium
	default:
		return f.faint
	}
}

// writeComplexityText writes complexity response as plain text
func (f *OutputFormatterImpl) writeComplexityText(response *domain.ComplexityResponse, writer io.Writer) error {
	var sb strings.Builder
	sb.WriteString(f.header.Sprint("\n=== Complexity Analysis ===") + "\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n", response.GeneratedAt)
	fmt.Fprintf(&sb, "Version: %s\n\n", response.Version)

	sb.WriteString("Summary:\n")
	fmt.Fprintf(&sb, "  Files analyzed: %d\n", response.Summary.FilesAnalyzed)
	fmt.Fprintf(&sb, "  Total functions: %d\n", response.Summary.TotalFunctions)
	fmt.Fprintf(&sb, "  Average complexity: %.2f\n", response.Summary.AverageComplexity)
	fmt.Fprintf(&sb, "  Max complexity: %d\n", response.Summary.MaxComplexity)
	fmt.Fprintf(&sb, "  Min complexity: %d\n\n", response.Summary.MinComplexity)

	sb.WriteString("Risk Distribution:\n")
	fmt.Fprintf(&sb, "  High risk: %s\n", f.high.Sprint(response.Summary.HighRiskFunctions))
	fmt.Fprintf(&sb, "  Medium risk: %s\n", f.medium.Sprint(response.Summary.MediumRiskFunctions))
	fmt.Fprintf(&sb, "  Low risk: %s\n\n", f.low.Sprint(response.Summary.LowRiskFunctions))

	if len(response.Functions) > 0 {
		sb.WriteString("Functions:\n")
		for _, fn := range response.Functions {
			indicator := ""
			switch fn.RiskLevel {
			case domain.RiskLevelHigh:
				indicator = " [HIGH]"
			case domain.RiskLevelMedium:
				indicator = " [MEDIUM]"
			}
			c := f.riskColor(fn.RiskLevel)
			fmt.Fprintf(&sb, "  %s: %s%s\n", fn.Name, c.Sprint(fn.Metrics.Complexity), c.Sprint(indicator))
			fmt.Fprintf(&sb, "    File: %s:%d-%d\n", fn.FilePath, fn.StartLine, fn.EndLine)
			m := fn.Metrics
			fmt.Fprintf(&sb, "    Blocks: %d, Edges: %d, Nesting: %d, Loops: %d, Switch cases: %d\n",
				m.Nodes, m.Edges, m.NestingDepth, m.Loops, m.SwitchCases)
			if m.DeadBlocks > 0 {
				fmt.Fprintf(&sb, "    Dead blocks: %s\n", f.medium.Sprint(m.DeadBlocks))
			}
		}
	}

	writeMessages(&sb, "Warnings", response.Warnings)
	writeMessages(&sb, "Errors", response.Errors)

	_, err := io.WriteString(writer, sb.String())
	return err
}

// writeDeadCodeText writes dead code response as plain text
func (f *OutputFormatterImpl) writeDeadCodeText(response *domain.DeadCodeResponse, writer io.Writer) error {
	var sb strings.Builder
	sb.WriteString(f.header.Sprint("\n=== Dead Code Analysis ===") + "\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n", response.GeneratedAt)
	fmt.Fprintf(&sb, "Version: %s\n\n", response.Version)

	sb.WriteString("Summary:\n")
	fmt.Fprintf(&sb, "  Total files: %d\n", response.Summary.TotalFiles)
	fmt.Fprintf(&sb, "  Total functions: %d\n", response.Summary.TotalFunctions)
	fmt.Fprintf(&sb, "  Total findings: %d\n", response.Summary.TotalFindings)
	fmt.Fprintf(&sb, "  Dead blocks: %d of %d (%.1f%%)\n\n",
		response.Summary.DeadBlocks, response.Summary.TotalBlocks, response.Summary.OverallDeadRatio*100)

	sb.WriteString("Severity Distribution:\n")
	fmt.Fprintf(&sb, "  Critical: %s\n", f.high.Sprint(response.Summary.CriticalFindings))
	fmt.Fprintf(&sb, "  Warning: %s\n", f.medium.Sprint(response.Summary.WarningFindings))
	fmt.Fprintf(&sb, "  Info: %d\n\n", response.Summary.InfoFindings)

	for _, file := range response.Files {
		if file.TotalFindings == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%s:\n", file.FilePath)
		for _, fn := range file.Functions {
			if len(fn.Findings) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "  %s:\n", fn.Name)
			for _, finding := range fn.Findings {
				c := f.severityColor(finding.Severity)
				fmt.Fprintf(&sb, "    Line %d-%d: %s %s\n",
					finding.Location.StartLine, finding.Location.EndLine,
					finding.Reason, c.Sprintf("[%s]", strings.ToUpper(string(finding.Severity))))
				if finding.Description != "" {
					fmt.Fprintf(&sb, "      %s\n", finding.Description)
				}
				for _, line := range finding.Context {
					fmt.Fprintf(&sb, "      %s\n", f.faint.Sprint(line))
				}
			}
		}
	}

	if response.Summary.TotalFindings == 0 {
		sb.WriteString(f.low.Sprint("No dead code found.") + "\n")
	}

	writeMessages(&sb, "Warnings", response.Warnings)
	writeMessages(&sb, "Errors", response.Errors)

	_, err := io.WriteString(writer, sb.String())
	return err
}

// writeCFGSummaryText writes the graph totals of an analyze run
func (f *OutputFormatterImpl) writeCFGSummaryText(response *domain.CFGResponse, sb *strings.Builder) {
	sb.WriteString(f.header.Sprint("\n=== Control-Flow Graphs ===") + "\n\n")
	s := response.Summary
	fmt.Fprintf(sb, "  Files analyzed: %d\n", s.FilesAnalyzed)
	fmt.Fprintf(sb, "  Functions built: %d\n", s.FunctionsBuilt)
	if s.FunctionsFailed > 0 {
		fmt.Fprintf(sb, "  Functions failed: %s\n", f.high.Sprint(s.FunctionsFailed))
	}
	fmt.Fprintf(sb, "  Blocks: %d, Edges: %d\n", s.TotalBlocks, s.TotalEdges)
	fmt.Fprintf(sb, "  Unreachable regions: %d\n", s.UnreachableCount)

	for _, file := range response.Files {
		for _, fe := range file.Errors {
			fmt.Fprintf(sb, "  %s %s:%d: %s\n", f.high.Sprint("error"), fe.File, fe.Location.StartLine, fe.Message)
		}
	}
}

// writeAnalyzeText writes unified analysis response as plain text
func (f *OutputFormatterImpl) writeAnalyzeText(response *domain.AnalyzeResponse, writer io.Writer) error {
	var sb strings.Builder
	sb.WriteString(f.header.Sprint("\n=== ccfg Analysis Report ===") + "\n")
	fmt.Fprintf(&sb, "Generated: %s\n", response.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Duration: %dms\n", response.Duration)
	fmt.Fprintf(&sb, "Version: %s\n\n", response.Version)

	s := response.Summary
	gradeColor := f.low
	switch {
	case s.HealthScore < domain.ScoreThresholdFair:
		gradeColor = f.high
	case s.HealthScore < domain.ScoreThresholdGood:
		gradeColor = f.medium
	}
	fmt.Fprintf(&sb, "Health Score: %s (Grade %s)\n", gradeColor.Sprintf("%d/100", s.HealthScore), gradeColor.Sprint(s.Grade))
	if s.ComplexityEnabled {
		fmt.Fprintf(&sb, "  Complexity: %d/100\n", s.ComplexityScore)
	}
	if s.DeadCodeEnabled {
		fmt.Fprintf(&sb, "  Dead code: %d/100\n", s.DeadCodeScore)
	}
	fmt.Fprintf(&sb, "  Structure: %d/100\n", s.StructureScore)

	if response.CFG != nil {
		f.writeCFGSummaryText(response.CFG, &sb)
	}
	if _, err := io.WriteString(writer, sb.String()); err != nil {
		return err
	}

	if response.Complexity != nil {
		if err := f.writeComplexityText(response.Complexity, writer); err != nil {
			return err
		}
	}
	if response.DeadCode != nil {
		if err := f.writeDeadCodeText(response.DeadCode, writer); err != nil {
			return err
		}
	}
	return nil
}

func writeMessages(sb *strings.Builder, title string, messages []string) {
	if len(messages) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, m := range messages {
		fmt.Fprintf(sb, "  - %s\n", m)
	}
}

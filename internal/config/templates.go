package config

import (
	"strconv"
	"strings"
)

// ProjectType represents the layout of a C project
type ProjectType string

const (
	ProjectTypeGeneric  ProjectType = "generic"
	ProjectTypeEmbedded ProjectType = "embedded"
	ProjectTypeLibrary  ProjectType = "library"
)

// Strictness represents the analysis strictness level
type Strictness string

const (
	StrictnessRelaxed  Strictness = "relaxed"
	StrictnessStandard Strictness = "standard"
	StrictnessStrict   Strictness = "strict"
)

// ProjectPreset holds configuration presets for different project types
type ProjectPreset struct {
	IncludePatterns []string
	ExcludePatterns []string
}

// StrictnessPreset holds threshold values for different strictness levels
type StrictnessPreset struct {
	LowThreshold    int
	MediumThreshold int
	MaxComplexity   int
	MinSeverity     string
}

// GetProjectPresets returns presets for different project types
func GetProjectPresets() map[ProjectType]ProjectPreset {
	return map[ProjectType]ProjectPreset{
		ProjectTypeGeneric: {
			IncludePatterns: []string{
				"**/*.c",
				"**/*.h",
			},
			ExcludePatterns: []string{
				"**/.git/**",
				"**/build/**",
				"**/third_party/**",
				"**/vendor/**",
			},
		},
		ProjectTypeEmbedded: {
			IncludePatterns: []string{
				"**/*.c",
				"**/*.h",
			},
			ExcludePatterns: []string{
				"**/.git/**",
				"**/build/**",
				"**/Drivers/**",
				"**/CMSIS/**",
				"**/hal/**",
				"**/startup_*.c",
				"**/system_*.c",
			},
		},
		ProjectTypeLibrary: {
			IncludePatterns: []string{
				"src/**/*.c",
				"include/**/*.h",
			},
			ExcludePatterns: []string{
				"**/.git/**",
				"**/build/**",
				"**/test/**",
				"**/tests/**",
				"**/examples/**",
				"**/bench/**",
			},
		},
	}
}

// GetStrictnessPresets returns presets for different strictness levels
func GetStrictnessPresets() map[Strictness]StrictnessPreset {
	return map[Strictness]StrictnessPreset{
		StrictnessRelaxed: {
			LowThreshold:    15,
			MediumThreshold: 30,
			MaxComplexity:   0, // No limit
			MinSeverity:     "critical",
		},
		StrictnessStandard: {
			LowThreshold:    DefaultLowComplexityThreshold,
			MediumThreshold: DefaultMediumComplexityThreshold,
			MaxComplexity:   0, // No limit
			MinSeverity:     "warning",
		},
		StrictnessStrict: {
			LowThreshold:    5,
			MediumThreshold: 10,
			MaxComplexity:   15,
			MinSeverity:     "info",
		},
	}
}

// ApplyPresets overwrites the preset-controlled fields of c
func (c *Config) ApplyPresets(projectType ProjectType, strictness Strictness) {
	if preset, ok := GetProjectPresets()[projectType]; ok {
		c.Analysis.IncludePatterns = append([]string(nil), preset.IncludePatterns...)
		c.Analysis.ExcludePatterns = append([]string(nil), preset.ExcludePatterns...)
	}
	if strict, ok := GetStrictnessPresets()[strictness]; ok {
		c.Complexity.LowThreshold = strict.LowThreshold
		c.Complexity.MediumThreshold = strict.MediumThreshold
		c.Complexity.MaxComplexity = strict.MaxComplexity
		c.DeadCode.MinSeverity = strict.MinSeverity
	}
}

// GetFullConfigTemplate returns the documented config template as YAML
func GetFullConfigTemplate(projectType ProjectType, strictness Strictness) string {
	preset := GetProjectPresets()[projectType]
	strict := GetStrictnessPresets()[strictness]

	return `# ccfg configuration
# Documentation: https://github.com/ludo-technologies/ccfg

# ============================================================================
# CONTROL-FLOW GRAPH EXPORT
# ============================================================================
cfg:
  # List the entry and exit sentinels in exports
  include_sentinels: true

  # Print the statements of each block
  show_statements: true

  # Keep unreachable blocks in exports (drawn dashed in DOT)
  include_dead_blocks: true

# ============================================================================
# COMPLEXITY ANALYSIS
# ============================================================================
# Cyclomatic complexity E - N + 2 over the reachable part of each graph
complexity:
  enabled: true

  # Functions with complexity <= this value are LOW risk
  low_threshold: ` + strconv.Itoa(strict.LowThreshold) + `

  # Functions above low_threshold but <= this value are MEDIUM risk
  medium_threshold: ` + strconv.Itoa(strict.MediumThreshold) + `

  # Maximum allowed complexity for 'ccfg check' (0 = no limit)
  max_complexity: ` + strconv.Itoa(strict.MaxComplexity) + `

  # Report functions with complexity = 1
  report_unchanged: true

# ============================================================================
# DEAD CODE DETECTION
# ============================================================================
dead_code:
  enabled: true

  # Minimum severity level to report: info, warning, critical
  min_severity: ` + strict.MinSeverity + `

  # Show source lines around each finding
  show_context: false
  context_lines: 3

  # severity, line, file, function
  sort_by: severity

# ============================================================================
# OUTPUT SETTINGS
# ============================================================================
output:
  # text, json, yaml, dot, msgpack
  format: text
  show_details: false
  sort_by: complexity
  min_complexity: 1

  # Where report files go (empty = next to the sources)
  directory: ""

  # DOT layout direction: TB, BT, LR, RL
  rank_dir: TB

  # Use colors in terminal output (disable for CI logs)
  color: true

# ============================================================================
# ANALYSIS SCOPE
# ============================================================================
analysis:
  include_patterns:
` + formatYAMLList(preset.IncludePatterns) + `
  exclude_patterns:
` + formatYAMLList(preset.ExcludePatterns) + `
  recursive: true
  respect_gitignore: true

performance:
  # Concurrent files and functions
  max_goroutines: ` + strconv.Itoa(DefaultMaxGoroutines) + `
  timeout_seconds: ` + strconv.Itoa(DefaultTimeoutSeconds) + `

logging:
  # debug, info, warn, error
  level: warn
  # console or json
  format: console
`
}

// GetMinimalConfigTemplate returns a minimal config template
func GetMinimalConfigTemplate() string {
	return `# ccfg configuration (minimal)
# See full options: https://github.com/ludo-technologies/ccfg

complexity:
  low_threshold: 9
  medium_threshold: 19

dead_code:
  min_severity: warning

analysis:
  include_patterns: ["**/*.c", "**/*.h"]
  exclude_patterns: ["**/build/**"]
`
}

// formatYAMLList renders items as an indented YAML block sequence
func formatYAMLList(items []string) string {
	if len(items) == 0 {
		return "    []"
	}

	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = `    - "` + item + `"`
	}
	return strings.Join(lines, "\n")
}

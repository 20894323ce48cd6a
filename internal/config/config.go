package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ludo-technologies/ccfg/internal/constants"
)

// Default complexity thresholds based on McCabe complexity standards
const (
	// DefaultLowComplexityThreshold defines the upper bound for low complexity functions
	DefaultLowComplexityThreshold = constants.DefaultLowThreshold

	// DefaultMediumComplexityThreshold defines the upper bound for medium complexity functions
	DefaultMediumComplexityThreshold = constants.DefaultMediumThreshold

	// DefaultMinComplexityFilter defines the minimum complexity to report
	DefaultMinComplexityFilter = 1

	// DefaultMaxComplexityLimit of 0 means no maximum complexity enforcement
	DefaultMaxComplexityLimit = 0
)

// Default dead code detection settings
const (
	DefaultDeadCodeMinSeverity  = "warning"
	DefaultDeadCodeContextLines = 3
	DefaultDeadCodeSortBy       = "severity"
)

// Default runtime settings
const (
	DefaultMaxGoroutines  = 4
	DefaultTimeoutSeconds = 300
	DefaultRankDir        = "TB"
)

// Config represents the main configuration structure
type Config struct {
	// CFG holds graph construction and export options
	CFG CFGConfig `json:"cfg" mapstructure:"cfg" yaml:"cfg"`

	// Complexity holds complexity analysis configuration
	Complexity ComplexityConfig `json:"complexity" mapstructure:"complexity" yaml:"complexity"`

	// DeadCode holds dead code detection configuration
	DeadCode DeadCodeConfig `json:"dead_code" mapstructure:"dead_code" yaml:"dead_code"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Analysis holds file discovery configuration
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis" yaml:"analysis"`

	// Performance holds concurrency limits
	Performance PerformanceConfig `json:"performance" mapstructure:"performance" yaml:"performance"`

	// Logging holds logger configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging" yaml:"logging"`
}

// CFGConfig holds options for graph construction and export
type CFGConfig struct {
	// IncludeSentinels controls whether entry/exit blocks appear in exports
	IncludeSentinels bool `json:"include_sentinels" mapstructure:"include_sentinels" yaml:"include_sentinels"`

	// ShowStatements controls whether exports list block statements
	ShowStatements bool `json:"show_statements" mapstructure:"show_statements" yaml:"show_statements"`

	// IncludeDeadBlocks controls whether unreachable blocks appear in exports
	IncludeDeadBlocks bool `json:"include_dead_blocks" mapstructure:"include_dead_blocks" yaml:"include_dead_blocks"`
}

// ComplexityConfig holds configuration for cyclomatic complexity analysis
type ComplexityConfig struct {
	// LowThreshold is the upper bound for low complexity (inclusive)
	LowThreshold int `json:"low_threshold" mapstructure:"low_threshold" yaml:"low_threshold"`

	// MediumThreshold is the upper bound for medium complexity (inclusive)
	MediumThreshold int `json:"medium_threshold" mapstructure:"medium_threshold" yaml:"medium_threshold"`

	// Enabled controls whether complexity analysis is performed
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`

	// ReportUnchanged controls whether to report functions with complexity = 1
	ReportUnchanged bool `json:"report_unchanged" mapstructure:"report_unchanged" yaml:"report_unchanged"`

	// MaxComplexity is the maximum allowed complexity before failing analysis
	// 0 means no limit
	MaxComplexity int `json:"max_complexity" mapstructure:"max_complexity" yaml:"max_complexity"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, dot, msgpack
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// ShowDetails controls whether to show detailed breakdown
	ShowDetails bool `json:"show_details" mapstructure:"show_details" yaml:"show_details"`

	// SortBy specifies how to sort complexity results: name, complexity, risk
	SortBy string `json:"sort_by" mapstructure:"sort_by" yaml:"sort_by"`

	// MinComplexity is the minimum complexity to report
	MinComplexity int `json:"min_complexity" mapstructure:"min_complexity" yaml:"min_complexity"`

	// Directory specifies where report files are written (empty = next to inputs)
	Directory string `json:"directory" mapstructure:"directory" yaml:"directory"`

	// RankDir is the DOT layout direction: TB, BT, LR, RL
	RankDir string `json:"rank_dir" mapstructure:"rank_dir" yaml:"rank_dir"`

	// Color enables ANSI colors in text output
	Color bool `json:"color" mapstructure:"color" yaml:"color"`
}

// DeadCodeConfig holds configuration for dead code detection
type DeadCodeConfig struct {
	// Enabled controls whether dead code detection is performed
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`

	// MinSeverity is the minimum severity level to report
	MinSeverity string `json:"min_severity" mapstructure:"min_severity" yaml:"min_severity"`

	// ShowContext controls whether to show surrounding source lines
	ShowContext bool `json:"show_context" mapstructure:"show_context" yaml:"show_context"`

	// ContextLines is the number of context lines to show around dead code
	ContextLines int `json:"context_lines" mapstructure:"context_lines" yaml:"context_lines"`

	// SortBy specifies how to sort results: severity, line, file, function
	SortBy string `json:"sort_by" mapstructure:"sort_by" yaml:"sort_by"`
}

// AnalysisConfig holds file discovery configuration
type AnalysisConfig struct {
	// IncludePatterns are doublestar globs a file must match
	IncludePatterns []string `json:"include_patterns" mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns are doublestar globs that drop a file or directory
	ExcludePatterns []string `json:"exclude_patterns" mapstructure:"exclude_patterns" yaml:"exclude_patterns"`

	// Recursive controls whether to analyze directories recursively
	Recursive bool `json:"recursive" mapstructure:"recursive" yaml:"recursive"`

	// RespectGitignore skips files ignored by the nearest .gitignore
	RespectGitignore bool `json:"respect_gitignore" mapstructure:"respect_gitignore" yaml:"respect_gitignore"`
}

// PerformanceConfig holds concurrency limits
type PerformanceConfig struct {
	// MaxGoroutines bounds concurrent per-file and per-function work
	MaxGoroutines int `json:"max_goroutines" mapstructure:"max_goroutines" yaml:"max_goroutines"`

	// TimeoutSeconds bounds a whole run
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level" mapstructure:"level" yaml:"level"`

	// Format is console or json
	Format string `json:"format" mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CFG: CFGConfig{
			IncludeSentinels:  true,
			ShowStatements:    true,
			IncludeDeadBlocks: true,
		},
		Complexity: ComplexityConfig{
			LowThreshold:    DefaultLowComplexityThreshold,
			MediumThreshold: DefaultMediumComplexityThreshold,
			Enabled:         true,
			ReportUnchanged: true,
			MaxComplexity:   DefaultMaxComplexityLimit,
		},
		DeadCode: DeadCodeConfig{
			Enabled:      true,
			MinSeverity:  DefaultDeadCodeMinSeverity,
			ShowContext:  false,
			ContextLines: DefaultDeadCodeContextLines,
			SortBy:       DefaultDeadCodeSortBy,
		},
		Output: OutputConfig{
			Format:        "text",
			ShowDetails:   false,
			SortBy:        "complexity",
			MinComplexity: DefaultMinComplexityFilter,
			RankDir:       DefaultRankDir,
			Color:         true,
		},
		Analysis: AnalysisConfig{
			IncludePatterns: []string{"**/*.c", "**/*.h"},
			ExcludePatterns: []string{
				"**/.git/**",
				"**/build/**",
				"**/third_party/**",
				"**/vendor/**",
			},
			Recursive:        true,
			RespectGitignore: true,
		},
		Performance: PerformanceConfig{
			MaxGoroutines:  DefaultMaxGoroutines,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration, discovering a file near
// targetPath when configPath is empty
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// loadConfigFromFile reads and parses a configuration file. CCFG_* environment
// variables override file values, e.g. CCFG_COMPLEXITY_LOW_THRESHOLD.
func loadConfigFromFile(configPath string) (*Config, error) {
	// A fresh viper instance per load avoids shared global state
	v := viper.New()
	v.SetEnvPrefix(constants.EnvVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	config := DefaultConfig()
	bindDefaults(v, config)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindDefaults registers every key so AutomaticEnv can override it
func bindDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("cfg.include_sentinels", c.CFG.IncludeSentinels)
	v.SetDefault("cfg.show_statements", c.CFG.ShowStatements)
	v.SetDefault("cfg.include_dead_blocks", c.CFG.IncludeDeadBlocks)
	v.SetDefault("complexity.low_threshold", c.Complexity.LowThreshold)
	v.SetDefault("complexity.medium_threshold", c.Complexity.MediumThreshold)
	v.SetDefault("complexity.enabled", c.Complexity.Enabled)
	v.SetDefault("complexity.report_unchanged", c.Complexity.ReportUnchanged)
	v.SetDefault("complexity.max_complexity", c.Complexity.MaxComplexity)
	v.SetDefault("dead_code.enabled", c.DeadCode.Enabled)
	v.SetDefault("dead_code.min_severity", c.DeadCode.MinSeverity)
	v.SetDefault("dead_code.show_context", c.DeadCode.ShowContext)
	v.SetDefault("dead_code.context_lines", c.DeadCode.ContextLines)
	v.SetDefault("dead_code.sort_by", c.DeadCode.SortBy)
	v.SetDefault("output.format", c.Output.Format)
	v.SetDefault("output.show_details", c.Output.ShowDetails)
	v.SetDefault("output.sort_by", c.Output.SortBy)
	v.SetDefault("output.min_complexity", c.Output.MinComplexity)
	v.SetDefault("output.directory", c.Output.Directory)
	v.SetDefault("output.rank_dir", c.Output.RankDir)
	v.SetDefault("output.color", c.Output.Color)
	v.SetDefault("analysis.include_patterns", c.Analysis.IncludePatterns)
	v.SetDefault("analysis.exclude_patterns", c.Analysis.ExcludePatterns)
	v.SetDefault("analysis.recursive", c.Analysis.Recursive)
	v.SetDefault("analysis.respect_gitignore", c.Analysis.RespectGitignore)
	v.SetDefault("performance.max_goroutines", c.Performance.MaxGoroutines)
	v.SetDefault("performance.timeout_seconds", c.Performance.TimeoutSeconds)
	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.format", c.Logging.Format)
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findDefaultConfig looks for configuration files from targetPath upward,
// then in the working directory and the XDG config directory
func findDefaultConfig(targetPath string) string {
	candidates := []string{
		constants.ConfigFileName,
		constants.AltConfigFileName,
		".ccfg.yml",
		"ccfg.yml",
	}

	if targetPath != "" {
		if absPath, err := filepath.Abs(targetPath); err == nil {
			if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, candidates); config != "" {
					return config
				}

				parent := filepath.Dir(dir)
				if parent == dir || dir == volume ||
					(volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	if config := searchConfigInDirectory(".", candidates); config != "" {
		return config
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, constants.ToolName), []string{"config.yaml"}); config != "" {
			return config
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		configDir := filepath.Join(home, ".config", constants.ToolName)
		if config := searchConfigInDirectory(configDir, []string{"config.yaml"}); config != "" {
			return config
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Complexity.LowThreshold < 1 {
		return fmt.Errorf("complexity.low_threshold must be >= 1, got %d", c.Complexity.LowThreshold)
	}

	if c.Complexity.MediumThreshold <= c.Complexity.LowThreshold {
		return fmt.Errorf("complexity.medium_threshold (%d) must be > low_threshold (%d)",
			c.Complexity.MediumThreshold, c.Complexity.LowThreshold)
	}

	if c.Complexity.MaxComplexity < 0 {
		return fmt.Errorf("complexity.max_complexity must be >= 0, got %d", c.Complexity.MaxComplexity)
	}

	if c.Complexity.MaxComplexity > 0 && c.Complexity.MaxComplexity <= c.Complexity.MediumThreshold {
		return fmt.Errorf("complexity.max_complexity (%d) must be > medium_threshold (%d) or 0 for no limit",
			c.Complexity.MaxComplexity, c.Complexity.MediumThreshold)
	}

	validFormats := map[string]bool{
		constants.OutputFormatText:    true,
		constants.OutputFormatJSON:    true,
		constants.OutputFormatYAML:    true,
		constants.OutputFormatDOT:     true,
		constants.OutputFormatMsgpack: true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml, dot, msgpack", c.Output.Format)
	}

	validSortBy := map[string]bool{
		"name":       true,
		"complexity": true,
		"risk":       true,
	}
	if !validSortBy[c.Output.SortBy] {
		return fmt.Errorf("invalid output.sort_by '%s', must be one of: name, complexity, risk", c.Output.SortBy)
	}

	if c.Output.MinComplexity < 1 {
		return fmt.Errorf("output.min_complexity must be >= 1, got %d", c.Output.MinComplexity)
	}

	switch c.Output.RankDir {
	case "TB", "BT", "LR", "RL":
	default:
		return fmt.Errorf("invalid output.rank_dir '%s', must be one of: TB, BT, LR, RL", c.Output.RankDir)
	}

	if len(c.Analysis.IncludePatterns) == 0 {
		return fmt.Errorf("analysis.include_patterns cannot be empty")
	}

	if c.Performance.MaxGoroutines < 1 {
		return fmt.Errorf("performance.max_goroutines must be >= 1, got %d", c.Performance.MaxGoroutines)
	}

	if c.Performance.TimeoutSeconds < 1 {
		return fmt.Errorf("performance.timeout_seconds must be >= 1, got %d", c.Performance.TimeoutSeconds)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logging.format '%s', must be one of: console, json", c.Logging.Format)
	}

	return c.validateDeadCodeConfig()
}

// AssessRiskLevel determines risk level based on complexity and thresholds
func (c *ComplexityConfig) AssessRiskLevel(complexity int) string {
	if complexity <= c.LowThreshold {
		return "low"
	} else if complexity <= c.MediumThreshold {
		return "medium"
	}
	return "high"
}

// ShouldReport determines if a complexity result should be reported
func (c *ComplexityConfig) ShouldReport(complexity int) bool {
	if !c.Enabled {
		return false
	}

	if complexity == 1 && !c.ReportUnchanged {
		return false
	}

	return true
}

// ExceedsMaxComplexity checks if complexity exceeds the maximum allowed
func (c *ComplexityConfig) ExceedsMaxComplexity(complexity int) bool {
	return c.MaxComplexity > 0 && complexity > c.MaxComplexity
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("cfg", config.CFG)
	v.Set("complexity", config.Complexity)
	v.Set("dead_code", config.DeadCode)
	v.Set("output", config.Output)
	v.Set("analysis", config.Analysis)
	v.Set("performance", config.Performance)
	v.Set("logging", config.Logging)

	return v.WriteConfig()
}

// validateDeadCodeConfig validates the dead code configuration
func (c *Config) validateDeadCodeConfig() error {
	validSeverities := map[string]bool{
		"critical": true,
		"warning":  true,
		"info":     true,
	}

	if !validSeverities[c.DeadCode.MinSeverity] {
		return fmt.Errorf("invalid dead_code.min_severity '%s', must be one of: critical, warning, info", c.DeadCode.MinSeverity)
	}

	if c.DeadCode.ContextLines < 0 {
		return fmt.Errorf("dead_code.context_lines must be >= 0, got %d", c.DeadCode.ContextLines)
	}

	if c.DeadCode.ContextLines > 20 {
		return fmt.Errorf("dead_code.context_lines cannot exceed 20, got %d", c.DeadCode.ContextLines)
	}

	validSortBy := map[string]bool{
		"severity": true,
		"line":     true,
		"file":     true,
		"function": true,
	}

	if !validSortBy[c.DeadCode.SortBy] {
		return fmt.Errorf("invalid dead_code.sort_by '%s', must be one of: severity, line, file, function", c.DeadCode.SortBy)
	}

	return nil
}

// GetMinSeverityLevel returns the minimum severity level as an integer for comparison
func (c *DeadCodeConfig) GetMinSeverityLevel() int {
	switch c.MinSeverity {
	case "info":
		return 1
	case "warning":
		return 2
	case "critical":
		return 3
	default:
		return 2
	}
}

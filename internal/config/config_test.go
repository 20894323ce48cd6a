package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig should not return nil")
	}

	// Verify complexity defaults
	if config.Complexity.LowThreshold != DefaultLowComplexityThreshold {
		t.Errorf("Expected LowThreshold %d, got %d", DefaultLowComplexityThreshold, config.Complexity.LowThreshold)
	}
	if config.Complexity.MediumThreshold != DefaultMediumComplexityThreshold {
		t.Errorf("Expected MediumThreshold %d, got %d", DefaultMediumComplexityThreshold, config.Complexity.MediumThreshold)
	}
	if !config.Complexity.Enabled {
		t.Error("Complexity should be enabled by default")
	}

	// Verify dead code defaults
	if !config.DeadCode.Enabled {
		t.Error("DeadCode should be enabled by default")
	}
	if config.DeadCode.MinSeverity != DefaultDeadCodeMinSeverity {
		t.Errorf("Expected MinSeverity %s, got %s", DefaultDeadCodeMinSeverity, config.DeadCode.MinSeverity)
	}

	// Verify graph and output defaults
	if !config.CFG.IncludeSentinels || !config.CFG.IncludeDeadBlocks {
		t.Error("Exports should include sentinels and dead blocks by default")
	}
	if config.Output.Format != "text" {
		t.Errorf("Expected Format 'text', got '%s'", config.Output.Format)
	}
	if config.Output.RankDir != DefaultRankDir {
		t.Errorf("Expected RankDir %s, got %s", DefaultRankDir, config.Output.RankDir)
	}

	// Verify runtime defaults
	if config.Performance.MaxGoroutines != DefaultMaxGoroutines {
		t.Errorf("Expected MaxGoroutines %d, got %d", DefaultMaxGoroutines, config.Performance.MaxGoroutines)
	}
	if config.Logging.Level != "warn" {
		t.Errorf("Expected log level warn, got %s", config.Logging.Level)
	}
}

func TestLoadDefaultConfig_MatchesDefaultConfig(t *testing.T) {
	embedded, err := LoadDefaultConfig()
	if err != nil {
		t.Fatalf("LoadDefaultConfig failed: %v", err)
	}

	want := DefaultConfig()
	if embedded.Complexity != want.Complexity {
		t.Errorf("complexity: embedded %+v, default %+v", embedded.Complexity, want.Complexity)
	}
	if embedded.DeadCode != want.DeadCode {
		t.Errorf("dead_code: embedded %+v, default %+v", embedded.DeadCode, want.DeadCode)
	}
	if embedded.Output != want.Output {
		t.Errorf("output: embedded %+v, default %+v", embedded.Output, want.Output)
	}
	if embedded.CFG != want.CFG || embedded.Performance != want.Performance || embedded.Logging != want.Logging {
		t.Error("cfg, performance and logging sections should match the defaults")
	}
	if !slices.Equal(embedded.Analysis.IncludePatterns, want.Analysis.IncludePatterns) {
		t.Errorf("include patterns differ: %v vs %v", embedded.Analysis.IncludePatterns, want.Analysis.IncludePatterns)
	}
	if !slices.Equal(embedded.Analysis.ExcludePatterns, want.Analysis.ExcludePatterns) {
		t.Errorf("exclude patterns differ: %v vs %v", embedded.Analysis.ExcludePatterns, want.Analysis.ExcludePatterns)
	}
}

func TestConfig_Validate_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}

func TestConfig_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"low threshold", func(c *Config) { c.Complexity.LowThreshold = 0 }, "complexity.low_threshold must be >= 1, got 0"},
		{"medium below low", func(c *Config) { c.Complexity.MediumThreshold = c.Complexity.LowThreshold }, "complexity.medium_threshold"},
		{"negative max", func(c *Config) { c.Complexity.MaxComplexity = -1 }, "complexity.max_complexity must be >= 0"},
		{"max below medium", func(c *Config) { c.Complexity.MaxComplexity = 5 }, "must be > medium_threshold"},
		{"format", func(c *Config) { c.Output.Format = "html" }, "invalid output.format 'html'"},
		{"sort", func(c *Config) { c.Output.SortBy = "size" }, "invalid output.sort_by"},
		{"min complexity", func(c *Config) { c.Output.MinComplexity = 0 }, "output.min_complexity"},
		{"rank dir", func(c *Config) { c.Output.RankDir = "UP" }, "invalid output.rank_dir"},
		{"no includes", func(c *Config) { c.Analysis.IncludePatterns = nil }, "analysis.include_patterns cannot be empty"},
		{"goroutines", func(c *Config) { c.Performance.MaxGoroutines = 0 }, "performance.max_goroutines"},
		{"timeout", func(c *Config) { c.Performance.TimeoutSeconds = 0 }, "performance.timeout_seconds"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "invalid logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid logging.format"},
		{"severity", func(c *Config) { c.DeadCode.MinSeverity = "fatal" }, "invalid dead_code.min_severity"},
		{"context lines", func(c *Config) { c.DeadCode.ContextLines = 21 }, "dead_code.context_lines cannot exceed 20"},
		{"dead code sort", func(c *Config) { c.DeadCode.SortBy = "size" }, "invalid dead_code.sort_by"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			err := config.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Errorf("Error %q should contain %q", err, tc.message)
			}
		})
	}
}

func TestConfig_ValidOutputFormats(t *testing.T) {
	config := DefaultConfig()

	for _, format := range []string{"text", "json", "yaml", "dot", "msgpack"} {
		config.Output.Format = format
		if err := config.Validate(); err != nil {
			t.Errorf("Format '%s' should be valid, got error: %v", format, err)
		}
	}
}

func TestComplexityConfig_AssessRiskLevel(t *testing.T) {
	config := &ComplexityConfig{LowThreshold: 5, MediumThreshold: 10}

	tests := []struct {
		complexity int
		expected   string
	}{
		{1, "low"},
		{5, "low"},
		{6, "medium"},
		{10, "medium"},
		{11, "high"},
		{100, "high"},
	}

	for _, tc := range tests {
		if result := config.AssessRiskLevel(tc.complexity); result != tc.expected {
			t.Errorf("AssessRiskLevel(%d) = %s, expected %s", tc.complexity, result, tc.expected)
		}
	}
}

func TestComplexityConfig_ShouldReport(t *testing.T) {
	enabledConfig := &ComplexityConfig{Enabled: true, ReportUnchanged: true}
	if !enabledConfig.ShouldReport(1) {
		t.Error("Should report complexity 1 when ReportUnchanged is true")
	}

	disabledConfig := &ComplexityConfig{Enabled: false}
	if disabledConfig.ShouldReport(5) {
		t.Error("Should not report when disabled")
	}

	noUnchangedConfig := &ComplexityConfig{Enabled: true, ReportUnchanged: false}
	if noUnchangedConfig.ShouldReport(1) {
		t.Error("Should not report complexity 1 when ReportUnchanged is false")
	}
	if !noUnchangedConfig.ShouldReport(5) {
		t.Error("Should report complexity > 1 even when ReportUnchanged is false")
	}
}

func TestComplexityConfig_ExceedsMaxComplexity(t *testing.T) {
	noLimitConfig := &ComplexityConfig{MaxComplexity: 0}
	if noLimitConfig.ExceedsMaxComplexity(100) {
		t.Error("Should not exceed when MaxComplexity is 0 (no limit)")
	}

	limitConfig := &ComplexityConfig{MaxComplexity: 20}
	if limitConfig.ExceedsMaxComplexity(20) {
		t.Error("20 should not exceed max of 20")
	}
	if !limitConfig.ExceedsMaxComplexity(25) {
		t.Error("25 should exceed max of 20")
	}
}

func TestDeadCodeConfig_GetMinSeverityLevel(t *testing.T) {
	tests := []struct {
		severity string
		level    int
	}{
		{"info", 1},
		{"warning", 2},
		{"critical", 3},
		{"unknown", 2}, // Default to warning
	}

	for _, tc := range tests {
		config := &DeadCodeConfig{MinSeverity: tc.severity}
		if result := config.GetMinSeverityLevel(); result != tc.level {
			t.Errorf("GetMinSeverityLevel(%s) = %d, expected %d", tc.severity, result, tc.level)
		}
	}
}

func TestLoadConfig_Default(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfigWithTarget("", t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig with empty path failed: %v", err)
	}
	if config.Complexity.LowThreshold != DefaultConfig().Complexity.LowThreshold {
		t.Error("Loaded config should match default")
	}
}

func TestLoadConfig_NonExistent(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Expected error for non-existent config file")
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ccfg.yaml")
	content := `complexity:
  low_threshold: 4
  medium_threshold: 8
output:
  format: dot
  rank_dir: LR
analysis:
  include_patterns: ["src/**/*.c"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Complexity.LowThreshold != 4 || config.Complexity.MediumThreshold != 8 {
		t.Errorf("Thresholds not loaded: %+v", config.Complexity)
	}
	if config.Output.Format != "dot" || config.Output.RankDir != "LR" {
		t.Errorf("Output not loaded: %+v", config.Output)
	}
	if !slices.Equal(config.Analysis.IncludePatterns, []string{"src/**/*.c"}) {
		t.Errorf("Include patterns not loaded: %v", config.Analysis.IncludePatterns)
	}
	// untouched sections keep their defaults
	if config.DeadCode.MinSeverity != DefaultDeadCodeMinSeverity {
		t.Errorf("Expected default min severity, got %s", config.DeadCode.MinSeverity)
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ccfg.yaml")
	if err := os.WriteFile(path, []byte("complexity:\n  low_threshold: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("Expected invalid configuration error, got %v", err)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("CCFG_COMPLEXITY_LOW_THRESHOLD", "3")
	t.Setenv("CCFG_OUTPUT_FORMAT", "json")

	config, err := LoadConfig(writeConfig(t, "ccfg.yaml", "logging:\n  level: info\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Complexity.LowThreshold != 3 {
		t.Errorf("Expected env override 3, got %d", config.Complexity.LowThreshold)
	}
	if config.Output.Format != "json" {
		t.Errorf("Expected env override json, got %s", config.Output.Format)
	}
	if config.Logging.Level != "info" {
		t.Errorf("Expected file value info, got %s", config.Logging.Level)
	}
}

func TestFindDefaultConfig_SearchesUpward(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, ".ccfg.yaml")
	if err := os.WriteFile(configPath, []byte("complexity:\n  low_threshold: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "src", "core")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	source := filepath.Join(nested, "main.c")
	if err := os.WriteFile(source, []byte("int main(void) { return 0; }\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := findDefaultConfig(source); got != configPath {
		t.Errorf("Expected %s, got %s", configPath, got)
	}
	if got := findDefaultConfig(nested); got != configPath {
		t.Errorf("Expected %s, got %s", configPath, got)
	}
}

func TestSearchConfigInDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "ccfg.yaml")
	if err := os.WriteFile(configPath, []byte("complexity:\n  low_threshold: 5"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	candidates := []string{"ccfg.yaml", "ccfg.yml"}
	if result := searchConfigInDirectory(tempDir, candidates); result != configPath {
		t.Errorf("Expected %s, got %s", configPath, result)
	}

	if result := searchConfigInDirectory(t.TempDir(), candidates); result != "" {
		t.Error("Expected empty string for directory without config")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	config := DefaultConfig()
	config.Complexity.LowThreshold = 7
	config.Complexity.MediumThreshold = 14
	config.Output.RankDir = "LR"

	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := SaveConfig(config, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Saved config is not valid YAML: %v", err)
	}
	for _, section := range []string{"cfg", "complexity", "dead_code", "output", "analysis", "performance", "logging"} {
		if _, ok := raw[section]; !ok {
			t.Errorf("Saved config is missing section %s", section)
		}
	}
}

func TestApplyPresets(t *testing.T) {
	config := DefaultConfig()
	config.ApplyPresets(ProjectTypeEmbedded, StrictnessStrict)

	if config.Complexity.LowThreshold != 5 || config.Complexity.MaxComplexity != 15 {
		t.Errorf("Strict thresholds not applied: %+v", config.Complexity)
	}
	if config.DeadCode.MinSeverity != "info" {
		t.Errorf("Expected info severity, got %s", config.DeadCode.MinSeverity)
	}
	if !slices.Contains(config.Analysis.ExcludePatterns, "**/CMSIS/**") {
		t.Error("Embedded excludes not applied")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Preset config should be valid: %v", err)
	}
}

func TestGetFullConfigTemplate_IsValidConfig(t *testing.T) {
	for _, project := range []ProjectType{ProjectTypeGeneric, ProjectTypeEmbedded, ProjectTypeLibrary} {
		for _, strictness := range []Strictness{StrictnessRelaxed, StrictnessStandard, StrictnessStrict} {
			path := writeConfig(t, ".ccfg.yaml", GetFullConfigTemplate(project, strictness))
			config, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("template %s/%s does not load: %v", project, strictness, err)
			}
			want := GetStrictnessPresets()[strictness]
			if config.Complexity.LowThreshold != want.LowThreshold {
				t.Errorf("template %s/%s: low threshold %d, want %d",
					project, strictness, config.Complexity.LowThreshold, want.LowThreshold)
			}
		}
	}

	if _, err := LoadConfig(writeConfig(t, "ccfg.yaml", GetMinimalConfigTemplate())); err != nil {
		t.Errorf("minimal template does not load: %v", err)
	}
}

func TestDefaultConstants(t *testing.T) {
	if DefaultLowComplexityThreshold != 9 {
		t.Errorf("DefaultLowComplexityThreshold should be 9, got %d", DefaultLowComplexityThreshold)
	}
	if DefaultMediumComplexityThreshold != 19 {
		t.Errorf("DefaultMediumComplexityThreshold should be 19, got %d", DefaultMediumComplexityThreshold)
	}
	if DefaultMaxComplexityLimit != 0 {
		t.Errorf("DefaultMaxComplexityLimit should be 0, got %d", DefaultMaxComplexityLimit)
	}
	if DefaultDeadCodeContextLines != 3 {
		t.Errorf("DefaultDeadCodeContextLines should be 3, got %d", DefaultDeadCodeContextLines)
	}
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

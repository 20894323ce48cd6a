package service

import (
	"fmt"

	"github.com/ludo-technologies/ccfg/domain"
	"github.com/ludo-technologies/ccfg/internal/config"
	"github.com/ludo-technologies/ccfg/internal/constants"
)

// ConfigurationLoaderImpl implements the ConfigurationLoader interface
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// Load reads the configuration at path, or discovers one near target when
// path is empty. Without any file the defaults apply.
func (c *ConfigurationLoaderImpl) Load(path, target string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithTarget(path, target)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}
	return cfg, nil
}

// LoadConfig loads configuration from the specified path
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*domain.ComplexityRequest, error) {
	cfg, err := c.Load(path, "")
	if err != nil {
		return nil, err
	}
	return c.convertToComplexityRequest(cfg), nil
}

// LoadDefaultConfig discovers a .ccfg.yaml from the working directory upward,
// falling back to the built-in defaults
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *domain.ComplexityRequest {
	cfg, err := config.LoadConfigWithTarget("", "")
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return c.convertToComplexityRequest(cfg)
}

// MergeConfig merges CLI flags with configuration file
func (c *ConfigurationLoaderImpl) MergeConfig(base *domain.ComplexityRequest, override *domain.ComplexityRequest) *domain.ComplexityRequest {
	merged := *base

	// Paths always come from the command line
	if len(override.Paths) > 0 {
		merged.Paths = override.Paths
	}
	if override.OutputFormat != "" {
		merged.OutputFormat = override.OutputFormat
	}
	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.ShowDetails {
		merged.ShowDetails = true
	}
	if override.MinComplexity > 1 {
		merged.MinComplexity = override.MinComplexity
	}
	if override.MaxComplexity != 0 {
		merged.MaxComplexity = override.MaxComplexity
	}
	if override.SortBy != "" && override.SortBy != domain.SortByComplexity {
		merged.SortBy = override.SortBy
	}
	if override.LowThreshold > 0 && override.LowThreshold != constants.DefaultLowThreshold {
		merged.LowThreshold = override.LowThreshold
	}
	if override.MediumThreshold > 0 && override.MediumThreshold != constants.DefaultMediumThreshold {
		merged.MediumThreshold = override.MediumThreshold
	}
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}
	if len(override.IncludePatterns) > 0 {
		merged.IncludePatterns = override.IncludePatterns
	}
	if len(override.ExcludePatterns) > 0 {
		merged.ExcludePatterns = override.ExcludePatterns
	}

	return &merged
}

// convertToComplexityRequest converts a Config to ComplexityRequest
func (c *ConfigurationLoaderImpl) convertToComplexityRequest(cfg *config.Config) *domain.ComplexityRequest {
	return &domain.ComplexityRequest{
		Paths:           []string{},
		OutputFormat:    domain.OutputFormat(cfg.Output.Format),
		ShowDetails:     cfg.Output.ShowDetails,
		SortBy:          domain.SortCriteria(cfg.Output.SortBy),
		LowThreshold:    cfg.Complexity.LowThreshold,
		MediumThreshold: cfg.Complexity.MediumThreshold,
		MinComplexity:   cfg.Output.MinComplexity,
		MaxComplexity:   cfg.Complexity.MaxComplexity,
		Recursive:       cfg.Analysis.Recursive,
		IncludePatterns: cfg.Analysis.IncludePatterns,
		ExcludePatterns: cfg.Analysis.ExcludePatterns,
	}
}

// DeadCodeRequest builds the dead code request configured by cfg
func (c *ConfigurationLoaderImpl) DeadCodeRequest(cfg *config.Config) *domain.DeadCodeRequest {
	return &domain.DeadCodeRequest{
		Paths:           []string{},
		OutputFormat:    domain.OutputFormat(cfg.Output.Format),
		ShowContext:     domain.BoolPtr(cfg.DeadCode.ShowContext),
		ContextLines:    cfg.DeadCode.ContextLines,
		MinSeverity:     domain.DeadCodeSeverity(cfg.DeadCode.MinSeverity),
		SortBy:          domain.DeadCodeSortCriteria(cfg.DeadCode.SortBy),
		Recursive:       cfg.Analysis.Recursive,
		IncludePatterns: cfg.Analysis.IncludePatterns,
		ExcludePatterns: cfg.Analysis.ExcludePatterns,
	}
}

// CFGRequest builds the graph export request configured by cfg
func (c *ConfigurationLoaderImpl) CFGRequest(cfg *config.Config) *domain.CFGRequest {
	return &domain.CFGRequest{
		Paths:             []string{},
		OutputFormat:      domain.OutputFormat(cfg.Output.Format),
		OutputDir:         cfg.Output.Directory,
		IncludeSentinels:  cfg.CFG.IncludeSentinels,
		IncludeDeadBlocks: cfg.CFG.IncludeDeadBlocks,
		ShowStatements:    cfg.CFG.ShowStatements,
		RankDir:           cfg.Output.RankDir,
		Recursive:         cfg.Analysis.Recursive,
		IncludePatterns:   cfg.Analysis.IncludePatterns,
		ExcludePatterns:   cfg.Analysis.ExcludePatterns,
	}
}

// ValidateConfig validates the configuration
func (c *ConfigurationLoaderImpl) ValidateConfig(req *domain.ComplexityRequest) error {
	if req.LowThreshold <= 0 {
		return fmt.Errorf("low_threshold must be greater than 0, got %d", req.LowThreshold)
	}

	if req.MediumThreshold <= req.LowThreshold {
		return fmt.Errorf("medium_threshold (%d) must be greater than low_threshold (%d)",
			req.MediumThreshold, req.LowThreshold)
	}

	if req.MinComplexity < 0 {
		return fmt.Errorf("min_complexity cannot be negative, got %d", req.MinComplexity)
	}

	if req.MaxComplexity < 0 {
		return fmt.Errorf("max_complexity cannot be negative, got %d", req.MaxComplexity)
	}

	if req.MaxComplexity > 0 && req.MinComplexity > req.MaxComplexity {
		return fmt.Errorf("min_complexity (%d) cannot be greater than max_complexity (%d)",
			req.MinComplexity, req.MaxComplexity)
	}

	if _, err := domain.ParseOutputFormat(string(req.OutputFormat)); err != nil {
		return fmt.Errorf("invalid output format: %s (must be one of: text, json, yaml, dot, msgpack)",
			req.OutputFormat)
	}

	return nil
}

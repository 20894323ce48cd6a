package app

import (
	"context"
	"fmt"

	"github.com/ludo-technologies/ccfg/domain"
	servicepkg "github.com/ludo-technologies/ccfg/service"
)

// BuildUseCase orchestrates graph construction and export
type BuildUseCase struct {
	service    domain.CFGService
	formatter  domain.GraphFormatter
	fileHelper *FileHelper
}

// NewBuildUseCase creates a build use case around service
func NewBuildUseCase(service domain.CFGService) *BuildUseCase {
	return &BuildUseCase{
		service:    service,
		formatter:  servicepkg.NewGraphFormatter(),
		fileHelper: NewFileHelper(),
	}
}

// Execute resolves the inputs, builds every function graph and, when
// req.OutputWriter is set, renders the result in req.OutputFormat.
// A response is returned alongside an analysis error when no file could
// be built, so callers can still report the per-file errors.
func (uc *BuildUseCase) Execute(ctx context.Context, req domain.CFGRequest) (*domain.CFGResponse, error) {
	if err := validateBuildRequest(&req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	files, err := ResolveFilePaths(
		uc.fileHelper,
		req.Paths,
		req.Recursive,
		req.IncludePatterns,
		req.ExcludePatterns,
	)
	if err != nil {
		return nil, domain.NewFileNotFoundError("failed to collect files", err)
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no C source files found in the specified paths", nil)
	}
	req.Paths = files

	response, err := uc.service.Build(ctx, req)
	if err != nil {
		return response, domain.NewAnalysisError("cfg build failed", err)
	}

	if req.OutputWriter != nil {
		if err := uc.formatter.Write(response, req, req.OutputWriter); err != nil {
			return response, domain.NewOutputError("failed to write graphs", err)
		}
	}
	return response, nil
}

func validateBuildRequest(req *domain.CFGRequest) error {
	if len(req.Paths) == 0 {
		return fmt.Errorf("no input paths specified")
	}
	if req.OutputFormat == "" {
		req.OutputFormat = domain.OutputFormatText
	}
	if _, err := domain.ParseOutputFormat(string(req.OutputFormat)); err != nil {
		return err
	}
	return nil
}

// BuildUseCaseBuilder provides a builder pattern for creating BuildUseCase
type BuildUseCaseBuilder struct {
	service    domain.CFGService
	formatter  domain.GraphFormatter
	fileHelper *FileHelper
}

// NewBuildUseCaseBuilder creates a new builder
func NewBuildUseCaseBuilder() *BuildUseCaseBuilder {
	return &BuildUseCaseBuilder{}
}

// WithService sets the CFG service
func (b *BuildUseCaseBuilder) WithService(service domain.CFGService) *BuildUseCaseBuilder {
	b.service = service
	return b
}

// WithFormatter sets the graph formatter
func (b *BuildUseCaseBuilder) WithFormatter(formatter domain.GraphFormatter) *BuildUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithFileHelper sets the file helper
func (b *BuildUseCaseBuilder) WithFileHelper(fileHelper *FileHelper) *BuildUseCaseBuilder {
	b.fileHelper = fileHelper
	return b
}

// Build creates the BuildUseCase; the formatter and file helper default
func (b *BuildUseCaseBuilder) Build() (*BuildUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("cfg service is required")
	}

	uc := &BuildUseCase{
		service:    b.service,
		formatter:  b.formatter,
		fileHelper: b.fileHelper,
	}
	if uc.formatter == nil {
		uc.formatter = servicepkg.NewGraphFormatter()
	}
	if uc.fileHelper == nil {
		uc.fileHelper = NewFileHelper()
	}
	return uc, nil
}

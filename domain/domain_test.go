package domain

import (
	"errors"
	"testing"
)

// Error tests

func TestDomainError_Error(t *testing.T) {
	// Without cause
	err := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
	}
	expected := "[TEST_ERROR] Test message"
	if err.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, err.Error())
	}

	// With cause
	cause := errors.New("underlying error")
	errWithCause := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
		Cause:   cause,
	}
	expectedWithCause := "[TEST_ERROR] Test message: underlying error"
	if errWithCause.Error() != expectedWithCause {
		t.Errorf("Expected '%s', got '%s'", expectedWithCause, errWithCause.Error())
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
		Cause:   cause,
	}

	unwrapped := err.Unwrap()
	if unwrapped != cause {
		t.Error("Unwrap should return the cause")
	}

	// Without cause
	errNoCause := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
	}
	if errNoCause.Unwrap() != nil {
		t.Error("Unwrap should return nil when no cause")
	}
}

func TestNewDomainError(t *testing.T) {
	cause := errors.New("cause")
	err := NewDomainError("CODE", "message", cause)

	domainErr, ok := err.(DomainError)
	if !ok {
		t.Fatal("Should return DomainError type")
	}
	if domainErr.Code != "CODE" {
		t.Errorf("Expected code 'CODE', got '%s'", domainErr.Code)
	}
	if domainErr.Message != "message" {
		t.Errorf("Expected message 'message', got '%s'", domainErr.Message)
	}
	if domainErr.Cause != cause {
		t.Error("Cause should be set")
	}
}

func TestNewInvalidInputError(t *testing.T) {
	cause := errors.New("invalid")
	err := NewInvalidInputError("bad input", cause)

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeInvalidInput {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeInvalidInput, domainErr.Code)
	}
}

func TestNewFileNotFoundError(t *testing.T) {
	err := NewFileNotFoundError("/path/to/file", nil)

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeFileNotFound {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeFileNotFound, domainErr.Code)
	}
	if domainErr.Message != "file not found: /path/to/file" {
		t.Errorf("Unexpected message: %s", domainErr.Message)
	}
}

func TestNewParseError(t *testing.T) {
	cause := errors.New("syntax error")
	err := NewParseError("test.c", cause)

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeParseError {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeParseError, domainErr.Code)
	}
}

func TestNewAnalysisError(t *testing.T) {
	err := NewAnalysisError("analysis failed", nil)

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeAnalysisError {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeAnalysisError, domainErr.Code)
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("invalid config", nil)

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeConfigError {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeConfigError, domainErr.Code)
	}
}

func TestNewOutputError(t *testing.T) {
	err := NewOutputError("write failed", nil)

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeOutputError {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeOutputError, domainErr.Code)
	}
}

func TestNewUnsupportedFormatError(t *testing.T) {
	err := NewUnsupportedFormatError("xml")

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeUnsupportedFormat {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeUnsupportedFormat, domainErr.Code)
	}
	if domainErr.Message != "unsupported format: xml" {
		t.Errorf("Unexpected message: %s", domainErr.Message)
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("validation failed")

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeInvalidInput {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeInvalidInput, domainErr.Code)
	}
}

// Output format tests

func TestOutputFormat_Constants(t *testing.T) {
	formats := map[OutputFormat]string{
		OutputFormatText:    "text",
		OutputFormatJSON:    "json",
		OutputFormatYAML:    "yaml",
		OutputFormatDOT:     "dot",
		OutputFormatMsgPack: "msgpack",
	}

	for format, expected := range formats {
		if string(format) != expected {
			t.Errorf("OutputFormat %s should equal '%s'", format, expected)
		}
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, name := range []string{"text", "json", "yaml", "dot", "msgpack"} {
		f, err := ParseOutputFormat(name)
		if err != nil {
			t.Errorf("ParseOutputFormat(%q) unexpected error: %v", name, err)
		}
		if string(f) != name {
			t.Errorf("ParseOutputFormat(%q) = %q", name, f)
		}
	}

	_, err := ParseOutputFormat("html")
	if err == nil {
		t.Fatal("ParseOutputFormat(html) should fail")
	}
	var domainErr DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != ErrCodeUnsupportedFormat {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

func TestOutputFormat_IsBinary(t *testing.T) {
	if !OutputFormatMsgPack.IsBinary() {
		t.Error("msgpack should be binary")
	}
	if OutputFormatDOT.IsBinary() || OutputFormatJSON.IsBinary() {
		t.Error("dot and json should not be binary")
	}
}

// Sort criteria tests

func TestSortCriteria_Constants(t *testing.T) {
	criteria := map[SortCriteria]string{
		SortByComplexity: "complexity",
		SortByName:       "name",
		SortByRisk:       "risk",
	}

	for c, expected := range criteria {
		if string(c) != expected {
			t.Errorf("SortCriteria %s should equal '%s'", c, expected)
		}
	}
}

// Risk level tests

func TestRiskLevel_Constants(t *testing.T) {
	levels := map[RiskLevel]string{
		RiskLevelLow:    "low",
		RiskLevelMedium: "medium",
		RiskLevelHigh:   "high",
	}

	for level, expected := range levels {
		if string(level) != expected {
			t.Errorf("RiskLevel %s should equal '%s'", level, expected)
		}
	}
}

func TestRiskLevel_Rank(t *testing.T) {
	if !(RiskLevelHigh.Rank() > RiskLevelMedium.Rank() && RiskLevelMedium.Rank() > RiskLevelLow.Rank()) {
		t.Error("risk ranks should be ordered high > medium > low")
	}
	if RiskLevel("bogus").Rank() != 0 {
		t.Error("unknown risk level should rank 0")
	}
}

// Dead code severity tests

func TestDeadCodeSeverity_Constants(t *testing.T) {
	severities := map[DeadCodeSeverity]string{
		DeadCodeSeverityCritical: "critical",
		DeadCodeSeverityWarning:  "warning",
		DeadCodeSeverityInfo:     "info",
	}

	for severity, expected := range severities {
		if string(severity) != expected {
			t.Errorf("DeadCodeSeverity %s should equal '%s'", severity, expected)
		}
	}
}

func TestDeadCodeSeverity_IsAtLeast(t *testing.T) {
	tests := []struct {
		severity DeadCodeSeverity
		min      DeadCodeSeverity
		want     bool
	}{
		{DeadCodeSeverityCritical, DeadCodeSeverityWarning, true},
		{DeadCodeSeverityWarning, DeadCodeSeverityWarning, true},
		{DeadCodeSeverityInfo, DeadCodeSeverityWarning, false},
		{DeadCodeSeverityInfo, "", true},
	}

	for _, tt := range tests {
		if got := tt.severity.IsAtLeast(tt.min); got != tt.want {
			t.Errorf("%s.IsAtLeast(%q) = %v, want %v", tt.severity, tt.min, got, tt.want)
		}
	}
}

// Dead code sort criteria tests

func TestDeadCodeSortCriteria_Constants(t *testing.T) {
	criteria := map[DeadCodeSortCriteria]string{
		DeadCodeSortBySeverity: "severity",
		DeadCodeSortByLine:     "line",
		DeadCodeSortByFile:     "file",
		DeadCodeSortByFunction: "function",
	}

	for c, expected := range criteria {
		if string(c) != expected {
			t.Errorf("DeadCodeSortCriteria %s should equal '%s'", c, expected)
		}
	}
}

// Dead code model tests

func TestFunctionDeadCode_CalculateSeverityCounts(t *testing.T) {
	fdc := FunctionDeadCode{
		Name: "parse",
		Findings: []DeadCodeFinding{
			{Severity: DeadCodeSeverityCritical},
			{Severity: DeadCodeSeverityCritical},
			{Severity: DeadCodeSeverityWarning},
			{Severity: DeadCodeSeverityInfo},
		},
		CriticalCount: 9,
	}
	fdc.CalculateSeverityCounts()

	if fdc.CriticalCount != 2 || fdc.WarningCount != 1 || fdc.InfoCount != 1 {
		t.Errorf("unexpected counts: critical=%d warning=%d info=%d",
			fdc.CriticalCount, fdc.WarningCount, fdc.InfoCount)
	}
	if !fdc.HasFindingsAtSeverity(DeadCodeSeverityCritical) {
		t.Error("function should have critical findings")
	}

	infoOnly := FunctionDeadCode{Findings: []DeadCodeFinding{{Severity: DeadCodeSeverityInfo}}}
	if infoOnly.HasFindingsAtSeverity(DeadCodeSeverityWarning) {
		t.Error("info-only function should not match warning filter")
	}
}

func TestDeadCodeLocation_String(t *testing.T) {
	loc := DeadCodeLocation{FilePath: "src/main.c", StartLine: 12}
	if loc.String() != "src/main.c:12" {
		t.Errorf("unexpected location string %q", loc.String())
	}
}

func TestBoolValue(t *testing.T) {
	if !BoolValue(nil, true) {
		t.Error("nil should fall back to default")
	}
	if BoolValue(BoolPtr(false), true) {
		t.Error("explicit false should win over default")
	}
}

// CFG model tests

func TestCFGResponse_Functions(t *testing.T) {
	resp := CFGResponse{
		Files: []FileGraphs{
			{File: "a.c", Functions: []FunctionGraph{{Name: "main"}, {Name: "step"}}},
			{File: "b.c"},
			{File: "c.c", Functions: []FunctionGraph{{Name: "helper"}}},
		},
	}

	fns := resp.Functions()
	if len(fns) != 3 {
		t.Fatalf("expected 3 functions, got %d", len(fns))
	}
	if fns[0].Name != "main" || fns[2].Name != "helper" {
		t.Errorf("functions out of file order: %v", fns)
	}
}

// Check result tests

func TestCheckResult_AddViolation(t *testing.T) {
	result := CheckResult{Passed: true, ExitCode: ExitCodePassed}
	result.AddViolation(CheckViolation{Category: "complexity", Rule: "max-complexity"})
	result.AddViolation(CheckViolation{Category: "deadcode", Rule: "no-dead-code"})

	if result.Passed {
		t.Error("result should fail after a violation")
	}
	if result.ExitCode != ExitCodeViolation {
		t.Errorf("ExitCode should be %d, got %d", ExitCodeViolation, result.ExitCode)
	}
	if result.Summary.TotalViolations != 2 {
		t.Errorf("TotalViolations should be 2, got %d", result.Summary.TotalViolations)
	}
}

// Error code constants tests

func TestErrorCodeConstants(t *testing.T) {
	codes := map[string]string{
		ErrCodeInvalidInput:      "INVALID_INPUT",
		ErrCodeFileNotFound:      "FILE_NOT_FOUND",
		ErrCodeParseError:        "PARSE_ERROR",
		ErrCodeAnalysisError:     "ANALYSIS_ERROR",
		ErrCodeConfigError:       "CONFIG_ERROR",
		ErrCodeOutputError:       "OUTPUT_ERROR",
		ErrCodeUnsupportedFormat: "UNSUPPORTED_FORMAT",
	}

	for code, expected := range codes {
		if code != expected {
			t.Errorf("Error code should be '%s', got '%s'", expected, code)
		}
	}
}

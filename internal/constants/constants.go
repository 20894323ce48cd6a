package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "ccfg"

	// ConfigFileName is the default config file name
	ConfigFileName = ".ccfg.yaml"

	// AltConfigFileName is accepted when no dotfile is present
	AltConfigFileName = "ccfg.yaml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "CCFG"
)

// Analysis type constants
const (
	AnalysisComplexity = "complexity"
	AnalysisDeadCode   = "deadcode"
)

// Output format constants
const (
	OutputFormatText    = "text"
	OutputFormatJSON    = "json"
	OutputFormatYAML    = "yaml"
	OutputFormatDOT     = "dot"
	OutputFormatMsgpack = "msgpack"
)

// Side files written next to an input file by `ccfg build`
const (
	ASTFileExt     = ".ast"
	CFGFileExt     = ".cfg"
	SafeSetFileExt = ".ss"
)

// Complexity threshold defaults
const (
	DefaultLowThreshold    = 9
	DefaultMediumThreshold = 19
)

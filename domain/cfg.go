package domain

import (
	"context"
	"io"
)

// CFGRequest asks for the control-flow graphs of a set of C sources
type CFGRequest struct {
	Paths []string

	// Function restricts output to one function name; empty means all
	Function string

	OutputFormat OutputFormat
	OutputWriter io.Writer

	// Side artifacts written next to each source (or into OutputDir)
	ShowAST     bool
	ShowCFG     bool
	ShowSafeSet bool
	OutputDir   string

	// Export shaping
	IncludeSentinels  bool
	IncludeDeadBlocks bool
	ShowStatements    bool
	RankDir           string

	ConfigPath      string
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// Location is a source range
type Location struct {
	File      string `json:"file,omitempty" yaml:"file,omitempty" msgpack:"file,omitempty"`
	StartLine int    `json:"start_line" yaml:"start_line" msgpack:"start_line"`
	StartCol  int    `json:"start_col" yaml:"start_col" msgpack:"start_col"`
	EndLine   int    `json:"end_line" yaml:"end_line" msgpack:"end_line"`
	EndCol    int    `json:"end_col" yaml:"end_col" msgpack:"end_col"`
}

// BlockInfo describes one basic block of an exported graph
type BlockInfo struct {
	ID         int      `json:"id" yaml:"id" msgpack:"id"`
	Name       string   `json:"name" yaml:"name" msgpack:"name"`
	Label      string   `json:"label" yaml:"label" msgpack:"label"`
	Statements []string `json:"statements,omitempty" yaml:"statements,omitempty" msgpack:"statements,omitempty"`
	Reachable  bool     `json:"reachable" yaml:"reachable" msgpack:"reachable"`
	Entry      bool     `json:"entry,omitempty" yaml:"entry,omitempty" msgpack:"entry,omitempty"`
	Exit       bool     `json:"exit,omitempty" yaml:"exit,omitempty" msgpack:"exit,omitempty"`

	// Guards lists the ids of the branching blocks that dominate this one
	Guards []int `json:"guards,omitempty" yaml:"guards,omitempty" msgpack:"guards,omitempty"`
}

// EdgeInfo describes one control transfer of an exported graph
type EdgeInfo struct {
	From  int    `json:"from" yaml:"from" msgpack:"from"`
	To    int    `json:"to" yaml:"to" msgpack:"to"`
	Kind  string `json:"kind" yaml:"kind" msgpack:"kind"`
	Value string `json:"value,omitempty" yaml:"value,omitempty" msgpack:"value,omitempty"`
	Back  bool   `json:"back,omitempty" yaml:"back,omitempty" msgpack:"back,omitempty"`
}

// UnreachableCode is the exported form of an unreachable-code diagnostic
type UnreachableCode struct {
	Block      int      `json:"block" yaml:"block" msgpack:"block"`
	Reason     string   `json:"reason" yaml:"reason" msgpack:"reason"`
	Location   Location `json:"location" yaml:"location" msgpack:"location"`
	Statements []string `json:"statements" yaml:"statements" msgpack:"statements"`
}

// FunctionGraph is the exported form of one function's control-flow graph
type FunctionGraph struct {
	Name        string            `json:"name" yaml:"name" msgpack:"name"`
	File        string            `json:"file" yaml:"file" msgpack:"file"`
	Location    Location          `json:"location" yaml:"location" msgpack:"location"`
	Entry       int               `json:"entry" yaml:"entry" msgpack:"entry"`
	Exit        int               `json:"exit" yaml:"exit" msgpack:"exit"`
	Blocks      []BlockInfo       `json:"blocks" yaml:"blocks" msgpack:"blocks"`
	Edges       []EdgeInfo        `json:"edges" yaml:"edges" msgpack:"edges"`
	Order       []int             `json:"order" yaml:"order" msgpack:"order"`
	Complexity  int               `json:"complexity" yaml:"complexity" msgpack:"complexity"`
	Loops       int               `json:"loops" yaml:"loops" msgpack:"loops"`
	Unreachable []UnreachableCode `json:"unreachable,omitempty" yaml:"unreachable,omitempty" msgpack:"unreachable,omitempty"`
}

// FunctionError records a function whose graph could not be built
type FunctionError struct {
	File     string   `json:"file" yaml:"file" msgpack:"file"`
	Function string   `json:"function" yaml:"function" msgpack:"function"`
	Kind     string   `json:"kind" yaml:"kind" msgpack:"kind"`
	Message  string   `json:"message" yaml:"message" msgpack:"message"`
	Location Location `json:"location" yaml:"location" msgpack:"location"`
}

// FileGraphs groups the graphs of one source file
type FileGraphs struct {
	File      string          `json:"file" yaml:"file" msgpack:"file"`
	Functions []FunctionGraph `json:"functions" yaml:"functions" msgpack:"functions"`
	Errors    []FunctionError `json:"errors,omitempty" yaml:"errors,omitempty" msgpack:"errors,omitempty"`

	// Artifacts lists the side files written for this source
	Artifacts []string `json:"artifacts,omitempty" yaml:"artifacts,omitempty" msgpack:"artifacts,omitempty"`
}

// CFGSummary holds totals over every file
type CFGSummary struct {
	FilesAnalyzed    int `json:"files_analyzed" yaml:"files_analyzed" msgpack:"files_analyzed"`
	FunctionsBuilt   int `json:"functions_built" yaml:"functions_built" msgpack:"functions_built"`
	FunctionsFailed  int `json:"functions_failed" yaml:"functions_failed" msgpack:"functions_failed"`
	TotalBlocks      int `json:"total_blocks" yaml:"total_blocks" msgpack:"total_blocks"`
	TotalEdges       int `json:"total_edges" yaml:"total_edges" msgpack:"total_edges"`
	UnreachableCount int `json:"unreachable_count" yaml:"unreachable_count" msgpack:"unreachable_count"`
}

// CFGResponse is the result of a CFG build request
type CFGResponse struct {
	Files       []FileGraphs `json:"files" yaml:"files" msgpack:"files"`
	Summary     CFGSummary   `json:"summary" yaml:"summary" msgpack:"summary"`
	Warnings    []string     `json:"warnings,omitempty" yaml:"warnings,omitempty" msgpack:"warnings,omitempty"`
	Errors      []string     `json:"errors,omitempty" yaml:"errors,omitempty" msgpack:"errors,omitempty"`
	GeneratedAt string       `json:"generated_at" yaml:"generated_at" msgpack:"generated_at"`
	Version     string       `json:"version" yaml:"version" msgpack:"version"`
}

// Functions returns every built graph across files, in file order
func (r *CFGResponse) Functions() []FunctionGraph {
	var out []FunctionGraph
	for _, f := range r.Files {
		out = append(out, f.Functions...)
	}
	return out
}

// CFGService builds control-flow graphs
type CFGService interface {
	Build(ctx context.Context, req CFGRequest) (*CFGResponse, error)
	BuildFile(ctx context.Context, filePath string, req CFGRequest) (*FileGraphs, error)
}

// GraphFormatter renders CFG responses
type GraphFormatter interface {
	Format(response *CFGResponse, req CFGRequest) ([]byte, error)
	Write(response *CFGResponse, req CFGRequest, writer io.Writer) error
}

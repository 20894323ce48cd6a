package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// Parser wraps tree-sitter parser for C
type Parser struct {
	parser   *sitter.Parser
	language *sitter.Language
}

// NewParser creates a new C parser
func NewParser() *Parser {
	parser := sitter.NewParser()
	lang := c.GetLanguage()
	parser.SetLanguage(lang)

	return &Parser{
		parser:   parser,
		language: lang,
	}
}

// ParseContext parses C source and builds the statement tree
func (p *Parser) ParseContext(ctx context.Context, filename string, source []byte) (*Node, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse file %s: %v", filename, err)
	}
	defer tree.Close()

	rootNode := tree.RootNode()
	if rootNode == nil {
		return nil, fmt.Errorf("no root node in parse tree for %s", filename)
	}

	builder := NewASTBuilder(filename, source)
	return builder.Build(rootNode), nil
}

// ParseFile parses C source that came from filename
func (p *Parser) ParseFile(filename string, source []byte) (*Node, error) {
	return p.ParseContext(context.Background(), filename, source)
}

// Parse parses C source code
func (p *Parser) Parse(source []byte) (*Node, error) {
	return p.ParseFile("<input>", source)
}

// ParseString parses C source code from a string
func (p *Parser) ParseString(source string) (*Node, error) {
	return p.Parse([]byte(source))
}

// Close closes the parser and frees resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// ParsePath reads and parses a C file from disk with a short-lived parser
func ParsePath(ctx context.Context, path string) (*Node, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}

	p := NewParser()
	defer p.Close()

	return p.ParseContext(ctx, path, source)
}

// IsCSource reports whether path has a C source or header extension
func IsCSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".h":
		return true
	}
	return false
}

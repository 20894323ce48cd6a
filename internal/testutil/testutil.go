// Package testutil provides helper functions for testing ccfg components
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ludo-technologies/ccfg/internal/parser"
)

// FixtureProgram exercises every structured construct the graph builder handles
const FixtureProgram = `int main() {
    int x = 0;

    while (x < 10) {
        x++;
    }

    for (int i = 0; i < 5; i++) {
        if (i % 2 == 0) {
            continue;
        }
        x += i;
    }

    do {
        x--;
    } while (x > 5);

    switch (x) {
        case 1:
            x = 10;
            break;
        case 2:
            x = 20;
        case 3:
            x += 5;
            break;
        default:
            x = 0;
    }

    return x;
}
`

// CreateTestAST creates a translation unit from C source code
func CreateTestAST(t *testing.T, source string) *parser.Node {
	t.Helper()
	p := parser.NewParser()
	defer p.Close()

	ast, err := p.ParseString(source)
	if err != nil {
		t.Fatalf("Failed to parse test code: %v", err)
	}
	return ast
}

// ParseFunction parses source and returns the named function, failing the test if absent
func ParseFunction(t *testing.T, source, name string) *parser.Node {
	t.Helper()
	fn := FindFunctionInAST(CreateTestAST(t, source), name)
	if fn == nil {
		t.Fatalf("function %q not found", name)
	}
	return fn
}

// WriteFile writes content under dir and returns the full path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// FindFunctionInAST finds a function node by name in the AST
func FindFunctionInAST(ast *parser.Node, name string) *parser.Node {
	for _, fn := range ast.Functions() {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// CountNodesOfType counts nodes of a specific type in an AST
func CountNodesOfType(ast *parser.Node, nodeType parser.NodeType) int {
	count := 0
	ast.Walk(func(n *parser.Node) bool {
		if n.Type == nodeType {
			count++
		}
		return true
	})
	return count
}

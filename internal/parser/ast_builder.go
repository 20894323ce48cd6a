package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ASTBuilder builds our statement tree from the tree-sitter CST
type ASTBuilder struct {
	filename string
	source   []byte
}

// NewASTBuilder creates a new AST builder
func NewASTBuilder(filename string, source []byte) *ASTBuilder {
	return &ASTBuilder{
		filename: filename,
		source:   source,
	}
}

// Build builds the translation unit from the tree-sitter root node
func (b *ASTBuilder) Build(tsNode *sitter.Node) *Node {
	if tsNode == nil {
		return nil
	}

	unit := NewNode(NodeTranslationUnit)
	unit.Location = b.getLocation(tsNode)
	b.collectFunctions(tsNode, unit)
	return unit
}

// collectFunctions finds function definitions, including those nested in
// preprocessor conditionals
func (b *ASTBuilder) collectFunctions(tsNode *sitter.Node, unit *Node) {
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		if child == nil || b.isTrivia(child) {
			continue
		}
		if child.Type() == "function_definition" {
			unit.AddChild(b.buildFunction(child))
			continue
		}
		b.collectFunctions(child, unit)
	}
}

func (b *ASTBuilder) buildFunction(tsNode *sitter.Node) *Node {
	node := NewNode(NodeFunction)
	node.Location = b.getLocation(tsNode)

	decl := tsNode.ChildByFieldName("declarator")
	for decl != nil && decl.Type() != "function_declarator" {
		decl = decl.ChildByFieldName("declarator")
	}
	if decl != nil {
		if nameNode := decl.ChildByFieldName("declarator"); nameNode != nil {
			node.Name = b.text(nameNode)
		}
		if params := decl.ChildByFieldName("parameters"); params != nil {
			node.Params = b.text(params)
		}
	}
	if node.Name == "" {
		node.Name = "<anonymous>"
	}

	if body := tsNode.ChildByFieldName("body"); body != nil {
		for _, stmt := range b.buildStatements(body) {
			node.AddStatement(stmt)
		}
	}

	return node
}

// buildStatement converts one tree-sitter statement node
func (b *ASTBuilder) buildStatement(tsNode *sitter.Node) *Node {
	if tsNode == nil || b.isTrivia(tsNode) {
		return nil
	}

	switch tsNode.Type() {
	case "compound_statement":
		node := b.newNode(NodeBlock, tsNode)
		for _, stmt := range b.buildStatements(tsNode) {
			node.AddStatement(stmt)
		}
		return node
	case "if_statement":
		return b.buildIf(tsNode)
	case "while_statement":
		node := b.newNode(NodeWhile, tsNode)
		node.Test = b.buildCondition(tsNode.ChildByFieldName("condition"))
		node.AddStatement(b.buildStatement(tsNode.ChildByFieldName("body")))
		return node
	case "do_statement":
		node := b.newNode(NodeDoWhile, tsNode)
		node.AddStatement(b.buildStatement(tsNode.ChildByFieldName("body")))
		node.Test = b.buildCondition(tsNode.ChildByFieldName("condition"))
		return node
	case "for_statement":
		return b.buildFor(tsNode)
	case "switch_statement":
		return b.buildSwitch(tsNode)
	case "break_statement":
		return b.newLeaf(NodeBreak, tsNode)
	case "continue_statement":
		return b.newLeaf(NodeContinue, tsNode)
	case "return_statement":
		return b.newLeaf(NodeReturn, tsNode)
	case "goto_statement":
		return b.newLeaf(NodeGoto, tsNode)
	case "expression_statement":
		return b.newLeaf(NodeExpressionStatement, tsNode)
	case "declaration":
		return b.newLeaf(NodeDeclaration, tsNode)
	case "labeled_statement":
		return b.buildLabeled(tsNode)
	default:
		return b.newLeaf(NodeLeaf, tsNode)
	}
}

// buildStatements converts the named children of a statement container
func (b *ASTBuilder) buildStatements(tsNode *sitter.Node) []*Node {
	var stmts []*Node
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		if stmt := b.buildStatement(tsNode.NamedChild(i)); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func (b *ASTBuilder) buildIf(tsNode *sitter.Node) *Node {
	node := b.newNode(NodeIf, tsNode)
	node.Test = b.buildCondition(tsNode.ChildByFieldName("condition"))

	if cons := b.buildStatement(tsNode.ChildByFieldName("consequence")); cons != nil {
		cons.Parent = node
		node.Consequent = cons
	}

	alt := tsNode.ChildByFieldName("alternative")
	if alt != nil && alt.Type() == "else_clause" {
		alt = b.firstNamed(alt)
	}
	if alternate := b.buildStatement(alt); alternate != nil {
		alternate.Parent = node
		node.Alternate = alternate
	}

	return node
}

func (b *ASTBuilder) buildFor(tsNode *sitter.Node) *Node {
	node := b.newNode(NodeFor, tsNode)

	if initNode := tsNode.ChildByFieldName("initializer"); initNode != nil {
		node.Init = b.buildExpression(initNode)
	}
	if condNode := tsNode.ChildByFieldName("condition"); condNode != nil {
		node.Test = b.buildExpression(condNode)
	}
	if updateNode := tsNode.ChildByFieldName("update"); updateNode != nil {
		node.Update = b.buildExpression(updateNode)
	}
	node.AddStatement(b.buildStatement(tsNode.ChildByFieldName("body")))

	return node
}

// buildSwitch collects case/default clauses in source order. Statements
// placed before the first label are kept in Body.
func (b *ASTBuilder) buildSwitch(tsNode *sitter.Node) *Node {
	node := b.newNode(NodeSwitch, tsNode)
	node.Test = b.buildCondition(tsNode.ChildByFieldName("condition"))

	body := tsNode.ChildByFieldName("body")
	if body == nil {
		return node
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child == nil || b.isTrivia(child) {
			continue
		}
		if child.Type() == "case_statement" {
			clause := b.buildCase(child)
			clause.Parent = node
			node.Cases = append(node.Cases, clause)
			continue
		}
		node.AddStatement(b.buildStatement(child))
	}

	return node
}

func (b *ASTBuilder) buildCase(tsNode *sitter.Node) *Node {
	valueNode := tsNode.ChildByFieldName("value")

	var node *Node
	if valueNode != nil {
		node = b.newNode(NodeCase, tsNode)
		node.Value = b.text(valueNode)
		node.Raw = "case " + node.Value
	} else {
		node = b.newNode(NodeDefault, tsNode)
		node.Raw = "default"
	}

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child == nil || !child.IsNamed() || tsNode.FieldNameForChild(i) == "value" {
			continue
		}
		node.AddStatement(b.buildStatement(child))
	}

	return node
}

func (b *ASTBuilder) buildLabeled(tsNode *sitter.Node) *Node {
	node := b.newNode(NodeLabeled, tsNode)
	if label := tsNode.ChildByFieldName("label"); label != nil {
		node.Name = b.text(label)
	}
	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child == nil || !child.IsNamed() || tsNode.FieldNameForChild(i) == "label" {
			continue
		}
		node.AddStatement(b.buildStatement(child))
	}
	return node
}

// buildCondition unwraps a parenthesized condition into an expression node
func (b *ASTBuilder) buildCondition(tsNode *sitter.Node) *Node {
	if tsNode == nil {
		return nil
	}
	if tsNode.Type() == "parenthesized_expression" {
		if inner := b.firstNamed(tsNode); inner != nil {
			expr := b.buildExpression(inner)
			expr.Location = b.getLocation(tsNode)
			return expr
		}
	}
	return b.buildExpression(tsNode)
}

func (b *ASTBuilder) buildExpression(tsNode *sitter.Node) *Node {
	node := b.newNode(NodeExpression, tsNode)
	node.Raw = strings.TrimSpace(strings.TrimSuffix(b.text(tsNode), ";"))
	return node
}

// Helper methods

func (b *ASTBuilder) newNode(nodeType NodeType, tsNode *sitter.Node) *Node {
	node := NewNode(nodeType)
	node.Location = b.getLocation(tsNode)
	return node
}

func (b *ASTBuilder) newLeaf(nodeType NodeType, tsNode *sitter.Node) *Node {
	node := b.newNode(nodeType, tsNode)
	node.Raw = b.text(tsNode)
	return node
}

// text returns the node source with whitespace runs collapsed
func (b *ASTBuilder) text(tsNode *sitter.Node) string {
	return strings.Join(strings.Fields(tsNode.Content(b.source)), " ")
}

func (b *ASTBuilder) firstNamed(tsNode *sitter.Node) *sitter.Node {
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		if child != nil && !b.isTrivia(child) {
			return child
		}
	}
	return nil
}

// getLocation extracts location information from a tree-sitter node
func (b *ASTBuilder) getLocation(tsNode *sitter.Node) Location {
	return Location{
		File:      b.filename,
		StartLine: int(tsNode.StartPoint().Row) + 1,
		StartCol:  int(tsNode.StartPoint().Column),
		EndLine:   int(tsNode.EndPoint().Row) + 1,
		EndCol:    int(tsNode.EndPoint().Column),
	}
}

// isTrivia checks if a node is trivia (comments, empty nodes)
func (b *ASTBuilder) isTrivia(tsNode *sitter.Node) bool {
	nodeType := tsNode.Type()
	return nodeType == "comment" || nodeType == ""
}

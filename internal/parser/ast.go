package parser

import "fmt"

// NodeType represents the type of AST node
type NodeType string

// C statement-tree node types
const (
	// Structure
	NodeTranslationUnit NodeType = "TranslationUnit"
	NodeFunction        NodeType = "Function"
	NodeBlock           NodeType = "Block"

	// Control constructs
	NodeIf      NodeType = "If"
	NodeWhile   NodeType = "While"
	NodeDoWhile NodeType = "DoWhile"
	NodeFor     NodeType = "For"
	NodeSwitch  NodeType = "Switch"
	NodeCase    NodeType = "Case"
	NodeDefault NodeType = "Default"

	// Jumps
	NodeBreak    NodeType = "Break"
	NodeContinue NodeType = "Continue"
	NodeReturn   NodeType = "Return"
	NodeGoto     NodeType = "Goto"

	// Straight-line statements
	NodeExpressionStatement NodeType = "ExpressionStatement"
	NodeDeclaration         NodeType = "Declaration"
	NodeLabeled             NodeType = "Labeled"
	NodeLeaf                NodeType = "Leaf"

	// Controlling expressions (if/loop conditions, for init/update, switch selector)
	NodeExpression NodeType = "Expression"
)

// Location represents the position of a node in the source code
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// String returns a string representation of the location
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.StartLine, l.StartCol)
}

// Node represents a statement-tree node
type Node struct {
	Type     NodeType
	Children []*Node // TranslationUnit: functions
	Location Location
	Parent   *Node

	Name   string // Function name or statement label
	Params string // Function parameter list as written
	Raw    string // Normalized source text
	Value  string // Case label text

	// Block, Function, Case, Default and Labeled hold their statements here.
	// Loops hold their single body statement at Body[0].
	Body []*Node

	// Control flow fields
	Test       *Node   // Condition for if/while/do-while/for, selector for switch
	Consequent *Node   // Then branch for if
	Alternate  *Node   // Else branch for if
	Init       *Node   // For loop initializer
	Update     *Node   // For loop step
	Cases      []*Node // Switch case/default clauses in source order
}

// NewNode creates a new AST node
func NewNode(nodeType NodeType) *Node {
	return &Node{
		Type:     nodeType,
		Children: []*Node{},
		Body:     []*Node{},
		Cases:    []*Node{},
	}
}

// AddChild adds a child node
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

// AddStatement appends a statement to the node body
func (n *Node) AddStatement(stmt *Node) {
	if stmt == nil {
		return
	}
	stmt.Parent = n
	n.Body = append(n.Body, stmt)
}

// Walk traverses the AST depth-first and calls the visitor function for each node
// If the visitor returns false, traversal of that branch is stopped
func (n *Node) Walk(visitor func(*Node) bool) {
	if n == nil {
		return
	}

	if !visitor(n) {
		return
	}

	for _, child := range n.Children {
		child.Walk(visitor)
	}
	if n.Init != nil {
		n.Init.Walk(visitor)
	}
	if n.Test != nil {
		n.Test.Walk(visitor)
	}
	if n.Update != nil {
		n.Update.Walk(visitor)
	}
	if n.Consequent != nil {
		n.Consequent.Walk(visitor)
	}
	if n.Alternate != nil {
		n.Alternate.Walk(visitor)
	}
	for _, stmt := range n.Body {
		stmt.Walk(visitor)
	}
	for _, c := range n.Cases {
		c.Walk(visitor)
	}
}

// String returns a string representation of the node
func (n *Node) String() string {
	if n.Name != "" {
		return fmt.Sprintf("%s(%s) at %s", n.Type, n.Name, n.Location)
	}
	if n.Raw != "" {
		return fmt.Sprintf("%s %q at %s", n.Type, n.Raw, n.Location)
	}
	return fmt.Sprintf("%s at %s", n.Type, n.Location)
}

// Text returns the source text used when the node is listed inside a basic block
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	if n.Raw != "" {
		return n.Raw
	}
	return string(n.Type)
}

// IsJump returns true for statements that unconditionally transfer control
func (n *Node) IsJump() bool {
	switch n.Type {
	case NodeBreak, NodeContinue, NodeReturn:
		return true
	}
	return false
}

// IsConstruct returns true if the node opens a control construct
func (n *Node) IsConstruct() bool {
	switch n.Type {
	case NodeIf, NodeWhile, NodeDoWhile, NodeFor, NodeSwitch:
		return true
	}
	return false
}

// IsContainer returns true for nodes that only group other statements
func (n *Node) IsContainer() bool {
	switch n.Type {
	case NodeBlock, NodeLabeled, NodeCase, NodeDefault:
		return true
	}
	return false
}

// Functions returns the function definitions of a translation unit
func (n *Node) Functions() []*Node {
	if n == nil {
		return nil
	}
	if n.Type == NodeFunction {
		return []*Node{n}
	}
	var fns []*Node
	for _, child := range n.Children {
		if child.Type == NodeFunction {
			fns = append(fns, child)
		}
	}
	return fns
}

// Flatten returns every node of fn that a control-flow graph places inside a
// basic block: straight-line statements, jumps and controlling expressions,
// in source order. Case labels are excluded since they live on edges.
func Flatten(fn *Node) []*Node {
	var out []*Node
	var visit func(n *Node)
	visit = func(n *Node) {
		if n == nil {
			return
		}
		switch n.Type {
		case NodeFunction, NodeBlock, NodeLabeled, NodeCase, NodeDefault:
			for _, s := range n.Body {
				visit(s)
			}
		case NodeIf:
			out = appendNonNil(out, n.Test)
			visit(n.Consequent)
			visit(n.Alternate)
		case NodeWhile:
			out = appendNonNil(out, n.Test)
			for _, s := range n.Body {
				visit(s)
			}
		case NodeDoWhile:
			for _, s := range n.Body {
				visit(s)
			}
			out = appendNonNil(out, n.Test)
		case NodeFor:
			out = appendNonNil(out, n.Init)
			out = appendNonNil(out, n.Test)
			for _, s := range n.Body {
				visit(s)
			}
			out = appendNonNil(out, n.Update)
		case NodeSwitch:
			out = appendNonNil(out, n.Test)
			for _, s := range n.Body {
				visit(s)
			}
			for _, c := range n.Cases {
				visit(c)
			}
		default:
			out = append(out, n)
		}
	}
	visit(fn)
	return out
}

func appendNonNil(nodes []*Node, n *Node) []*Node {
	if n == nil {
		return nodes
	}
	return append(nodes, n)
}

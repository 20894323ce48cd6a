package analyzer

import (
	"fmt"
	"strings"

	"github.com/ludo-technologies/ccfg/internal/parser"
)

// StructuralError reports a break or continue with no valid enclosing scope.
// Construction of the affected function stops.
type StructuralError struct {
	Function  string
	Statement parser.NodeType
	Location  parser.Location
	Err       error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: structural error in function %s: %s statement with %v",
		e.Location, e.Function, strings.ToLower(string(e.Statement)), e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// MalformedSwitchError reports a switch whose labels cannot be told apart:
// a duplicated case value or a second default.
type MalformedSwitchError struct {
	Function string
	Value    string
	First    parser.Location
	Location parser.Location
}

func (e *MalformedSwitchError) Error() string {
	if e.Value == "default" {
		return fmt.Sprintf("%s: malformed switch in function %s: multiple default labels (first at %s)",
			e.Location, e.Function, e.First)
	}
	return fmt.Sprintf("%s: malformed switch in function %s: duplicate case value %s (first at %s)",
		e.Location, e.Function, e.Value, e.First)
}

// DeadCodeReason explains why a block can never execute
type DeadCodeReason string

const (
	ReasonUnreachableAfterReturn   DeadCodeReason = "unreachable_after_return"
	ReasonUnreachableAfterBreak    DeadCodeReason = "unreachable_after_break"
	ReasonUnreachableAfterContinue DeadCodeReason = "unreachable_after_continue"
	ReasonUnreachableBranch        DeadCodeReason = "unreachable_branch"
	ReasonUnreachableLoopStep      DeadCodeReason = "unreachable_loop_step"
	ReasonUnlabeledSwitchCode      DeadCodeReason = "unlabeled_switch_code"
)

// UnreachableCodeDiagnostic is a non-fatal report of a dead block that holds
// statements. It is returned alongside a successfully built CFG.
type UnreachableCodeDiagnostic struct {
	Function   string
	BlockID    int
	Reason     DeadCodeReason
	Start      parser.Location
	End        parser.Location
	Statements []string
}

func newUnreachableDiagnostic(g *CFG, b *Block) *UnreachableCodeDiagnostic {
	d := &UnreachableCodeDiagnostic{
		Function: g.name,
		BlockID:  b.id,
		Reason:   deadBlockReason(b),
	}
	for _, stmt := range b.stmts {
		d.Statements = append(d.Statements, stmt.Text())
	}
	first, last := b.stmts[0], b.stmts[len(b.stmts)-1]
	d.Start = first.Location
	d.End = last.Location
	return d
}

func deadBlockReason(b *Block) DeadCodeReason {
	if b.cause != "" {
		return b.cause
	}
	if b.label == LabelLoopStep {
		return ReasonUnreachableLoopStep
	}
	return ReasonUnreachableBranch
}

func (d *UnreachableCodeDiagnostic) Error() string {
	return fmt.Sprintf("%s: unreachable code in function %s (%s)", d.Start, d.Function, d.Reason)
}

func (d *UnreachableCodeDiagnostic) String() string {
	return d.Error()
}

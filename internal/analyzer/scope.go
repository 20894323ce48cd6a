package analyzer

import (
	"errors"

	"github.com/ludo-technologies/ccfg/internal/parser"
)

// ErrEmptyStack is returned when popping an empty scope stack
var ErrEmptyStack = errors.New("scope stack: pop on empty stack")

var (
	errNoBreakTarget    = errors.New("no enclosing loop or switch")
	errNoContinueTarget = errors.New("no enclosing loop")
)

// ScopeKind distinguishes loop scopes from switch scopes
type ScopeKind int

const (
	ScopeLoop ScopeKind = iota
	ScopeSwitch
)

func (k ScopeKind) String() string {
	if k == ScopeSwitch {
		return "switch"
	}
	return "loop"
}

// ScopeContext records the jump targets of one enclosing loop or switch.
// Continue is nil for a switch.
type ScopeContext struct {
	Kind     ScopeKind
	Continue *Block
	Break    *Block
	Node     *parser.Node
}

// ScopeStack resolves break and continue to the nearest enclosing target.
// It is owned by a single builder.
type ScopeStack struct {
	entries []ScopeContext
}

// NewScopeStack returns an empty stack
func NewScopeStack() *ScopeStack {
	return &ScopeStack{}
}

// Push enters a construct
func (s *ScopeStack) Push(ctx ScopeContext) {
	s.entries = append(s.entries, ctx)
}

// Pop leaves the innermost construct
func (s *ScopeStack) Pop() (ScopeContext, error) {
	if len(s.entries) == 0 {
		return ScopeContext{}, ErrEmptyStack
	}
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return top, nil
}

// Depth returns the number of open scopes
func (s *ScopeStack) Depth() int {
	return len(s.entries)
}

// ResolveBreak returns the break target of the innermost scope of any kind
func (s *ScopeStack) ResolveBreak() (*Block, error) {
	if len(s.entries) == 0 {
		return nil, errNoBreakTarget
	}
	return s.entries[len(s.entries)-1].Break, nil
}

// ResolveContinue returns the continue target of the innermost loop,
// skipping switch scopes
func (s *ScopeStack) ResolveContinue() (*Block, error) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if entry.Kind == ScopeLoop && entry.Continue != nil {
			return entry.Continue, nil
		}
	}
	return nil, errNoContinueTarget
}

package service

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/ccfg/domain"
)

// validRankDirs contains the valid Graphviz rank directions
var validRankDirs = map[string]bool{
	"TB": true, // Top to Bottom
	"LR": true, // Left to Right
	"BT": true, // Bottom to Top
	"RL": true, // Right to Left
}

// GraphFormatterImpl renders CFG responses in every supported format
type GraphFormatterImpl struct{}

// NewGraphFormatter creates a graph formatter
func NewGraphFormatter() *GraphFormatterImpl {
	return &GraphFormatterImpl{}
}

// Format renders response into a byte slice
func (f *GraphFormatterImpl) Format(response *domain.CFGResponse, req domain.CFGRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(response, req, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders response to writer in req.OutputFormat
func (f *GraphFormatterImpl) Write(response *domain.CFGResponse, req domain.CFGRequest, writer io.Writer) error {
	if response == nil {
		return domain.NewOutputError("nil cfg response", nil)
	}

	switch req.OutputFormat {
	case domain.OutputFormatText, "":
		return f.writeText(response, writer)
	case domain.OutputFormatDOT:
		return f.writeDOT(response, req.RankDir, writer)
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatMsgPack:
		return WriteMsgPack(writer, response)
	default:
		return domain.NewUnsupportedFormatError(string(req.OutputFormat))
	}
}

// writeText lists every block with its statement count, then every edge as
// `source -> target [kind]`
func (f *GraphFormatterImpl) writeText(response *domain.CFGResponse, w io.Writer) error {
	var sb strings.Builder
	for _, file := range response.Files {
		for _, fn := range file.Functions {
			writeFunctionText(&sb, fn)
		}
		for _, fe := range file.Errors {
			fmt.Fprintf(&sb, "error: %s\n\n", fe.Message)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeFunctionText(sb *strings.Builder, fn domain.FunctionGraph) {
	fmt.Fprintf(sb, "CFG %s (%d blocks, %d edges)", fn.Name, len(fn.Blocks), len(fn.Edges))
	if fn.Location.StartLine > 0 {
		fmt.Fprintf(sb, " at %s:%d", fn.File, fn.Location.StartLine)
	}
	sb.WriteString("\n")

	for _, b := range fn.Blocks {
		fmt.Fprintf(sb, "%s[%s] (%d stmts)", b.Name, b.Label, len(b.Statements))
		if !b.Reachable {
			sb.WriteString(" unreachable")
		}
		sb.WriteString("\n")
		for _, stmt := range b.Statements {
			fmt.Fprintf(sb, "    %s\n", oneLine(stmt))
		}
	}
	for _, e := range fn.Edges {
		fmt.Fprintf(sb, "B%d -> B%d [%s]\n", e.From, e.To, edgeLabel(e))
	}
	for _, u := range fn.Unreachable {
		fmt.Fprintf(sb, "warning: unreachable code in B%d at line %d (%s)\n", u.Block, u.Location.StartLine, u.Reason)
	}
	sb.WriteString("\n")
}

func edgeLabel(e domain.EdgeInfo) string {
	if e.Value != "" {
		return fmt.Sprintf("%s(%s)", e.Kind, e.Value)
	}
	return e.Kind
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// writeDOT emits one digraph per function through gonum's DOT encoder
func (f *GraphFormatterImpl) writeDOT(response *domain.CFGResponse, rankDir string, w io.Writer) error {
	if rankDir == "" {
		rankDir = "TB"
	}
	if !validRankDirs[rankDir] {
		return domain.NewInvalidInputError(
			fmt.Sprintf("invalid rank direction %q: must be one of TB, LR, BT, RL", rankDir), nil)
	}

	for _, file := range response.Files {
		for _, fn := range file.Functions {
			data, err := dot.MarshalMulti(newDOTGraph(fn, rankDir), fn.Name, "", "  ")
			if err != nil {
				return domain.NewOutputError("failed to encode "+fn.Name+" as DOT", err)
			}
			if _, err := w.Write(append(data, '\n')); err != nil {
				return err
			}
		}
	}
	return nil
}

// attributes is a static encoding.Attributer
type attributes []encoding.Attribute

func (a attributes) Attributes() []encoding.Attribute { return a }

type dotNode struct {
	id    int64
	name  string
	attrs attributes
}

func (n dotNode) ID() int64                         { return n.id }
func (n dotNode) DOTID() string                     { return n.name }
func (n dotNode) Attributes() []encoding.Attribute { return n.attrs }

type dotLine struct {
	multi.Line
	attrs attributes
}

func (l dotLine) Attributes() []encoding.Attribute { return l.attrs }

type dotGraph struct {
	*multi.DirectedGraph
	graph attributes
}

func (g dotGraph) DOTAttributers() (graph, node, edge encoding.Attributer) {
	return g.graph, attributes{{Key: "shape", Value: "box"}, {Key: "fontname", Value: "monospace"}}, attributes{}
}

func newDOTGraph(fn domain.FunctionGraph, rankDir string) dotGraph {
	g := dotGraph{
		DirectedGraph: multi.NewDirectedGraph(),
		graph:         attributes{{Key: "rankdir", Value: rankDir}, {Key: "label", Value: fn.Name}},
	}

	nodes := make(map[int]dotNode, len(fn.Blocks))
	for _, b := range fn.Blocks {
		n := dotNode{id: int64(b.ID), name: b.Name, attrs: blockAttributes(b)}
		nodes[b.ID] = n
		g.AddNode(n)
	}

	for _, e := range fn.Edges {
		from, okFrom := nodes[e.From]
		to, okTo := nodes[e.To]
		if !okFrom || !okTo {
			continue
		}
		line := g.NewLine(from, to).(multi.Line)
		g.SetLine(dotLine{Line: line, attrs: edgeAttributes(e)})
	}
	return g
}

func blockAttributes(b domain.BlockInfo) attributes {
	lines := []string{fmt.Sprintf("%s [%s]", b.Name, b.Label)}
	for _, stmt := range b.Statements {
		lines = append(lines, oneLine(stmt))
	}
	attrs := attributes{{Key: "label", Value: strings.Join(lines, "\n")}}

	switch {
	case b.Entry || b.Exit:
		attrs = append(attrs, encoding.Attribute{Key: "shape", Value: "ellipse"})
	case !b.Reachable:
		attrs = append(attrs,
			encoding.Attribute{Key: "style", Value: "dashed"},
			encoding.Attribute{Key: "color", Value: "gray"})
	}
	return attrs
}

func edgeAttributes(e domain.EdgeInfo) attributes {
	attrs := attributes{{Key: "label", Value: edgeLabel(e)}}
	switch e.Kind {
	case "TrueBranch":
		attrs = append(attrs, encoding.Attribute{Key: "color", Value: "darkgreen"})
	case "FalseBranch":
		attrs = append(attrs, encoding.Attribute{Key: "color", Value: "red"})
	case "Fallthrough":
		attrs = append(attrs, encoding.Attribute{Key: "style", Value: "dotted"})
	}
	if e.Back {
		attrs = append(attrs, encoding.Attribute{Key: "constraint", Value: "false"})
	}
	return attrs
}

// WriteJSON writes data as indented JSON
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteYAML writes data as YAML
func WriteYAML(writer io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// WriteMsgPack writes data as MessagePack, keyed by the msgpack struct tags
func WriteMsgPack(writer io.Writer, data interface{}) error {
	return msgpack.NewEncoder(writer).Encode(data)
}

package parser

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented listing of the statement tree rooted at n
func Dump(w io.Writer, n *Node) error {
	return dump(w, n, "", 0)
}

// DumpString returns the Dump listing as a string
func DumpString(n *Node) string {
	var sb strings.Builder
	_ = Dump(&sb, n)
	return sb.String()
}

func dump(w io.Writer, n *Node, role string, depth int) error {
	if n == nil {
		return nil
	}

	var line strings.Builder
	line.WriteString(strings.Repeat("  ", depth))
	if role != "" {
		line.WriteString(role)
		line.WriteString(": ")
	}
	line.WriteString(string(n.Type))
	switch {
	case n.Type == NodeFunction:
		fmt.Fprintf(&line, " %s%s", n.Name, n.Params)
	case n.Type == NodeLabeled:
		fmt.Fprintf(&line, " %s", n.Name)
	case n.Type == NodeCase:
		fmt.Fprintf(&line, " %s", n.Value)
	case n.Raw != "" && !n.IsContainer():
		fmt.Fprintf(&line, " %q", n.Raw)
	}
	fmt.Fprintf(&line, " @%d:%d\n", n.Location.StartLine, n.Location.StartCol)

	if _, err := io.WriteString(w, line.String()); err != nil {
		return err
	}

	for _, child := range n.Children {
		if err := dump(w, child, "", depth+1); err != nil {
			return err
		}
	}
	fields := []struct {
		role string
		node *Node
	}{
		{"init", n.Init},
		{"test", n.Test},
		{"update", n.Update},
		{"then", n.Consequent},
		{"else", n.Alternate},
	}
	for _, f := range fields {
		if err := dump(w, f.node, f.role, depth+1); err != nil {
			return err
		}
	}
	for _, stmt := range n.Body {
		if err := dump(w, stmt, "", depth+1); err != nil {
			return err
		}
	}
	for _, c := range n.Cases {
		if err := dump(w, c, "", depth+1); err != nil {
			return err
		}
	}
	return nil
}

package cfg

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-graphviz"
)

// Label renders a short description of n.
func (g *Graph) Label(n NodeID, fset *token.FileSet) string {
	if fset == nil {
		fset = token.NewFileSet()
	}
	nd := g.nodes[n]
	switch nd.kind {
	case Entry:
		return "entry"
	case Exit:
		return "exit"
	case Nop:
		return "nop"
	case Cond:
		if nd.cond == nil {
			return "for"
		}
		return "cond " + source(fset, nd.cond)
	case Range:
		if r, ok := nd.stmt.(*ast.RangeStmt); ok {
			return "range " + source(fset, r.X)
		}
		return "range"
	case Branch:
		if nd.cond != nil {
			return "switch " + source(fset, nd.cond)
		}
		switch nd.stmt.(type) {
		case *ast.SelectStmt:
			return "select"
		case *ast.TypeSwitchStmt:
			return "type switch"
		}
		return "switch"
	default:
		return source(fset, nd.stmt)
	}
}

// source prints the first line of a node.
func source(fset *token.FileSet, n any) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, n); err != nil {
		return fmt.Sprintf("%T", n)
	}
	s := buf.String()
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " ..."
	}
	return s
}

// PrintDot writes the graph in GraphViz DOT format. edgeLabel, when not nil,
// adds text to each edge, typically the assumption stored on it.
func (g *Graph) PrintDot(w io.Writer, fset *token.FileSet, edgeLabel func(EdgeID) string) {
	fmt.Fprintln(w, "digraph cfg {")
	fmt.Fprintln(w, "\tnode [shape=box];")
	for i := range g.nodes {
		fmt.Fprintf(w, "\tn%d [label=%q];\n", i, g.Label(NodeID(i), fset))
	}
	for i, e := range g.edges {
		from, to := fmt.Sprintf("n%d", e.start), fmt.Sprintf("n%d", e.end)
		switch {
		case e.start == NoNode:
			from = fmt.Sprintf("in%d", i)
			fmt.Fprintf(w, "\t%s [shape=point];\n", from)
		case e.end == NoNode:
			to = fmt.Sprintf("out%d", i)
			fmt.Fprintf(w, "\t%s [shape=point];\n", to)
		}
		label := e.role.String()
		if edgeLabel != nil {
			if l := edgeLabel(EdgeID(i)); l != "" {
				label = strings.TrimSpace(label + " " + l)
			}
		}
		if label == "" {
			fmt.Fprintf(w, "\t%s -> %s;\n", from, to)
			continue
		}
		fmt.Fprintf(w, "\t%s -> %s [label=%q];\n", from, to, label)
	}
	fmt.Fprintln(w, "}")
}

// RenderToGraphVizFile renders DOT source to output. The format follows the
// file extension: .svg, .png or .jpg; anything else writes the DOT text.
func RenderToGraphVizFile(ctx context.Context, dot []byte, output string) error {
	var format graphviz.Format
	switch strings.ToLower(filepath.Ext(output)) {
	case ".svg":
		format = graphviz.SVG
	case ".png":
		format = graphviz.PNG
	case ".jpg", ".jpeg":
		format = graphviz.JPG
	default:
		if err := os.WriteFile(output, dot, 0o644); err != nil {
			return fmt.Errorf("write dot: %w", err)
		}
		return nil
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes(dot)
	if err != nil {
		return fmt.Errorf("parse dot: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, format, &buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	return nil
}

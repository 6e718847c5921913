package lineage

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"
)

var shapes = map[NodeKind]string{
	KindDisplay:   `shape=note, style=filled, fillcolor="#dbe9f6"`,
	KindResult:    `shape=box, style="rounded,filled", fillcolor="#fdf1d6"`,
	KindDataset:   `shape=folder, style=filled, fillcolor="#e3f1df"`,
	KindVariable:  `shape=ellipse`,
	KindParameter: `shape=ellipse, style=bold`,
	KindWhere:     `shape=hexagon, fontsize=10`,
}

// DOT renders the graph in Graphviz DOT format, left to right.
func (g *Graph) DOT() string {
	return g.dot(false)
}

// DetailedDOT is DOT with descriptions added to the labels.
func (g *Graph) DetailedDOT() string {
	return g.dot(true)
}

func (g *Graph) dot(detailed bool) string {
	var buf bytes.Buffer
	buf.WriteString("digraph lineage {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"Helvetica\", fontsize=12];\n")
	buf.WriteString("\n")
	for _, n := range g.Nodes {
		label := n.Label
		if detailed && n.Detail != "" {
			label += "\n" + n.Detail
		}
		fmt.Fprintf(&buf, "  %q [label=%q, %s];\n", n.ID, label, shapes[n.Kind])
	}
	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG lays out a DOT graph with the embedded Graphviz and returns SVG.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return scalableSVG(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// scalableSVG replaces Graphviz's point-sized root element with one whose
// viewBox starts at the origin, so browsers scale the drawing.
func scalableSVG(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/driftboard/pkg/diagram"
	"github.com/matzehuels/driftboard/pkg/route"
)

// Graphviz measures in points and inches; diagrams are in CSS pixels.
const (
	pointsPerPixel = 72.0 / 96.0
	pixelsPerInch  = 96.0
)

// Options configures DOT generation.
type Options struct {
	// ShowHidden draws nodes and edges hidden by a collapse, dashed.
	ShowHidden bool
	// Background overrides the diagram's background color.
	Background string
}

// ToDOT converts a diagram to Graphviz DOT with every node pinned at its
// stored position. Edge ports follow the routes in table: a horizontal
// route leaves and enters through the box sides, a vertical one through
// top and bottom.
func ToDOT(s *diagram.Store, table route.Table, opts Options) string {
	bg := opts.Background
	if bg == "" {
		bg = s.Properties().BackgroundColor
	}
	if bg == "" {
		bg = "transparent"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", bg)
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fixedsize=true, fontsize=12];\n")
	buf.WriteString("  edge [arrowsize=0.8];\n")
	buf.WriteString("\n")

	for _, n := range s.Nodes() {
		if n.IsHidden() && !opts.ShowHidden {
			continue
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.ID, strings.Join(nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges() {
		if !opts.ShowHidden && (e.Hidden || hidden(s, e.From) || hidden(s, e.To)) {
			continue
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [%s];\n", e.From, e.To, strings.Join(edgeAttrs(e, table), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func hidden(s *diagram.Store, id diagram.NodeID) bool {
	n, ok := s.Node(id)
	return !ok || n.IsHidden()
}

func nodeAttrs(n diagram.Node) []string {
	c := n.Box().Center()
	label := diagram.PlainText(n.Content)
	if n.Collapsed {
		label += " [+]"
	}
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		// y grows downwards on the canvas and upwards in Graphviz
		fmt.Sprintf("pos=\"%s,%s!\"", num(c.X*pointsPerPixel), num(-c.Y*pointsPerPixel)),
		fmt.Sprintf("width=%s", num(n.Size.W/pixelsPerInch)),
		fmt.Sprintf("height=%s", num(n.Size.H/pixelsPerInch)),
	}
	if n.Style.Color != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", n.Style.Color), fmt.Sprintf("fontcolor=%q", n.Style.Color))
	}
	if n.Style.BackgroundColor != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", n.Style.BackgroundColor))
	}
	if n.IsHidden() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

func edgeAttrs(e diagram.Edge, table route.Table) []string {
	var attrs []string
	if e.Style.Color != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", e.Style.Color))
	}
	if e.Style.Width > 0 {
		attrs = append(attrs, fmt.Sprintf("penwidth=%s", num(e.Style.Width)))
	}
	if r, ok := table.Lookup(e.ID); ok {
		tail, head := ports(r)
		attrs = append(attrs, fmt.Sprintf("tailport=%s", tail), fmt.Sprintf("headport=%s", head))
	}
	if e.Hidden {
		attrs = append(attrs, "style=dashed")
	}
	return attrs
}

// ports maps a route to Graphviz compass points.
func ports(r route.Route) (tail, head string) {
	d := r.End.Sub(r.Start)
	switch {
	case r.Horizontal && d.X >= 0:
		return "e", "w"
	case r.Horizontal:
		return "w", "e"
	case d.Y >= 0:
		return "s", "n"
	default:
		return "n", "s"
	}
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders a DOT graph to SVG with the neato engine, which keeps
// pinned node positions.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

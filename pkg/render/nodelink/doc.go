// Package nodelink renders diagrams through Graphviz.
//
// # Overview
//
// [ToDOT] writes a diagram as Graphviz DOT source. Every visible node is
// pinned at its stored position (pos="x,y!"), so the neato engine draws
// the diagram as laid out on the canvas instead of computing a layout.
// Node colors, edge colors and widths carry over; elements hidden by a
// collapse are left out unless [Options].ShowHidden is set.
//
// # Usage
//
//	routes := route.ComputeAll(store)
//	dot := nodelink.ToDOT(store, routes, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source can also be saved and processed with external Graphviz
// tools (`neato -n2 -Tpng`).
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink

// Package render groups the output renderers of driftboard diagrams.
//
// The [nodelink] subpackage converts a diagram to Graphviz DOT with pinned
// node positions and renders it to SVG in-process:
//
//	dot := nodelink.ToDOT(store, route.ComputeAll(store), nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/driftboard/pkg/render/nodelink
package render

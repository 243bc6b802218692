// Package diagram provides the node/edge store behind the driftboard editor.
//
// # Overview
//
// A diagram is a set of positioned, styled content boxes (nodes) joined by
// directed, independently styled connections (edges). Nodes and edges live in
// an arena inside a [Store] and are addressed by stable integer identifiers
// ([NodeID], [EdgeID]). Edges are plain (From, To) value pairs, so the whole
// store can be serialized, compared and restored without any rendering layer.
//
// # Basic Usage
//
//	s := diagram.New()
//	a := s.CreateNode("<b>app</b>", diagram.Point{X: 100, Y: 100})
//	b := s.CreateNode("lib", diagram.Point{X: 300, Y: 100})
//	e, err := s.CreateEdge(a, b, diagram.DefaultEdgeStyle())
//
// Identifiers are allocated once and never handed out again by the allocator,
// even after the node is deleted. Restoring a node (undo, import) reuses the
// identifier it carried.
//
// # Referential Cleanup
//
// [Store.DeleteNode] removes every edge where the node is source or target
// and returns them in a [Removal], together with the node itself. A removal
// can be put back verbatim with [Store.RestoreRemoval].
//
// Self-loop edges are rejected with [ErrSelfLoop]. Duplicate edges between
// the same ordered pair are allowed.
//
// # Collapse Cascade
//
// [Store.ToggleCollapse] hides or reveals everything reachable from a node
// over outgoing edges. The traversal is breadth-first with a visited set, so
// cyclic diagrams terminate. [Store.CollectLinked] runs the same traversal
// without mutating anything and is used for subtree drags and partial export.
//
// # Concurrency
//
// A Store is not safe for concurrent use. The editor engine owns it and
// mutates it from a single goroutine.
package diagram

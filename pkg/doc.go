// Package pkg provides the core libraries of driftboard, a diagram editor
// core for labelled boxes joined by directed arrows.
//
// # Overview
//
// The pkg directory is organized by concern:
//
//  1. [diagram] - the node and edge store, visibility and collapse
//  2. [route] - arrow anchoring and arrowhead geometry
//  3. [history] - reversible commands with undo and redo
//  4. [document] - the JSON document format, import planning and export
//  5. [engine] - the editing facade that ties the above together
//  6. [kv] and [session] - persistence and autosave
//  7. [render] - DOT and SVG output
//
// # Architecture
//
// Every change flows through the engine:
//
//	caller (CLI, terminal editor, HTTP API)
//	         ↓
//	    [engine] (validate, build a command)
//	         ↓
//	    [history] (apply, record for undo)
//	         ↓
//	    [diagram] (store mutation, collapse cascade)
//	         ↓
//	    [route] (recompute every arrow)
//
// # Quick Start
//
//	e := engine.New(engine.Options{})
//	a, _ := e.CreateNode("Idea", diagram.Point{X: 0, Y: 0})
//	b, _ := e.CreateNode("Plan", diagram.Point{X: 300, Y: 0})
//	e.Connect(a, b)
//	e.ToggleCollapse(a) // hides Plan and the arrow
//	e.Undo()
//
// [diagram]: github.com/matzehuels/driftboard/pkg/diagram
// [route]: github.com/matzehuels/driftboard/pkg/route
// [history]: github.com/matzehuels/driftboard/pkg/history
// [document]: github.com/matzehuels/driftboard/pkg/document
// [engine]: github.com/matzehuels/driftboard/pkg/engine
// [kv]: github.com/matzehuels/driftboard/pkg/kv
// [session]: github.com/matzehuels/driftboard/pkg/session
// [render]: github.com/matzehuels/driftboard/pkg/render
package pkg

// Package engine is the operation surface of the diagram editor.
//
// An [Engine] owns one diagram store, its undo history, the current
// selection and the edge router. Input layers (the CLI, the terminal editor,
// the HTTP server) translate user actions into engine operations; every
// mutating operation runs as a history command, then the router recomputes
// every edge route and the render callback receives a fresh [Frame].
//
// The engine is not safe for concurrent use. Layers that run goroutines,
// such as the autosaver next to the HTTP server, share it through [Locked].
package engine

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/driftboard/pkg/diagram"
	"github.com/matzehuels/driftboard/pkg/history"
	"github.com/matzehuels/driftboard/pkg/observability"
	"github.com/matzehuels/driftboard/pkg/route"
)

// Default placement of nodes created without a point: a diagonal staircase
// starting at (StaggerStart, StaggerStart).
const (
	StaggerStart = 100.0
	StaggerStep  = 100.0
)

// Options configures an engine.
type Options struct {
	Logger         *log.Logger
	NodeStyle      diagram.NodeStyle // style of created nodes
	EdgeStyle      diagram.EdgeStyle // style of created edges
	DefaultContent string            // content of nodes created by CreateNodeAt
	HistoryLimit   int               // undoable steps kept, history.DefaultLimit if <= 0
	PreventOverlap bool              // refuse moves onto another visible node
	OnRender       func(Frame)       // called after every state change
}

// DefaultContent is the content of nodes created without one.
const DefaultContent = "New label"

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	def := diagram.DefaultNodeStyle()
	if o.NodeStyle.Color == "" {
		o.NodeStyle.Color = def.Color
	}
	if o.NodeStyle.BackgroundColor == "" {
		o.NodeStyle.BackgroundColor = def.BackgroundColor
	}
	o.NodeStyle.Visibility = diagram.Visible
	if o.EdgeStyle.Color == "" {
		o.EdgeStyle.Color = diagram.DefaultEdgeStyle().Color
	}
	if o.EdgeStyle.Width <= 0 {
		o.EdgeStyle.Width = diagram.DefaultEdgeStyle().Width
	}
	if o.DefaultContent == "" {
		o.DefaultContent = DefaultContent
	}
}

// SelectionKind tells what a [Selection] refers to.
type SelectionKind int

const (
	SelectNone SelectionKind = iota
	SelectNode
	SelectEdge
)

// Selection is at most one node or one edge.
type Selection struct {
	Kind SelectionKind
	Node diagram.NodeID // valid when Kind == SelectNode
	Edge diagram.EdgeID // valid when Kind == SelectEdge
}

// Frame is everything a render layer needs to draw the current state.
// All fields are copies.
type Frame struct {
	Nodes      []diagram.Node
	Edges      []diagram.Edge
	Routes     route.Table
	Selection  Selection
	Properties diagram.Properties
	Title      string
}

// Engine owns one diagram and everything needed to edit it.
type Engine struct {
	opts   Options
	logger *log.Logger
	store  *diagram.Store
	hist   *history.History
	router route.Router
	sel    Selection
}

// New creates an engine over an empty diagram.
func New(opts Options) *Engine {
	opts.setDefaults()
	e := &Engine{opts: opts, logger: opts.Logger}
	e.Reset()
	return e
}

// Reset discards the diagram, the history and the selection.
func (e *Engine) Reset() {
	e.store = diagram.New()
	e.hist = history.New(e.opts.HistoryLimit)
	e.sel = Selection{}
	e.refresh()
}

// Store returns the engine's store. Callers must not mutate it directly;
// changes made outside the engine bypass history.
func (e *Engine) Store() *diagram.Store { return e.store }

// Routes returns the routes of the last recomputation.
func (e *Engine) Routes() route.Table { return e.router.Table() }

// Selection returns the current selection.
func (e *Engine) Selection() Selection { return e.sel }

// CanUndo reports whether Undo would do anything.
func (e *Engine) CanUndo() bool { return e.hist.CanUndo() }

// CanRedo reports whether Redo would do anything.
func (e *Engine) CanRedo() bool { return e.hist.CanRedo() }

// ClearHistory drops every undo and redo step.
func (e *Engine) ClearHistory() { e.hist.Clear() }

// Frame builds the render frame for the current state.
func (e *Engine) Frame() Frame {
	return Frame{
		Nodes:      e.store.Nodes(),
		Edges:      e.store.Edges(),
		Routes:     e.router.Table(),
		Selection:  e.sel,
		Properties: e.store.Properties(),
		Title:      e.Title(),
	}
}

// execute runs cmd through the history and refreshes derived state.
// A command that fails leaves no trace in the history.
func (e *Engine) execute(cmd history.Command) error {
	start := time.Now()
	err := e.hist.Execute(e.store, cmd)
	observability.Engine().OnCommand(cmd.Name(), time.Since(start), err)
	if err != nil {
		e.logger.Debug("command rejected", "command", cmd.Name(), "err", err)
		return err
	}
	e.logger.Debug("command applied", "command", cmd.Name(),
		"nodes", e.store.NodeCount(), "edges", e.store.EdgeCount())
	e.refresh()
	return nil
}

// refresh drops a dangling selection, recomputes routes and renders.
func (e *Engine) refresh() {
	switch e.sel.Kind {
	case SelectNode:
		if !e.store.HasNode(e.sel.Node) {
			e.sel = Selection{}
		}
	case SelectEdge:
		if !e.store.HasEdge(e.sel.Edge) {
			e.sel = Selection{}
		}
	}
	e.router.RecomputeAll(e.store)
	if e.opts.OnRender != nil {
		e.opts.OnRender(e.Frame())
	}
}

func finite(p diagram.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

package engine

import (
	"errors"

	"github.com/matzehuels/driftboard/pkg/diagram"
	errs "github.com/matzehuels/driftboard/pkg/errors"
	"github.com/matzehuels/driftboard/pkg/history"
	"github.com/matzehuels/driftboard/pkg/observability"
)

// NextPosition returns where a node created without an explicit point
// goes: one step further down the diagonal for every node in the diagram.
func (e *Engine) NextPosition() diagram.Point {
	n := float64(e.store.NodeCount())
	return diagram.Point{X: StaggerStart + n*StaggerStep, Y: StaggerStart + n*StaggerStep}
}

// CreateNodeAt creates a node with the default content at p.
func (e *Engine) CreateNodeAt(p diagram.Point) (diagram.NodeID, error) {
	return e.CreateNode(e.opts.DefaultContent, p)
}

// CreateNode creates a node with the given content at p.
func (e *Engine) CreateNode(content string, p diagram.Point) (diagram.NodeID, error) {
	if !finite(p) {
		return 0, errs.New(errs.ErrCodeInvalidInput, "position %v is not finite", p)
	}
	cmd := history.NewCreateNode(diagram.Node{Content: content, Pos: p, Style: e.opts.NodeStyle})
	if err := e.execute(cmd); err != nil {
		return 0, err
	}
	return cmd.ID(), nil
}

// Connect creates an edge from a to b with the configured edge style.
// Self-loops and unknown endpoints are rejected with the diagram package's
// sentinel errors.
func (e *Engine) Connect(a, b diagram.NodeID) (diagram.Edge, error) {
	return e.ConnectStyled(a, b, e.opts.EdgeStyle)
}

// ConnectStyled is Connect with an explicit edge style.
func (e *Engine) ConnectStyled(a, b diagram.NodeID, style diagram.EdgeStyle) (diagram.Edge, error) {
	cmd := history.NewCreateEdge(a, b, style)
	if err := e.execute(cmd); err != nil {
		return diagram.Edge{}, err
	}
	return cmd.Edge(), nil
}

// MoveNode moves a node's top-left corner to p. A collapsed node drags its
// whole collapsed subtree along by the same delta.
//
// Reports false when the node does not exist, p is not finite, p is the
// current position, or overlap prevention is on and the node would land on
// another visible node.
func (e *Engine) MoveNode(id diagram.NodeID, p diagram.Point) bool {
	n, ok := e.store.Node(id)
	if !ok || !finite(p) || n.Pos == p {
		return false
	}
	if e.opts.PreventOverlap && len(e.store.Overlapping(id, p)) > 0 {
		e.logger.Debug("move refused: overlap", "node", id, "x", p.X, "y", p.Y)
		return false
	}
	delta := p.Sub(n.Pos)
	cmd := &history.MoveNodes{Moves: []history.Move{{ID: id, From: n.Pos, To: p}}}
	if n.Collapsed {
		for _, nid := range e.store.CollectLinked(id).Nodes[1:] {
			m, _ := e.store.Node(nid)
			cmd.Moves = append(cmd.Moves, history.Move{ID: nid, From: m.Pos, To: m.Pos.Add(delta)})
		}
	}
	return e.execute(cmd) == nil
}

// DeleteNode deletes a node and every edge touching it.
func (e *Engine) DeleteNode(id diagram.NodeID) bool {
	return e.execute(history.NewDeleteNode(id)) == nil
}

// DeleteEdge deletes one edge.
func (e *Engine) DeleteEdge(id diagram.EdgeID) bool {
	return e.execute(history.NewDeleteEdge(id)) == nil
}

// DeleteSelected deletes the selected node or edge and clears the
// selection. Reports false when nothing is selected.
func (e *Engine) DeleteSelected() bool {
	sel := e.sel
	e.sel = Selection{}
	switch sel.Kind {
	case SelectNode:
		return e.DeleteNode(sel.Node)
	case SelectEdge:
		return e.DeleteEdge(sel.Edge)
	}
	return false
}

// SelectNode selects a node, replacing any selected edge.
func (e *Engine) SelectNode(id diagram.NodeID) bool {
	if !e.store.HasNode(id) {
		return false
	}
	e.sel = Selection{Kind: SelectNode, Node: id}
	e.refresh()
	return true
}

// SelectEdge selects an edge, replacing any selected node.
func (e *Engine) SelectEdge(id diagram.EdgeID) bool {
	if !e.store.HasEdge(id) {
		return false
	}
	e.sel = Selection{Kind: SelectEdge, Edge: id}
	e.refresh()
	return true
}

// ClearSelection deselects everything.
func (e *Engine) ClearSelection() {
	if e.sel.Kind == SelectNone {
		return
	}
	e.sel = Selection{}
	e.refresh()
}

// ToggleCollapse collapses an expanded node or expands a collapsed one,
// cascading over its outgoing edges.
func (e *Engine) ToggleCollapse(id diagram.NodeID) bool {
	return e.execute(&history.ToggleCollapse{ID: id}) == nil
}

// SetNodeStyle sets a node's colors. The visibility in style is ignored:
// it belongs to the collapse cascade.
func (e *Engine) SetNodeStyle(id diagram.NodeID, style diagram.NodeStyle) bool {
	n, ok := e.store.Node(id)
	if !ok {
		return false
	}
	style.Visibility = n.Style.Visibility
	if style == n.Style {
		return false
	}
	return e.execute(&history.SetNodeStyle{ID: id, Style: style}) == nil
}

// SetEdgeStyle sets an edge's color and width.
func (e *Engine) SetEdgeStyle(id diagram.EdgeID, style diagram.EdgeStyle) bool {
	ed, ok := e.store.Edge(id)
	if !ok || ed.Style == style {
		return false
	}
	return e.execute(&history.SetEdgeStyle{ID: id, Style: style}) == nil
}

// SetContent replaces a node's content.
func (e *Engine) SetContent(id diagram.NodeID, content string) bool {
	n, ok := e.store.Node(id)
	if !ok || n.Content == content {
		return false
	}
	return e.execute(&history.SetContent{ID: id, Content: content}) == nil
}

// SetTitleBound marks whether a node's content is the document title.
func (e *Engine) SetTitleBound(id diagram.NodeID, bound bool) bool {
	n, ok := e.store.Node(id)
	if !ok || n.TitleBound == bound {
		return false
	}
	return e.execute(&history.SetTitleBound{ID: id, Bound: bound}) == nil
}

// SetBackground sets the canvas background color.
func (e *Engine) SetBackground(color string) bool {
	props := e.store.Properties()
	if props.BackgroundColor == color {
		return false
	}
	props.BackgroundColor = color
	return e.execute(&history.SetProperties{Properties: props}) == nil
}

// Title returns the plain text of the first title-bound node, or "".
func (e *Engine) Title() string {
	for _, n := range e.store.Nodes() {
		if n.TitleBound {
			return diagram.PlainText(n.Content)
		}
	}
	return ""
}

// Undo reverts the last command. Reports false when there is nothing to
// undo.
func (e *Engine) Undo() bool {
	name := e.hist.UndoName()
	ok, err := e.hist.Undo(e.store)
	if err != nil {
		e.logger.Warn("undo failed", "command", name, "err", err)
		return false
	}
	if ok {
		observability.Engine().OnUndo(name)
		e.logger.Debug("undo", "command", name)
		e.refresh()
	}
	return ok
}

// Redo reapplies the last undone command. Reports false when there is
// nothing to redo.
func (e *Engine) Redo() bool {
	name := e.hist.RedoName()
	ok, err := e.hist.Redo(e.store)
	if err != nil {
		e.logger.Warn("redo failed", "command", name, "err", err)
		return false
	}
	if ok {
		observability.Engine().OnRedo(name)
		e.logger.Debug("redo", "command", name)
		e.refresh()
	}
	return ok
}

// IsNoEffect reports whether err only means an operation targeted an
// element that does not exist.
func IsNoEffect(err error) bool { return errors.Is(err, history.ErrNoEffect) }

package engine

import (
	"github.com/matzehuels/driftboard/pkg/diagram"
	"github.com/matzehuels/driftboard/pkg/document"
	errs "github.com/matzehuels/driftboard/pkg/errors"
)

// OpKind names an engine operation reachable through [Engine.Dispatch].
type OpKind string

const (
	OpCreateNode     OpKind = "create_node"
	OpConnect        OpKind = "connect"
	OpMoveNode       OpKind = "move_node"
	OpDeleteNode     OpKind = "delete_node"
	OpDeleteEdge     OpKind = "delete_edge"
	OpDeleteSelected OpKind = "delete_selected"
	OpSelectNode     OpKind = "select_node"
	OpSelectEdge     OpKind = "select_edge"
	OpClearSelection OpKind = "clear_selection"
	OpToggleCollapse OpKind = "toggle_collapse"
	OpSetNodeStyle   OpKind = "set_node_style"
	OpSetEdgeStyle   OpKind = "set_edge_style"
	OpSetContent     OpKind = "set_content"
	OpSetTitleBound  OpKind = "set_title_bound"
	OpSetBackground  OpKind = "set_background"
	OpUndo           OpKind = "undo"
	OpRedo           OpKind = "redo"
	OpImportReplace  OpKind = "import_replace"
	OpImportMerge    OpKind = "import_merge"
)

// Op is one operation request. Which fields are read depends on Kind:
// Node for node operations, Node and Target for OpConnect, Edge for edge
// operations, Point for creation and moves, Content, NodeStyle, EdgeStyle,
// Bound and Color for the matching setters, Document for imports.
type Op struct {
	Kind      OpKind
	Node      diagram.NodeID
	Target    diagram.NodeID
	Edge      diagram.EdgeID
	Point     *diagram.Point // OpCreateNode uses NextPosition when nil
	Content   *string        // OpCreateNode uses the default content when nil
	NodeStyle diagram.NodeStyle
	EdgeStyle *diagram.EdgeStyle // OpConnect uses the configured style when nil
	Bound     bool
	Color     string
	Document  *document.Document
}

// Result reports what an operation did.
type Result struct {
	Changed bool
	Node    diagram.NodeID // created node
	Edge    diagram.Edge   // created edge
	Report  *Report        // imports
}

type handler func(e *Engine, op Op) (Result, error)

var handlers = map[OpKind]handler{
	OpCreateNode: func(e *Engine, op Op) (Result, error) {
		p := e.NextPosition()
		if op.Point != nil {
			p = *op.Point
		}
		content := e.opts.DefaultContent
		if op.Content != nil {
			content = *op.Content
		}
		id, err := e.CreateNode(content, p)
		if err != nil {
			return Result{}, err
		}
		return Result{Changed: true, Node: id}, nil
	},
	OpConnect: func(e *Engine, op Op) (Result, error) {
		style := e.opts.EdgeStyle
		if op.EdgeStyle != nil {
			style = *op.EdgeStyle
		}
		ed, err := e.ConnectStyled(op.Node, op.Target, style)
		if err != nil {
			return Result{}, err
		}
		return Result{Changed: true, Edge: ed}, nil
	},
	OpMoveNode: func(e *Engine, op Op) (Result, error) {
		if op.Point == nil {
			return Result{}, errs.New(errs.ErrCodeInvalidInput, "move_node requires a point")
		}
		return changed(e.MoveNode(op.Node, *op.Point))
	},
	OpDeleteNode:     func(e *Engine, op Op) (Result, error) { return changed(e.DeleteNode(op.Node)) },
	OpDeleteEdge:     func(e *Engine, op Op) (Result, error) { return changed(e.DeleteEdge(op.Edge)) },
	OpDeleteSelected: func(e *Engine, op Op) (Result, error) { return changed(e.DeleteSelected()) },
	OpSelectNode:     func(e *Engine, op Op) (Result, error) { return changed(e.SelectNode(op.Node)) },
	OpSelectEdge:     func(e *Engine, op Op) (Result, error) { return changed(e.SelectEdge(op.Edge)) },
	OpClearSelection: func(e *Engine, op Op) (Result, error) {
		had := e.sel.Kind != SelectNone
		e.ClearSelection()
		return changed(had)
	},
	OpToggleCollapse: func(e *Engine, op Op) (Result, error) { return changed(e.ToggleCollapse(op.Node)) },
	OpSetNodeStyle:   func(e *Engine, op Op) (Result, error) { return changed(e.SetNodeStyle(op.Node, op.NodeStyle)) },
	OpSetEdgeStyle: func(e *Engine, op Op) (Result, error) {
		if op.EdgeStyle == nil {
			return Result{}, errs.New(errs.ErrCodeInvalidInput, "set_edge_style requires a style")
		}
		return changed(e.SetEdgeStyle(op.Edge, *op.EdgeStyle))
	},
	OpSetContent: func(e *Engine, op Op) (Result, error) {
		if op.Content == nil {
			return Result{}, errs.New(errs.ErrCodeInvalidInput, "set_content requires content")
		}
		return changed(e.SetContent(op.Node, *op.Content))
	},
	OpSetTitleBound: func(e *Engine, op Op) (Result, error) { return changed(e.SetTitleBound(op.Node, op.Bound)) },
	OpSetBackground: func(e *Engine, op Op) (Result, error) { return changed(e.SetBackground(op.Color)) },
	OpUndo:          func(e *Engine, op Op) (Result, error) { return changed(e.Undo()) },
	OpRedo:          func(e *Engine, op Op) (Result, error) { return changed(e.Redo()) },
	OpImportReplace: func(e *Engine, op Op) (Result, error) {
		return importWith(op, e.ImportReplace)
	},
	OpImportMerge: func(e *Engine, op Op) (Result, error) {
		return importWith(op, e.ImportMerge)
	},
}

func changed(ok bool) (Result, error) { return Result{Changed: ok}, nil }

func importWith(op Op, fn func(document.Document) (Report, error)) (Result, error) {
	if op.Document == nil {
		return Result{}, errs.New(errs.ErrCodeInvalidInput, "%s requires a document", op.Kind)
	}
	r, err := fn(*op.Document)
	if err != nil {
		return Result{}, err
	}
	return Result{Changed: true, Report: &r}, nil
}

// Dispatch runs the operation named by op.Kind. Operations that target a
// missing element report Changed == false, not an error.
func (e *Engine) Dispatch(op Op) (Result, error) {
	h, ok := handlers[op.Kind]
	if !ok {
		return Result{}, errs.New(errs.ErrCodeUnsupported, "unknown operation %q", op.Kind)
	}
	e.logger.Debug("dispatch", "op", op.Kind)
	return h(e, op)
}

// Ops lists every operation kind Dispatch understands.
func Ops() []OpKind {
	return []OpKind{
		OpCreateNode, OpConnect, OpMoveNode, OpDeleteNode, OpDeleteEdge,
		OpDeleteSelected, OpSelectNode, OpSelectEdge, OpClearSelection,
		OpToggleCollapse, OpSetNodeStyle, OpSetEdgeStyle, OpSetContent,
		OpSetTitleBound, OpSetBackground, OpUndo, OpRedo,
		OpImportReplace, OpImportMerge,
	}
}

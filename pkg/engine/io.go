package engine

import (
	"github.com/matzehuels/driftboard/pkg/diagram"
	"github.com/matzehuels/driftboard/pkg/document"
	"github.com/matzehuels/driftboard/pkg/history"
	"github.com/matzehuels/driftboard/pkg/observability"
)

// Report summarizes an import.
type Report struct {
	Mode      string // "replace" or "merge"
	Nodes     int    // nodes inserted
	Edges     int    // edges inserted
	SelfLoops int    // self-referencing lines dropped
	Dangling  int    // lines skipped for an unresolved endpoint
	IDOffset  diagram.NodeID
	XOffset   float64
}

// Skipped returns the number of lines that did not become edges.
func (r Report) Skipped() int { return r.SelfLoops + r.Dangling }

// ExportAll returns the whole diagram as a document.
func (e *Engine) ExportAll() document.Document {
	return document.Export(e.store)
}

// ExportSubtree returns the part of the diagram reachable from id over
// outgoing edges. Reports false when id does not exist.
func (e *Engine) ExportSubtree(id diagram.NodeID) (document.Document, bool) {
	return document.ExportSubtree(e.store, id)
}

// ImportReplace replaces the diagram with doc. The import is one undoable
// step. When doc is invalid the diagram is left untouched and the error
// satisfies [document.IsParseError].
func (e *Engine) ImportReplace(doc document.Document) (Report, error) {
	plan, err := document.PlanReplace(doc)
	if err != nil {
		observability.Engine().OnImport("replace", 0, 0, 0, err)
		return Report{}, err
	}
	return e.applyPlan("replace", plan)
}

// ImportMerge appends doc to the diagram, shifting its IDs past the
// existing nodes and its x coordinates past the right-most box. Document
// properties are ignored. The import is one undoable step.
func (e *Engine) ImportMerge(doc document.Document) (Report, error) {
	plan, err := document.PlanMerge(doc, e.store)
	if err != nil {
		observability.Engine().OnImport("merge", 0, 0, 0, err)
		return Report{}, err
	}
	return e.applyPlan("merge", plan)
}

func (e *Engine) applyPlan(mode string, plan document.Plan) (Report, error) {
	r := Report{
		Mode:      mode,
		Nodes:     len(plan.Nodes),
		Edges:     len(plan.Edges),
		SelfLoops: plan.SelfLoops,
		Dangling:  plan.Dangling,
		IDOffset:  plan.IDOffset,
		XOffset:   plan.XOffset,
	}
	cmd := &history.BulkImport{
		Nodes:      plan.Nodes,
		Edges:      plan.Edges,
		Replace:    plan.Replace,
		Properties: plan.Properties,
	}
	err := e.execute(cmd)
	observability.Engine().OnImport(mode, r.Nodes, r.Edges, r.Skipped(), err)
	if err != nil {
		return Report{}, err
	}
	e.logger.Info("imported diagram", "mode", mode, "nodes", r.Nodes, "edges", r.Edges, "skipped", r.Skipped())
	return r, nil
}

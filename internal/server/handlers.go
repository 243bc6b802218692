package server

import (
	"bytes"
	"net/http"

	"github.com/matzehuels/driftboard/pkg/buildinfo"
	"github.com/matzehuels/driftboard/pkg/diagram"
	"github.com/matzehuels/driftboard/pkg/document"
	"github.com/matzehuels/driftboard/pkg/engine"
	errs "github.com/matzehuels/driftboard/pkg/errors"
	"github.com/matzehuels/driftboard/pkg/render/nodelink"
	"github.com/matzehuels/driftboard/pkg/route"
)

type pointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func toPoint(p diagram.Point) pointJSON { return pointJSON{X: p.X, Y: p.Y} }

type nodeJSON struct {
	ID         diagram.NodeID `json:"id"`
	Content    string         `json:"content"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	Color      string         `json:"color"`
	Background string         `json:"background"`
	Hidden     bool           `json:"hidden"`
	Collapsed  bool           `json:"collapsed"`
	TitleBound bool           `json:"title_bound"`
}

func toNode(n diagram.Node) nodeJSON {
	return nodeJSON{
		ID: n.ID, Content: n.Content,
		X: n.Pos.X, Y: n.Pos.Y, Width: n.Size.W, Height: n.Size.H,
		Color: n.Style.Color, Background: n.Style.BackgroundColor,
		Hidden: n.IsHidden(), Collapsed: n.Collapsed, TitleBound: n.TitleBound,
	}
}

type edgeJSON struct {
	ID     diagram.EdgeID `json:"id"`
	From   diagram.NodeID `json:"from"`
	To     diagram.NodeID `json:"to"`
	Color  string         `json:"color"`
	Width  float64        `json:"width"`
	Hidden bool           `json:"hidden"`
}

func toEdge(e diagram.Edge) edgeJSON {
	return edgeJSON{ID: e.ID, From: e.From, To: e.To, Color: e.Style.Color, Width: e.Style.Width, Hidden: e.Hidden}
}

type routeJSON struct {
	Edge       diagram.EdgeID `json:"edge"`
	Start      pointJSON      `json:"start"`
	End        pointJSON      `json:"end"`
	Angle      float64        `json:"angle"`
	Horizontal bool           `json:"horizontal"`
	Arrow      [3]pointJSON   `json:"arrow"` // tip, left wing, right wing
}

func toRoutes(t route.Table, edges []diagram.Edge) []routeJSON {
	out := make([]routeJSON, 0, len(t))
	for _, e := range edges {
		r, ok := t.Lookup(e.ID)
		if !ok {
			continue
		}
		out = append(out, routeJSON{
			Edge: e.ID, Start: toPoint(r.Start), End: toPoint(r.End),
			Angle: r.Angle, Horizontal: r.Horizontal,
			Arrow: [3]pointJSON{toPoint(r.Arrow.Tip), toPoint(r.Arrow.Left), toPoint(r.Arrow.Right)},
		})
	}
	return out
}

type changedJSON struct {
	Changed bool `json:"changed"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) getDiagram(w http.ResponseWriter, r *http.Request) {
	var doc document.Document
	s.eng.Do(func(e *engine.Engine) { doc = e.ExportAll() })
	s.writeDocument(w, doc)
}

func (s *Server) writeDocument(w http.ResponseWriter, doc document.Document) {
	var buf bytes.Buffer
	if err := document.Write(&buf, doc); err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

type patchDiagramRequest struct {
	Background *string `json:"background" validate:"omitempty,color"`
}

func (s *Server) patchDiagram(w http.ResponseWriter, r *http.Request) {
	var req patchDiagramRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	var res engine.Result
	if req.Background != nil {
		var err error
		res, err = s.eng.Dispatch(engine.Op{Kind: engine.OpSetBackground, Color: *req.Background})
		if err != nil {
			s.respondError(w, err)
			return
		}
	}
	s.respondJSON(w, http.StatusOK, changedJSON{Changed: res.Changed})
}

func (s *Server) getSubtree(w http.ResponseWriter, r *http.Request) {
	id, err := nodeParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var (
		doc document.Document
		ok  bool
	)
	s.eng.Do(func(e *engine.Engine) { doc, ok = e.ExportSubtree(id) })
	if !ok {
		s.respondError(w, errs.New(errs.ErrCodeNodeNotFound, "node %d not found", id))
		return
	}
	s.writeDocument(w, doc)
}

type frameJSON struct {
	Title      string      `json:"title"`
	Background string      `json:"background"`
	Nodes      []nodeJSON  `json:"nodes"`
	Edges      []edgeJSON  `json:"edges"`
	Routes     []routeJSON `json:"routes"`
	CanUndo    bool        `json:"can_undo"`
	CanRedo    bool        `json:"can_redo"`
}

func (s *Server) getFrame(w http.ResponseWriter, r *http.Request) {
	var out frameJSON
	s.eng.Do(func(e *engine.Engine) {
		f := e.Frame()
		out = frameJSON{
			Title:      f.Title,
			Background: f.Properties.BackgroundColor,
			Nodes:      make([]nodeJSON, 0, len(f.Nodes)),
			Edges:      make([]edgeJSON, 0, len(f.Edges)),
			Routes:     toRoutes(f.Routes, f.Edges),
			CanUndo:    e.CanUndo(),
			CanRedo:    e.CanRedo(),
		}
		for _, n := range f.Nodes {
			out.Nodes = append(out.Nodes, toNode(n))
		}
		for _, ed := range f.Edges {
			out.Edges = append(out.Edges, toEdge(ed))
		}
	})
	s.respondJSON(w, http.StatusOK, out)
}

type createNodeRequest struct {
	Content *string  `json:"content" validate:"omitempty,max=65536"`
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
}

func (s *Server) createNode(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if (req.X == nil) != (req.Y == nil) {
		s.respondError(w, errs.New(errs.ErrCodeInvalidInput, "x and y must be given together"))
		return
	}
	if req.Content != nil {
		if err := errs.ValidateContent(*req.Content); err != nil {
			s.respondError(w, err)
			return
		}
	}
	op := engine.Op{Kind: engine.OpCreateNode, Content: req.Content}
	if req.X != nil {
		op.Point = &diagram.Point{X: *req.X, Y: *req.Y}
	}

	var (
		node nodeJSON
		err  error
	)
	s.eng.Do(func(e *engine.Engine) {
		var res engine.Result
		if res, err = e.Dispatch(op); err != nil {
			return
		}
		n, _ := e.Store().Node(res.Node)
		node = toNode(n)
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, node)
}

type patchNodeRequest struct {
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	Content    *string  `json:"content" validate:"omitempty,max=65536"`
	Color      *string  `json:"color" validate:"omitempty,color"`
	Background *string  `json:"background" validate:"omitempty,color"`
	TitleBound *bool    `json:"title_bound"`
}

// patchNode applies each given field as its own undoable step.
func (s *Server) patchNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req patchNodeRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if (req.X == nil) != (req.Y == nil) {
		s.respondError(w, errs.New(errs.ErrCodeInvalidInput, "x and y must be given together"))
		return
	}
	if req.Content != nil {
		if err := errs.ValidateContent(*req.Content); err != nil {
			s.respondError(w, err)
			return
		}
	}

	var (
		changed bool
		node    nodeJSON
	)
	err = s.eng.DoErr(func(e *engine.Engine) error {
		n, ok := e.Store().Node(id)
		if !ok {
			return errs.New(errs.ErrCodeNodeNotFound, "node %d not found", id)
		}
		var ops []engine.Op
		if req.X != nil {
			ops = append(ops, engine.Op{Kind: engine.OpMoveNode, Node: id, Point: &diagram.Point{X: *req.X, Y: *req.Y}})
		}
		if req.Content != nil {
			ops = append(ops, engine.Op{Kind: engine.OpSetContent, Node: id, Content: req.Content})
		}
		if req.Color != nil || req.Background != nil {
			style := n.Style
			if req.Color != nil {
				style.Color = *req.Color
			}
			if req.Background != nil {
				style.BackgroundColor = *req.Background
			}
			ops = append(ops, engine.Op{Kind: engine.OpSetNodeStyle, Node: id, NodeStyle: style})
		}
		if req.TitleBound != nil {
			ops = append(ops, engine.Op{Kind: engine.OpSetTitleBound, Node: id, Bound: *req.TitleBound})
		}
		for _, op := range ops {
			res, err := e.Dispatch(op)
			if err != nil {
				return err
			}
			changed = changed || res.Changed
		}
		n, _ = e.Store().Node(id)
		node = toNode(n)
		return nil
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, struct {
		Changed bool     `json:"changed"`
		Node    nodeJSON `json:"node"`
	}{changed, node})
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	res, err := s.eng.Dispatch(engine.Op{Kind: engine.OpDeleteNode, Node: id})
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !res.Changed {
		s.respondError(w, errs.New(errs.ErrCodeNodeNotFound, "node %d not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleCollapse(w http.ResponseWriter, r *http.Request) {
	id, err := nodeParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var (
		res       engine.Result
		collapsed bool
	)
	err = s.eng.DoErr(func(e *engine.Engine) error {
		var err error
		if res, err = e.Dispatch(engine.Op{Kind: engine.OpToggleCollapse, Node: id}); err != nil {
			return err
		}
		n, ok := e.Store().Node(id)
		if !ok {
			return errs.New(errs.ErrCodeNodeNotFound, "node %d not found", id)
		}
		collapsed = n.Collapsed
		return nil
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, struct {
		Changed   bool `json:"changed"`
		Collapsed bool `json:"collapsed"`
	}{res.Changed, collapsed})
}

type createEdgeRequest struct {
	From  *int    `json:"from" validate:"required,gte=0"`
	To    *int    `json:"to" validate:"required,gte=0"`
	Color string  `json:"color" validate:"omitempty,color"`
	Width float64 `json:"width" validate:"omitempty,gt=0,lte=50"`
}

func (s *Server) createEdge(w http.ResponseWriter, r *http.Request) {
	var req createEdgeRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	op := engine.Op{Kind: engine.OpConnect, Node: diagram.NodeID(*req.From), Target: diagram.NodeID(*req.To)}
	if req.Color != "" || req.Width != 0 {
		style := diagram.DefaultEdgeStyle()
		if req.Color != "" {
			style.Color = req.Color
		}
		if req.Width != 0 {
			style.Width = req.Width
		}
		op.EdgeStyle = &style
	}
	res, err := s.eng.Dispatch(op)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toEdge(res.Edge))
}

type patchEdgeRequest struct {
	Color *string  `json:"color" validate:"omitempty,color"`
	Width *float64 `json:"width" validate:"omitempty,gt=0,lte=50"`
}

func (s *Server) patchEdge(w http.ResponseWriter, r *http.Request) {
	id, err := edgeParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req patchEdgeRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	var res engine.Result
	err = s.eng.DoErr(func(e *engine.Engine) error {
		ed, ok := e.Store().Edge(id)
		if !ok {
			return errs.New(errs.ErrCodeEdgeNotFound, "edge %d not found", id)
		}
		style := ed.Style
		if req.Color != nil {
			style.Color = *req.Color
		}
		if req.Width != nil {
			style.Width = *req.Width
		}
		var err error
		res, err = e.Dispatch(engine.Op{Kind: engine.OpSetEdgeStyle, Edge: id, EdgeStyle: &style})
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, changedJSON{Changed: res.Changed})
}

func (s *Server) deleteEdge(w http.ResponseWriter, r *http.Request) {
	id, err := edgeParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	res, err := s.eng.Dispatch(engine.Op{Kind: engine.OpDeleteEdge, Edge: id})
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !res.Changed {
		s.respondError(w, errs.New(errs.ErrCodeEdgeNotFound, "edge %d not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) { s.history(w, engine.OpUndo) }

func (s *Server) redo(w http.ResponseWriter, r *http.Request) { s.history(w, engine.OpRedo) }

func (s *Server) history(w http.ResponseWriter, kind engine.OpKind) {
	res, err := s.eng.Dispatch(engine.Op{Kind: kind})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, changedJSON{Changed: res.Changed})
}

type reportJSON struct {
	Mode      string  `json:"mode"`
	Nodes     int     `json:"nodes"`
	Edges     int     `json:"edges"`
	SelfLoops int     `json:"self_loops"`
	Dangling  int     `json:"dangling"`
	IDOffset  int     `json:"id_offset"`
	XOffset   float64 `json:"x_offset"`
}

func (s *Server) importDocument(w http.ResponseWriter, r *http.Request) {
	kind := engine.OpImportReplace
	switch mode := r.URL.Query().Get("mode"); mode {
	case "", "replace":
	case "merge":
		kind = engine.OpImportMerge
	default:
		s.respondError(w, errs.New(errs.ErrCodeInvalidInput, "mode must be replace or merge, got %q", mode))
		return
	}
	doc, err := document.Parse(r.Body)
	if err != nil {
		s.respondError(w, err)
		return
	}
	res, err := s.eng.Dispatch(engine.Op{Kind: kind, Document: &doc})
	if err != nil {
		s.respondError(w, err)
		return
	}
	rep := res.Report
	s.respondJSON(w, http.StatusOK, reportJSON{
		Mode: rep.Mode, Nodes: rep.Nodes, Edges: rep.Edges,
		SelfLoops: rep.SelfLoops, Dangling: rep.Dangling,
		IDOffset: int(rep.IDOffset), XOffset: rep.XOffset,
	})
}

func (s *Server) getRoutes(w http.ResponseWriter, r *http.Request) {
	var out []routeJSON
	s.eng.Do(func(e *engine.Engine) { out = toRoutes(e.Routes(), e.Store().Edges()) })
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) renderSVG(w http.ResponseWriter, r *http.Request) {
	var dot string
	s.eng.Do(func(e *engine.Engine) {
		dot = nodelink.ToDOT(e.Store(), e.Routes(), nodelink.Options{
			ShowHidden: r.URL.Query().Get("hidden") == "true",
		})
	})
	svg, err := nodelink.RenderSVG(r.Context(), dot)
	if err != nil {
		s.respondError(w, errs.Wrap(errs.ErrCodeInternal, err, "render diagram"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

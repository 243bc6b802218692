package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/matzehuels/driftboard/pkg/diagram"
	errs "github.com/matzehuels/driftboard/pkg/errors"
)

// IsParseError reports whether err means a document could not be decoded
// or failed validation.
func IsParseError(err error) bool {
	return errs.Is(err, errs.ErrCodeInvalidDocument)
}

// Parse decodes and validates a document from r. Parse does not close r.
func Parse(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, errs.Wrap(errs.ErrCodeInvalidDocument, err, "decode")
	}
	if err := Validate(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Unmarshal is [Parse] over a byte slice.
func Unmarshal(data []byte) (Document, error) {
	return Parse(bytes.NewReader(data))
}

// ReadFile parses the JSON document at path.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := Parse(f)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Correct returns a copy of doc without self-referencing lines, and the
// number of lines it dropped. A line is self-referencing when both endpoints
// are written identically.
func Correct(doc Document) (Document, int) {
	lines := make([]Line, 0, len(doc.Lines))
	for _, ln := range doc.Lines {
		if ln.From.Same(ln.To) {
			continue
		}
		lines = append(lines, ln)
	}
	dropped := len(doc.Lines) - len(lines)
	doc.Lines = lines
	return doc, dropped
}

// Validate checks a document completely. The first problem found is
// returned as an error for which [IsParseError] is true.
func Validate(doc Document) error {
	seen := make(map[int]int, len(doc.Labels))
	for i, l := range doc.Labels {
		id := l.LabelID(i)
		if id < 0 || id > int(diagram.MaxNodeID) {
			return invalid("label %d: id %d out of range [0, %d]", i, id, diagram.MaxNodeID)
		}
		if prev, dup := seen[id]; dup {
			return invalid("label %d: id %d already used by label %d", i, id, prev)
		}
		seen[id] = i
		if !finite(float64(l.Left)) || !finite(float64(l.Top)) {
			return invalid("label %d: position is not finite", i)
		}
		if l.Width < 0 || l.Height < 0 || !finite(l.Width) || !finite(l.Height) {
			return invalid("label %d: invalid size %vx%v", i, l.Width, l.Height)
		}
		if !diagram.Visibility(l.Visibility).Valid() {
			return invalid("label %d: unknown visibility %q", i, l.Visibility)
		}
		if err := errs.ValidateContent(l.HTML); err != nil {
			return wrapInvalid(err, "label %d", i)
		}
		for _, c := range []string{l.Color, l.BackgroundColor} {
			if err := errs.ValidateColor(c); err != nil {
				return wrapInvalid(err, "label %d", i)
			}
		}
	}
	for i, ln := range doc.Lines {
		if ln.Width < 0 || !finite(ln.Width) {
			return invalid("line %d: invalid width %v", i, ln.Width)
		}
		if err := errs.ValidateColor(ln.Color); err != nil {
			return wrapInvalid(err, "line %d", i)
		}
	}
	if err := errs.ValidateColor(doc.Properties.BodyBackgroundColor); err != nil {
		return wrapInvalid(err, "properties")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errs.New(errs.ErrCodeInvalidDocument, format, args...)
}

func wrapInvalid(err error, format string, args ...any) error {
	return errs.Wrap(errs.ErrCodeInvalidDocument, err, format, args...)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Plan is the complete set of changes an import will make. Nodes and edges
// carry the identifiers they will be stored under.
type Plan struct {
	Replace    bool
	Nodes      []diagram.Node
	Edges      []diagram.Edge
	Properties *diagram.Properties // set for replace imports only

	IDOffset diagram.NodeID // added to every label ID (merge)
	XOffset  float64        // added to every label's left (merge)

	SelfLoops int // lines dropped by Correct or resolving to one node
	Dangling  int // lines skipped because an endpoint was not found
}

// PlanReplace plans an import that discards the current diagram. Label IDs
// are kept as they are; lines get fresh edge IDs starting at zero.
func PlanReplace(doc Document) (Plan, error) {
	doc, loops := Correct(doc)
	if err := Validate(doc); err != nil {
		return Plan{}, err
	}
	p := Plan{Replace: true, SelfLoops: loops}
	props := diagram.Properties{BackgroundColor: doc.Properties.BodyBackgroundColor}
	p.Properties = &props
	p.Nodes = labelsToNodes(doc.Labels, 0, 0)
	p.resolveLines(doc, nil, 0)
	return p, nil
}

// PlanMerge plans an import that appends doc to s without modifying s.
//
// Label IDs are shifted by the number of nodes in s. If that would collide
// with an identifier s has already handed out (including nodes deleted
// earlier), they are shifted by s.NextNodeID() instead. A shifted ID above
// [diagram.MaxNodeID] fails the merge. Every left coordinate is shifted by
// s.MaxRight(). Text references fall back to existing nodes of s when no
// imported label matches. Document properties are not merged.
func PlanMerge(doc Document, s *diagram.Store) (Plan, error) {
	doc, loops := Correct(doc)
	if err := Validate(doc); err != nil {
		return Plan{}, err
	}
	offset := diagram.NodeID(s.NodeCount())
	for i, l := range doc.Labels {
		if diagram.NodeID(l.LabelID(i))+offset < s.NextNodeID() {
			offset = s.NextNodeID()
			break
		}
	}
	for i, l := range doc.Labels {
		if id := diagram.NodeID(l.LabelID(i)); id > diagram.MaxNodeID-offset {
			return Plan{}, invalid("label %d: id %d exceeds %d after shifting by %d", i, id, diagram.MaxNodeID, offset)
		}
	}
	p := Plan{
		SelfLoops: loops,
		IDOffset:  offset,
		XOffset:   s.MaxRight(),
	}
	p.Nodes = labelsToNodes(doc.Labels, p.IDOffset, p.XOffset)
	p.resolveLines(doc, s, s.NextEdgeID())
	return p, nil
}

func labelsToNodes(labels []Label, offset diagram.NodeID, dx float64) []diagram.Node {
	def := diagram.DefaultNodeStyle()
	nodes := make([]diagram.Node, len(labels))
	for i, l := range labels {
		style := diagram.NodeStyle{
			Color:           l.Color,
			BackgroundColor: l.BackgroundColor,
			Visibility:      diagram.Visibility(l.Visibility),
		}
		if style.Color == "" {
			style.Color = def.Color
		}
		if style.BackgroundColor == "" {
			style.BackgroundColor = def.BackgroundColor
		}
		if style.Visibility == "" {
			style.Visibility = diagram.Visible
		}
		nodes[i] = diagram.Node{
			ID:         diagram.NodeID(l.LabelID(i)) + offset,
			Content:    l.HTML,
			Pos:        diagram.Point{X: float64(l.Left) + dx, Y: float64(l.Top)},
			Size:       diagram.Size{W: l.Width, H: l.Height},
			Style:      style,
			Collapsed:  l.Collapsed,
			TitleBound: l.Title,
		}
	}
	return nodes
}

// resolveLines turns lines into edges. Endpoints are looked up by document
// ID among the imported labels, then by text among the imported nodes, then
// by text among the nodes of existing (merge only).
func (p *Plan) resolveLines(doc Document, existing *diagram.Store, next diagram.EdgeID) {
	byDocID := make(map[int]diagram.NodeID, len(doc.Labels))
	for i, l := range doc.Labels {
		byDocID[l.LabelID(i)] = p.Nodes[i].ID
	}
	resolve := func(r Ref) (diagram.NodeID, bool) {
		if r.Null {
			return 0, false
		}
		if r.ByID {
			id, ok := byDocID[r.ID]
			return id, ok
		}
		if n, ok := diagram.FindByContent(p.Nodes, r.Text); ok {
			return n.ID, true
		}
		if existing != nil {
			if n, ok := existing.FindByContent(r.Text); ok {
				return n.ID, true
			}
		}
		return 0, false
	}

	def := diagram.DefaultEdgeStyle()
	for _, ln := range doc.Lines {
		from, okFrom := resolve(ln.From)
		to, okTo := resolve(ln.To)
		if !okFrom || !okTo {
			p.Dangling++
			continue
		}
		if from == to {
			p.SelfLoops++
			continue
		}
		style := diagram.EdgeStyle{Color: ln.Color, Width: ln.Width}
		if style.Color == "" {
			style.Color = def.Color
		}
		if style.Width == 0 {
			style.Width = def.Width
		}
		p.Edges = append(p.Edges, diagram.Edge{
			ID:     next,
			From:   from,
			To:     to,
			Style:  style,
			Hidden: ln.Hidden,
		})
		next++
	}
}

package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/driftboard/pkg/diagram"
	"github.com/matzehuels/driftboard/pkg/route"
)

// Export converts the whole store into a document.
func Export(s *diagram.Store) Document {
	nodes := s.Nodes()
	edges := s.Edges()
	return build(s, nodes, edges, route.ComputeAll(s))
}

// ExportSubtree converts the part of the store reachable from root over
// outgoing edges. It reports false when root does not exist.
func ExportSubtree(s *diagram.Store, root diagram.NodeID) (Document, bool) {
	linked := s.CollectLinked(root)
	if len(linked.Nodes) == 0 {
		return Document{}, false
	}
	nodes := make([]diagram.Node, 0, len(linked.Nodes))
	for _, id := range linked.Nodes {
		n, _ := s.Node(id)
		nodes = append(nodes, n)
	}
	edges := make([]diagram.Edge, 0, len(linked.Edges))
	for _, id := range linked.Edges {
		e, _ := s.Edge(id)
		edges = append(edges, e)
	}
	return build(s, nodes, edges, route.ComputeAll(s)), true
}

func build(s *diagram.Store, nodes []diagram.Node, edges []diagram.Edge, routes route.Table) Document {
	doc := Document{
		Labels:     make([]Label, len(nodes)),
		Lines:      make([]Line, len(edges)),
		Properties: Properties{BodyBackgroundColor: s.Properties().BackgroundColor},
	}
	for i, n := range nodes {
		id := int(n.ID)
		doc.Labels[i] = Label{
			ID:              &id,
			HTML:            n.Content,
			Left:            Pixels(n.Pos.X),
			Top:             Pixels(n.Pos.Y),
			Width:           n.Size.W,
			Height:          n.Size.H,
			Color:           n.Style.Color,
			Collapsed:       n.Collapsed,
			Visibility:      string(n.Style.Visibility),
			BackgroundColor: n.Style.BackgroundColor,
			Title:           n.TitleBound,
		}
	}
	for i, e := range edges {
		ln := Line{
			From:   IDRef(int(e.From)),
			To:     IDRef(int(e.To)),
			Hidden: e.Hidden,
			Color:  e.Style.Color,
			Width:  e.Style.Width,
		}
		if r, ok := routes.Lookup(e.ID); ok {
			ln.FromPosition = &Position{X: r.Start.X, Y: r.Start.Y}
			ln.ToPosition = &Position{X: r.End.X, Y: r.End.Y}
		}
		doc.Lines[i] = ln
	}
	return doc
}

// Write encodes doc as indented JSON and writes it to w.
func Write(w io.Writer, doc Document) error {
	if doc.Labels == nil {
		doc.Labels = []Label{}
	}
	if doc.Lines == nil {
		doc.Lines = []Line{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Marshal returns the indented JSON encoding of doc.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes doc to a JSON file at path.
func WriteFile(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(f, doc)
}

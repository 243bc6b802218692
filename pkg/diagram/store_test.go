package diagram

import (
	"errors"
	"reflect"
	"testing"
)

func buildChain(t *testing.T, n int) (*Store, []NodeID) {
	t.Helper()
	s := New()
	ids := make([]NodeID, n)
	for i := range ids {
		ids[i] = s.CreateNode("n", Point{X: float64(i) * 200, Y: 0})
	}
	for i := 1; i < n; i++ {
		if _, err := s.CreateEdge(ids[i-1], ids[i], DefaultEdgeStyle()); err != nil {
			t.Fatalf("CreateEdge: %v", err)
		}
	}
	return s, ids
}

func TestCreateNodeAllocatesFreshIDs(t *testing.T) {
	s := New()
	a := s.CreateNode("a", Point{})
	b := s.CreateNode("b", Point{})
	if a != 0 || b != 1 {
		t.Fatalf("ids = %d, %d, want 0, 1", a, b)
	}

	s.DeleteNode(b)
	c := s.CreateNode("c", Point{})
	if c != 2 {
		t.Errorf("id after delete = %d, want 2 (ids are never reused)", c)
	}

	n, ok := s.Node(a)
	if !ok {
		t.Fatal("node a missing")
	}
	if n.Style != DefaultNodeStyle() {
		t.Errorf("style = %+v, want default", n.Style)
	}
	if n.Size.IsZero() {
		t.Error("size should be measured on insert")
	}
}

func TestCreateEdge(t *testing.T) {
	s := New()
	a := s.CreateNode("a", Point{})
	b := s.CreateNode("b", Point{})

	tests := []struct {
		name    string
		src     NodeID
		dst     NodeID
		wantErr error
	}{
		{"Valid", a, b, nil},
		{"Duplicate", a, b, nil},
		{"Reverse", b, a, nil},
		{"SelfLoop", a, a, ErrSelfLoop},
		{"UnknownSource", 42, b, ErrUnknownSourceNode},
		{"UnknownTarget", a, 42, ErrUnknownTargetNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateEdge(tt.src, tt.dst, DefaultEdgeStyle())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateEdge(%d, %d) error = %v, want %v", tt.src, tt.dst, err, tt.wantErr)
			}
		})
	}
	if got := s.EdgeCount(); got != 3 {
		t.Errorf("EdgeCount = %d, want 3", got)
	}
	if got := len(s.Outgoing(a)); got != 2 {
		t.Errorf("Outgoing(a) = %d edges, want 2", got)
	}
}

func TestDeleteNodeRemovesIncidentEdges(t *testing.T) {
	s := New()
	a := s.CreateNode("a", Point{})
	b := s.CreateNode("b", Point{})
	c := s.CreateNode("c", Point{})
	s.CreateEdge(a, b, DefaultEdgeStyle())
	s.CreateEdge(b, c, DefaultEdgeStyle())
	s.CreateEdge(a, c, DefaultEdgeStyle())

	r, ok := s.DeleteNode(b)
	if !ok {
		t.Fatal("DeleteNode reported unknown node")
	}
	if len(r.Edges) != 2 {
		t.Fatalf("removed %d edges, want 2", len(r.Edges))
	}
	if s.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", s.EdgeCount())
	}
	for _, e := range s.Edges() {
		if e.From == b || e.To == b {
			t.Errorf("edge %d still references deleted node", e.ID)
		}
	}
	if len(s.Incoming(c)) != 1 {
		t.Errorf("Incoming(c) = %v, want one edge", s.Incoming(c))
	}

	if err := s.RestoreRemoval(r); err != nil {
		t.Fatalf("RestoreRemoval: %v", err)
	}
	if s.EdgeCount() != 3 || s.NodeCount() != 3 {
		t.Errorf("after restore: %d nodes, %d edges, want 3, 3", s.NodeCount(), s.EdgeCount())
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	s := New()
	if _, ok := s.DeleteNode(7); ok {
		t.Error("DeleteNode on unknown id reported success")
	}
	if _, ok := s.DeleteEdge(7); ok {
		t.Error("DeleteEdge on unknown id reported success")
	}
	if s.MoveNode(7, Point{X: 1}) {
		t.Error("MoveNode on unknown id reported success")
	}
	if s.SetNodeStyle(7, DefaultNodeStyle()) {
		t.Error("SetNodeStyle on unknown id reported success")
	}
	if _, ok := s.ToggleCollapse(7); ok {
		t.Error("ToggleCollapse on unknown id reported success")
	}
}

func TestRestoreNodeRejectsDuplicates(t *testing.T) {
	s := New()
	id := s.CreateNode("a", Point{})
	n, _ := s.Node(id)
	if err := s.RestoreNode(n); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("RestoreNode duplicate error = %v, want ErrDuplicateNodeID", err)
	}
	if err := s.RestoreNode(Node{ID: -1}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("RestoreNode negative error = %v, want ErrInvalidID", err)
	}
	if err := s.RestoreNode(Node{ID: MaxNodeID + 1}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("RestoreNode above MaxNodeID error = %v, want ErrInvalidID", err)
	}
	if err := s.RestoreNode(Node{ID: 10, Content: "x"}); err != nil {
		t.Fatalf("RestoreNode: %v", err)
	}
	if got := s.NextNodeID(); got != 11 {
		t.Errorf("NextNodeID = %d, want 11", got)
	}
}

func TestFindByContent(t *testing.T) {
	s := New()
	s.CreateNode("<b>Alpha</b>", Point{})
	beta := s.CreateNode("Beta", Point{})
	s.CreateNode("Beta", Point{})

	n, ok := s.FindByContent("Beta")
	if !ok || n.ID != beta {
		t.Errorf("FindByContent(Beta) = %d, %v, want first match %d", n.ID, ok, beta)
	}
	if n, ok := s.FindByContent("Alpha"); !ok || n.Content != "<b>Alpha</b>" {
		t.Errorf("FindByContent(Alpha) should fall back to plain text, got %+v, %v", n, ok)
	}
	if _, ok := s.FindByContent("Gamma"); ok {
		t.Error("FindByContent(Gamma) should miss")
	}
	if _, ok := s.FindByContent(""); ok {
		t.Error("FindByContent(\"\") should miss")
	}
}

func TestMaxRight(t *testing.T) {
	s := New()
	if got := s.MaxRight(); got != 0 {
		t.Errorf("empty MaxRight = %v, want 0", got)
	}
	a := s.CreateNode("a", Point{X: 10})
	s.SetNodeSize(a, Size{W: 50, H: 20})
	b := s.CreateNode("b", Point{X: 100})
	s.SetNodeSize(b, Size{W: 30, H: 20})
	if got := s.MaxRight(); got != 130 {
		t.Errorf("MaxRight = %v, want 130", got)
	}
}

func TestSnapshotRestore(t *testing.T) {
	s, ids := buildChain(t, 3)
	s.SetProperties(Properties{BackgroundColor: "#eee"})
	s.ToggleCollapse(ids[0])
	snap := s.Snapshot()

	s.Clear()
	if s.NodeCount() != 0 || s.EdgeCount() != 0 {
		t.Fatal("Clear left elements behind")
	}
	s.Restore(snap)

	if !reflect.DeepEqual(s.Nodes(), snap.Nodes) {
		t.Errorf("nodes differ after restore")
	}
	if !reflect.DeepEqual(s.Edges(), snap.Edges) {
		t.Errorf("edges differ after restore")
	}
	if !s.IsStashed(ids[0]) {
		t.Error("collapse stash lost in restore")
	}
	if s.Properties().BackgroundColor != "#eee" {
		t.Errorf("properties lost in restore: %+v", s.Properties())
	}
}

func TestOverlapping(t *testing.T) {
	s := New()
	a := s.CreateNode("a", Point{X: 0, Y: 0})
	b := s.CreateNode("b", Point{X: 500, Y: 0})
	s.SetNodeSize(a, Size{W: 100, H: 40})
	s.SetNodeSize(b, Size{W: 100, H: 40})

	if hits := s.Overlapping(a, Point{X: 450, Y: 10}); !reflect.DeepEqual(hits, []NodeID{b}) {
		t.Errorf("Overlapping = %v, want [%d]", hits, b)
	}
	if hits := s.Overlapping(a, Point{X: 400, Y: 0}); len(hits) != 0 {
		t.Errorf("touching boxes should not overlap, got %v", hits)
	}
}

func TestPlainTextAndMeasure(t *testing.T) {
	if got := PlainText("  <p>Hello <i>world</i> &amp; co</p> "); got != "Hello world & co" {
		t.Errorf("PlainText = %q", got)
	}
	tests := []struct{ in, want string }{
		{`<span title="a>b">Hi</span>`, "Hi"},
		{`<a href="x?q=1&amp;r=<2>">link</a>`, "link"},
		{"one<br/>two", "one\ntwo"},
		{"<p>a</p><p>b</p>", "a\nb"},
		{"&lt;raw&gt;", "<raw>"},
	}
	for _, tt := range tests {
		if got := PlainText(tt.in); got != tt.want {
			t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	s := New()
	id := s.CreateNode(`<span title="a>b">Hi</span>`, Point{})
	if n, ok := s.FindByContent("Hi"); !ok || n.ID != id {
		t.Errorf("FindByContent(Hi) = %v, %v; want node %d", n.ID, ok, id)
	}

	one := MeasureContent("abc")
	two := MeasureContent("abc<br>def")
	if two.H <= one.H {
		t.Errorf("two lines (%v) should be taller than one (%v)", two.H, one.H)
	}
	if w := MeasureContent("").W; w != minWidth {
		t.Errorf("empty width = %v, want %v", w, minWidth)
	}
}

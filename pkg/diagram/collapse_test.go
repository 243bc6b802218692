package diagram

import (
	"reflect"
	"testing"
)

func TestCollectLinkedDiscoveryOrder(t *testing.T) {
	s := New()
	a := s.CreateNode("a", Point{})
	b := s.CreateNode("b", Point{})
	c := s.CreateNode("c", Point{})
	d := s.CreateNode("d", Point{})
	x := s.CreateNode("x", Point{})
	ab, _ := s.CreateEdge(a, b, DefaultEdgeStyle())
	ac, _ := s.CreateEdge(a, c, DefaultEdgeStyle())
	bd, _ := s.CreateEdge(b, d, DefaultEdgeStyle())
	s.CreateEdge(x, a, DefaultEdgeStyle()) // incoming only, never followed

	got := s.CollectLinked(a)
	if want := []NodeID{a, b, c, d}; !reflect.DeepEqual(got.Nodes, want) {
		t.Errorf("Nodes = %v, want %v", got.Nodes, want)
	}
	if want := []EdgeID{ab.ID, ac.ID, bd.ID}; !reflect.DeepEqual(got.Edges, want) {
		t.Errorf("Edges = %v, want %v", got.Edges, want)
	}
	if got.ContainsNode(x) {
		t.Error("traversal must follow outgoing edges only")
	}
}

func TestCollectLinkedTerminatesOnCycles(t *testing.T) {
	s := New()
	a := s.CreateNode("a", Point{})
	b := s.CreateNode("b", Point{})
	c := s.CreateNode("c", Point{})
	s.CreateEdge(a, b, DefaultEdgeStyle())
	s.CreateEdge(b, c, DefaultEdgeStyle())
	s.CreateEdge(c, a, DefaultEdgeStyle())
	s.CreateEdge(b, a, DefaultEdgeStyle())

	got := s.CollectLinked(b)
	if len(got.Nodes) != 3 {
		t.Fatalf("visited %d nodes, want 3", len(got.Nodes))
	}
	seen := map[NodeID]bool{}
	for _, id := range got.Nodes {
		if seen[id] {
			t.Errorf("node %d visited twice", id)
		}
		seen[id] = true
	}
	if len(got.Edges) != 4 {
		t.Errorf("traversed %d edges, want 4", len(got.Edges))
	}
}

func TestCollectLinkedUnknownRoot(t *testing.T) {
	if got := New().CollectLinked(3); len(got.Nodes) != 0 || len(got.Edges) != 0 {
		t.Errorf("CollectLinked(unknown) = %+v, want empty", got)
	}
}

func TestToggleCollapseCascade(t *testing.T) {
	s, ids := buildChain(t, 4)
	other := s.CreateNode("other", Point{})
	s.CreateEdge(other, ids[2], DefaultEdgeStyle())

	ch, ok := s.ToggleCollapse(ids[1])
	if !ok || !ch.Collapsed {
		t.Fatalf("ToggleCollapse = %+v, %v", ch, ok)
	}

	root, _ := s.Node(ids[1])
	if !root.Collapsed || root.IsHidden() {
		t.Errorf("root = %+v, want collapsed and visible", root)
	}
	for _, id := range ids[2:] {
		n, _ := s.Node(id)
		if !n.IsHidden() || !n.Collapsed {
			t.Errorf("descendant %d = %+v, want hidden and collapsed", id, n)
		}
	}
	if n, _ := s.Node(ids[0]); n.IsHidden() {
		t.Error("ancestor must stay visible")
	}
	for _, e := range s.Edges() {
		wantHidden := e.From == ids[1] || e.From == ids[2] || e.From == ids[3]
		if e.Hidden != wantHidden {
			t.Errorf("edge %d->%d hidden = %v, want %v", e.From, e.To, e.Hidden, wantHidden)
		}
	}
}

func TestToggleCollapseTwiceRestoresFlags(t *testing.T) {
	s, ids := buildChain(t, 4)
	// Collapse an inner node first so the outer toggle has to restore a
	// mixed state rather than plain "everything visible".
	s.ToggleCollapse(ids[2])
	before := s.Snapshot()

	s.ToggleCollapse(ids[0])
	s.ToggleCollapse(ids[0])

	after := s.Snapshot()
	if !reflect.DeepEqual(before.Nodes, after.Nodes) {
		t.Errorf("nodes differ:\nbefore %+v\nafter  %+v", before.Nodes, after.Nodes)
	}
	if !reflect.DeepEqual(before.Edges, after.Edges) {
		t.Errorf("edges differ:\nbefore %+v\nafter  %+v", before.Edges, after.Edges)
	}
}

func TestToggleCollapseOnCycle(t *testing.T) {
	s := New()
	a := s.CreateNode("a", Point{})
	b := s.CreateNode("b", Point{})
	s.CreateEdge(a, b, DefaultEdgeStyle())
	s.CreateEdge(b, a, DefaultEdgeStyle())

	s.ToggleCollapse(a)
	na, _ := s.Node(a)
	nb, _ := s.Node(b)
	if na.IsHidden() {
		t.Error("root reached through a cycle must stay visible")
	}
	if !nb.IsHidden() {
		t.Error("b should be hidden")
	}
	for _, e := range s.Edges() {
		if !e.Hidden {
			t.Errorf("edge %d should be hidden", e.ID)
		}
	}
}

func TestExpandWithoutStashShowsEverything(t *testing.T) {
	// An imported diagram carries collapsed flags but no stash.
	s := New()
	hidden := NodeStyle{Visibility: Hidden}
	s.RestoreNode(Node{ID: 0, Content: "root", Collapsed: true})
	s.RestoreNode(Node{ID: 1, Content: "a", Style: hidden, Collapsed: true})
	s.RestoreNode(Node{ID: 2, Content: "b", Style: hidden, Collapsed: true})
	s.RestoreEdge(Edge{ID: 0, From: 0, To: 1, Hidden: true})
	s.RestoreEdge(Edge{ID: 1, From: 1, To: 2, Hidden: true})

	ch, ok := s.ToggleCollapse(0)
	if !ok || ch.Collapsed {
		t.Fatalf("expected an expand, got %+v", ch)
	}
	for _, id := range []NodeID{1, 2} {
		if n, _ := s.Node(id); n.IsHidden() || n.Collapsed {
			t.Errorf("node %d = %+v, want visible and expanded", id, n)
		}
	}
	for _, e := range s.Edges() {
		if e.Hidden {
			t.Errorf("edge %d still hidden", e.ID)
		}
	}
}

func TestApplyCollapseReplays(t *testing.T) {
	s, ids := buildChain(t, 3)
	before := s.Snapshot()
	ch, _ := s.ToggleCollapse(ids[0])
	collapsed := s.Snapshot()

	s.ApplyCollapse(ch, false)
	if got := s.Snapshot(); !reflect.DeepEqual(got, before) {
		t.Errorf("backward replay differs from original state")
	}
	s.ApplyCollapse(ch, true)
	if got := s.Snapshot(); !reflect.DeepEqual(got, collapsed) {
		t.Errorf("forward replay differs from collapsed state")
	}
}

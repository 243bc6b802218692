package diagram

import (
	"cmp"
	"maps"
	"math"
	"slices"
)

// Store owns the nodes and edges of one diagram.
//
// The zero value is not usable - use [New].
type Store struct {
	nodes    map[NodeID]*Node
	edges    map[EdgeID]*Edge
	outgoing map[NodeID][]EdgeID // sorted ascending
	incoming map[NodeID][]EdgeID // sorted ascending
	stashes  map[NodeID]*Flags   // prior flags saved by a collapse, keyed by root
	props    Properties
	nextNode NodeID
	nextEdge EdgeID
}

// New creates an empty store.
func New() *Store {
	return &Store{
		nodes:    make(map[NodeID]*Node),
		edges:    make(map[EdgeID]*Edge),
		outgoing: make(map[NodeID][]EdgeID),
		incoming: make(map[NodeID][]EdgeID),
		stashes:  make(map[NodeID]*Flags),
	}
}

// Removal is everything [Store.DeleteNode] took out of the store.
type Removal struct {
	Node  Node
	Edges []Edge
	Stash *Flags
}

// Snapshot is a complete copy of a store's state.
type Snapshot struct {
	Nodes      []Node
	Edges      []Edge
	Properties Properties
	Stashes    map[NodeID]Flags
	NextNode   NodeID
	NextEdge   EdgeID
}

// CreateNode adds a node with the given content at pos using
// [DefaultNodeStyle] and returns its new identifier.
func (s *Store) CreateNode(content string, pos Point) NodeID {
	return s.AddNode(Node{Content: content, Pos: pos, Style: DefaultNodeStyle()})
}

// AddNode stores n under a freshly allocated identifier, ignoring n.ID.
// A zero Size is replaced by [MeasureContent] and an empty visibility by
// [Visible]. Callers check [Store.CanAllocate] first when the store may hold
// imported identifiers.
func (s *Store) AddNode(n Node) NodeID {
	n.ID = s.nextNode
	s.insertNode(n)
	return n.ID
}

// RestoreNode inserts n under its own identifier. It is used by undo and
// import to bring back nodes exactly as they were.
func (s *Store) RestoreNode(n Node) error {
	if n.ID < 0 || n.ID > MaxNodeID {
		return ErrInvalidID
	}
	if _, exists := s.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	s.insertNode(n)
	return nil
}

func (s *Store) insertNode(n Node) {
	if n.Size.IsZero() {
		n.Size = MeasureContent(n.Content)
	}
	if n.Style.Visibility == "" {
		n.Style.Visibility = Visible
	}
	s.nodes[n.ID] = &n
	if n.ID >= s.nextNode && n.ID < math.MaxInt {
		s.nextNode = n.ID + 1
	}
}

// DeleteNode removes a node together with every edge where it is source or
// target. It reports false, and changes nothing, when id is unknown.
func (s *Store) DeleteNode(id NodeID) (Removal, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return Removal{}, false
	}
	r := Removal{Node: *n}
	for _, eid := range s.Incident(id) {
		e, _ := s.DeleteEdge(eid)
		r.Edges = append(r.Edges, e)
	}
	if st, ok := s.stashes[id]; ok {
		r.Stash = st
		delete(s.stashes, id)
	}
	delete(s.nodes, id)
	delete(s.outgoing, id)
	delete(s.incoming, id)
	return r, true
}

// RestoreRemoval puts back a node and its edges exactly as [Store.DeleteNode]
// returned them.
func (s *Store) RestoreRemoval(r Removal) error {
	if err := s.RestoreNode(r.Node); err != nil {
		return err
	}
	for _, e := range r.Edges {
		if err := s.RestoreEdge(e); err != nil {
			return err
		}
	}
	if r.Stash != nil {
		s.stashes[r.Node.ID] = r.Stash
	}
	return nil
}

// CreateEdge connects src to dst with the given style.
// Returns ErrSelfLoop when src == dst, and ErrUnknownSourceNode or
// ErrUnknownTargetNode when an endpoint does not exist.
func (s *Store) CreateEdge(src, dst NodeID, style EdgeStyle) (Edge, error) {
	if err := s.checkEndpoints(src, dst); err != nil {
		return Edge{}, err
	}
	e := Edge{ID: s.nextEdge, From: src, To: dst, Style: style}
	s.insertEdge(e)
	return e, nil
}

// RestoreEdge inserts e under its own identifier.
func (s *Store) RestoreEdge(e Edge) error {
	if e.ID < 0 {
		return ErrInvalidID
	}
	if _, exists := s.edges[e.ID]; exists {
		return ErrDuplicateEdgeID
	}
	if err := s.checkEndpoints(e.From, e.To); err != nil {
		return err
	}
	s.insertEdge(e)
	return nil
}

func (s *Store) checkEndpoints(src, dst NodeID) error {
	if src == dst {
		return ErrSelfLoop
	}
	if _, ok := s.nodes[src]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := s.nodes[dst]; !ok {
		return ErrUnknownTargetNode
	}
	return nil
}

func (s *Store) insertEdge(e Edge) {
	s.edges[e.ID] = &e
	s.outgoing[e.From] = insertSorted(s.outgoing[e.From], e.ID)
	s.incoming[e.To] = insertSorted(s.incoming[e.To], e.ID)
	if e.ID >= s.nextEdge {
		s.nextEdge = e.ID + 1
	}
}

func insertSorted(ids []EdgeID, id EdgeID) []EdgeID {
	i, _ := slices.BinarySearch(ids, id)
	return slices.Insert(ids, i, id)
}

// DeleteEdge removes an edge. It reports false when id is unknown.
func (s *Store) DeleteEdge(id EdgeID) (Edge, bool) {
	e, ok := s.edges[id]
	if !ok {
		return Edge{}, false
	}
	drop := func(ids []EdgeID) []EdgeID {
		return slices.DeleteFunc(ids, func(x EdgeID) bool { return x == id })
	}
	s.outgoing[e.From] = drop(s.outgoing[e.From])
	s.incoming[e.To] = drop(s.incoming[e.To])
	delete(s.edges, id)
	return *e, true
}

// MoveNode sets the top-left corner of a node. It reports false when the
// node does not exist or pos is not a finite point.
func (s *Store) MoveNode(id NodeID, pos Point) bool {
	n, ok := s.nodes[id]
	if !ok || !finite(pos) {
		return false
	}
	n.Pos = pos
	return true
}

// SetNodeStyle replaces a node's style.
func (s *Store) SetNodeStyle(id NodeID, style NodeStyle) bool {
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	if style.Visibility == "" {
		style.Visibility = Visible
	}
	n.Style = style
	return true
}

// SetEdgeStyle replaces an edge's style.
func (s *Store) SetEdgeStyle(id EdgeID, style EdgeStyle) bool {
	e, ok := s.edges[id]
	if !ok {
		return false
	}
	e.Style = style
	return true
}

// SetContent replaces a node's content and re-measures its box.
func (s *Store) SetContent(id NodeID, content string) bool {
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	n.Content = content
	n.Size = MeasureContent(content)
	return true
}

// SetNodeSize records the box extent reported by a render layer.
func (s *Store) SetNodeSize(id NodeID, size Size) bool {
	n, ok := s.nodes[id]
	if !ok || size.W < 0 || size.H < 0 {
		return false
	}
	n.Size = size
	return true
}

// SetTitleBound marks whether a node mirrors the document title.
func (s *Store) SetTitleBound(id NodeID, bound bool) bool {
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	n.TitleBound = bound
	return true
}

// Node returns a copy of the node with the given ID.
func (s *Store) Node(id NodeID) (Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Edge returns a copy of the edge with the given ID.
func (s *Store) Edge(id EdgeID) (Edge, bool) {
	e, ok := s.edges[id]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// HasNode reports whether a node exists.
func (s *Store) HasNode(id NodeID) bool {
	_, ok := s.nodes[id]
	return ok
}

// HasEdge reports whether an edge exists.
func (s *Store) HasEdge(id EdgeID) bool {
	_, ok := s.edges[id]
	return ok
}

// FindByContent returns the first node, in ID order, whose content equals
// text. When no content matches exactly, it retries against the plain text
// of each node (markup stripped, whitespace trimmed). This is the legacy
// lookup used for documents that reference nodes by label text.
func (s *Store) FindByContent(text string) (Node, bool) {
	return FindByContent(s.Nodes(), text)
}

// FindByContent is the two-pass content lookup of [Store.FindByContent] over
// an arbitrary node list.
func FindByContent(nodes []Node, text string) (Node, bool) {
	for _, n := range nodes {
		if n.Content == text {
			return n, true
		}
	}
	want := PlainText(text)
	if want == "" {
		return Node{}, false
	}
	for _, n := range nodes {
		if PlainText(n.Content) == want {
			return n, true
		}
	}
	return Node{}, false
}

// Nodes returns copies of all nodes in ascending ID order.
func (s *Store) Nodes() []Node {
	out := make([]Node, 0, len(s.nodes))
	for _, id := range slices.Sorted(maps.Keys(s.nodes)) {
		out = append(out, *s.nodes[id])
	}
	return out
}

// Edges returns copies of all edges in ascending ID order.
func (s *Store) Edges() []Edge {
	out := make([]Edge, 0, len(s.edges))
	for _, id := range slices.Sorted(maps.Keys(s.edges)) {
		out = append(out, *s.edges[id])
	}
	return out
}

// Outgoing returns the IDs of edges leaving a node, in ascending order.
// The returned slice must not be modified.
func (s *Store) Outgoing(id NodeID) []EdgeID { return s.outgoing[id] }

// Incoming returns the IDs of edges entering a node, in ascending order.
// The returned slice must not be modified.
func (s *Store) Incoming(id NodeID) []EdgeID { return s.incoming[id] }

// Incident returns the IDs of every edge touching a node, ascending and
// without duplicates.
func (s *Store) Incident(id NodeID) []EdgeID {
	ids := append(slices.Clone(s.outgoing[id]), s.incoming[id]...)
	slices.Sort(ids)
	return slices.Compact(ids)
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int { return len(s.edges) }

// NextNodeID returns the identifier the next [Store.AddNode] will allocate.
func (s *Store) NextNodeID() NodeID { return s.nextNode }

// CanAllocate reports whether [Store.AddNode] still has an identifier at or
// below [MaxNodeID] to hand out.
func (s *Store) CanAllocate() bool { return s.nextNode <= MaxNodeID }

// NextEdgeID returns the identifier the next [Store.CreateEdge] will allocate.
func (s *Store) NextEdgeID() EdgeID { return s.nextEdge }

// MaxRight returns the largest right edge (x + width) across all nodes,
// or 0 for an empty store.
func (s *Store) MaxRight() float64 {
	var right float64
	first := true
	for _, n := range s.nodes {
		r := n.Box().Right()
		if first || r > right {
			right, first = r, false
		}
	}
	return right
}

// Properties returns the diagram-wide settings.
func (s *Store) Properties() Properties { return s.props }

// SetProperties replaces the diagram-wide settings.
func (s *Store) SetProperties(p Properties) { s.props = p }

// Clear removes every node, edge and stash and resets identifier allocation.
// Properties are kept.
func (s *Store) Clear() {
	clear(s.nodes)
	clear(s.edges)
	clear(s.outgoing)
	clear(s.incoming)
	clear(s.stashes)
	s.nextNode = 0
	s.nextEdge = 0
}

// Snapshot returns a deep copy of the store's state.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Nodes:      s.Nodes(),
		Edges:      s.Edges(),
		Properties: s.props,
		Stashes:    make(map[NodeID]Flags, len(s.stashes)),
		NextNode:   s.nextNode,
		NextEdge:   s.nextEdge,
	}
	for id, st := range s.stashes {
		snap.Stashes[id] = st.clone()
	}
	return snap
}

// Restore replaces the store's state with a snapshot.
func (s *Store) Restore(snap Snapshot) {
	s.Clear()
	for _, n := range snap.Nodes {
		s.insertNode(n)
	}
	for _, e := range snap.Edges {
		s.insertEdge(e)
	}
	for id, st := range snap.Stashes {
		st := st.clone()
		s.stashes[id] = &st
	}
	s.props = snap.Properties
	s.nextNode = max(s.nextNode, snap.NextNode)
	s.nextEdge = max(s.nextEdge, snap.NextEdge)
}

// Overlapping returns the visible nodes, other than id, whose boxes would
// intersect node id's box if it were placed at pos.
func (s *Store) Overlapping(id NodeID, pos Point) []NodeID {
	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	moved := Box{X: pos.X, Y: pos.Y, W: n.Size.W, H: n.Size.H}
	var hits []NodeID
	for oid, o := range s.nodes {
		if oid == id || o.IsHidden() {
			continue
		}
		if moved.Intersects(o.Box()) {
			hits = append(hits, oid)
		}
	}
	slices.SortFunc(hits, cmp.Compare[NodeID])
	return hits
}

package diagram

// NodeFlags are the collapse-related attributes of one node.
type NodeFlags struct {
	ID         NodeID
	Collapsed  bool
	Visibility Visibility
}

// EdgeFlags are the collapse-related attributes of one edge.
type EdgeFlags struct {
	ID     EdgeID
	Hidden bool
}

// Flags records collapse-related attributes of a set of nodes and edges.
type Flags struct {
	Nodes []NodeFlags
	Edges []EdgeFlags
}

func (f Flags) clone() Flags {
	return Flags{
		Nodes: append([]NodeFlags(nil), f.Nodes...),
		Edges: append([]EdgeFlags(nil), f.Edges...),
	}
}

func (f Flags) nodeIndex() map[NodeID]NodeFlags {
	m := make(map[NodeID]NodeFlags, len(f.Nodes))
	for _, nf := range f.Nodes {
		m[nf.ID] = nf
	}
	return m
}

func (f Flags) edgeIndex() map[EdgeID]bool {
	m := make(map[EdgeID]bool, len(f.Edges))
	for _, ef := range f.Edges {
		m[ef.ID] = ef.Hidden
	}
	return m
}

// CollapseChange describes one [Store.ToggleCollapse] so it can be replayed
// in either direction with [Store.ApplyCollapse].
type CollapseChange struct {
	Root        NodeID
	Collapsed   bool  // root state after the toggle
	Before      Flags // root, reached nodes and traversed edges before
	After       Flags // the same elements after
	StashBefore *Flags
	StashAfter  *Flags
}

// ToggleCollapse flips a node's collapsed flag and cascades over outgoing
// edges.
//
// Collapsing marks every traversed edge hidden and every reached node hidden
// and collapsed. The prior flags of those elements are stashed on the root.
// Expanding walks the same way and restores the stashed flags; elements
// without a stashed value (or every element, when the root has no stash) are
// shown and expanded. The root's own visibility is never changed.
//
// Reports false and changes nothing when id does not exist.
func (s *Store) ToggleCollapse(id NodeID) (CollapseChange, bool) {
	root, ok := s.nodes[id]
	if !ok {
		return CollapseChange{}, false
	}
	linked := s.CollectLinked(id)
	ch := CollapseChange{
		Root:        id,
		Before:      s.captureFlags(linked, true),
		StashBefore: cloneStash(s.stashes[id]),
	}

	if !root.Collapsed {
		stash := s.captureFlags(linked, false)
		root.Collapsed = true
		for _, eid := range linked.Edges {
			s.edges[eid].Hidden = true
		}
		for _, nid := range linked.Nodes[1:] {
			n := s.nodes[nid]
			n.Style.Visibility = Hidden
			n.Collapsed = true
		}
		s.stashes[id] = &stash
	} else {
		var prevNodes map[NodeID]NodeFlags
		var prevEdges map[EdgeID]bool
		if st, ok := s.stashes[id]; ok {
			prevNodes, prevEdges = st.nodeIndex(), st.edgeIndex()
		}
		root.Collapsed = false
		for _, eid := range linked.Edges {
			s.edges[eid].Hidden = prevEdges[eid]
		}
		for _, nid := range linked.Nodes[1:] {
			n := s.nodes[nid]
			if nf, ok := prevNodes[nid]; ok {
				n.Style.Visibility = nf.Visibility
				n.Collapsed = nf.Collapsed
				continue
			}
			n.Style.Visibility = Visible
			n.Collapsed = false
		}
		delete(s.stashes, id)
	}

	ch.Collapsed = root.Collapsed
	ch.After = s.captureFlags(linked, true)
	ch.StashAfter = cloneStash(s.stashes[id])
	return ch, true
}

// ApplyCollapse replays a recorded toggle forward (redo) or backward (undo).
// Elements that no longer exist are skipped.
func (s *Store) ApplyCollapse(ch CollapseChange, forward bool) {
	flags, stash := ch.Before, ch.StashBefore
	if forward {
		flags, stash = ch.After, ch.StashAfter
	}
	s.setFlags(flags)
	if stash != nil {
		st := stash.clone()
		s.stashes[ch.Root] = &st
	} else {
		delete(s.stashes, ch.Root)
	}
}

// IsStashed reports whether a collapsed node remembers the flags its
// cascade overwrote.
func (s *Store) IsStashed(id NodeID) bool {
	_, ok := s.stashes[id]
	return ok
}

func (s *Store) captureFlags(l Linked, withRoot bool) Flags {
	nodes := l.Nodes
	if !withRoot && len(nodes) > 0 {
		nodes = nodes[1:]
	}
	f := Flags{
		Nodes: make([]NodeFlags, 0, len(nodes)),
		Edges: make([]EdgeFlags, 0, len(l.Edges)),
	}
	for _, nid := range nodes {
		n := s.nodes[nid]
		f.Nodes = append(f.Nodes, NodeFlags{ID: nid, Collapsed: n.Collapsed, Visibility: n.Style.Visibility})
	}
	for _, eid := range l.Edges {
		f.Edges = append(f.Edges, EdgeFlags{ID: eid, Hidden: s.edges[eid].Hidden})
	}
	return f
}

func (s *Store) setFlags(f Flags) {
	for _, nf := range f.Nodes {
		if n, ok := s.nodes[nf.ID]; ok {
			n.Collapsed = nf.Collapsed
			n.Style.Visibility = nf.Visibility
		}
	}
	for _, ef := range f.Edges {
		if e, ok := s.edges[ef.ID]; ok {
			e.Hidden = ef.Hidden
		}
	}
}

func cloneStash(f *Flags) *Flags {
	if f == nil {
		return nil
	}
	c := f.clone()
	return &c
}

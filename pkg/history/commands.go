package history

import (
	"fmt"

	"github.com/matzehuels/driftboard/pkg/diagram"
)

// CreateNode adds one node. The first Apply allocates a fresh ID; later
// applies (redo) restore the node under that same ID.
type CreateNode struct {
	node    diagram.Node
	created bool
}

// NewCreateNode returns a command that adds n. n.ID is ignored.
func NewCreateNode(n diagram.Node) *CreateNode { return &CreateNode{node: n} }

func (c *CreateNode) Name() string { return "create node" }

// ID returns the identifier of the created node. It is only meaningful
// after the command was applied.
func (c *CreateNode) ID() diagram.NodeID { return c.node.ID }

func (c *CreateNode) Apply(s *diagram.Store) error {
	if c.created {
		return s.RestoreNode(c.node)
	}
	if !s.CanAllocate() {
		return diagram.ErrIDsExhausted
	}
	id := s.AddNode(c.node)
	c.node, _ = s.Node(id)
	c.created = true
	return nil
}

func (c *CreateNode) Revert(s *diagram.Store) error {
	if _, ok := s.DeleteNode(c.node.ID); !ok {
		return fmt.Errorf("node %d: %w", c.node.ID, ErrNoEffect)
	}
	return nil
}

// CreateEdge connects two existing nodes.
type CreateEdge struct {
	edge    diagram.Edge
	created bool
}

// NewCreateEdge returns a command that connects from to to.
func NewCreateEdge(from, to diagram.NodeID, style diagram.EdgeStyle) *CreateEdge {
	return &CreateEdge{edge: diagram.Edge{From: from, To: to, Style: style}}
}

func (c *CreateEdge) Name() string { return "create edge" }

// Edge returns the created edge. It is only meaningful after the command
// was applied.
func (c *CreateEdge) Edge() diagram.Edge { return c.edge }

func (c *CreateEdge) Apply(s *diagram.Store) error {
	if c.created {
		return s.RestoreEdge(c.edge)
	}
	e, err := s.CreateEdge(c.edge.From, c.edge.To, c.edge.Style)
	if err != nil {
		return err
	}
	c.edge, c.created = e, true
	return nil
}

func (c *CreateEdge) Revert(s *diagram.Store) error {
	if _, ok := s.DeleteEdge(c.edge.ID); !ok {
		return fmt.Errorf("edge %d: %w", c.edge.ID, ErrNoEffect)
	}
	return nil
}

// DeleteNode removes a node, every incident edge and its collapse stash.
// Revert restores all of them exactly.
type DeleteNode struct {
	id      diagram.NodeID
	removed diagram.Removal
}

// NewDeleteNode returns a command that deletes node id.
func NewDeleteNode(id diagram.NodeID) *DeleteNode { return &DeleteNode{id: id} }

func (c *DeleteNode) Name() string { return "delete node" }

// Removed returns what the last Apply took out of the store.
func (c *DeleteNode) Removed() diagram.Removal { return c.removed }

func (c *DeleteNode) Apply(s *diagram.Store) error {
	r, ok := s.DeleteNode(c.id)
	if !ok {
		return fmt.Errorf("node %d: %w", c.id, ErrNoEffect)
	}
	c.removed = r
	return nil
}

func (c *DeleteNode) Revert(s *diagram.Store) error {
	return s.RestoreRemoval(c.removed)
}

// DeleteEdge removes one edge and keeps its full state for Revert.
type DeleteEdge struct {
	id      diagram.EdgeID
	removed diagram.Edge
}

// NewDeleteEdge returns a command that deletes edge id.
func NewDeleteEdge(id diagram.EdgeID) *DeleteEdge { return &DeleteEdge{id: id} }

func (c *DeleteEdge) Name() string { return "delete edge" }

func (c *DeleteEdge) Apply(s *diagram.Store) error {
	e, ok := s.DeleteEdge(c.id)
	if !ok {
		return fmt.Errorf("edge %d: %w", c.id, ErrNoEffect)
	}
	c.removed = e
	return nil
}

func (c *DeleteEdge) Revert(s *diagram.Store) error {
	return s.RestoreEdge(c.removed)
}

// BulkImport inserts a prepared set of nodes and edges under their own IDs.
//
// In replace mode the store is cleared first and its previous state is kept
// as a snapshot for Revert; Properties, when set, replace the diagram
// properties. In merge mode existing elements are kept and Revert deletes
// exactly the inserted ones.
type BulkImport struct {
	Nodes      []diagram.Node
	Edges      []diagram.Edge
	Replace    bool
	Properties *diagram.Properties

	previous *diagram.Snapshot
}

func (c *BulkImport) Name() string {
	if c.Replace {
		return "import (replace)"
	}
	return "import (merge)"
}

func (c *BulkImport) Apply(s *diagram.Store) error {
	if c.Replace {
		snap := s.Snapshot()
		c.previous = &snap
		s.Clear()
		if c.Properties != nil {
			s.SetProperties(*c.Properties)
		}
	}
	nodes, edges, err := c.insert(s)
	if err == nil {
		return nil
	}
	if c.Replace {
		s.Restore(*c.previous)
		return err
	}
	for _, e := range c.Edges[:edges] {
		s.DeleteEdge(e.ID)
	}
	for _, n := range c.Nodes[:nodes] {
		s.DeleteNode(n.ID)
	}
	return err
}

// insert reports how many nodes and edges went in before a failure.
func (c *BulkImport) insert(s *diagram.Store) (nodes, edges int, err error) {
	for _, n := range c.Nodes {
		if err := s.RestoreNode(n); err != nil {
			return nodes, 0, fmt.Errorf("node %d: %w", n.ID, err)
		}
		nodes++
	}
	for _, e := range c.Edges {
		if err := s.RestoreEdge(e); err != nil {
			return nodes, edges, fmt.Errorf("edge %d: %w", e.ID, err)
		}
		edges++
	}
	return nodes, edges, nil
}

func (c *BulkImport) Revert(s *diagram.Store) error {
	if c.Replace {
		if c.previous == nil {
			return fmt.Errorf("no snapshot: %w", ErrNoEffect)
		}
		s.Restore(*c.previous)
		return nil
	}
	for _, e := range c.Edges {
		s.DeleteEdge(e.ID)
	}
	for _, n := range c.Nodes {
		s.DeleteNode(n.ID)
	}
	return nil
}

// Move is one node's position change.
type Move struct {
	ID       diagram.NodeID
	From, To diagram.Point
}

// MoveNodes repositions one or more nodes as a single step, such as a
// collapsed node dragged together with its subtree.
type MoveNodes struct {
	Moves []Move
}

func (c *MoveNodes) Name() string { return "move" }

func (c *MoveNodes) Apply(s *diagram.Store) error { return c.set(s, true) }

func (c *MoveNodes) Revert(s *diagram.Store) error { return c.set(s, false) }

func (c *MoveNodes) set(s *diagram.Store, forward bool) error {
	for _, m := range c.Moves {
		if !s.HasNode(m.ID) {
			return fmt.Errorf("node %d: %w", m.ID, ErrNoEffect)
		}
	}
	for _, m := range c.Moves {
		p := m.From
		if forward {
			p = m.To
		}
		s.MoveNode(m.ID, p)
	}
	return nil
}

// SetNodeStyle replaces a node's style.
type SetNodeStyle struct {
	ID    diagram.NodeID
	Style diagram.NodeStyle

	prev diagram.NodeStyle
}

func (c *SetNodeStyle) Name() string { return "style node" }

func (c *SetNodeStyle) Apply(s *diagram.Store) error {
	n, ok := s.Node(c.ID)
	if !ok {
		return fmt.Errorf("node %d: %w", c.ID, ErrNoEffect)
	}
	c.prev = n.Style
	s.SetNodeStyle(c.ID, c.Style)
	return nil
}

func (c *SetNodeStyle) Revert(s *diagram.Store) error {
	if !s.SetNodeStyle(c.ID, c.prev) {
		return fmt.Errorf("node %d: %w", c.ID, ErrNoEffect)
	}
	return nil
}

// SetEdgeStyle replaces an edge's style.
type SetEdgeStyle struct {
	ID    diagram.EdgeID
	Style diagram.EdgeStyle

	prev diagram.EdgeStyle
}

func (c *SetEdgeStyle) Name() string { return "style edge" }

func (c *SetEdgeStyle) Apply(s *diagram.Store) error {
	e, ok := s.Edge(c.ID)
	if !ok {
		return fmt.Errorf("edge %d: %w", c.ID, ErrNoEffect)
	}
	c.prev = e.Style
	s.SetEdgeStyle(c.ID, c.Style)
	return nil
}

func (c *SetEdgeStyle) Revert(s *diagram.Store) error {
	if !s.SetEdgeStyle(c.ID, c.prev) {
		return fmt.Errorf("edge %d: %w", c.ID, ErrNoEffect)
	}
	return nil
}

// SetContent replaces a node's content. The node is re-measured on apply
// and gets its previous size back on revert.
type SetContent struct {
	ID      diagram.NodeID
	Content string

	prevContent string
	prevSize    diagram.Size
}

func (c *SetContent) Name() string { return "edit content" }

func (c *SetContent) Apply(s *diagram.Store) error {
	n, ok := s.Node(c.ID)
	if !ok {
		return fmt.Errorf("node %d: %w", c.ID, ErrNoEffect)
	}
	c.prevContent, c.prevSize = n.Content, n.Size
	s.SetContent(c.ID, c.Content)
	return nil
}

func (c *SetContent) Revert(s *diagram.Store) error {
	if !s.SetContent(c.ID, c.prevContent) {
		return fmt.Errorf("node %d: %w", c.ID, ErrNoEffect)
	}
	s.SetNodeSize(c.ID, c.prevSize)
	return nil
}

// SetTitleBound marks or unmarks a node as mirroring the document title.
type SetTitleBound struct {
	ID    diagram.NodeID
	Bound bool

	prev bool
}

func (c *SetTitleBound) Name() string { return "bind title" }

func (c *SetTitleBound) Apply(s *diagram.Store) error {
	n, ok := s.Node(c.ID)
	if !ok {
		return fmt.Errorf("node %d: %w", c.ID, ErrNoEffect)
	}
	c.prev = n.TitleBound
	s.SetTitleBound(c.ID, c.Bound)
	return nil
}

func (c *SetTitleBound) Revert(s *diagram.Store) error {
	if !s.SetTitleBound(c.ID, c.prev) {
		return fmt.Errorf("node %d: %w", c.ID, ErrNoEffect)
	}
	return nil
}

// SetProperties replaces the diagram-wide properties.
type SetProperties struct {
	Properties diagram.Properties

	prev diagram.Properties
}

func (c *SetProperties) Name() string { return "set properties" }

func (c *SetProperties) Apply(s *diagram.Store) error {
	c.prev = s.Properties()
	s.SetProperties(c.Properties)
	return nil
}

func (c *SetProperties) Revert(s *diagram.Store) error {
	s.SetProperties(c.prev)
	return nil
}

// ToggleCollapse collapses or expands a node with its cascade. Redo and undo
// replay the recorded flags instead of running the cascade again.
type ToggleCollapse struct {
	ID diagram.NodeID

	change  diagram.CollapseChange
	applied bool
}

func (c *ToggleCollapse) Name() string {
	if c.applied && !c.change.Collapsed {
		return "expand"
	}
	return "collapse"
}

// Collapsed reports the node's state after the toggle.
func (c *ToggleCollapse) Collapsed() bool { return c.change.Collapsed }

func (c *ToggleCollapse) Apply(s *diagram.Store) error {
	if c.applied {
		if !s.HasNode(c.ID) {
			return fmt.Errorf("node %d: %w", c.ID, ErrNoEffect)
		}
		s.ApplyCollapse(c.change, true)
		return nil
	}
	ch, ok := s.ToggleCollapse(c.ID)
	if !ok {
		return fmt.Errorf("node %d: %w", c.ID, ErrNoEffect)
	}
	c.change, c.applied = ch, true
	return nil
}

func (c *ToggleCollapse) Revert(s *diagram.Store) error {
	if !s.HasNode(c.ID) {
		return fmt.Errorf("node %d: %w", c.ID, ErrNoEffect)
	}
	s.ApplyCollapse(c.change, false)
	return nil
}

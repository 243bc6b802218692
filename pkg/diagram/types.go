package diagram

import (
	"errors"
	"math"
)

var (
	// ErrSelfLoop is returned by [Store.CreateEdge] when source and target
	// are the same node.
	ErrSelfLoop = errors.New("edge source and target must differ")

	// ErrUnknownSourceNode is returned by [Store.CreateEdge] and
	// [Store.RestoreEdge] when the From node does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Store.CreateEdge] and
	// [Store.RestoreEdge] when the To node does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrDuplicateNodeID is returned by [Store.RestoreNode] when a node with
	// the same ID is already present.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateEdgeID is returned by [Store.RestoreEdge] when an edge with
	// the same ID is already present.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrInvalidID is returned when a negative identifier, or a node
	// identifier above [MaxNodeID], is restored.
	ErrInvalidID = errors.New("identifier out of range")

	// ErrIDsExhausted is returned when a node is created after [MaxNodeID]
	// has been handed out.
	ErrIDsExhausted = errors.New("node identifiers exhausted")
)

// NodeID identifies a node within a [Store].
type NodeID int

// MaxNodeID is the largest node identifier a store accepts. Documents
// carrying larger label IDs are rejected on import.
const MaxNodeID NodeID = math.MaxInt32

// EdgeID identifies an edge within a [Store].
type EdgeID int

// Point is a coordinate in the diagram's shared 2D space.
// Y grows downward, like screen coordinates.
type Point struct {
	X, Y float64
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point { return Point{X: p.X + d.X, Y: p.Y + d.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Size is the extent of a node's box.
type Size struct {
	W, H float64
}

// IsZero reports whether the size has not been measured yet.
func (s Size) IsZero() bool { return s.W == 0 && s.H == 0 }

// Box is an axis-aligned rectangle anchored at its top-left corner.
type Box struct {
	X, Y, W, H float64
}

// Center returns the middle of the box.
func (b Box) Center() Point { return Point{X: b.X + b.W/2, Y: b.Y + b.H/2} }

// Right returns the x coordinate of the right edge.
func (b Box) Right() float64 { return b.X + b.W }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.H }

// Intersects reports whether two boxes overlap with a non-empty area.
// Boxes that only touch along an edge do not intersect.
func (b Box) Intersects(o Box) bool {
	return b.X < o.Right() && b.Right() > o.X &&
		b.Y < o.Bottom() && b.Bottom() > o.Y
}

// Visibility is a node's display state. The collapse cascade switches it
// between [Visible] and [Hidden].
type Visibility string

const (
	Visible Visibility = "visible"
	Hidden  Visibility = "hidden"
)

// Valid reports whether v is a known visibility. The empty value counts as
// visible.
func (v Visibility) Valid() bool {
	return v == "" || v == Visible || v == Hidden
}

// NodeStyle holds the presentation attributes of a node.
type NodeStyle struct {
	Color           string
	BackgroundColor string
	Visibility      Visibility
}

// DefaultNodeStyle returns the style given to nodes created without one.
func DefaultNodeStyle() NodeStyle {
	return NodeStyle{Color: "#000000", BackgroundColor: "#ffffff", Visibility: Visible}
}

// EdgeStyle holds the presentation attributes of an edge.
type EdgeStyle struct {
	Color string
	Width float64
}

// DefaultEdgeStyle returns the style given to edges created without one.
func DefaultEdgeStyle() EdgeStyle {
	return EdgeStyle{Color: "#000000", Width: 2}
}

// Node is a positioned, styled content box.
//
// Content is a rich text (HTML) fragment. Pos is the top-left corner of the
// box. Size is filled in by [MeasureContent] when a node is stored with a
// zero size; render layers that know the real extent report it with
// [Store.SetNodeSize].
type Node struct {
	ID         NodeID
	Content    string
	Pos        Point
	Size       Size
	Style      NodeStyle
	Collapsed  bool
	TitleBound bool // content mirrors the document title
}

// Box returns the node's bounding box.
func (n Node) Box() Box {
	return Box{X: n.Pos.X, Y: n.Pos.Y, W: n.Size.W, H: n.Size.H}
}

// IsHidden reports whether the node is hidden by a collapse cascade.
func (n Node) IsHidden() bool { return n.Style.Visibility == Hidden }

// Edge is a directed connection between two nodes.
//
// Hidden is driven by the collapse cascade and is independent of node
// visibility. Anchor points are derived by the router and never stored here.
type Edge struct {
	ID     EdgeID
	From   NodeID
	To     NodeID
	Style  EdgeStyle
	Hidden bool
}

// Properties are diagram-wide presentation settings.
type Properties struct {
	BackgroundColor string
}

func finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Package route computes where edges attach to node boxes and the arrowhead
// drawn at each edge's target.
//
// Routes are derived data: they depend only on the two boxes an edge
// connects, are never stored on the edge, and are recomputed in full after
// every mutation with [Router.RecomputeAll].
package route

import (
	"math"

	"github.com/matzehuels/driftboard/pkg/diagram"
)

const (
	// WingLength is the length of each arrowhead wing.
	WingLength = 30.0

	// WingAngle is the angle between each wing and the edge direction.
	WingAngle = math.Pi / 6
)

// Arrowhead is the filled triangle at the end of an edge.
type Arrowhead struct {
	Tip   diagram.Point // equal to the route's End
	Left  diagram.Point
	Right diagram.Point
}

// Points returns the triangle's corners in drawing order.
func (a Arrowhead) Points() [3]diagram.Point { return [3]diagram.Point{a.Tip, a.Left, a.Right} }

// Route is the straight segment drawn for one edge.
type Route struct {
	Start      diagram.Point
	End        diagram.Point
	Angle      float64 // direction of End-Start in radians
	Horizontal bool    // anchored on left/right box edges
	Arrow      Arrowhead
}

// Compute anchors an edge between two boxes.
//
// When the horizontal distance between the box centers is at least the
// vertical distance, the segment joins the facing left/right edges at the
// centers' y coordinates. Otherwise it joins the facing top/bottom edges at
// the centers' x coordinates. Equal distances take the horizontal branch.
func Compute(from, to diagram.Box) Route {
	fc, tc := from.Center(), to.Center()
	dx, dy := tc.X-fc.X, tc.Y-fc.Y

	var r Route
	if math.Abs(dx) >= math.Abs(dy) {
		r.Horizontal = true
		if dx > 0 {
			r.Start = diagram.Point{X: from.Right(), Y: fc.Y}
			r.End = diagram.Point{X: to.X, Y: tc.Y}
		} else {
			r.Start = diagram.Point{X: from.X, Y: fc.Y}
			r.End = diagram.Point{X: to.Right(), Y: tc.Y}
		}
	} else {
		if dy > 0 {
			r.Start = diagram.Point{X: fc.X, Y: from.Bottom()}
			r.End = diagram.Point{X: tc.X, Y: to.Y}
		} else {
			r.Start = diagram.Point{X: fc.X, Y: from.Y}
			r.End = diagram.Point{X: tc.X, Y: to.Bottom()}
		}
	}

	d := r.End.Sub(r.Start)
	r.Angle = math.Atan2(d.Y, d.X)
	r.Arrow = ArrowheadAt(r.End, r.Angle)
	return r
}

// ArrowheadAt returns the arrowhead for a line arriving at tip with the given
// direction. Both wings point back along the line.
func ArrowheadAt(tip diagram.Point, angle float64) Arrowhead {
	wing := func(a float64) diagram.Point {
		return diagram.Point{
			X: tip.X - WingLength*math.Cos(a),
			Y: tip.Y - WingLength*math.Sin(a),
		}
	}
	return Arrowhead{
		Tip:   tip,
		Left:  wing(angle - WingAngle),
		Right: wing(angle + WingAngle),
	}
}

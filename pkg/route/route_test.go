package route

import (
	"math"
	"reflect"
	"testing"

	"github.com/matzehuels/driftboard/pkg/diagram"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func nearPoint(a, b diagram.Point) bool { return near(a.X, b.X) && near(a.Y, b.Y) }

func TestCompute(t *testing.T) {
	box := func(x, y float64) diagram.Box { return diagram.Box{X: x, Y: y, W: 100, H: 40} }

	tests := []struct {
		name       string
		from, to   diagram.Box
		start, end diagram.Point
		horizontal bool
	}{
		{
			name: "RightOf", from: box(0, 0), to: box(300, 10),
			start: diagram.Point{X: 100, Y: 20}, end: diagram.Point{X: 300, Y: 30},
			horizontal: true,
		},
		{
			name: "LeftOf", from: box(300, 0), to: box(0, 0),
			start: diagram.Point{X: 300, Y: 20}, end: diagram.Point{X: 100, Y: 20},
			horizontal: true,
		},
		{
			name: "Below", from: box(0, 0), to: box(20, 200),
			start: diagram.Point{X: 50, Y: 40}, end: diagram.Point{X: 70, Y: 200},
		},
		{
			name: "Above", from: box(0, 200), to: box(0, 0),
			start: diagram.Point{X: 50, Y: 200}, end: diagram.Point{X: 50, Y: 40},
		},
		{
			name: "DiagonalTie", from: box(0, 0), to: box(100, 100),
			start: diagram.Point{X: 100, Y: 20}, end: diagram.Point{X: 100, Y: 120},
			horizontal: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Compute(tt.from, tt.to)
			if r.Horizontal != tt.horizontal {
				t.Errorf("Horizontal = %v, want %v", r.Horizontal, tt.horizontal)
			}
			if !nearPoint(r.Start, tt.start) || !nearPoint(r.End, tt.end) {
				t.Errorf("route = %v -> %v, want %v -> %v", r.Start, r.End, tt.start, tt.end)
			}
			d := r.End.Sub(r.Start)
			if !near(r.Angle, math.Atan2(d.Y, d.X)) {
				t.Errorf("Angle = %v, want direction of End-Start", r.Angle)
			}
		})
	}
}

func TestComputeTieIsDeterministic(t *testing.T) {
	// |dx| == |dy| between centers, in all four diagonal directions.
	origin := diagram.Box{X: 0, Y: 0, W: 60, H: 60}
	for _, off := range []diagram.Point{{X: 80, Y: 80}, {X: -80, Y: 80}, {X: 80, Y: -80}, {X: -80, Y: -80}} {
		to := diagram.Box{X: off.X, Y: off.Y, W: 60, H: 60}
		first := Compute(origin, to)
		if !first.Horizontal {
			t.Errorf("offset %v: tie routed vertically", off)
		}
		for range 10 {
			if got := Compute(origin, to); got != first {
				t.Fatalf("offset %v: repeated run differs: %+v vs %+v", off, got, first)
			}
		}
	}
}

func TestArrowheadWings(t *testing.T) {
	for _, angle := range []float64{0, math.Pi / 2, -math.Pi / 3, math.Pi} {
		tip := diagram.Point{X: 10, Y: 20}
		a := ArrowheadAt(tip, angle)
		if a.Tip != tip {
			t.Errorf("Tip = %v, want %v", a.Tip, tip)
		}
		for _, w := range []diagram.Point{a.Left, a.Right} {
			d := tip.Sub(w)
			if l := math.Hypot(d.X, d.Y); !near(l, WingLength) {
				t.Errorf("angle %v: wing length %v, want %v", angle, l, WingLength)
			}
			between := math.Abs(math.Remainder(math.Atan2(d.Y, d.X)-angle, 2*math.Pi))
			if !near(between, WingAngle) {
				t.Errorf("angle %v: wing at %v rad from line, want %v", angle, between, WingAngle)
			}
		}
	}
}

func TestArrowheadPointsBackAlongLine(t *testing.T) {
	a := ArrowheadAt(diagram.Point{X: 100, Y: 0}, 0)
	if a.Left.X >= 100 || a.Right.X >= 100 {
		t.Errorf("wings %v %v should trail the tip", a.Left, a.Right)
	}
	if !near(a.Left.Y, -a.Right.Y) {
		t.Errorf("wings %v %v should be symmetric", a.Left, a.Right)
	}
}

func TestRecomputeAllIsIdempotent(t *testing.T) {
	s := diagram.New()
	a := s.CreateNode("a", diagram.Point{X: 0, Y: 0})
	b := s.CreateNode("b", diagram.Point{X: 300, Y: 0})
	c := s.CreateNode("c", diagram.Point{X: 0, Y: 300})
	ab, _ := s.CreateEdge(a, b, diagram.DefaultEdgeStyle())
	ac, _ := s.CreateEdge(a, c, diagram.DefaultEdgeStyle())
	s.ToggleCollapse(a)

	var r Router
	if len(r.Table()) != 0 {
		t.Fatal("zero Router should have an empty table")
	}
	first := r.RecomputeAll(s)
	second := r.RecomputeAll(s)
	if !reflect.DeepEqual(first, second) {
		t.Error("RecomputeAll without mutation changed the table")
	}
	if len(first) != 2 {
		t.Fatalf("table has %d routes, want 2 (hidden edges included)", len(first))
	}
	if got, _ := r.Lookup(ab.ID); !got.Horizontal {
		t.Error("a->b should be horizontal")
	}
	if got, _ := r.Lookup(ac.ID); got.Horizontal {
		t.Error("a->c should be vertical")
	}

	s.MoveNode(b, diagram.Point{X: 0, Y: -300})
	if got, _ := r.RecomputeAll(s).Lookup(ab.ID); got.Horizontal {
		t.Error("route not updated after move")
	}
}

package engine_test

import (
	"fmt"

	"github.com/matzehuels/driftboard/pkg/diagram"
	"github.com/matzehuels/driftboard/pkg/engine"
)

func Example() {
	e := engine.New(engine.Options{})

	a, _ := e.CreateNode("Idea", diagram.Point{X: 0, Y: 0})
	b, _ := e.CreateNode("Plan", diagram.Point{X: 300, Y: 0})
	edge, _ := e.Connect(a, b)

	r, _ := e.Routes().Lookup(edge.ID)
	fmt.Println("horizontal:", r.Horizontal)

	e.ToggleCollapse(a)
	n, _ := e.Store().Node(b)
	fmt.Println("plan hidden:", n.IsHidden())

	e.Undo()
	n, _ = e.Store().Node(b)
	fmt.Println("after undo:", n.IsHidden())
	// Output:
	// horizontal: true
	// plan hidden: true
	// after undo: false
}

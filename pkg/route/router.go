package route

import "github.com/matzehuels/driftboard/pkg/diagram"

// Table maps edge IDs to their current routes.
type Table map[diagram.EdgeID]Route

// Lookup returns the route of an edge.
func (t Table) Lookup(id diagram.EdgeID) (Route, bool) {
	r, ok := t[id]
	return r, ok
}

// ComputeAll routes every edge of s, hidden ones included. Edges whose
// endpoints are missing are left out.
func ComputeAll(s *diagram.Store) Table {
	t := make(Table, s.EdgeCount())
	for _, e := range s.Edges() {
		from, ok := s.Node(e.From)
		if !ok {
			continue
		}
		to, ok := s.Node(e.To)
		if !ok {
			continue
		}
		t[e.ID] = Compute(from.Box(), to.Box())
	}
	return t
}

// Router keeps the routes of the last recomputation.
//
// The zero value is ready to use and holds an empty table.
type Router struct {
	table Table
}

// RecomputeAll replaces the router's table with fresh routes for s and
// returns it. Calling it again without a mutation in between yields an
// identical table.
func (r *Router) RecomputeAll(s *diagram.Store) Table {
	r.table = ComputeAll(s)
	return r.table
}

// Table returns the routes of the last recomputation.
func (r *Router) Table() Table {
	if r.table == nil {
		return Table{}
	}
	return r.table
}

// Lookup returns the last computed route of an edge.
func (r *Router) Lookup(id diagram.EdgeID) (Route, bool) {
	return r.table.Lookup(id)
}

package diagram

import "slices"

// Linked is the part of a diagram reachable from a root over outgoing edges.
type Linked struct {
	Nodes []NodeID // discovery order, root first
	Edges []EdgeID // every outgoing edge of every reached node, discovery order
}

// ContainsNode reports whether id was reached.
func (l Linked) ContainsNode(id NodeID) bool { return slices.Contains(l.Nodes, id) }

// CollectLinked walks outgoing edges breadth-first from root and returns the
// reached nodes and traversed edges. Each node is visited at most once, so
// cycles terminate. Returns an empty result when root does not exist.
func (s *Store) CollectLinked(root NodeID) Linked {
	if _, ok := s.nodes[root]; !ok {
		return Linked{}
	}
	out := Linked{Nodes: []NodeID{root}}
	visited := map[NodeID]bool{root: true}
	queue := []NodeID{root}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, eid := range s.outgoing[u] {
			out.Edges = append(out.Edges, eid)
			v := s.edges[eid].To
			if visited[v] {
				continue
			}
			visited[v] = true
			out.Nodes = append(out.Nodes, v)
			queue = append(queue, v)
		}
	}
	return out
}

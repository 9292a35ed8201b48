package camelot

import "fmt"

// Diameter is the upper bound on reported hop distance. Cross-ring
// antipodes such as 1A/7B need a seventh raw hop; Distance caps them here.
const Diameter = 6

// Graph is the undirected adjacency over the 24 wheel positions. Each key
// connects to its relative major/minor and to the adjacent numbers on its
// own ring. Construct once with NewGraph and share read-only.
type Graph struct {
	neighbors map[Key][]Key
	distances map[[2]Key]int
}

// NewGraph builds the wheel adjacency and precomputes all pairwise hop
// distances via breadth-first search from every node.
func NewGraph() *Graph {
	g := &Graph{
		neighbors: make(map[Key][]Key, 24),
		distances: make(map[[2]Key]int, 24*24),
	}
	for _, key := range AllKeys() {
		g.neighbors[key] = []Key{key.Relative(), key.StepDown(), key.StepUp()}
	}
	for _, key := range AllKeys() {
		for other, hops := range g.bfs(key) {
			if hops > Diameter {
				hops = Diameter
			}
			g.distances[[2]Key{key, other}] = hops
		}
	}
	return g
}

func (g *Graph) bfs(origin Key) map[Key]int {
	visited := map[Key]int{origin: 0}
	frontier := []Key{origin}
	for len(frontier) > 0 {
		var next []Key
		for _, key := range frontier {
			for _, neighbor := range g.neighbors[key] {
				if _, seen := visited[neighbor]; seen {
					continue
				}
				visited[neighbor] = visited[key] + 1
				next = append(next, neighbor)
			}
		}
		frontier = next
	}
	return visited
}

// Neighbors returns the keys one hop from the given position.
func (g *Graph) Neighbors(key Key) ([]Key, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownKey, key)
	}
	adjacent := g.neighbors[key]
	out := make([]Key, len(adjacent))
	copy(out, adjacent)
	return out, nil
}

// Distance returns the hop count between two positions. The result is
// bounded by Diameter.
func (g *Graph) Distance(a, b Key) (int, error) {
	if !a.Valid() {
		return 0, fmt.Errorf("%w: %v", ErrUnknownKey, a)
	}
	if !b.Valid() {
		return 0, fmt.Errorf("%w: %v", ErrUnknownKey, b)
	}
	hops, ok := g.distances[[2]Key{a, b}]
	if !ok {
		return 0, fmt.Errorf("%w: no path between %v and %v", ErrUnknownKey, a, b)
	}
	return hops, nil
}

// ShortestPath returns one minimal key chain from a to b, inclusive of both
// endpoints. Ties between equally short chains break toward the neighbor
// ordering used by Neighbors (relative first, then counterclockwise,
// then clockwise).
func (g *Graph) ShortestPath(a, b Key) ([]Key, error) {
	if _, err := g.Distance(a, b); err != nil {
		return nil, err
	}
	if a == b {
		return []Key{a}, nil
	}

	parents := map[Key]Key{a: a}
	frontier := []Key{a}
	for len(frontier) > 0 {
		var next []Key
		for _, key := range frontier {
			for _, neighbor := range g.neighbors[key] {
				if _, seen := parents[neighbor]; seen {
					continue
				}
				parents[neighbor] = key
				if neighbor == b {
					return unwindPath(parents, a, b), nil
				}
				next = append(next, neighbor)
			}
		}
		frontier = next
	}
	return nil, fmt.Errorf("%w: no path between %v and %v", ErrUnknownKey, a, b)
}

func unwindPath(parents map[Key]Key, from, to Key) []Key {
	var reversed []Key
	for cursor := to; cursor != from; cursor = parents[cursor] {
		reversed = append(reversed, cursor)
	}
	reversed = append(reversed, from)

	path := make([]Key, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path
}

// Compatible reports whether two keys are harmonically adjacent: identical,
// relative major/minor, or neighboring numbers on the same ring.
func (g *Graph) Compatible(a, b Key) (bool, error) {
	hops, err := g.Distance(a, b)
	if err != nil {
		return false, err
	}
	return hops <= 1, nil
}

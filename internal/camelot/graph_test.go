package camelot_test

import (
	"testing"

	"mixtape/internal/camelot"
)

func mustDistance(t *testing.T, g *camelot.Graph, a, b string) int {
	t.Helper()
	hops, err := g.Distance(camelot.MustParse(a), camelot.MustParse(b))
	if err != nil {
		t.Fatalf("Distance(%s, %s) failed: %v", a, b, err)
	}
	return hops
}

func TestDistanceKnownPairs(t *testing.T) {
	g := camelot.NewGraph()
	cases := []struct {
		a, b     string
		expected int
	}{
		{"8A", "8A", 0},
		{"8A", "9A", 1},
		{"8A", "8B", 1},
		{"8A", "7A", 1},
		{"8A", "9B", 2},
		{"8A", "10A", 2},
		{"8A", "2A", 6},
		{"12A", "1A", 1},
		{"1B", "12B", 1},
		{"1A", "7A", 6},
		{"1A", "7B", 6},
		{"7B", "1A", 6},
	}
	for _, tc := range cases {
		if got := mustDistance(t, g, tc.a, tc.b); got != tc.expected {
			t.Fatalf("Distance(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.expected)
		}
	}
}

func TestDistanceIsAMetric(t *testing.T) {
	g := camelot.NewGraph()
	keys := camelot.AllKeys()
	for _, a := range keys {
		for _, b := range keys {
			ab := mustDistance(t, g, a.String(), b.String())
			ba := mustDistance(t, g, b.String(), a.String())
			if ab != ba {
				t.Fatalf("distance not symmetric for %v/%v: %d vs %d", a, b, ab, ba)
			}
			if ab > camelot.Diameter {
				t.Fatalf("distance %v-%v exceeds diameter: %d", a, b, ab)
			}
			for _, c := range keys {
				ac := mustDistance(t, g, a.String(), c.String())
				bc := mustDistance(t, g, b.String(), c.String())
				if ac > ab+bc {
					t.Fatalf("triangle inequality violated: d(%v,%v)=%d > d(%v,%v)+d(%v,%v)=%d",
						a, c, ac, a, b, b, c, ab+bc)
				}
			}
		}
	}
}

func TestShortestPathEndpointsAndLength(t *testing.T) {
	g := camelot.NewGraph()
	from := camelot.MustParse("8A")
	to := camelot.MustParse("2A")

	path, err := g.ShortestPath(from, to)
	if err != nil {
		t.Fatalf("ShortestPath failed: %v", err)
	}
	if path[0] != from || path[len(path)-1] != to {
		t.Fatalf("path endpoints wrong: %v", path)
	}
	if len(path) != mustDistance(t, g, "8A", "2A")+1 {
		t.Fatalf("path length %d does not match distance", len(path))
	}
	for i := 1; i < len(path); i++ {
		if mustDistance(t, g, path[i-1].String(), path[i].String()) != 1 {
			t.Fatalf("non-adjacent hop in path: %v -> %v", path[i-1], path[i])
		}
	}
}

func TestShortestPathSameKey(t *testing.T) {
	g := camelot.NewGraph()
	key := camelot.MustParse("5B")
	path, err := g.ShortestPath(key, key)
	if err != nil {
		t.Fatalf("ShortestPath failed: %v", err)
	}
	if len(path) != 1 || path[0] != key {
		t.Fatalf("expected single-node path, got %v", path)
	}
}

func TestCompatibleNeighbors(t *testing.T) {
	g := camelot.NewGraph()
	key := camelot.MustParse("8A")

	neighbors, err := g.Neighbors(key)
	if err != nil {
		t.Fatalf("Neighbors failed: %v", err)
	}
	if len(neighbors) != 3 {
		t.Fatalf("expected 3 neighbors, got %v", neighbors)
	}
	for _, neighbor := range neighbors {
		ok, err := g.Compatible(key, neighbor)
		if err != nil {
			t.Fatalf("Compatible failed: %v", err)
		}
		if !ok {
			t.Fatalf("expected %v compatible with %v", key, neighbor)
		}
	}
	if ok, _ := g.Compatible(key, camelot.MustParse("2A")); ok {
		t.Fatal("8A should not be compatible with 2A")
	}
}

func TestDistanceRejectsInvalidKey(t *testing.T) {
	g := camelot.NewGraph()
	if _, err := g.Distance(camelot.Key{}, camelot.MustParse("8A")); err == nil {
		t.Fatal("expected error for zero key")
	}
}

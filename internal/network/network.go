// Package network provides the immutable neighbor structure a simulation
// runs on. A graph is either an explicit undirected adjacency or an implicit
// complete graph used for unconstrained mixing.
package network

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrMalformed = errors.New("malformed network")
	ErrEmpty     = errors.New("network has no vertices")
)

// Graph maps agent indices to neighbor sets. Indices run from 0 to Size()-1.
// The neighbor relation is irreflexive and symmetric.
type Graph struct {
	size     int
	complete bool
	adj      [][]int
}

// NewComplete returns the implicit complete graph on n vertices. No edge list
// is materialized; neighbor queries are computed on demand.
func NewComplete(n int) (*Graph, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: size must be > 0, got %d", ErrEmpty, n)
	}
	return &Graph{size: n, complete: true}, nil
}

// NewFromEdges builds an explicit undirected graph on n vertices. Self-loops
// and out-of-range endpoints are rejected; duplicate edges collapse.
func NewFromEdges(n int, edges [][2]int) (*Graph, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: size must be > 0, got %d", ErrEmpty, n)
	}
	seen := make(map[[2]int]struct{}, len(edges))
	adj := make([][]int, n)
	for _, edge := range edges {
		a, b := edge[0], edge[1]
		if a < 0 || a >= n || b < 0 || b >= n {
			return nil, fmt.Errorf("%w: edge (%d,%d) out of range [0,%d)", ErrMalformed, a, b, n)
		}
		if a == b {
			return nil, fmt.Errorf("%w: self-loop at vertex %d", ErrMalformed, a)
		}
		if a > b {
			a, b = b, a
		}
		if _, dup := seen[[2]int{a, b}]; dup {
			continue
		}
		seen[[2]int{a, b}] = struct{}{}
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	return &Graph{size: n, adj: adj}, nil
}

// NewStar builds a hub-and-spoke graph with vertex 0 as the hub.
func NewStar(n int) (*Graph, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: size must be > 0, got %d", ErrEmpty, n)
	}
	edges := make([][2]int, 0, n-1)
	for i := 1; i < n; i++ {
		edges = append(edges, [2]int{0, i})
	}
	return NewFromEdges(n, edges)
}

// NewRing builds a ring lattice where every vertex connects to its k nearest
// neighbors on each side.
func NewRing(n, k int) (*Graph, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: size must be > 0, got %d", ErrEmpty, n)
	}
	if k < 1 || 2*k >= n {
		return nil, fmt.Errorf("%w: ring degree %d invalid for %d vertices", ErrMalformed, k, n)
	}
	edges := make([][2]int, 0, n*k)
	for i := 0; i < n; i++ {
		for d := 1; d <= k; d++ {
			edges = append(edges, [2]int{i, (i + d) % n})
		}
	}
	return NewFromEdges(n, edges)
}

// NewRandom builds an Erdős–Rényi graph where each pair is connected with
// probability p, drawn from rng so construction is reproducible per trial.
func NewRandom(n int, p float64, rng *rand.Rand) (*Graph, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: size must be > 0, got %d", ErrEmpty, n)
	}
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("%w: edge probability %g outside [0,1]", ErrMalformed, p)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrMalformed)
	}
	var edges [][2]int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return NewFromEdges(n, edges)
}

// Size returns the vertex count.
func (g *Graph) Size() int {
	return g.size
}

// Complete reports whether the graph is the implicit complete graph.
func (g *Graph) Complete() bool {
	return g.complete
}

// Degree returns the neighbor count of vertex i.
func (g *Graph) Degree(i int) int {
	if g.complete {
		return g.size - 1
	}
	return len(g.adj[i])
}

// Neighbors returns the neighbor indices of vertex i. The returned slice is
// freshly allocated; callers may keep or mutate it.
func (g *Graph) Neighbors(i int) []int {
	if g.complete {
		out := make([]int, 0, g.size-1)
		for j := 0; j < g.size; j++ {
			if j != i {
				out = append(out, j)
			}
		}
		return out
	}
	out := make([]int, len(g.adj[i]))
	copy(out, g.adj[i])
	return out
}

package sna

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/graph/path"

	"github.com/cognicore/korsna/pkg/korsna/internalerr"
)

// Metric is a scalar graph metric that may be undefined for a given graph.
type Metric struct {
	Value float64
	Err   error
}

// Defined reports whether the metric carries a value.
func (m Metric) Defined() bool {
	return m.Err == nil
}

func (m Metric) String() string {
	if m.Err != nil {
		return "undefined (" + m.Err.Error() + ")"
	}
	return fmt.Sprintf("%.4f", m.Value)
}

// Stats describes the shape of a graph.
type Stats struct {
	Nodes        int
	Edges        int
	Density      float64
	Transitivity float64
	Diameter     Metric
	Reciprocity  Metric
	Components   int
}

// Stats computes descriptive statistics.
func (g *Graph) Stats() Stats {
	return Stats{
		Nodes:        g.NodeCount(),
		Edges:        g.EdgeCount(),
		Density:      g.Density(),
		Transitivity: g.Transitivity(),
		Diameter:     metric(g.Diameter()),
		Reciprocity:  metric(g.Reciprocity()),
		Components:   len(g.Components()),
	}
}

func metric(v float64, err error) Metric {
	return Metric{Value: v, Err: err}
}

// Density returns 2m / (n(n-1)), or 0 for graphs with fewer than two nodes.
func (g *Graph) Density() float64 {
	n := float64(g.NodeCount())
	if n < 2 {
		return 0
	}
	return 2 * float64(g.EdgeCount()) / (n * (n - 1))
}

// Transitivity returns the global clustering coefficient,
// 3 × triangles / connected triples.
func (g *Graph) Transitivity() float64 {
	var triangles, triples float64
	for u := range g.adj {
		nb := g.adj[u]
		k := float64(len(nb))
		triples += k * (k - 1)

		set := make(map[int64]struct{}, len(nb))
		for _, v := range nb {
			set[v] = struct{}{}
		}
		for _, v := range nb {
			for _, w := range g.adj[v] {
				if w == int64(u) {
					continue
				}
				if _, ok := set[w]; ok {
					triangles++
				}
			}
		}
	}
	if triples == 0 {
		return 0
	}
	// Each triangle is counted six times above and each triple twice.
	return triangles / triples
}

// Diameter returns the longest shortest-path length in hops.
func (g *Graph) Diameter() (float64, error) {
	if g.NodeCount() == 0 {
		return 0, fmt.Errorf("diameter: %w", internalerr.ErrEmptyGraph)
	}
	if !g.Connected() {
		return 0, fmt.Errorf("diameter: %w", internalerr.ErrDisconnected)
	}
	var diam float64
	for _, row := range g.hopDistances() {
		for _, d := range row {
			diam = math.Max(diam, d)
		}
	}
	return diam, nil
}

// Reciprocity is only defined for directed graphs. The co-occurrence
// network is undirected, so this always reports ErrUndirected.
func (g *Graph) Reciprocity() (float64, error) {
	return 0, fmt.Errorf("reciprocity: %w", internalerr.ErrUndirected)
}

// hopDistances returns all-pairs shortest path lengths in hops, indexed by
// node id. Unreachable pairs are +Inf.
func (g *Graph) hopDistances() [][]float64 {
	n := g.NodeCount()
	all := path.DijkstraAllPaths(g.topology)
	dist := make([][]float64, n)
	for u := 0; u < n; u++ {
		dist[u] = make([]float64, n)
		for v := 0; v < n; v++ {
			if u == v {
				continue
			}
			dist[u][v] = all.Weight(int64(u), int64(v))
		}
	}
	return dist
}

func sortIDs(ids []int64) {
	slices.Sort(ids)
}

func sortComponents(cc [][]int64) {
	slices.SortFunc(cc, func(a, b []int64) int {
		switch {
		case a[0] < b[0]:
			return -1
		case a[0] > b[0]:
			return 1
		}
		return 0
	})
}

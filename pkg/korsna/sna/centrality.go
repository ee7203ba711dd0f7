package sna

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/network"

	"github.com/cognicore/korsna/pkg/korsna/internalerr"
)

// Eigenvector power iteration limits.
const (
	EigenMaxIter   = 100
	EigenTolerance = 1e-6
)

// Scores maps node id to a centrality value; index i belongs to node i.
type Scores []float64

// DegreeCentrality returns deg(v) / (n-1). A single node scores 1.
func (g *Graph) DegreeCentrality() Scores {
	n := g.NodeCount()
	scores := make(Scores, n)
	if n == 1 {
		scores[0] = 1
		return scores
	}
	for id := range scores {
		scores[id] = float64(g.Degree(int64(id))) / float64(n-1)
	}
	return scores
}

// BetweennessCentrality returns normalised shortest-path betweenness,
// counting hops.
func (g *Graph) BetweennessCentrality() Scores {
	n := g.NodeCount()
	scores := make(Scores, n)
	if n <= 2 {
		return scores
	}
	// gonum accumulates each unordered pair from both ends.
	scale := 1.0 / float64((n-1)*(n-2))
	for id, b := range network.Betweenness(g.topology) {
		scores[id] = b * scale
	}
	return scores
}

// ClosenessCentrality returns Wasserman-Faust closeness: for a node reaching
// r other nodes with total distance s, (r/s) * (r/(n-1)).
func (g *Graph) ClosenessCentrality() Scores {
	n := g.NodeCount()
	scores := make(Scores, n)
	if n < 2 {
		return scores
	}
	for u, row := range g.hopDistances() {
		var reach, total float64
		for v, d := range row {
			if u == v || math.IsInf(d, 1) {
				continue
			}
			reach++
			total += d
		}
		if total > 0 {
			scores[u] = (reach / total) * (reach / float64(n-1))
		}
	}
	return scores
}

// EigenvectorCentrality runs power iteration on A + I with the start vector
// 1/n, stopping when the L1 change drops below n × EigenTolerance.
// Disconnected graphs have no unique principal eigenvector and are rejected.
func (g *Graph) EigenvectorCentrality() (Scores, error) {
	n := g.NodeCount()
	if n == 0 {
		return nil, fmt.Errorf("eigenvector: %w", internalerr.ErrEmptyGraph)
	}
	if !g.Connected() {
		return nil, fmt.Errorf("eigenvector: %w", internalerr.ErrDisconnected)
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}
	next := make([]float64, n)

	for iter := 0; iter < EigenMaxIter; iter++ {
		copy(next, x)
		for u, nb := range g.adj {
			for _, v := range nb {
				next[v] += x[u]
			}
		}

		var norm float64
		for _, v := range next {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			norm = 1
		}

		var delta float64
		for i := range next {
			next[i] /= norm
			delta += math.Abs(next[i] - x[i])
		}
		x, next = next, x
		if delta < float64(n)*EigenTolerance {
			return Scores(x), nil
		}
	}
	return nil, fmt.Errorf("eigenvector after %d iterations: %w", EigenMaxIter, internalerr.ErrNotConverged)
}

// EigenvectorLargestComponent computes eigenvector centrality on the largest
// connected component. Nodes outside it score 0. Ties between equally large
// components go to the one holding the earliest node.
func (g *Graph) EigenvectorLargestComponent() (Scores, error) {
	comps := g.Components()
	if len(comps) == 0 {
		return nil, fmt.Errorf("eigenvector: %w", internalerr.ErrEmptyGraph)
	}
	largest := comps[0]
	for _, c := range comps[1:] {
		if len(c) > len(largest) {
			largest = c
		}
	}

	sub, err := g.Subgraph(largest)
	if err != nil {
		return nil, err
	}
	subScores, err := sub.EigenvectorCentrality()
	if err != nil {
		return nil, err
	}
	scores := make(Scores, g.NodeCount())
	for sid, s := range subScores {
		scores[g.index[sub.Label(int64(sid))]] = s
	}
	return scores, nil
}

// Ranked is a node with its score.
type Ranked struct {
	Label string
	Score float64
}

// Top returns the k highest scoring nodes, ties broken by insertion order.
func (g *Graph) Top(scores Scores, k int) []Ranked {
	ranked := make([]Ranked, len(scores))
	for id, s := range scores {
		ranked[id] = Ranked{Label: g.labels[id], Score: s}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if k >= 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

package sna

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/cognicore/korsna/pkg/korsna/cooccur"
	"github.com/cognicore/korsna/pkg/korsna/internalerr"
)

// Graph is an undirected co-occurrence network.
//
// Node ids are contiguous from 0 in first-seen order, so iterating ids walks
// nodes in insertion order. Weights are kept on the weighted view; path and
// centrality computations use the unweighted topology view.
type Graph struct {
	labels   []string
	index    map[string]int64
	adj      [][]int64 // neighbours in edge insertion order
	edges    []cooccur.Edge
	weighted *simple.WeightedUndirectedGraph
	topology *simple.UndirectedGraph
}

// Build constructs a graph from an edge list. Repeated pairs in either
// orientation are merged by summing weights. Self loops are rejected.
func Build(edges []cooccur.Edge) (*Graph, error) {
	g := &Graph{
		index:    make(map[string]int64),
		weighted: simple.NewWeightedUndirectedGraph(0, 0),
		topology: simple.NewUndirectedGraph(),
	}
	edgeIdx := make(map[[2]int64]int)

	for i, e := range edges {
		if e.Source == "" || e.Target == "" {
			return nil, fmt.Errorf("edge %d: empty endpoint: %w", i, internalerr.ErrInvalidInput)
		}
		if e.Source == e.Target {
			return nil, fmt.Errorf("edge %d: self loop on %q: %w", i, e.Source, internalerr.ErrInvalidInput)
		}
		if e.Weight < 1 {
			return nil, fmt.Errorf("edge %d: weight %d < 1: %w", i, e.Weight, internalerr.ErrInvalidInput)
		}

		u := g.addNode(e.Source)
		v := g.addNode(e.Target)
		key := [2]int64{min(u, v), max(u, v)}
		if j, ok := edgeIdx[key]; ok {
			g.edges[j].Weight += e.Weight
			continue
		}
		edgeIdx[key] = len(g.edges)
		g.edges = append(g.edges, e)
		g.adj[u] = append(g.adj[u], v)
		g.adj[v] = append(g.adj[v], u)
		g.topology.SetEdge(g.topology.NewEdge(simple.Node(u), simple.Node(v)))
	}

	for _, e := range g.edges {
		u, v := g.index[e.Source], g.index[e.Target]
		g.weighted.SetWeightedEdge(g.weighted.NewWeightedEdge(simple.Node(u), simple.Node(v), float64(e.Weight)))
	}
	return g, nil
}

func (g *Graph) addNode(label string) int64 {
	if id, ok := g.index[label]; ok {
		return id
	}
	id := int64(len(g.labels))
	g.index[label] = id
	g.labels = append(g.labels, label)
	g.adj = append(g.adj, nil)
	g.weighted.AddNode(simple.Node(id))
	g.topology.AddNode(simple.Node(id))
	return id
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.labels)
}

// EdgeCount returns the number of distinct undirected edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Label returns the term of node id.
func (g *Graph) Label(id int64) string {
	return g.labels[id]
}

// Labels returns node labels in insertion order.
func (g *Graph) Labels() []string {
	out := make([]string, len(g.labels))
	copy(out, g.labels)
	return out
}

// ID returns the node id of a term.
func (g *Graph) ID(label string) (int64, bool) {
	id, ok := g.index[label]
	return id, ok
}

// Degree returns the number of neighbours of node id.
func (g *Graph) Degree(id int64) int {
	return len(g.adj[id])
}

// Neighbors returns the neighbours of node id in edge insertion order.
func (g *Graph) Neighbors(id int64) []int64 {
	return g.adj[id]
}

// Edges returns the merged edge list in insertion order.
func (g *Graph) Edges() []cooccur.Edge {
	out := make([]cooccur.Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Weight returns the weight of edge (u, v), or 0 when absent.
func (g *Graph) Weight(u, v int64) float64 {
	w, ok := g.weighted.Weight(u, v)
	if !ok || u == v {
		return 0
	}
	return w
}

// Weighted exposes the weighted gonum view.
func (g *Graph) Weighted() graph.Weighted {
	return g.weighted
}

// Topology exposes the unweighted gonum view.
func (g *Graph) Topology() graph.Undirected {
	return g.topology
}

// Components returns connected components as sorted node id lists,
// ordered by their smallest member.
func (g *Graph) Components() [][]int64 {
	cc := topo.ConnectedComponents(g.topology)
	out := make([][]int64, 0, len(cc))
	for _, comp := range cc {
		ids := make([]int64, len(comp))
		for i, n := range comp {
			ids[i] = n.ID()
		}
		sortIDs(ids)
		out = append(out, ids)
	}
	sortComponents(out)
	return out
}

// Connected reports whether the graph is non-empty and connected.
func (g *Graph) Connected() bool {
	if g.NodeCount() == 0 {
		return false
	}
	return len(g.Components()) == 1
}

// Subgraph returns the graph induced by ids, keeping edge insertion order.
func (g *Graph) Subgraph(ids []int64) (*Graph, error) {
	keep := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	var edges []cooccur.Edge
	for _, e := range g.edges {
		_, okU := keep[g.index[e.Source]]
		_, okV := keep[g.index[e.Target]]
		if okU && okV {
			edges = append(edges, e)
		}
	}
	sub, err := Build(edges)
	if err != nil {
		return nil, fmt.Errorf("subgraph: %w", err)
	}
	return sub, nil
}

package cluster

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/cognicore/korsna/pkg/korsna/internalerr"
	"github.com/cognicore/korsna/pkg/korsna/sna"
)

// Detection defaults.
const (
	DefaultResolution = 1.08
	DefaultSeed       = 42
	DefaultTopN       = 10
)

// Options controls Louvain community detection.
type Options struct {
	Resolution float64
	Seed       uint64
	Weighted   bool // use co-occurrence weights; otherwise every edge counts 1
}

// DefaultOptions returns resolution 1.08, seed 42 and unweighted detection.
// Co-occurrence weights are only used when Weighted is set.
func DefaultOptions() Options {
	return Options{
		Resolution: DefaultResolution,
		Seed:       DefaultSeed,
	}
}

// Partition assigns every node of a graph to exactly one community.
// Community ids are contiguous from 0 and ordered by their earliest member.
type Partition struct {
	Assignment  []int     // node id -> community id
	Communities [][]int64 // community id -> member node ids, ascending
	Modularity  float64
	Resolution  float64
	Seed        uint64
}

// Len returns the number of communities.
func (p *Partition) Len() int {
	return len(p.Communities)
}

// Of returns the community of node id.
func (p *Partition) Of(id int64) int {
	return p.Assignment[id]
}

// Detect partitions g into communities.
func Detect(g *sna.Graph, opts Options) (*Partition, error) {
	if g.NodeCount() == 0 {
		return nil, fmt.Errorf("detect communities: %w", internalerr.ErrEmptyGraph)
	}
	if opts.Resolution <= 0 {
		return nil, fmt.Errorf("resolution %v must be positive: %w", opts.Resolution, internalerr.ErrInvalidConfig)
	}

	var target graph.Graph = g.Topology()
	if opts.Weighted {
		target = g.Weighted()
	}

	src := rand.NewPCG(opts.Seed, opts.Seed)
	reduced := community.Modularize(target, opts.Resolution, src)
	raw := reduced.Communities()

	p := &Partition{
		Assignment: make([]int, g.NodeCount()),
		Resolution: opts.Resolution,
		Seed:       opts.Seed,
	}
	for _, comm := range raw {
		if len(comm) == 0 {
			continue
		}
		ids := make([]int64, len(comm))
		for i, n := range comm {
			ids[i] = n.ID()
		}
		slices.Sort(ids)
		p.Communities = append(p.Communities, ids)
	}
	sort.Slice(p.Communities, func(i, j int) bool {
		return p.Communities[i][0] < p.Communities[j][0]
	})
	for cid, members := range p.Communities {
		for _, id := range members {
			p.Assignment[id] = cid
		}
	}

	p.Modularity = community.Q(target, nodesOf(p.Communities), opts.Resolution)
	return p, nil
}

func nodesOf(communities [][]int64) [][]graph.Node {
	out := make([][]graph.Node, len(communities))
	for i, ids := range communities {
		nodes := make([]graph.Node, len(ids))
		for j, id := range ids {
			nodes[j] = simple.Node(id)
		}
		out[i] = nodes
	}
	return out
}

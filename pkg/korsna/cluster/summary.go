package cluster

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cognicore/korsna/pkg/korsna/sna"
)

// Row is one line of the node/community table.
type Row struct {
	Label     string
	Community int
	Degree    int
}

// Table lists every node with its community, ordered by degree descending
// and then by node insertion order.
func Table(g *sna.Graph, p *Partition) []Row {
	rows := make([]Row, g.NodeCount())
	for id := range rows {
		rows[id] = Row{
			Label:     g.Label(int64(id)),
			Community: p.Of(int64(id)),
			Degree:    g.Degree(int64(id)),
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Degree > rows[j].Degree
	})
	return rows
}

// Summary describes one community.
type Summary struct {
	ID      int
	Size    int
	Members []string // degree-ranked, truncated to topN
}

// Summarize returns one summary per community in id order. Members are ranked
// like Table and truncated to topN (all when topN <= 0).
func Summarize(g *sna.Graph, p *Partition, topN int) []Summary {
	out := make([]Summary, p.Len())
	for cid := range out {
		out[cid] = Summary{ID: cid, Size: len(p.Communities[cid])}
	}
	for _, row := range Table(g, p) {
		s := &out[row.Community]
		if topN > 0 && len(s.Members) >= topN {
			continue
		}
		s.Members = append(s.Members, row.Label)
	}
	return out
}

// WriteSummary prints one line per community.
func WriteSummary(w io.Writer, p *Partition, summaries []Summary) error {
	if _, err := fmt.Fprintf(w, "communities: %d (modularity %.4f, resolution %.2f, seed %d)\n",
		p.Len(), p.Modularity, p.Resolution, p.Seed); err != nil {
		return err
	}
	for _, s := range summaries {
		if _, err := fmt.Fprintf(w, "Cluster %d (%d nodes): %s\n", s.ID, s.Size, strings.Join(s.Members, ", ")); err != nil {
			return err
		}
	}
	return nil
}

package sna

import (
	"errors"
	"fmt"
	"io"

	"github.com/cognicore/korsna/pkg/korsna/internalerr"
)

// DefaultTopK is the number of nodes listed per centrality measure.
const DefaultTopK = 3

// Measure names a centrality measure.
type Measure string

const (
	Degree      Measure = "degree"
	Betweenness Measure = "betweenness"
	Closeness   Measure = "closeness"
	Eigenvector Measure = "eigenvector"
)

// Measures lists the centrality measures in report order.
var Measures = []Measure{Degree, Betweenness, Closeness, Eigenvector}

// Centrality is the result of one measure. Err is set when the measure could
// not be computed; Note records a fallback that was applied.
type Centrality struct {
	Measure Measure
	Scores  Scores
	Top     []Ranked
	Note    string
	Err     error
}

// Report bundles graph statistics and the top nodes per centrality measure.
type Report struct {
	Stats      Stats
	Centrality []Centrality
}

// Analyze computes the full report. A failing measure is recorded in the
// report instead of aborting it.
func Analyze(g *Graph, topK int) (*Report, error) {
	if g.NodeCount() == 0 {
		return nil, fmt.Errorf("analyze: %w", internalerr.ErrEmptyGraph)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	r := &Report{Stats: g.Stats()}
	for _, m := range Measures {
		c := Centrality{Measure: m}
		switch m {
		case Degree:
			c.Scores = g.DegreeCentrality()
		case Betweenness:
			c.Scores = g.BetweennessCentrality()
		case Closeness:
			c.Scores = g.ClosenessCentrality()
		case Eigenvector:
			c.Scores, c.Err = g.EigenvectorCentrality()
			if errors.Is(c.Err, internalerr.ErrDisconnected) {
				c.Scores, c.Err = g.EigenvectorLargestComponent()
				if c.Err == nil {
					c.Note = "largest connected component"
				}
			}
		}
		if c.Err == nil {
			c.Top = g.Top(c.Scores, topK)
		}
		r.Centrality = append(r.Centrality, c)
	}
	return r, nil
}

// Get returns the result for measure m.
func (r *Report) Get(m Measure) (Centrality, bool) {
	for _, c := range r.Centrality {
		if c.Measure == m {
			return c, true
		}
	}
	return Centrality{}, false
}

// Write prints the report as plain text.
func (r *Report) Write(w io.Writer) error {
	s := r.Stats
	lines := []string{
		fmt.Sprintf("nodes: %d", s.Nodes),
		fmt.Sprintf("edges: %d", s.Edges),
		fmt.Sprintf("components: %d", s.Components),
		fmt.Sprintf("diameter: %s", s.Diameter),
		fmt.Sprintf("density: %.4f", s.Density),
		fmt.Sprintf("transitivity: %.4f", s.Transitivity),
		fmt.Sprintf("reciprocity: %s", s.Reciprocity),
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}

	for _, c := range r.Centrality {
		header := fmt.Sprintf("\n%s centrality", c.Measure)
		if c.Note != "" {
			header += " (" + c.Note + ")"
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		if c.Err != nil {
			if _, err := fmt.Fprintf(w, "  error: %v\n", c.Err); err != nil {
				return err
			}
			continue
		}
		for i, rk := range c.Top {
			if _, err := fmt.Fprintf(w, "  %d. %s\t%.4f\n", i+1, rk.Label, rk.Score); err != nil {
				return err
			}
		}
	}
	return nil
}

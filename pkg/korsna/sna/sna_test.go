package sna

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/cognicore/korsna/pkg/korsna/cooccur"
	"github.com/cognicore/korsna/pkg/korsna/internalerr"
)

func mustBuild(t *testing.T, edges []cooccur.Edge) *Graph {
	t.Helper()
	g, err := Build(edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func star() []cooccur.Edge {
	return []cooccur.Edge{
		{Source: "육아휴직", Target: "신청", Weight: 3},
		{Source: "육아휴직", Target: "회사", Weight: 1},
		{Source: "육아휴직", Target: "급여", Weight: 2},
		{Source: "육아휴직", Target: "복직", Weight: 1},
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuildMergesDuplicates(t *testing.T) {
	g := mustBuild(t, []cooccur.Edge{
		{Source: "a", Target: "b", Weight: 1},
		{Source: "b", Target: "a", Weight: 2},
		{Source: "b", Target: "c", Weight: 1},
	})

	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Fatalf("Expected 3 nodes / 2 edges, got %d / %d", g.NodeCount(), g.EdgeCount())
	}
	if w := g.Weight(0, 1); w != 3 {
		t.Errorf("Merged weight = %f, want 3", w)
	}
	if got := strings.Join(g.Labels(), ","); got != "a,b,c" {
		t.Errorf("Labels = %s, want insertion order a,b,c", got)
	}
}

func TestBuildRejectsInvalidEdges(t *testing.T) {
	tests := []struct {
		name string
		edge cooccur.Edge
	}{
		{"self loop", cooccur.Edge{Source: "a", Target: "a", Weight: 1}},
		{"empty endpoint", cooccur.Edge{Source: "", Target: "a", Weight: 1}},
		{"zero weight", cooccur.Edge{Source: "a", Target: "b", Weight: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build([]cooccur.Edge{tt.edge})
			if !errors.Is(err, internalerr.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestStarStats(t *testing.T) {
	g := mustBuild(t, star())
	s := g.Stats()

	if s.Nodes != 5 || s.Edges != 4 {
		t.Errorf("Expected 5 nodes / 4 edges, got %d / %d", s.Nodes, s.Edges)
	}
	if !approx(s.Density, 0.4) {
		t.Errorf("Density = %f, want 0.4", s.Density)
	}
	if s.Transitivity != 0 {
		t.Errorf("Transitivity = %f, want 0", s.Transitivity)
	}
	if !s.Diameter.Defined() || s.Diameter.Value != 2 {
		t.Errorf("Diameter = %v, want 2", s.Diameter)
	}
	if !errors.Is(s.Reciprocity.Err, internalerr.ErrUndirected) {
		t.Errorf("Reciprocity should report ErrUndirected, got %v", s.Reciprocity.Err)
	}
}

func TestTriangleTransitivity(t *testing.T) {
	g := mustBuild(t, []cooccur.Edge{
		{Source: "a", Target: "b", Weight: 1},
		{Source: "b", Target: "c", Weight: 1},
		{Source: "c", Target: "a", Weight: 1},
		{Source: "c", Target: "d", Weight: 1},
	})

	// 1 triangle, 5 connected triples
	if got := g.Transitivity(); !approx(got, 3.0/5.0) {
		t.Errorf("Transitivity = %f, want 0.6", got)
	}
}

func TestStarHubRanksFirst(t *testing.T) {
	g := mustBuild(t, star())

	degree := g.DegreeCentrality()
	if degree[0] != 1 {
		t.Errorf("Hub degree centrality = %f, want 1", degree[0])
	}
	for id := 1; id < len(degree); id++ {
		if degree[id] >= degree[0] {
			t.Errorf("Leaf %s not strictly below hub", g.Label(int64(id)))
		}
	}

	top := g.Top(degree, DefaultTopK)
	if top[0].Label != "육아휴직" {
		t.Errorf("Top degree = %s, want hub", top[0].Label)
	}

	between := g.BetweennessCentrality()
	if !approx(between[0], 1) || between[1] != 0 {
		t.Errorf("Betweenness = %v, want hub 1 and leaves 0", between)
	}

	closeness := g.ClosenessCentrality()
	if !approx(closeness[0], 1) || !approx(closeness[1], 4.0/7.0) {
		t.Errorf("Closeness = %v, want hub 1 and leaves 4/7", closeness)
	}

	eigen, err := g.EigenvectorCentrality()
	if err != nil {
		t.Fatalf("EigenvectorCentrality: %v", err)
	}
	if g.Top(eigen, 1)[0].Label != "육아휴직" {
		t.Errorf("Expected hub first by eigenvector, got %v", g.Top(eigen, 3))
	}
}

func TestTopTiesByInsertionOrder(t *testing.T) {
	g := mustBuild(t, []cooccur.Edge{
		{Source: "c", Target: "a", Weight: 1},
		{Source: "b", Target: "d", Weight: 1},
	})

	top := g.Top(g.DegreeCentrality(), 3)
	var labels []string
	for _, r := range top {
		labels = append(labels, r.Label)
	}
	if got := strings.Join(labels, ","); got != "c,a,b" {
		t.Errorf("Top = %s, want c,a,b", got)
	}
}

func TestDisconnectedGraph(t *testing.T) {
	g := mustBuild(t, []cooccur.Edge{
		{Source: "a", Target: "b", Weight: 1},
		{Source: "c", Target: "d", Weight: 1},
		{Source: "d", Target: "e", Weight: 1},
	})

	if _, err := g.Diameter(); !errors.Is(err, internalerr.ErrDisconnected) {
		t.Errorf("Diameter: expected ErrDisconnected, got %v", err)
	}
	if _, err := g.EigenvectorCentrality(); !errors.Is(err, internalerr.ErrDisconnected) {
		t.Errorf("Eigenvector: expected ErrDisconnected, got %v", err)
	}

	scores, err := g.EigenvectorLargestComponent()
	if err != nil {
		t.Fatalf("EigenvectorLargestComponent: %v", err)
	}
	if scores[0] != 0 || scores[1] != 0 {
		t.Errorf("Nodes outside largest component should score 0, got %v", scores)
	}
	if g.Top(scores, 1)[0].Label != "d" {
		t.Errorf("Expected centre of c-d-e first, got %v", g.Top(scores, 3))
	}

	if n := len(g.Components()); n != 2 {
		t.Errorf("Components = %d, want 2", n)
	}
}

func TestAnalyzeFallsBackOnDisconnectedGraph(t *testing.T) {
	g := mustBuild(t, []cooccur.Edge{
		{Source: "a", Target: "b", Weight: 1},
		{Source: "c", Target: "d", Weight: 1},
		{Source: "d", Target: "e", Weight: 1},
	})

	r, err := Analyze(g, 0)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(r.Centrality) != len(Measures) {
		t.Fatalf("Expected %d measures, got %d", len(Measures), len(r.Centrality))
	}
	eig, ok := r.Get(Eigenvector)
	if !ok || eig.Err != nil || eig.Note == "" {
		t.Errorf("Expected eigenvector fallback, got %+v", eig)
	}
	if r.Stats.Diameter.Defined() {
		t.Error("Diameter should be undefined on a disconnected graph")
	}

	var buf bytes.Buffer
	if err := r.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"diameter: undefined", "reciprocity: undefined", "eigenvector centrality (largest connected component)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Report missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeEmptyGraph(t *testing.T) {
	g := mustBuild(t, nil)
	if _, err := Analyze(g, 3); !errors.Is(err, internalerr.ErrEmptyGraph) {
		t.Errorf("Expected ErrEmptyGraph, got %v", err)
	}
}

func pathGraph(n int) []cooccur.Edge {
	edges := make([]cooccur.Edge, n)
	for i := range edges {
		edges[i] = cooccur.Edge{Source: fmt.Sprintf("n%d", i), Target: fmt.Sprintf("n%d", i+1), Weight: 1}
	}
	return edges
}

func TestEigenvectorNotConverged(t *testing.T) {
	g := mustBuild(t, pathGraph(300))

	if _, err := g.EigenvectorCentrality(); !errors.Is(err, internalerr.ErrNotConverged) {
		t.Fatalf("Expected ErrNotConverged, got %v", err)
	}

	r, err := Analyze(g, 3)
	if err != nil {
		t.Fatalf("Analyze should not fail on a non-converging measure: %v", err)
	}
	for _, c := range r.Centrality {
		if c.Measure == Eigenvector {
			if !errors.Is(c.Err, internalerr.ErrNotConverged) || c.Top != nil {
				t.Errorf("Eigenvector result = %+v", c)
			}
			continue
		}
		if c.Err != nil || len(c.Top) != 3 {
			t.Errorf("%s: err=%v top=%d", c.Measure, c.Err, len(c.Top))
		}
	}
}

func TestSubgraph(t *testing.T) {
	g := mustBuild(t, []cooccur.Edge{
		{Source: "a", Target: "b", Weight: 2},
		{Source: "c", Target: "d", Weight: 1},
		{Source: "b", Target: "e", Weight: 1},
	})
	a, _ := g.ID("a")
	b, _ := g.ID("b")
	e, _ := g.ID("e")

	sub, err := g.Subgraph([]int64{a, b, e})
	if err != nil {
		t.Fatalf("Subgraph: %v", err)
	}
	if got := strings.Join(sub.Labels(), ","); got != "a,b,e" {
		t.Errorf("Labels = %s", got)
	}
	if sub.EdgeCount() != 2 || sub.Weight(0, 1) != 2 {
		t.Errorf("edges=%d weight=%f", sub.EdgeCount(), sub.Weight(0, 1))
	}
}

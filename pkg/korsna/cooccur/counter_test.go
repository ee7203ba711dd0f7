package cooccur

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestCounterBothOrderingsMerge(t *testing.T) {
	counter := NewCounter()
	counter.AddDocument([]string{"a", "b"})
	counter.AddDocument([]string{"b", "a"})

	edges := counter.Edges(nil)
	want := []Edge{{Source: "a", Target: "b", Weight: 2}}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("Edges = %v, want %v", edges, want)
	}

	if counter.PairCount("b", "a") != 2 {
		t.Errorf("PairCount should be symmetric, got %d", counter.PairCount("b", "a"))
	}
}

func TestCounterForumExample(t *testing.T) {
	posts := []string{"휴직 신청 방법", "신청 방법 문의"}
	target := TargetSet([]string{"휴직", "신청", "방법", "문의"})

	counter := NewCounter()
	for _, p := range posts {
		counter.AddDocument(FilterDocument(strings.Fields(p), target))
	}

	want := []Edge{
		{Source: "휴직", Target: "신청", Weight: 1},
		{Source: "휴직", Target: "방법", Weight: 1},
		{Source: "신청", Target: "방법", Weight: 2},
		{Source: "신청", Target: "문의", Weight: 1},
		{Source: "방법", Target: "문의", Weight: 1},
	}
	if got := counter.Edges(target); !reflect.DeepEqual(got, want) {
		t.Errorf("Edges = %v, want %v", got, want)
	}
}

func TestCounterDuplicateTokensCountOnce(t *testing.T) {
	counter := NewCounter()
	counter.AddDocument([]string{"a", "b", "a", "b", "a"})

	if counter.PairCount("a", "b") != 1 {
		t.Errorf("Expected one co-occurrence per document, got %d", counter.PairCount("a", "b"))
	}
	if counter.DF("a") != 1 {
		t.Errorf("DF(a) = %d, want 1", counter.DF("a"))
	}
}

func TestCounterNoSelfLoops(t *testing.T) {
	counter := NewCounter()
	counter.AddDocument([]string{"a", "a"})

	if counter.UniquePairs() != 0 {
		t.Errorf("Expected no pairs, got %v", counter.Edges(nil))
	}
}

func TestEdgesFilterRequiresBothEndpoints(t *testing.T) {
	counter := NewCounter()
	counter.AddDocument([]string{"a", "b", "c"})

	edges := counter.Edges(TargetSet([]string{"a", "b"}))
	if len(edges) != 1 || edges[0].Source != "a" || edges[0].Target != "b" {
		t.Errorf("Expected only (a,b), got %v", edges)
	}
}

func TestCounterMultipleDocuments(t *testing.T) {
	counter := NewCounter()

	docs := [][]string{
		{"a", "b"},
		{"a", "c"},
		{"b", "c"},
		{"a", "b", "c"},
	}
	for _, doc := range docs {
		counter.AddDocument(doc)
	}

	if counter.TotalDocs() != 4 {
		t.Errorf("Expected 4 docs, got %d", counter.TotalDocs())
	}
	if counter.DF("a") != 3 {
		t.Errorf("Token 'a' should appear in 3 docs, got %d", counter.DF("a"))
	}
	for _, pair := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}} {
		if n := counter.PairCount(pair[0], pair[1]); n != 2 {
			t.Errorf("Pair %v should co-occur 2 times, got %d", pair, n)
		}
	}
	if counter.UniqueTokens() != 3 || counter.UniquePairs() != 3 {
		t.Errorf("Expected 3 tokens and 3 pairs, got %d and %d", counter.UniqueTokens(), counter.UniquePairs())
	}
}

func TestUniqueKeepsFirstAppearance(t *testing.T) {
	got := Unique([]string{"c", "a", "c", "", "b", "a"})
	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Unique = %v, want %v", got, want)
	}
}

func TestNPMI(t *testing.T) {
	calc := NewCalculator(1.0)

	if got := calc.NPMI(0, 5, 5, 100); got != 0 {
		t.Errorf("NPMI without co-occurrence = %f, want 0", got)
	}

	strong := calc.NPMI(10, 10, 10, 100)
	weak := calc.NPMI(1, 50, 50, 100)
	if strong <= weak {
		t.Errorf("Expected tightly coupled pair to score higher: %f <= %f", strong, weak)
	}
	if math.Abs(strong) > 1.0+1e-9 {
		t.Errorf("NPMI out of range: %f", strong)
	}
}

func TestScoreAndStrongest(t *testing.T) {
	counter := NewCounter()
	counter.AddDocument([]string{"a", "b"})
	counter.AddDocument([]string{"a", "b"})
	counter.AddDocument([]string{"a", "c"})
	counter.AddDocument([]string{"d"})
	counter.AddDocument([]string{"d"})
	counter.AddDocument([]string{"d"})

	scored := NewCalculator(1.0).Score(counter, counter.Edges(nil))
	if len(scored) != 2 {
		t.Fatalf("Expected 2 scored edges, got %d", len(scored))
	}

	top := Strongest(scored, 1)
	if len(top) != 1 || top[0].Target != "b" {
		t.Errorf("Expected (a,b) strongest, got %+v", top)
	}
}

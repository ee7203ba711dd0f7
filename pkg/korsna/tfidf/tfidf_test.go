package tfidf

import (
	"math"
	"reflect"
	"testing"
)

func TestDictionaryAssignsSortedIDsPerDocument(t *testing.T) {
	dict := NewDictionary([][]string{
		{"z", "y", "y"},
		{"x", "y"},
	})

	want := map[string]int{"y": 0, "z": 1, "x": 2}
	for tok, id := range want {
		got, ok := dict.ID(tok)
		if !ok || got != id {
			t.Errorf("ID(%q) = %d, %v; want %d", tok, got, ok, id)
		}
	}

	if dict.DF("y") != 2 {
		t.Errorf("DF(y) = %d, want 2", dict.DF("y"))
	}
	if dict.NumDocs() != 2 {
		t.Errorf("NumDocs = %d, want 2", dict.NumDocs())
	}
}

func TestDoc2BOW(t *testing.T) {
	dict := NewDictionary([][]string{{"b", "a"}})

	got := dict.Doc2BOW([]string{"b", "a", "b", "unknown"})
	want := BOW{{ID: 0, Count: 1}, {ID: 1, Count: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Doc2BOW = %v, want %v", got, want)
	}
}

func TestModelDropsUbiquitousTerms(t *testing.T) {
	docs := [][]string{{"a", "b"}, {"a", "c"}}
	dict := NewDictionary(docs)
	corpus := dict.Corpus(docs)
	model := NewModel(corpus)

	vec := model.Transform(corpus[0])
	if len(vec) != 1 {
		t.Fatalf("Expected 1 weighted term, got %v", vec)
	}
	if dict.Token(vec[0].ID) != "b" {
		t.Errorf("Expected 'b', got %q", dict.Token(vec[0].ID))
	}
	if math.Abs(vec[0].Value-1.0) > 1e-12 {
		t.Errorf("Single-term vector should be unit length, got %f", vec[0].Value)
	}
}

func TestTransformIsUnitLength(t *testing.T) {
	docs := [][]string{
		{"a", "b", "b"},
		{"c"},
		{"d", "a"},
	}
	dict := NewDictionary(docs)
	corpus := dict.Corpus(docs)
	model := NewModel(corpus)

	for i, bow := range corpus {
		var sum float64
		for _, w := range model.Transform(bow) {
			sum += w.Value * w.Value
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("doc %d: squared norm = %f, want 1", i, sum)
		}
	}
}

func TestTermWeightsFirstSeenOrder(t *testing.T) {
	docs := [][]string{{"b", "a"}, {"c"}, {"a"}}
	dict := NewDictionary(docs)
	corpus := dict.Corpus(docs)
	acc := TermWeights(dict, NewModel(corpus), corpus)

	got := Terms(acc.Terms())
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms = %v, want %v", got, want)
	}

	// "a" appears in two of three docs, each time as the only or dominant term.
	w, ok := acc.Get("a")
	if !ok || w <= 0 {
		t.Errorf("Expected positive weight for 'a', got %f", w)
	}
}

func TestRankThresholdInclusive(t *testing.T) {
	weights := []TermWeight{
		{Term: "경계", Weight: 5.0},
		{Term: "미달", Weight: 4.999},
		{Term: "상위", Weight: 7.5},
	}

	got := Terms(Rank(weights, DefaultThreshold))
	want := []string{"상위", "경계"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rank = %v, want %v", got, want)
	}
}

func TestRankTiesKeepInsertionOrder(t *testing.T) {
	weights := []TermWeight{
		{Term: "first", Weight: 6},
		{Term: "second", Weight: 6},
		{Term: "top", Weight: 9},
	}

	got := Terms(Rank(weights, 0))
	want := []string{"top", "first", "second"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rank = %v, want %v", got, want)
	}
	if weights[0].Term != "first" {
		t.Error("Rank must not reorder its input")
	}
}

func TestHighWeightTermsEmpty(t *testing.T) {
	ranked, acc := HighWeightTerms(nil, DefaultThreshold)
	if len(ranked) != 0 || acc.Len() != 0 {
		t.Errorf("Expected no terms, got %v", ranked)
	}
}

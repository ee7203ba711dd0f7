package tfidf

import (
	"math"
	"sort"
)

// DefaultThreshold is the summed weight a term needs to enter the target vocabulary.
const DefaultThreshold = 5.0

const eps = 1e-12

// Model weights bag-of-words vectors by term frequency and inverse document frequency.
//
//	idf(t) = log2(N / df(t))
//	w(t,d) = tf(t,d) * idf(t), then L2-normalised per document
//
// Terms present in every document have zero idf and are dropped from the output.
type Model struct {
	numDocs int64
	dfs     map[int]int64
	idfs    map[int]float64
}

// NewModel fits document frequencies on a corpus.
func NewModel(corpus []BOW) *Model {
	m := &Model{
		numDocs: int64(len(corpus)),
		dfs:     make(map[int]int64),
		idfs:    make(map[int]float64),
	}
	for _, bow := range corpus {
		for _, e := range bow {
			m.dfs[e.ID]++
		}
	}
	for id, df := range m.dfs {
		m.idfs[id] = math.Log2(float64(m.numDocs) / float64(df))
	}
	return m
}

// IDF returns the inverse document frequency for a token id.
func (m *Model) IDF(id int) float64 {
	return m.idfs[id]
}

// Weight is a weighted vector entry.
type Weight struct {
	ID    int
	Value float64
}

// Transform converts a bag-of-words vector into a unit-length TF-IDF vector.
func (m *Model) Transform(bow BOW) []Weight {
	vec := make([]Weight, 0, len(bow))
	for _, e := range bow {
		idf := m.idfs[e.ID]
		if idf == 0 {
			continue
		}
		vec = append(vec, Weight{ID: e.ID, Value: float64(e.Count) * idf})
	}

	var norm float64
	for _, w := range vec {
		norm += w.Value * w.Value
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)

	out := vec[:0]
	for _, w := range vec {
		w.Value /= norm
		if math.Abs(w.Value) > eps {
			out = append(out, w)
		}
	}
	return out
}

// TermWeight is a term with its summed TF-IDF weight.
type TermWeight struct {
	Term   string
	Weight float64
}

// Accumulator sums weights per term and remembers first-seen order.
type Accumulator struct {
	index map[string]int
	terms []TermWeight
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{index: make(map[string]int)}
}

// Add adds value to the running sum of term.
func (a *Accumulator) Add(term string, value float64) {
	if i, ok := a.index[term]; ok {
		a.terms[i].Weight += value
		return
	}
	a.index[term] = len(a.terms)
	a.terms = append(a.terms, TermWeight{Term: term, Weight: value})
}

// Get returns the summed weight of term.
func (a *Accumulator) Get(term string) (float64, bool) {
	i, ok := a.index[term]
	if !ok {
		return 0, false
	}
	return a.terms[i].Weight, true
}

// Terms returns the accumulated weights in first-seen order.
func (a *Accumulator) Terms() []TermWeight {
	out := make([]TermWeight, len(a.terms))
	copy(out, a.terms)
	return out
}

// Len returns the number of distinct terms.
func (a *Accumulator) Len() int {
	return len(a.terms)
}

// TermWeights sums the TF-IDF weight of every term across all documents.
// Documents are walked in order and entries within a document in id order.
func TermWeights(dict *Dictionary, model *Model, corpus []BOW) *Accumulator {
	acc := NewAccumulator()
	for _, bow := range corpus {
		for _, w := range model.Transform(bow) {
			acc.Add(dict.Token(w.ID), w.Value)
		}
	}
	return acc
}

// Rank orders terms by descending weight, ties by first-seen order, and keeps
// the terms whose weight is at least threshold.
func Rank(weights []TermWeight, threshold float64) []TermWeight {
	ranked := make([]TermWeight, len(weights))
	copy(ranked, weights)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weight > ranked[j].Weight
	})

	out := ranked[:0]
	for _, tw := range ranked {
		if tw.Weight >= threshold {
			out = append(out, tw)
		}
	}
	return out
}

// Terms extracts the term strings from ranked weights.
func Terms(weights []TermWeight) []string {
	out := make([]string, len(weights))
	for i, tw := range weights {
		out[i] = tw.Term
	}
	return out
}

// HighWeightTerms runs dictionary, model and ranking over tokenized documents.
func HighWeightTerms(docs [][]string, threshold float64) ([]TermWeight, *Accumulator) {
	dict := NewDictionary(docs)
	corpus := dict.Corpus(docs)
	model := NewModel(corpus)
	acc := TermWeights(dict, model, corpus)
	return Rank(acc.Terms(), threshold), acc
}

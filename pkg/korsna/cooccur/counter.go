package cooccur

// Pair is an unordered term pair stored in the orientation it was first seen.
type Pair struct {
	A, B string
}

// Edge is a co-occurrence edge with the number of documents containing both terms.
type Edge struct {
	Source string
	Target string
	Weight int64
}

// Counter accumulates document-level co-occurrence counts.
type Counter struct {
	n      int64
	df     map[string]int64
	counts map[Pair]int64
	order  []Pair
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{
		df:     make(map[string]int64),
		counts: make(map[Pair]int64),
	}
}

// Unique returns the distinct non-empty tokens of a document in first-appearance order.
func Unique(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// AddDocument counts every unordered pair of distinct tokens in the document once.
func (c *Counter) AddDocument(tokens []string) {
	c.n++

	unique := Unique(tokens)
	for _, t := range unique {
		c.df[t]++
	}

	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			c.increment(unique[i], unique[j])
		}
	}
}

func (c *Counter) increment(a, b string) {
	if p := (Pair{A: a, B: b}); c.counts[p] > 0 {
		c.counts[p]++
		return
	}
	if p := (Pair{A: b, B: a}); c.counts[p] > 0 {
		c.counts[p]++
		return
	}
	p := Pair{A: a, B: b}
	c.counts[p] = 1
	c.order = append(c.order, p)
}

// PairCount returns the co-occurrence count of two tokens in either order.
func (c *Counter) PairCount(a, b string) int64 {
	if n := c.counts[Pair{A: a, B: b}]; n > 0 {
		return n
	}
	return c.counts[Pair{A: b, B: a}]
}

// DF returns the number of documents containing token.
func (c *Counter) DF(token string) int64 {
	return c.df[token]
}

// TotalDocs returns the number of documents added.
func (c *Counter) TotalDocs() int64 {
	return c.n
}

// UniqueTokens returns the number of distinct tokens seen.
func (c *Counter) UniqueTokens() int {
	return len(c.df)
}

// UniquePairs returns the number of distinct unordered pairs seen.
func (c *Counter) UniquePairs() int {
	return len(c.order)
}

// Edges returns the pairs whose endpoints are both in target, in first-seen order.
// A nil target keeps every pair.
func (c *Counter) Edges(target map[string]struct{}) []Edge {
	edges := make([]Edge, 0, len(c.order))
	for _, p := range c.order {
		if target != nil {
			if _, ok := target[p.A]; !ok {
				continue
			}
			if _, ok := target[p.B]; !ok {
				continue
			}
		}
		edges = append(edges, Edge{Source: p.A, Target: p.B, Weight: c.counts[p]})
	}
	return edges
}

// TargetSet builds a lookup set from a term list.
func TargetSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}

// FilterDocument keeps only the tokens that belong to target, preserving order.
func FilterDocument(tokens []string, target map[string]struct{}) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := target[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

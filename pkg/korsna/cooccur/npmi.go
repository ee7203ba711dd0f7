package cooccur

import (
	"math"
	"sort"
)

// Calculator scores term associations from document counts.
type Calculator struct {
	epsilon float64 // smoothing constant
}

// NewCalculator creates a calculator with the given smoothing constant.
func NewCalculator(epsilon float64) *Calculator {
	if epsilon <= 0 {
		epsilon = 1.0
	}
	return &Calculator{epsilon: epsilon}
}

// PMI calculates the pointwise mutual information of two terms.
//
// PMI(a,b) = log((N_ab + ε) * N / ((N_a + ε)(N_b + ε)))
func (c *Calculator) PMI(nAB, nA, nB, n int64) float64 {
	if n == 0 {
		return 0
	}
	numerator := (float64(nAB) + c.epsilon) * float64(n)
	denominator := (float64(nA) + c.epsilon) * (float64(nB) + c.epsilon)
	return math.Log(numerator / denominator)
}

// NPMI calculates normalised PMI, PMI(a,b) / -log(P(a,b)).
// Returns 0 when the pair never co-occurs or P(a,b) rounds to 1.
func (c *Calculator) NPMI(nAB, nA, nB, n int64) float64 {
	if n == 0 || nAB == 0 {
		return 0
	}
	pAB := (float64(nAB) + c.epsilon) / float64(n)
	logPAB := math.Log(pAB)
	if logPAB >= 0 {
		return 0
	}
	return c.PMI(nAB, nA, nB, n) / -logPAB
}

// ScoredEdge is an edge with its association strength.
type ScoredEdge struct {
	Edge
	NPMI float64
}

// Score attaches NPMI to every edge using the counter's document frequencies.
func (c *Calculator) Score(counter *Counter, edges []Edge) []ScoredEdge {
	out := make([]ScoredEdge, len(edges))
	n := counter.TotalDocs()
	for i, e := range edges {
		out[i] = ScoredEdge{
			Edge: e,
			NPMI: c.NPMI(e.Weight, counter.DF(e.Source), counter.DF(e.Target), n),
		}
	}
	return out
}

// Strongest returns the k edges with the highest NPMI, ties by input order.
func Strongest(scored []ScoredEdge, k int) []ScoredEdge {
	ranked := make([]ScoredEdge, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].NPMI > ranked[j].NPMI
	})
	if k >= 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

package stoplist

import "sort"

// Stats holds per-term corpus statistics for candidate evaluation
type Stats struct {
	Token     string
	DF        int64
	DFPercent float64
	TFIDF     float64 // summed TF-IDF weight across documents
}

// Candidate represents a candidate stopword
type Candidate struct {
	Token  string
	Reason Reason
	Score  float64 // confidence score
}

// Reason explains why a token was suggested
type Reason struct {
	HighDF   bool // appears in a large share of documents
	LowTFIDF bool // contributes little weight despite its frequency
}

// Thresholds defines criteria for stopword identification
type Thresholds struct {
	DFPercent float64 // e.g. 30 - appears in 30% of documents
	TFIDF     float64 // summed weight below which a frequent term is uninformative
	MinLength int     // tokens shorter than this (in runes) are always suggested
}

// DefaultThresholds returns the thresholds used by the CLI.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DFPercent: 30.0,
		TFIDF:     5.0,
		MinLength: 2,
	}
}

// SuggestCandidates proposes stopwords from corpus statistics.
// It never mutates the manager; callers curate the returned list.
func (m *Manager) SuggestCandidates(stats []Stats, thresholds Thresholds) []Candidate {
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}

	var candidates []Candidate
	for _, s := range stats {
		if m.IsStop(s.Token) {
			continue // already a stopword
		}

		reason := Reason{
			HighDF:   s.DFPercent >= thresholds.DFPercent,
			LowTFIDF: s.TFIDF < thresholds.TFIDF,
		}
		short := thresholds.MinLength > 0 && len([]rune(s.Token)) < thresholds.MinLength

		if !(reason.HighDF && reason.LowTFIDF) && !short {
			continue
		}

		score := s.DFPercent / 100.0
		if thresholds.TFIDF > 0 && s.TFIDF < thresholds.TFIDF {
			score += 1.0 - s.TFIDF/thresholds.TFIDF
		}
		if short {
			score += 1.0
		}
		candidates = append(candidates, Candidate{
			Token:  s.Token,
			Reason: reason,
			Score:  score / 2.0,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// Package topic fits an LDA topic model over the nouns of each post.
package topic

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/james-bowman/nlp"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/korsna/pkg/korsna/internalerr"
)

// Outlier is the topic id given to documents whose topic is too small or
// that carry no vocabulary.
const Outlier = -1

// Options controls the model.
type Options struct {
	Topics       int
	TopWords     int
	MaxFeatures  int
	MinTopicSize int
	Iterations   int
}

// DefaultOptions returns the settings used by the topics stage.
func DefaultOptions() Options {
	return Options{
		Topics:       10,
		TopWords:     10,
		MaxFeatures:  3000,
		MinTopicSize: 5,
		Iterations:   100,
	}
}

// Assignment is the dominant topic of one document.
type Assignment struct {
	Topic       int
	Probability float64
}

// Word is a topic word with its weight in the topic.
type Word struct {
	Term   string
	Weight float64
}

// Topic summarises one topic after outlier collapse.
type Topic struct {
	ID    int
	Size  int
	Words []Word
}

// Model is a fitted topic model.
type Model struct {
	Assignments []Assignment
	Topics      []Topic
	Vocabulary  []string
	Outliers    int
}

// Fit fits the model. docs holds the nouns of each document.
func Fit(docs [][]string, opts Options) (*Model, error) {
	if opts.Topics <= 0 || opts.MaxFeatures <= 0 {
		return nil, fmt.Errorf("topics=%d max_features=%d: %w", opts.Topics, opts.MaxFeatures, internalerr.ErrInvalidConfig)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents: %w", internalerr.ErrInvalidInput)
	}

	vocab := Vocabulary(docs, opts.MaxFeatures)
	if len(vocab) == 0 {
		return nil, fmt.Errorf("empty vocabulary: %w", internalerr.ErrInvalidInput)
	}
	keep := make(map[string]struct{}, len(vocab))
	for _, w := range vocab {
		keep[w] = struct{}{}
	}

	corpus := make([]string, len(docs))
	empty := make([]bool, len(docs))
	for i, doc := range docs {
		var words []string
		for _, w := range doc {
			if _, ok := keep[w]; ok {
				words = append(words, w)
			}
		}
		empty[i] = len(words) == 0
		corpus[i] = strings.Join(words, " ")
	}

	vectoriser := nlp.NewCountVectoriser()
	vectoriser.Tokeniser = fieldTokeniser{}
	lda := nlp.NewLatentDirichletAllocation(opts.Topics)
	if opts.Iterations > 0 {
		lda.Iterations = opts.Iterations
		lda.TransformationPasses = max(opts.Iterations/2, 1)
	}

	pipeline := nlp.NewPipeline(vectoriser, lda)
	docsOverTopics, err := pipeline.FitTransform(corpus...)
	if err != nil {
		return nil, fmt.Errorf("fit lda: %w", err)
	}

	m := &Model{Vocabulary: vocab}
	m.Assignments = dominant(docsOverTopics, empty)
	m.Topics = summarise(lda.Components(), vectoriser, opts)
	m.collapse(opts.MinTopicSize)
	return m, nil
}

// fieldTokeniser splits on whitespace only, so nouns such as 2023년 reach
// the vectoriser unchanged.
type fieldTokeniser struct{}

func (fieldTokeniser) ForEachIn(text string, f func(token string)) {
	for _, w := range strings.Fields(text) {
		f(w)
	}
}

func (fieldTokeniser) Tokenise(text string) []string {
	return strings.Fields(text)
}

// Vocabulary returns at most limit distinct words, most frequent first.
// Ties keep first-seen order.
func Vocabulary(docs [][]string, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, doc := range docs {
		for _, w := range doc {
			if w == "" {
				continue
			}
			if _, ok := counts[w]; !ok {
				order = append(order, w)
			}
			counts[w]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

func dominant(docsOverTopics mat.Matrix, empty []bool) []Assignment {
	topics, n := docsOverTopics.Dims()
	out := make([]Assignment, n)
	for doc := 0; doc < n; doc++ {
		if empty[doc] {
			out[doc] = Assignment{Topic: Outlier}
			continue
		}
		best, bestP := 0, docsOverTopics.At(0, doc)
		for t := 1; t < topics; t++ {
			if p := docsOverTopics.At(t, doc); p > bestP {
				best, bestP = t, p
			}
		}
		out[doc] = Assignment{Topic: best, Probability: bestP}
	}
	return out
}

func summarise(topicsOverWords mat.Matrix, vectoriser *nlp.CountVectoriser, opts Options) []Topic {
	rows, cols := topicsOverWords.Dims()
	terms := make([]string, len(vectoriser.Vocabulary))
	for w, idx := range vectoriser.Vocabulary {
		if idx < len(terms) {
			terms[idx] = w
		}
	}

	top := opts.TopWords
	if top <= 0 || top > cols {
		top = cols
	}

	out := make([]Topic, rows)
	for t := 0; t < rows; t++ {
		words := make([]Word, cols)
		for w := 0; w < cols; w++ {
			var term string
			if w < len(terms) {
				term = terms[w]
			}
			words[w] = Word{Term: term, Weight: topicsOverWords.At(t, w)}
		}
		sort.SliceStable(words, func(i, j int) bool { return words[i].Weight > words[j].Weight })
		out[t] = Topic{ID: t, Words: words[:top]}
	}
	return out
}

// collapse moves documents of topics smaller than minSize to Outlier and
// drops those topics from the summary.
func (m *Model) collapse(minSize int) {
	sizes := make(map[int]int)
	for _, a := range m.Assignments {
		if a.Topic != Outlier {
			sizes[a.Topic]++
		}
	}

	small := make(map[int]bool)
	kept := m.Topics[:0]
	for _, t := range m.Topics {
		t.Size = sizes[t.ID]
		if t.Size == 0 || t.Size < minSize {
			small[t.ID] = true
			continue
		}
		kept = append(kept, t)
	}
	m.Topics = kept

	for i, a := range m.Assignments {
		if a.Topic == Outlier || small[a.Topic] {
			m.Assignments[i].Topic = Outlier
			m.Outliers++
		}
	}
}

// Write prints one line per kept topic followed by the outlier count.
func (m *Model) Write(w io.Writer) error {
	for _, t := range m.Topics {
		words := make([]string, len(t.Words))
		for i, wd := range t.Words {
			words[i] = fmt.Sprintf("%s(%.3f)", wd.Term, wd.Weight)
		}
		if _, err := fmt.Fprintf(w, "Topic %d (%d docs): %s\n", t.ID, t.Size, strings.Join(words, ", ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Outliers: %d\n", m.Outliers)
	return err
}

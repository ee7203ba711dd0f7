package ingest

import (
	"strings"

	"github.com/cognicore/korsna/pkg/korsna/textclean"
)

// Post is one forum post after preprocessing.
type Post struct {
	Raw     string
	Cleaned string
	Nouns   []string
}

// Joined returns the nouns joined by single spaces, the on-disk form.
func (p Post) Joined() string {
	return strings.Join(p.Nouns, " ")
}

// Pipeline chains cleaning and noun extraction.
type Pipeline struct {
	tokenizer *Tokenizer
}

// NewPipeline creates a pipeline around tokenizer.
func NewPipeline(tokenizer *Tokenizer) *Pipeline {
	return &Pipeline{tokenizer: tokenizer}
}

// Process cleans raw text and extracts its nouns.
func (p *Pipeline) Process(raw string) Post {
	cleaned := textclean.Clean(raw)
	return Post{
		Raw:     raw,
		Cleaned: cleaned,
		Nouns:   p.tokenizer.Nouns(cleaned),
	}
}

// ProcessCleaned extracts nouns from text that is already clean.
func (p *Pipeline) ProcessCleaned(cleaned string) Post {
	return Post{
		Raw:     cleaned,
		Cleaned: cleaned,
		Nouns:   p.tokenizer.Nouns(cleaned),
	}
}

// ProcessAll runs Process over raw texts in order.
func (p *Pipeline) ProcessAll(raws []string) []Post {
	posts := make([]Post, len(raws))
	for i, raw := range raws {
		posts[i] = p.Process(raw)
	}
	return posts
}

// NounLists extracts the noun slices of posts.
func NounLists(posts []Post) [][]string {
	out := make([][]string, len(posts))
	for i, p := range posts {
		out[i] = p.Nouns
	}
	return out
}

package tfidf

import "sort"

// Dictionary maps tokens to dense integer ids.
//
// Ids are assigned as documents are added: the tokens of a document that are
// not yet known receive consecutive ids in lexical order.
type Dictionary struct {
	token2id map[string]int
	id2token []string
	dfs      []int64 // document frequency per id
	numDocs  int64
}

// NewDictionary builds a dictionary from tokenized documents.
func NewDictionary(docs [][]string) *Dictionary {
	d := &Dictionary{token2id: make(map[string]int)}
	for _, doc := range docs {
		d.AddDocument(doc)
	}
	return d
}

// AddDocument registers the tokens of one document and updates document frequencies.
func (d *Dictionary) AddDocument(tokens []string) {
	d.numDocs++

	counts := countTokens(tokens)
	var missing []string
	for tok := range counts {
		if _, ok := d.token2id[tok]; !ok {
			missing = append(missing, tok)
		}
	}
	sort.Strings(missing)
	for _, tok := range missing {
		d.token2id[tok] = len(d.id2token)
		d.id2token = append(d.id2token, tok)
		d.dfs = append(d.dfs, 0)
	}
	for tok := range counts {
		d.dfs[d.token2id[tok]]++
	}
}

// ID returns the id of a token.
func (d *Dictionary) ID(token string) (int, bool) {
	id, ok := d.token2id[token]
	return id, ok
}

// Token returns the token for an id, or "" when out of range.
func (d *Dictionary) Token(id int) string {
	if id < 0 || id >= len(d.id2token) {
		return ""
	}
	return d.id2token[id]
}

// Len returns the number of distinct tokens.
func (d *Dictionary) Len() int {
	return len(d.id2token)
}

// NumDocs returns the number of documents added.
func (d *Dictionary) NumDocs() int64 {
	return d.numDocs
}

// DF returns the document frequency of a token.
func (d *Dictionary) DF(token string) int64 {
	id, ok := d.token2id[token]
	if !ok {
		return 0
	}
	return d.dfs[id]
}

// Entry is one (id, count) pair of a bag-of-words vector.
type Entry struct {
	ID    int
	Count int64
}

// BOW is a sparse bag-of-words vector sorted by id.
type BOW []Entry

// Doc2BOW converts tokens into a bag-of-words vector. Unknown tokens are ignored.
func (d *Dictionary) Doc2BOW(tokens []string) BOW {
	counts := countTokens(tokens)
	bow := make(BOW, 0, len(counts))
	for tok, n := range counts {
		if id, ok := d.token2id[tok]; ok {
			bow = append(bow, Entry{ID: id, Count: n})
		}
	}
	sort.Slice(bow, func(i, j int) bool {
		return bow[i].ID < bow[j].ID
	})
	return bow
}

// Corpus converts every document into its bag-of-words vector.
func (d *Dictionary) Corpus(docs [][]string) []BOW {
	corpus := make([]BOW, len(docs))
	for i, doc := range docs {
		corpus[i] = d.Doc2BOW(doc)
	}
	return corpus
}

func countTokens(tokens []string) map[string]int64 {
	counts := make(map[string]int64, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		counts[tok]++
	}
	return counts
}

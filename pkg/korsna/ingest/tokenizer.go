package ingest

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMinRunes is the shortest noun kept, counted in runes.
const DefaultMinRunes = 2

// defaultSuffixes are particles and endings that attach to a noun inside an
// eojeol. They are tried longest first.
var defaultSuffixes = []string{
	// case and auxiliary particles
	"은", "는", "이", "가", "을", "를", "의", "에", "도", "만", "와", "과", "로", "랑",
	"으로", "에서", "에게", "한테", "께서", "까지", "부터", "보다", "처럼", "마다", "이나",
	"이랑", "하고", "라도", "밖에", "조차", "에는", "에도", "으로는", "에서는", "이라도",
	"이라", "이란", "이면", "이고",
	// copula and light-verb endings
	"이에요", "예요", "입니다", "이다", "인데", "인가요", "이죠", "이요",
	"하다", "해요", "했어요", "합니다", "했습니다", "하는", "해서", "했는데", "하면",
	"하려고", "하나요", "할까요", "하기", "하고요", "했다", "되다", "돼요", "됐어요",
	"되나요", "되는", "되면", "중인데", "중이에요",
}

// defaultKeep are nouns whose final syllable looks like a particle.
var defaultKeep = []string{"아이", "어린이", "어린이집", "아기", "회사", "남편", "부부", "부모"}

// Tokenizer extracts noun candidates from cleaned Korean text.
//
// Each whitespace separated word is treated as one eojeol; trailing
// particles are stripped from it when the remaining stem still has at least
// MinRunes runes. Stopword matching is exact and case-sensitive.
type Tokenizer struct {
	stopwords map[string]struct{}
	keep      map[string]struct{}
	suffixes  []string
	minRunes  int
}

// NewTokenizer creates a tokenizer with the given stopword list.
func NewTokenizer(stopwords []string) *Tokenizer {
	t := &Tokenizer{
		stopwords: make(map[string]struct{}, len(stopwords)),
		keep:      make(map[string]struct{}, len(defaultKeep)),
		minRunes:  DefaultMinRunes,
	}
	for _, w := range stopwords {
		t.AddStopword(w)
	}
	for _, w := range defaultKeep {
		t.keep[w] = struct{}{}
	}
	t.SetSuffixes(defaultSuffixes)
	return t
}

// SetSuffixes replaces the particle list.
func (t *Tokenizer) SetSuffixes(suffixes []string) {
	t.suffixes = append([]string(nil), suffixes...)
	sort.SliceStable(t.suffixes, func(i, j int) bool {
		return utf8.RuneCountInString(t.suffixes[i]) > utf8.RuneCountInString(t.suffixes[j])
	})
}

// SetMinRunes changes the shortest noun kept.
func (t *Tokenizer) SetMinRunes(n int) {
	if n < 1 {
		n = 1
	}
	t.minRunes = n
}

// Keep marks words that must never be stripped.
func (t *Tokenizer) Keep(words ...string) {
	for _, w := range words {
		t.keep[w] = struct{}{}
	}
}

// AddStopword adds a word to the stopword list
func (t *Tokenizer) AddStopword(word string) {
	if word == "" {
		return
	}
	t.stopwords[word] = struct{}{}
}

// RemoveStopword removes a word from the stopword list
func (t *Tokenizer) RemoveStopword(word string) {
	delete(t.stopwords, word)
}

// Nouns returns the noun candidates of text in order, duplicates included.
func (t *Tokenizer) Nouns(text string) []string {
	var nouns []string
	for _, word := range strings.Fields(text) {
		if noun := t.processToken(word); noun != "" {
			nouns = append(nouns, noun)
		}
	}
	return nouns
}

// processToken strips particles and applies length, numeric and stopword filters.
func (t *Tokenizer) processToken(word string) string {
	word = t.stem(word)
	if utf8.RuneCountInString(word) < t.minRunes {
		return ""
	}

	// Pure-numeric tokens carry no meaning on their own; "3개월" is kept.
	if isNumericOnly(word) {
		return ""
	}

	if t.isStopword(word) {
		return ""
	}
	return word
}

func (t *Tokenizer) stem(word string) string {
	if _, ok := t.keep[word]; ok {
		return word
	}
	if !endsInHangul(word) {
		return word
	}
	for _, suf := range t.suffixes {
		if !strings.HasSuffix(word, suf) {
			continue
		}
		stem := strings.TrimSuffix(word, suf)
		if utf8.RuneCountInString(stem) < t.minRunes {
			continue
		}
		return stem
	}
	return word
}

func endsInHangul(word string) bool {
	r, _ := utf8.DecodeLastRuneInString(word)
	return unicode.Is(unicode.Hangul, r)
}

// isNumericOnly returns true if the token contains only digits.
func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func (t *Tokenizer) isStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}

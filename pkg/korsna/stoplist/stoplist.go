package stoplist

import (
	"sort"
	"strings"
)

// Manager holds an exact-match stopword set.
// Matching is case-sensitive; tokens are compared byte for byte.
type Manager struct {
	stops map[string]struct{}
}

// NewManager creates a new stoplist manager
func NewManager(initialStops []string) *Manager {
	stops := make(map[string]struct{}, len(initialStops))
	for _, s := range initialStops {
		if s == "" {
			continue
		}
		stops[s] = struct{}{}
	}
	return &Manager{stops: stops}
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[token]
	return ok
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string) {
	if token == "" {
		return
	}
	m.stops[token] = struct{}{}
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, token)
}

// All returns all stopwords in sorted order
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Len returns the number of stopwords
func (m *Manager) Len() int {
	return len(m.stops)
}

// FilterTokens drops every stopword occurrence from tokens, keeping order.
func (m *Manager) FilterTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" || m.IsStop(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// FilterText splits text on whitespace, removes every stopword occurrence
// and joins the remaining words with single spaces.
func (m *Manager) FilterText(text string) string {
	return strings.Join(m.FilterTokens(strings.Fields(text)), " ")
}

// RemoveFirst removes the first occurrence of word from words.
// Absent words are a no-op. The input slice is not modified.
func RemoveFirst(words []string, word string) []string {
	for i, w := range words {
		if w != word {
			continue
		}
		out := make([]string, 0, len(words)-1)
		out = append(out, words[:i]...)
		return append(out, words[i+1:]...)
	}
	return words
}

// RemoveEach applies RemoveFirst for every entry of removeList, in order.
// A word listed twice in removeList removes up to two occurrences.
func RemoveEach(words, removeList []string) []string {
	for _, w := range removeList {
		words = RemoveFirst(words, w)
	}
	return words
}

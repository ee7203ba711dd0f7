package stoplist

import (
	"reflect"
	"testing"
)

func TestManagerBasic(t *testing.T) {
	stops := []string{"것", "수", "육아휴직"}
	mgr := NewManager(stops)

	if !mgr.IsStop("육아휴직") {
		t.Error("'육아휴직' should be a stopword")
	}

	if mgr.IsStop("신청") {
		t.Error("'신청' should not be a stopword")
	}
}

func TestManagerCaseSensitive(t *testing.T) {
	mgr := NewManager([]string{"ok"})

	if mgr.IsStop("OK") {
		t.Error("stopword matching must be case-sensitive")
	}
}

func TestManagerAddRemove(t *testing.T) {
	mgr := NewManager([]string{"것"})

	mgr.Add("문의")
	if !mgr.IsStop("문의") {
		t.Error("'문의' should be stopword after adding")
	}

	mgr.Remove("문의")
	if mgr.IsStop("문의") {
		t.Error("'문의' should not be stopword after removing")
	}

	// Empty tokens are ignored
	mgr.Add("")
	if mgr.Len() != 1 {
		t.Errorf("Expected 1 stopword, got %d", mgr.Len())
	}
}

func TestManagerAllSorted(t *testing.T) {
	mgr := NewManager([]string{"중", "것", "수"})

	got := mgr.All()
	want := []string{"것", "수", "중"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("All() = %v, want %v", got, want)
	}
}

func TestFilterTextRemovesEveryOccurrence(t *testing.T) {
	mgr := NewManager([]string{"것"})

	got := mgr.FilterText("것 신청 것 방법 것")
	if got != "신청 방법" {
		t.Errorf("FilterText = %q, want %q", got, "신청 방법")
	}
}

func TestFilterTextAbsentStopwordIsIdentity(t *testing.T) {
	mgr := NewManager([]string{"없는단어"})

	texts := []string{"휴직 신청 방법", "신청 방법 문의", ""}
	for _, text := range texts {
		if got := mgr.FilterText(text); got != text {
			t.Errorf("FilterText(%q) = %q, want unchanged", text, got)
		}
	}
}

func TestFilterTokensEmpty(t *testing.T) {
	mgr := NewManager([]string{"것"})

	got := mgr.FilterTokens(nil)
	if len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}
}

func TestRemoveFirst(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		word  string
		want  []string
	}{
		{
			name:  "removes only first occurrence",
			words: []string{"a", "b", "a", "c"},
			word:  "a",
			want:  []string{"b", "a", "c"},
		},
		{
			name:  "absent word is a no-op",
			words: []string{"a", "b"},
			word:  "z",
			want:  []string{"a", "b"},
		},
		{
			name:  "last element",
			words: []string{"a", "b"},
			word:  "b",
			want:  []string{"a"},
		},
		{
			name:  "empty input",
			words: nil,
			word:  "a",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemoveFirst(tt.words, tt.word)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RemoveFirst(%v, %q) = %v, want %v", tt.words, tt.word, got, tt.want)
			}
		})
	}
}

func TestRemoveFirstDoesNotMutateInput(t *testing.T) {
	words := []string{"a", "b", "c"}
	_ = RemoveFirst(words, "a")

	if !reflect.DeepEqual(words, []string{"a", "b", "c"}) {
		t.Errorf("input mutated: %v", words)
	}
}

func TestRemoveEach(t *testing.T) {
	ranked := []string{"신청", "방법", "진짜", "신청", "문의"}
	removeList := []string{"진짜", "신청", "없음"}

	got := RemoveEach(ranked, removeList)
	want := []string{"방법", "신청", "문의"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RemoveEach = %v, want %v", got, want)
	}
}

func TestSuggestCandidates(t *testing.T) {
	mgr := NewManager([]string{"것"})

	stats := []Stats{
		// already a stopword
		{Token: "것", DFPercent: 90, TFIDF: 0.5},
		// frequent, low weight
		{Token: "진짜", DFPercent: 45, TFIDF: 1.2},
		// informative
		{Token: "어린이집", DFPercent: 20, TFIDF: 12},
		// single rune
		{Token: "애", DFPercent: 5, TFIDF: 8},
	}

	candidates := mgr.SuggestCandidates(stats, DefaultThresholds())
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d: %+v", len(candidates), candidates)
	}

	found := make(map[string]bool)
	for _, c := range candidates {
		found[c.Token] = true
	}
	if !found["진짜"] || !found["애"] {
		t.Errorf("Expected '진짜' and '애' as candidates, got %+v", candidates)
	}
	if found["어린이집"] {
		t.Error("'어린이집' should not be suggested")
	}
}

func TestSuggestCandidatesSortedByScore(t *testing.T) {
	mgr := NewManager(nil)

	stats := []Stats{
		{Token: "그냥", DFPercent: 35, TFIDF: 4},
		{Token: "진짜", DFPercent: 80, TFIDF: 0.5},
	}

	candidates := mgr.SuggestCandidates(stats, Thresholds{})
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Token != "진짜" {
		t.Errorf("Expected highest score first, got %q", candidates[0].Token)
	}
}

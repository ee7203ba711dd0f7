package topic

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/cognicore/korsna/pkg/korsna/internalerr"
)

func forumDocs() [][]string {
	leave := []string{"육아휴직", "회사", "신청", "급여", "복직"}
	care := []string{"어린이집", "아이", "등원", "선생님", "적응"}
	var docs [][]string
	for i := 0; i < 12; i++ {
		docs = append(docs, leave, care)
	}
	return docs
}

func TestVocabulary(t *testing.T) {
	docs := [][]string{{"b", "a", "b"}, {"c", "a", ""}, {"b"}}
	got := Vocabulary(docs, 2)
	if !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Vocabulary = %v", got)
	}
	if got := Vocabulary(docs, 10); !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("Vocabulary = %v", got)
	}
}

func TestFitStructure(t *testing.T) {
	docs := forumDocs()
	docs = append(docs, []string{}) // no vocabulary

	opts := Options{Topics: 2, TopWords: 3, MaxFeatures: 100, MinTopicSize: 0, Iterations: 20}
	m, err := Fit(docs, opts)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if len(m.Assignments) != len(docs) {
		t.Fatalf("Assignments = %d, want %d", len(m.Assignments), len(docs))
	}
	last := m.Assignments[len(docs)-1]
	if last.Topic != Outlier || last.Probability != 0 {
		t.Errorf("Empty document should be an outlier, got %+v", last)
	}

	total := m.Outliers
	for _, tp := range m.Topics {
		if len(tp.Words) != 3 {
			t.Errorf("Topic %d has %d words", tp.ID, len(tp.Words))
		}
		for i := 1; i < len(tp.Words); i++ {
			if tp.Words[i].Weight > tp.Words[i-1].Weight {
				t.Errorf("Topic %d words not sorted: %+v", tp.ID, tp.Words)
			}
		}
		total += tp.Size
	}
	if total != len(docs) {
		t.Errorf("Topic sizes plus outliers = %d, want %d", total, len(docs))
	}
	for i, a := range m.Assignments[:len(docs)-1] {
		if a.Topic < 0 || a.Topic >= 2 {
			t.Errorf("doc %d: topic %d out of range", i, a.Topic)
		}
		if a.Probability <= 0 || a.Probability > 1+1e-9 {
			t.Errorf("doc %d: probability %v", i, a.Probability)
		}
	}
}

func TestFitCollapsesSmallTopics(t *testing.T) {
	docs := forumDocs()
	m, err := Fit(docs, Options{Topics: 2, TopWords: 2, MaxFeatures: 100, MinTopicSize: len(docs) + 1, Iterations: 10})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(m.Topics) != 0 || m.Outliers != len(docs) {
		t.Errorf("Expected every document to be an outlier: topics=%d outliers=%d", len(m.Topics), m.Outliers)
	}
	for _, a := range m.Assignments {
		if a.Topic != Outlier {
			t.Fatalf("Assignment %+v should be an outlier", a)
		}
	}

	var buf bytes.Buffer
	if err := m.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Outliers: 24") {
		t.Errorf("Report = %q", buf.String())
	}
}

func TestFitErrors(t *testing.T) {
	if _, err := Fit(nil, DefaultOptions()); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if _, err := Fit([][]string{{}}, DefaultOptions()); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty vocabulary, got %v", err)
	}
	opts := DefaultOptions()
	opts.Topics = 0
	if _, err := Fit(forumDocs(), opts); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestFitKeepsNounsIntact(t *testing.T) {
	leave := []string{"2023년", "육아휴직", "15일", "급여"}
	care := []string{"어린이집", "3세", "등원"}
	var docs [][]string
	for i := 0; i < 6; i++ {
		docs = append(docs, leave, care)
	}

	m, err := Fit(docs, Options{Topics: 2, TopWords: 10, MaxFeatures: 100, Iterations: 10})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	vocab := make(map[string]bool)
	for _, w := range m.Vocabulary {
		vocab[w] = true
	}
	seen := make(map[string]bool)
	for _, tp := range m.Topics {
		for _, w := range tp.Words {
			if !vocab[w.Term] {
				t.Errorf("Topic %d word %q is not in the vocabulary", tp.ID, w.Term)
			}
			seen[w.Term] = true
		}
	}
	for _, want := range []string{"2023년", "15일", "3세"} {
		if len(m.Topics) > 0 && !seen[want] {
			t.Errorf("Topic words lost %q: %+v", want, m.Topics)
		}
	}
}

func TestFieldTokeniser(t *testing.T) {
	got := fieldTokeniser{}.Tokenise(" 2023년  육아휴직\t15일 ")
	if !reflect.DeepEqual(got, []string{"2023년", "육아휴직", "15일"}) {
		t.Errorf("Tokenise = %q", got)
	}
	var each []string
	fieldTokeniser{}.ForEachIn("a b", func(tok string) { each = append(each, tok) })
	if !reflect.DeepEqual(each, []string{"a", "b"}) {
		t.Errorf("ForEachIn = %q", each)
	}
}

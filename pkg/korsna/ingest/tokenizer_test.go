package ingest

import (
	"reflect"
	"testing"
)

func TestNouns(t *testing.T) {
	tokenizer := NewTokenizer([]string{"육아휴직", "것"})

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "particles stripped",
			in:   "회사에서 급여를 신청했어요",
			want: []string{"회사", "급여", "신청"},
		},
		{
			name: "stopwords dropped after stemming",
			in:   "육아휴직은 것 복직이",
			want: []string{"복직"},
		},
		{
			name: "short stem left intact",
			in:   "아이가 문의",
			want: []string{"아이", "문의"},
		},
		{
			name: "protected noun kept",
			in:   "어린이 어린이집",
			want: []string{"어린이", "어린이집"},
		},
		{
			name: "numbers and single runes dropped",
			in:   "2024 3개월 애 OK",
			want: []string{"3개월", "OK"},
		},
		{
			name: "duplicates preserved",
			in:   "휴직 휴직을 휴직",
			want: []string{"휴직", "휴직", "휴직"},
		},
		{
			name: "empty",
			in:   "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenizer.Nouns(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Nouns(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenizerStopwordCaseSensitive(t *testing.T) {
	tokenizer := NewTokenizer([]string{"ok"})

	got := tokenizer.Nouns("OK ok")
	if !reflect.DeepEqual(got, []string{"OK"}) {
		t.Errorf("Nouns = %v, want [OK]", got)
	}
}

func TestTokenizerAddRemoveStopword(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokenizer.AddStopword("문의")
	if got := tokenizer.Nouns("문의 신청"); !reflect.DeepEqual(got, []string{"신청"}) {
		t.Errorf("Nouns = %v, want [신청]", got)
	}

	tokenizer.RemoveStopword("문의")
	if got := tokenizer.Nouns("문의 신청"); len(got) != 2 {
		t.Errorf("Nouns = %v, want 2 tokens", got)
	}
}

func TestPipelineProcess(t *testing.T) {
	p := NewPipeline(NewTokenizer([]string{"육아휴직"}))

	post := p.Process("육아휴직 신청 방법이 궁금해요!! https://cafe.naver.com/x")
	if post.Cleaned != "육아휴직 신청 방법이 궁금해요 " {
		t.Errorf("Cleaned = %q", post.Cleaned)
	}
	want := []string{"신청", "방법", "궁금"}
	if !reflect.DeepEqual(post.Nouns, want) {
		t.Errorf("Nouns = %v, want %v", post.Nouns, want)
	}
	if post.Joined() != "신청 방법 궁금" {
		t.Errorf("Joined = %q", post.Joined())
	}
}

func TestNounLists(t *testing.T) {
	p := NewPipeline(NewTokenizer(nil))
	lists := NounLists(p.ProcessAll([]string{"휴직 신청", "방법 문의"}))

	want := [][]string{{"휴직", "신청"}, {"방법", "문의"}}
	if !reflect.DeepEqual(lists, want) {
		t.Errorf("NounLists = %v, want %v", lists, want)
	}
}

package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/korsna/pkg/korsna/cooccur"
	"github.com/cognicore/korsna/pkg/korsna/internalerr"
)

// Default file names of each stage.
const (
	CrawlingFile     = "Crawling.csv"
	PreprocessedFile = "preprocessed.csv"
	NounsFile        = "nouns.csv"
	EdgesFile        = "SNA_df.csv"
	TopicsFile       = "topics.csv"
	CommunitiesFile  = "communities.csv"
)

// Column names.
const (
	ColTitle        = "Title"
	ColDetail       = "Detail"
	ColNew          = "new"
	ColPost         = "post"
	ColPreprocessed = "post_preprocessed"
	ColNouns        = "nouns"
	ColSource       = "Source"
	ColTarget       = "Target"
	ColWeight       = "Weight"
	ColTopic        = "topic"
	ColProbability  = "probability"
	ColLabel        = "Label"
	ColCluster      = "cluster_num"
)

// CrawledPost is one row of the crawler output.
type CrawledPost struct {
	Title  string
	Detail string
}

// Combined returns title and body joined by one space.
func (p CrawledPost) Combined() string {
	return p.Title + " " + p.Detail
}

// WriteCrawling writes Title, Detail, new.
func WriteCrawling(path string, posts []CrawledPost) error {
	f := NewFrame(ColTitle, ColDetail, ColNew)
	for _, p := range posts {
		f.Append(p.Title, p.Detail, p.Combined())
	}
	return f.WriteFile(path, false)
}

// ReadCrawling returns the combined post text of every crawled row.
func ReadCrawling(path string, enc Encoding) ([]string, error) {
	f, err := ReadFile(path, enc, ColNew)
	if err != nil {
		return nil, err
	}
	return f.Column(ColNew)
}

// PreprocessedRow pairs raw post text with its cleaned form.
type PreprocessedRow struct {
	Post         string
	Preprocessed string
}

// WritePreprocessed writes post, post_preprocessed.
func WritePreprocessed(path string, rows []PreprocessedRow) error {
	f := NewFrame(ColPost, ColPreprocessed)
	for _, r := range rows {
		f.Append(r.Post, r.Preprocessed)
	}
	return f.WriteFile(path, false)
}

// ReadPreprocessed reads post, post_preprocessed.
func ReadPreprocessed(path string, enc Encoding) ([]PreprocessedRow, error) {
	f, err := ReadFile(path, enc, ColPost, ColPreprocessed)
	if err != nil {
		return nil, err
	}
	rows := make([]PreprocessedRow, f.Len())
	for i := range rows {
		rows[i] = PreprocessedRow{Post: f.Get(i, ColPost), Preprocessed: f.Get(i, ColPreprocessed)}
	}
	return rows, nil
}

// ReadCleanedTexts returns the post_preprocessed column.
func ReadCleanedTexts(path string, enc Encoding) ([]string, error) {
	f, err := ReadFile(path, enc, ColPreprocessed)
	if err != nil {
		return nil, err
	}
	return f.Column(ColPreprocessed)
}

// NounsRow is one row of the noun table.
type NounsRow struct {
	Preprocessed string
	Nouns        []string
}

// WriteNouns writes an index column, post_preprocessed and space-joined nouns.
func WriteNouns(path string, rows []NounsRow) error {
	f := NewFrame(ColPreprocessed, ColNouns)
	for _, r := range rows {
		f.Append(r.Preprocessed, strings.Join(r.Nouns, " "))
	}
	return f.WriteFile(path, true)
}

// ReadNouns returns the noun list of every row. Any file with a nouns column
// is accepted; empty cells yield empty lists.
func ReadNouns(path string, enc Encoding) ([][]string, error) {
	f, err := ReadFile(path, enc, ColNouns)
	if err != nil {
		return nil, err
	}
	col, err := f.Column(ColNouns)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(col))
	for i, cell := range col {
		out[i] = strings.Fields(cell)
	}
	return out, nil
}

// WriteEdges writes Source, Target, Weight without an index column.
func WriteEdges(path string, edges []cooccur.Edge) error {
	f := NewFrame(ColSource, ColTarget, ColWeight)
	for _, e := range edges {
		f.Append(e.Source, e.Target, strconv.FormatInt(e.Weight, 10))
	}
	return f.WriteFile(path, false)
}

// ReadEdges reads Source, Target, Weight. Weights must be positive integers.
func ReadEdges(path string, enc Encoding) ([]cooccur.Edge, error) {
	f, err := ReadFile(path, enc, ColSource, ColTarget, ColWeight)
	if err != nil {
		return nil, err
	}
	edges := make([]cooccur.Edge, f.Len())
	for i := range edges {
		raw := f.Get(i, ColWeight)
		w, err := parseWeight(raw)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: weight %q: %w", path, i+1, raw, internalerr.ErrMalformedRow)
		}
		edges[i] = cooccur.Edge{
			Source: f.Get(i, ColSource),
			Target: f.Get(i, ColTarget),
			Weight: w,
		}
	}
	return edges, nil
}

// parseWeight accepts integers and integral floats such as "3.0".
func parseWeight(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if w, err := strconv.ParseInt(s, 10, 64); err == nil {
		if w < 1 {
			return 0, fmt.Errorf("weight %d < 1", w)
		}
		return w, nil
	}
	fw, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if fw < 1 || fw != float64(int64(fw)) {
		return 0, fmt.Errorf("weight %v is not a positive integer", fw)
	}
	return int64(fw), nil
}

// TopicRow assigns one document to its dominant topic.
type TopicRow struct {
	Text        string
	Topic       int
	Probability float64
}

// WriteTopics writes post_preprocessed, topic, probability.
func WriteTopics(path string, rows []TopicRow) error {
	f := NewFrame(ColPreprocessed, ColTopic, ColProbability)
	for _, r := range rows {
		f.Append(r.Text, strconv.Itoa(r.Topic), strconv.FormatFloat(r.Probability, 'f', 6, 64))
	}
	return f.WriteFile(path, false)
}

// CommunityRow is one node with its community id.
type CommunityRow struct {
	Label     string
	Community int
}

// WriteCommunities writes Label, cluster_num.
func WriteCommunities(path string, rows []CommunityRow) error {
	f := NewFrame(ColLabel, ColCluster)
	for _, r := range rows {
		f.Append(r.Label, strconv.Itoa(r.Community))
	}
	return f.WriteFile(path, false)
}

// ReadCommunities reads Label, cluster_num.
func ReadCommunities(path string, enc Encoding) ([]CommunityRow, error) {
	f, err := ReadFile(path, enc, ColLabel, ColCluster)
	if err != nil {
		return nil, err
	}
	rows := make([]CommunityRow, f.Len())
	for i := range rows {
		raw := f.Get(i, ColCluster)
		c, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: cluster %q: %w", path, i+1, raw, internalerr.ErrMalformedRow)
		}
		rows[i] = CommunityRow{Label: f.Get(i, ColLabel), Community: c}
	}
	return rows, nil
}

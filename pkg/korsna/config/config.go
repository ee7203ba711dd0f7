package config

import (
	"fmt"
	"time"

	"github.com/cognicore/korsna/pkg/korsna/internalerr"
	"github.com/cognicore/korsna/pkg/korsna/table"
)

// Config holds every tunable of the pipeline.
type Config struct {
	Paths     Paths           `yaml:"paths" mapstructure:"paths"`
	Encoding  string          `yaml:"encoding" mapstructure:"encoding"`
	Crawler   CrawlerConfig   `yaml:"crawler" mapstructure:"crawler"`
	SNA       SNAConfig       `yaml:"sna" mapstructure:"sna"`
	Community CommunityConfig `yaml:"community" mapstructure:"community"`
	Topic     TopicConfig     `yaml:"topic" mapstructure:"topic"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
}

// Paths names the files exchanged between stages.
type Paths struct {
	Crawling     string `yaml:"crawling" mapstructure:"crawling"`
	Preprocessed string `yaml:"preprocessed" mapstructure:"preprocessed"`
	Nouns        string `yaml:"nouns" mapstructure:"nouns"`
	Edges        string `yaml:"edges" mapstructure:"edges"`
	Topics       string `yaml:"topics" mapstructure:"topics"`
	Communities  string `yaml:"communities" mapstructure:"communities"`
}

// CrawlerConfig describes the board to crawl.
type CrawlerConfig struct {
	BoardURL       string        `yaml:"board_url" mapstructure:"board_url"`
	Boards         []string      `yaml:"boards" mapstructure:"boards"`
	Keyword        string        `yaml:"keyword" mapstructure:"keyword"`
	Pages          int           `yaml:"pages" mapstructure:"pages"`
	PerPage        int           `yaml:"per_page" mapstructure:"per_page"`
	RequestsPerSec float64       `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	RespectRobots  bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	ListSelector   string        `yaml:"list_selector" mapstructure:"list_selector"`
	TitleSelector  string        `yaml:"title_selector" mapstructure:"title_selector"`
	BodySelector   string        `yaml:"body_selector" mapstructure:"body_selector"`
	BodyFallback   string        `yaml:"body_fallback" mapstructure:"body_fallback"`
}

// SNAConfig controls vocabulary filtering and graph reporting.
type SNAConfig struct {
	Threshold      float64  `yaml:"threshold" mapstructure:"threshold"`
	Stopwords      []string `yaml:"stopwords" mapstructure:"stopwords"`
	StopwordsFile  string   `yaml:"stopwords_file" mapstructure:"stopwords_file"`
	RemoveList     []string `yaml:"remove_list" mapstructure:"remove_list"`
	RemoveListFile string   `yaml:"remove_list_file" mapstructure:"remove_list_file"`
	TopK           int      `yaml:"top_k" mapstructure:"top_k"`
	Epsilon        float64  `yaml:"npmi_epsilon" mapstructure:"npmi_epsilon"`
}

// CommunityConfig controls Louvain detection.
type CommunityConfig struct {
	Resolution float64 `yaml:"resolution" mapstructure:"resolution"`
	Seed       uint64  `yaml:"seed" mapstructure:"seed"`
	Weighted   bool    `yaml:"weighted" mapstructure:"weighted"`
	TopN       int     `yaml:"top_n" mapstructure:"top_n"`
}

// TopicConfig controls the topic model.
type TopicConfig struct {
	Topics       int `yaml:"topics" mapstructure:"topics"`
	TopWords     int `yaml:"top_words" mapstructure:"top_words"`
	MaxFeatures  int `yaml:"max_features" mapstructure:"max_features"`
	MinTopicSize int `yaml:"min_topic_size" mapstructure:"min_topic_size"`
	Iterations   int `yaml:"iterations" mapstructure:"iterations"`
}

// StoreConfig selects the run store. An empty path keeps runs in memory.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Paths: Paths{
			Crawling:     table.CrawlingFile,
			Preprocessed: table.PreprocessedFile,
			Nouns:        table.NounsFile,
			Edges:        table.EdgesFile,
			Topics:       table.TopicsFile,
			Communities:  table.CommunitiesFile,
		},
		Encoding: string(table.UTF8),
		Crawler: CrawlerConfig{
			BoardURL:       "https://cafe.naver.com/imsanbu",
			Keyword:        "육아휴직",
			Pages:          100,
			PerPage:        15,
			RequestsPerSec: 1,
			Timeout:        30 * time.Second,
			UserAgent:      "korsna/0.1 (+research crawler)",
			RespectRobots:  true,
			ListSelector:   "#main-area table tbody tr td.td_article a.article",
			TitleSelector:  "h3.title_text",
			BodySelector:   "div.se-main-container",
			BodyFallback:   "div.ContentRenderer",
		},
		SNA: SNAConfig{
			Threshold:  5,
			Stopwords:  DefaultStopwords(),
			RemoveList: DefaultRemoveList(),
			TopK:       3,
			Epsilon:    1,
		},
		Community: CommunityConfig{
			Resolution: 1.08,
			Seed:       42,
			Weighted:   false,
			TopN:       10,
		},
		Topic: TopicConfig{
			Topics:       10,
			TopWords:     10,
			MaxFeatures:  3000,
			MinTopicSize: 5,
			Iterations:   100,
		},
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	_, encErr := table.ParseEncoding(c.Encoding)
	check(encErr == nil, fmt.Sprintf("encoding %q unsupported", c.Encoding))
	check(c.SNA.Threshold >= 0, "sna.threshold must be >= 0")
	check(c.SNA.TopK > 0, "sna.top_k must be > 0")
	check(c.Community.Resolution > 0, "community.resolution must be > 0")
	check(c.Community.TopN > 0, "community.top_n must be > 0")
	check(c.Topic.Topics > 0, "topic.topics must be > 0")
	check(c.Topic.TopWords > 0, "topic.top_words must be > 0")
	check(c.Topic.MaxFeatures > 0, "topic.max_features must be > 0")
	check(c.Topic.MinTopicSize >= 0, "topic.min_topic_size must be >= 0")
	check(c.Crawler.Pages > 0, "crawler.pages must be > 0")
	check(c.Crawler.RequestsPerSec > 0, "crawler.requests_per_sec must be > 0")

	if len(problems) > 0 {
		return fmt.Errorf("%v: %w", problems, internalerr.ErrInvalidConfig)
	}
	return nil
}

// TableEncoding returns the parsed input encoding.
func (c Config) TableEncoding() table.Encoding {
	enc, err := table.ParseEncoding(c.Encoding)
	if err != nil {
		return table.UTF8
	}
	return enc
}

// ResolveWordLists replaces inline word lists with the contents of the
// configured files, when set.
func (c *Config) ResolveWordLists() error {
	if c.SNA.StopwordsFile != "" {
		words, err := LoadWordList(c.SNA.StopwordsFile)
		if err != nil {
			return fmt.Errorf("load stopwords: %w", err)
		}
		c.SNA.Stopwords = words
	}
	if c.SNA.RemoveListFile != "" {
		words, err := LoadWordList(c.SNA.RemoveListFile)
		if err != nil {
			return fmt.Errorf("load remove list: %w", err)
		}
		c.SNA.RemoveList = words
	}
	return nil
}

package korsna

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/cognicore/korsna/pkg/korsna/cluster"
	"github.com/cognicore/korsna/pkg/korsna/config"
	"github.com/cognicore/korsna/pkg/korsna/cooccur"
	"github.com/cognicore/korsna/pkg/korsna/crawler"
	"github.com/cognicore/korsna/pkg/korsna/sna"
	"github.com/cognicore/korsna/pkg/korsna/stoplist"
	"github.com/cognicore/korsna/pkg/korsna/store"
	"github.com/cognicore/korsna/pkg/korsna/store/memstore"
	"github.com/cognicore/korsna/pkg/korsna/tfidf"
)

// Engine runs the network stages over noun lists and records each run.
type Engine struct {
	cfg   config.Config
	store store.Store
	now   func() time.Time
}

// Options configures an Engine.
type Options struct {
	Config config.Config
	Store  store.Store // nil keeps runs in memory
}

// New creates an Engine.
func New(opts Options) *Engine {
	st := opts.Store
	if st == nil {
		st = memstore.New()
	}
	return &Engine{cfg: opts.Config, store: st, now: time.Now}
}

// Close closes the underlying store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the run store.
func (e *Engine) Store() store.Store {
	return e.store
}

// Collect drains src, records each post in the store and returns the posts
// in crawl order. Posts already stored under the same URL are skipped.
func (e *Engine) Collect(ctx context.Context, src crawler.Source) ([]crawler.RawPost, error) {
	var out []crawler.RawPost
	for {
		p, ok, err := src.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		if p.URL != "" {
			_, seen, err := e.store.GetPostByURL(ctx, p.URL)
			if err != nil {
				return out, err
			}
			if seen {
				continue
			}
			if err := e.store.UpsertPost(ctx, store.Post{URL: p.URL, Title: p.Title, Body: p.Body, CrawledAt: e.now()}); err != nil {
				return out, fmt.Errorf("store post: %w", err)
			}
		}
		out = append(out, p)
	}
}

// Network is the output of the SNA builder.
type Network struct {
	RunID  string
	Docs   [][]string           // noun lists after stopword filtering
	Ranked []tfidf.TermWeight   // every term, heaviest first
	Target []string             // terms kept for the graph
	Edges  []cooccur.Edge       // pair insertion order
	Scored []cooccur.ScoredEdge // Edges with NPMI
}

// stopwords merges the configured list with the curated list in the store.
func (e *Engine) stopwords(ctx context.Context) (*stoplist.Manager, error) {
	curated, err := e.store.Stoplist(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stoplist: %w", err)
	}
	words := append(append([]string(nil), e.cfg.SNA.Stopwords...), curated...)
	return stoplist.NewManager(words), nil
}

// BuildNetwork filters stopwords, ranks terms by summed TF-IDF, drops the
// remove list from the ranked terms and counts co-occurrences among the
// remaining terms.
func (e *Engine) BuildNetwork(ctx context.Context, docs [][]string) (*Network, error) {
	stops, err := e.stopwords(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([][]string, len(docs))
	for i, doc := range docs {
		filtered[i] = stops.FilterTokens(doc)
	}

	dict := tfidf.NewDictionary(filtered)
	corpus := dict.Corpus(filtered)
	acc := tfidf.TermWeights(dict, tfidf.NewModel(corpus), corpus)
	high := tfidf.Rank(acc.Terms(), e.cfg.SNA.Threshold)
	target := stoplist.RemoveEach(tfidf.Terms(high), e.cfg.SNA.RemoveList)

	counter := cooccur.NewCounter()
	for _, doc := range filtered {
		counter.AddDocument(doc)
	}
	edges := counter.Edges(cooccur.TargetSet(target))

	return &Network{
		Docs:   filtered,
		Ranked: tfidf.Rank(acc.Terms(), math.Inf(-1)),
		Target: target,
		Edges:  edges,
		Scored: cooccur.NewCalculator(e.cfg.SNA.Epsilon).Score(counter, edges),
	}, nil
}

// SNA builds the network and records the terms and edges as a new run.
func (e *Engine) SNA(ctx context.Context, docs [][]string) (*Network, error) {
	run, err := e.startRun(ctx, "sna", len(docs), e.cfg.SNA)
	if err != nil {
		return nil, err
	}
	net, err := e.BuildNetwork(ctx, docs)
	if err == nil {
		net.RunID = run.ID
		err = e.saveNetwork(ctx, run.ID, net)
	}
	return net, e.finishRun(ctx, run.ID, err)
}

func (e *Engine) saveNetwork(ctx context.Context, runID string, net *Network) error {
	included := cooccur.TargetSet(net.Target)
	dict := tfidf.NewDictionary(net.Docs)

	terms := make([]store.Term, len(net.Ranked))
	for i, tw := range net.Ranked {
		_, in := included[tw.Term]
		terms[i] = store.Term{Term: tw.Term, Weight: tw.Weight, DF: dict.DF(tw.Term), Rank: i, Included: in}
	}
	if err := e.store.SaveTerms(ctx, runID, terms); err != nil {
		return fmt.Errorf("save terms: %w", err)
	}

	edges := make([]store.Edge, len(net.Scored))
	for i, se := range net.Scored {
		edges[i] = store.Edge{Pos: i, Source: se.Source, Target: se.Target, Weight: se.Weight, NPMI: se.NPMI}
	}
	if err := e.store.SaveEdges(ctx, runID, edges); err != nil {
		return fmt.Errorf("save edges: %w", err)
	}
	return nil
}

// Analysis is the output of graph analysis.
type Analysis struct {
	Graph  *sna.Graph
	Report *sna.Report
}

// Analyze builds the graph from edges and computes statistics and
// centrality.
func (e *Engine) Analyze(edges []cooccur.Edge) (*Analysis, error) {
	g, err := sna.Build(edges)
	if err != nil {
		return nil, err
	}
	report, err := sna.Analyze(g, e.cfg.SNA.TopK)
	if err != nil {
		return nil, err
	}
	return &Analysis{Graph: g, Report: report}, nil
}

// Communities is the output of community detection.
type Communities struct {
	RunID     string
	Partition *cluster.Partition
	Table     []cluster.Row
	Summaries []cluster.Summary
}

// Communities detects communities in g. With an empty runID a new run is
// recorded; otherwise the partition is attached to that run.
func (e *Engine) Communities(ctx context.Context, g *sna.Graph, runID string) (*Communities, error) {
	owned := runID == ""
	if owned {
		run, err := e.startRun(ctx, "communities", 0, e.cfg.Community)
		if err != nil {
			return nil, err
		}
		runID = run.ID
	}

	res, err := e.detect(g)
	if err == nil {
		res.RunID = runID
		err = e.savePartition(ctx, runID, res)
	}
	if owned {
		err = e.finishRun(ctx, runID, err)
	}
	return res, err
}

func (e *Engine) detect(g *sna.Graph) (*Communities, error) {
	opts := cluster.Options{
		Resolution: e.cfg.Community.Resolution,
		Seed:       e.cfg.Community.Seed,
		Weighted:   e.cfg.Community.Weighted,
	}
	p, err := cluster.Detect(g, opts)
	if err != nil {
		return nil, err
	}
	return &Communities{
		Partition: p,
		Table:     cluster.Table(g, p),
		Summaries: cluster.Summarize(g, p, e.cfg.Community.TopN),
	}, nil
}

func (e *Engine) savePartition(ctx context.Context, runID string, c *Communities) error {
	members := make([]store.Membership, len(c.Table))
	for i, row := range c.Table {
		members[i] = store.Membership{Label: row.Label, Community: row.Community, Degree: row.Degree}
	}
	if err := e.store.SavePartition(ctx, runID, members, c.Partition.Modularity); err != nil {
		return fmt.Errorf("save partition: %w", err)
	}
	return nil
}

// Result bundles every stage of a full run.
type Result struct {
	Network     *Network
	Analysis    *Analysis
	Communities *Communities
}

// Run executes the SNA builder, graph analysis and community detection as
// one recorded run.
func (e *Engine) Run(ctx context.Context, docs [][]string) (*Result, error) {
	run, err := e.startRun(ctx, "run", len(docs), e.cfg)
	if err != nil {
		return nil, err
	}
	res, err := e.run(ctx, run.ID, docs)
	return res, e.finishRun(ctx, run.ID, err)
}

func (e *Engine) run(ctx context.Context, runID string, docs [][]string) (*Result, error) {
	net, err := e.BuildNetwork(ctx, docs)
	if err != nil {
		return nil, err
	}
	net.RunID = runID
	if err := e.saveNetwork(ctx, runID, net); err != nil {
		return nil, err
	}

	analysis, err := e.Analyze(net.Edges)
	if err != nil {
		return &Result{Network: net}, err
	}

	comms, err := e.detect(analysis.Graph)
	if err != nil {
		return &Result{Network: net, Analysis: analysis}, err
	}
	comms.RunID = runID
	if err := e.savePartition(ctx, runID, comms); err != nil {
		return nil, err
	}
	return &Result{Network: net, Analysis: analysis, Communities: comms}, nil
}

// SuggestStopwords proposes stopword candidates from the document
// frequency and summed TF-IDF of every term.
func (e *Engine) SuggestStopwords(ctx context.Context, docs [][]string, th stoplist.Thresholds) ([]stoplist.Candidate, error) {
	stops, err := e.stopwords(ctx)
	if err != nil {
		return nil, err
	}
	dict := tfidf.NewDictionary(docs)
	corpus := dict.Corpus(docs)
	acc := tfidf.TermWeights(dict, tfidf.NewModel(corpus), corpus)

	n := float64(dict.NumDocs())
	stats := make([]stoplist.Stats, 0, dict.Len())
	for id := 0; id < dict.Len(); id++ {
		tok := dict.Token(id)
		df := dict.DF(tok)
		weight, _ := acc.Get(tok)
		s := stoplist.Stats{Token: tok, DF: df, TFIDF: weight}
		if n > 0 {
			s.DFPercent = float64(df) / n * 100
		}
		stats = append(stats, s)
	}
	return stops.SuggestCandidates(stats, th), nil
}

// AcceptStopwords adds tokens to the curated stoplist used by later runs.
func (e *Engine) AcceptStopwords(ctx context.Context, tokens []string) error {
	return e.store.UpsertStoplist(ctx, tokens)
}

func (e *Engine) startRun(ctx context.Context, stage string, docs int, params any) (store.Run, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return store.Run{}, fmt.Errorf("encode params: %w", err)
	}
	run, err := e.store.CreateRun(ctx, store.Run{
		Stage:     stage,
		Params:    string(raw),
		Docs:      docs,
		StartedAt: e.now(),
	})
	if err != nil {
		return store.Run{}, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// finishRun marks the run done or failed and returns runErr unchanged
// unless recording the status itself fails.
func (e *Engine) finishRun(ctx context.Context, id string, runErr error) error {
	status := store.StatusDone
	if runErr != nil {
		status = store.StatusFailed
	}
	if err := e.store.FinishRun(ctx, id, status, e.now()); err != nil && runErr == nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return runErr
}

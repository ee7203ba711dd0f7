package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cognicore/korsna/pkg/korsna/cluster"
	"github.com/cognicore/korsna/pkg/korsna/config"
	"github.com/cognicore/korsna/pkg/korsna/cooccur"
	"github.com/cognicore/korsna/pkg/korsna/crawler"
	"github.com/cognicore/korsna/pkg/korsna/ingest"
	"github.com/cognicore/korsna/pkg/korsna/sna"
	"github.com/cognicore/korsna/pkg/korsna/table"
	"github.com/cognicore/korsna/pkg/korsna/textclean"
	"github.com/cognicore/korsna/pkg/korsna/topic"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl board search results into Crawling.csv",
	RunE:  runCrawl,
}

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Clean Crawling.csv into preprocessed.csv",
	RunE:  runPreprocess,
}

var nounsCmd = &cobra.Command{
	Use:   "nouns",
	Short: "Extract nouns from preprocessed.csv into nouns.csv",
	RunE:  runNouns,
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Fit a topic model over preprocessed.csv",
	RunE:  runTopics,
}

var snaCmd = &cobra.Command{
	Use:   "sna",
	Short: "Build the co-occurrence edge list SNA_df.csv from nouns.csv",
	RunE:  runSNA,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report graph statistics and centrality of SNA_df.csv",
	RunE:  runAnalyze,
}

var communitiesCmd = &cobra.Command{
	Use:   "communities",
	Short: "Detect communities in SNA_df.csv",
	RunE:  runCommunities,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run sna, analyze and communities on nouns.csv as one recorded run",
	RunE:  runAll,
}

func init() {
	crawlCmd.Flags().String("keyword", "", "search keyword")
	crawlCmd.Flags().Int("pages", 0, "pages per board")
	crawlCmd.Flags().String("out", "", "output file")
	bindFlag("crawler.keyword", crawlCmd.Flags().Lookup("keyword"))
	bindFlag("crawler.pages", crawlCmd.Flags().Lookup("pages"))
	bindFlag("paths.crawling", crawlCmd.Flags().Lookup("out"))

	preprocessCmd.Flags().String("in", "", "crawler output")
	preprocessCmd.Flags().String("out", "", "output file")
	bindFlag("paths.crawling", preprocessCmd.Flags().Lookup("in"))
	bindFlag("paths.preprocessed", preprocessCmd.Flags().Lookup("out"))

	nounsCmd.Flags().String("in", "", "preprocessed file")
	nounsCmd.Flags().String("out", "", "output file")
	bindFlag("paths.preprocessed", nounsCmd.Flags().Lookup("in"))
	bindFlag("paths.nouns", nounsCmd.Flags().Lookup("out"))

	topicsCmd.Flags().String("in", "", "preprocessed file")
	topicsCmd.Flags().String("out", "", "output file")
	topicsCmd.Flags().Int("topics", 0, "number of topics")
	bindFlag("paths.preprocessed", topicsCmd.Flags().Lookup("in"))
	bindFlag("paths.topics", topicsCmd.Flags().Lookup("out"))
	bindFlag("topic.topics", topicsCmd.Flags().Lookup("topics"))

	snaCmd.Flags().String("in", "", "file with a nouns column")
	snaCmd.Flags().String("out", "", "edge list")
	snaCmd.Flags().Float64("threshold", 0, "summed TF-IDF threshold")
	bindFlag("paths.nouns", snaCmd.Flags().Lookup("in"))
	bindFlag("paths.edges", snaCmd.Flags().Lookup("out"))
	bindFlag("sna.threshold", snaCmd.Flags().Lookup("threshold"))

	analyzeCmd.Flags().String("in", "", "edge list")
	analyzeCmd.Flags().Int("top", 0, "nodes listed per measure")
	bindFlag("paths.edges", analyzeCmd.Flags().Lookup("in"))
	bindFlag("sna.top_k", analyzeCmd.Flags().Lookup("top"))

	communitiesCmd.Flags().String("in", "", "edge list")
	communitiesCmd.Flags().String("out", "", "community table")
	communitiesCmd.Flags().Float64("resolution", 0, "modularity resolution")
	communitiesCmd.Flags().Uint64("seed", 0, "random seed")
	bindFlag("paths.edges", communitiesCmd.Flags().Lookup("in"))
	bindFlag("paths.communities", communitiesCmd.Flags().Lookup("out"))
	bindFlag("community.resolution", communitiesCmd.Flags().Lookup("resolution"))
	bindFlag("community.seed", communitiesCmd.Flags().Lookup("seed"))

	runCmd.Flags().String("in", "", "file with a nouns column")
	runCmd.Flags().Float64("threshold", 0, "summed TF-IDF threshold")
	bindFlag("paths.nouns", runCmd.Flags().Lookup("in"))
	bindFlag("sna.threshold", runCmd.Flags().Lookup("threshold"))

	rootCmd.AddCommand(crawlCmd, preprocessCmd, nounsCmd, topicsCmd, snaCmd, analyzeCmd, communitiesCmd, runCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	engine, cfg, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	c := cfg.Crawler
	src, err := crawler.NewBoardCrawler(crawler.Options{
		BoardURL:       c.BoardURL,
		Boards:         c.Boards,
		Keyword:        c.Keyword,
		Pages:          c.Pages,
		PerPage:        c.PerPage,
		RequestsPerSec: c.RequestsPerSec,
		Timeout:        c.Timeout,
		UserAgent:      c.UserAgent,
		RespectRobots:  c.RespectRobots,
		ListSelector:   c.ListSelector,
		TitleSelector:  c.TitleSelector,
		BodySelector:   c.BodySelector,
		BodyFallback:   c.BodyFallback,
		Logger:         log.Default(),
	})
	if err != nil {
		return err
	}

	log.Info("crawling", "board", c.BoardURL, "keyword", c.Keyword, "pages", c.Pages)
	posts, err := engine.Collect(ctx, src)
	if err != nil {
		// keep what was collected before the failure
		log.Error("crawl stopped", "err", err, "posts", len(posts))
	}

	rows := make([]table.CrawledPost, len(posts))
	for i, p := range posts {
		rows[i] = table.CrawledPost{Title: p.Title, Detail: p.Body}
	}
	out := stagePath(cfg.Paths.Crawling)
	if werr := table.WriteCrawling(out, rows); werr != nil {
		return werr
	}
	log.Info("wrote posts", "path", out, "posts", len(rows))
	if stored, cerr := engine.Store().CountPosts(ctx); cerr == nil {
		log.Info("run store", "posts", stored)
	}
	return err
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	texts, err := table.ReadCrawling(stagePath(cfg.Paths.Crawling), cfg.TableEncoding())
	if err != nil {
		return err
	}

	rows := make([]table.PreprocessedRow, len(texts))
	for i, text := range texts {
		rows[i] = table.PreprocessedRow{Post: text, Preprocessed: textclean.Clean(text)}
	}
	out := stagePath(cfg.Paths.Preprocessed)
	if err := table.WritePreprocessed(out, rows); err != nil {
		return err
	}
	log.Info("wrote preprocessed posts", "path", out, "posts", len(rows))
	return nil
}

func newTokenizer(cfg config.Config) *ingest.Tokenizer {
	return ingest.NewTokenizer(cfg.SNA.Stopwords)
}

func runNouns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	texts, err := table.ReadCleanedTexts(stagePath(cfg.Paths.Preprocessed), cfg.TableEncoding())
	if err != nil {
		return err
	}

	pipeline := ingest.NewPipeline(newTokenizer(cfg))
	rows := make([]table.NounsRow, len(texts))
	for i, text := range texts {
		post := pipeline.ProcessCleaned(text)
		rows[i] = table.NounsRow{Preprocessed: post.Cleaned, Nouns: post.Nouns}
	}
	out := stagePath(cfg.Paths.Nouns)
	if err := table.WriteNouns(out, rows); err != nil {
		return err
	}
	log.Info("wrote nouns", "path", out, "posts", len(rows))
	return nil
}

func runTopics(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	texts, err := table.ReadCleanedTexts(stagePath(cfg.Paths.Preprocessed), cfg.TableEncoding())
	if err != nil {
		return err
	}

	tok := newTokenizer(cfg)
	docs := make([][]string, len(texts))
	for i, text := range texts {
		docs[i] = tok.Nouns(text)
	}

	tc := cfg.Topic
	model, err := topic.Fit(docs, topic.Options{
		Topics:       tc.Topics,
		TopWords:     tc.TopWords,
		MaxFeatures:  tc.MaxFeatures,
		MinTopicSize: tc.MinTopicSize,
		Iterations:   tc.Iterations,
	})
	if err != nil {
		return err
	}

	rows := make([]table.TopicRow, len(texts))
	for i, a := range model.Assignments {
		rows[i] = table.TopicRow{Text: texts[i], Topic: a.Topic, Probability: a.Probability}
	}
	out := stagePath(cfg.Paths.Topics)
	if err := table.WriteTopics(out, rows); err != nil {
		return err
	}
	log.Info("wrote topics", "path", out, "topics", len(model.Topics), "outliers", model.Outliers)
	return model.Write(cmd.OutOrStdout())
}

func runSNA(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	engine, cfg, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := table.ReadNouns(stagePath(cfg.Paths.Nouns), cfg.TableEncoding())
	if err != nil {
		return err
	}
	net, err := engine.SNA(ctx, docs)
	if err != nil {
		return err
	}

	out := stagePath(cfg.Paths.Edges)
	if err := table.WriteEdges(out, net.Edges); err != nil {
		return err
	}
	log.Info("wrote edges", "path", out, "run", net.RunID, "terms", len(net.Target), "edges", len(net.Edges))
	return writeStrongest(cmd, net.Scored, cfg.SNA.TopK)
}

func writeStrongest(cmd *cobra.Command, scored []cooccur.ScoredEdge, k int) error {
	w := cmd.OutOrStdout()
	for _, se := range cooccur.Strongest(scored, k) {
		if _, err := fmt.Fprintf(w, "%s - %s\tweight=%d\tnpmi=%.4f\n", se.Source, se.Target, se.Weight, se.NPMI); err != nil {
			return err
		}
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	edges, err := table.ReadEdges(stagePath(cfg.Paths.Edges), cfg.TableEncoding())
	if err != nil {
		return err
	}
	g, err := sna.Build(edges)
	if err != nil {
		return err
	}
	report, err := sna.Analyze(g, cfg.SNA.TopK)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout())
}

func runCommunities(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	engine, cfg, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	edges, err := table.ReadEdges(stagePath(cfg.Paths.Edges), cfg.TableEncoding())
	if err != nil {
		return err
	}
	g, err := sna.Build(edges)
	if err != nil {
		return err
	}
	res, err := engine.Communities(ctx, g, "")
	if err != nil {
		return err
	}
	if err := writeCommunities(stagePath(cfg.Paths.Communities), res.Table); err != nil {
		return err
	}
	log.Info("detected communities", "run", res.RunID, "communities", res.Partition.Len(), "modularity", res.Partition.Modularity)
	return cluster.WriteSummary(cmd.OutOrStdout(), res.Partition, res.Summaries)
}

func writeCommunities(out string, ranked []cluster.Row) error {
	rows := make([]table.CommunityRow, len(ranked))
	for i, r := range ranked {
		rows[i] = table.CommunityRow{Label: r.Label, Community: r.Community}
	}
	return table.WriteCommunities(out, rows)
}

func runAll(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	engine, cfg, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := table.ReadNouns(stagePath(cfg.Paths.Nouns), cfg.TableEncoding())
	if err != nil {
		return err
	}
	res, err := engine.Run(ctx, docs)
	if err != nil {
		return err
	}

	if err := table.WriteEdges(stagePath(cfg.Paths.Edges), res.Network.Edges); err != nil {
		return err
	}
	if err := writeCommunities(stagePath(cfg.Paths.Communities), res.Communities.Table); err != nil {
		return err
	}
	log.Info("run finished", "run", res.Network.RunID, "edges", len(res.Network.Edges), "communities", res.Communities.Partition.Len())

	w := cmd.OutOrStdout()
	if err := res.Analysis.Report.Write(w); err != nil {
		return err
	}
	return cluster.WriteSummary(w, res.Communities.Partition, res.Communities.Summaries)
}

package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cognicore/korsna/pkg/korsna/stoplist"
	"github.com/cognicore/korsna/pkg/korsna/table"
)

var (
	suggestAccept  bool
	suggestLimit   int
	suggestDF      float64
	suggestTFIDF   float64
	runsLimit      int
	neighborsLimit int
	showLimit      int
)

var suggestCmd = &cobra.Command{
	Use:   "suggest-stopwords",
	Short: "Suggest stopwords from document frequency and TF-IDF",
	Long: `Suggest stopwords for terms that appear in many posts but carry
little summed TF-IDF weight. With --accept the suggestions are added to
the curated stoplist in the run store and applied to later sna runs.`,
	RunE: runSuggest,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the effective configuration as YAML.

Precedence (highest first):
  1. command line flags
  2. KORSNA_* environment variables (also read from .env)
  3. config file (--config, or korsna.yaml in --dir)
  4. defaults`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if used := viper.ConfigFileUsed(); used != "" {
			log.Info("config file", "path", used)
		}
		out, err := dumpYAML(cfg)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	RunE:  runRuns,
}

var showCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the ranked terms, edges and communities of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var neighborsCmd = &cobra.Command{
	Use:   "neighbors <run-id> <term>",
	Short: "Show the strongest co-occurring terms of a term in a run",
	Args:  cobra.ExactArgs(2),
	RunE:  runNeighbors,
}

func init() {
	defaults := stoplist.DefaultThresholds()
	suggestCmd.Flags().BoolVar(&suggestAccept, "accept", false, "add suggestions to the curated stoplist")
	suggestCmd.Flags().IntVar(&suggestLimit, "limit", 20, "maximum suggestions")
	suggestCmd.Flags().Float64Var(&suggestDF, "df-percent", defaults.DFPercent, "minimum document frequency in percent")
	suggestCmd.Flags().Float64Var(&suggestTFIDF, "tfidf", defaults.TFIDF, "summed TF-IDF below which a term is uninformative")
	suggestCmd.Flags().String("in", "", "file with a nouns column")
	bindFlag("paths.nouns", suggestCmd.Flags().Lookup("in"))

	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs")
	neighborsCmd.Flags().IntVar(&neighborsLimit, "limit", 10, "maximum neighbors")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "maximum terms and edges (0 lists all)")
	runsCmd.AddCommand(neighborsCmd, showCmd)

	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(suggestCmd, configCmd, runsCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
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
	th := stoplist.DefaultThresholds()
	th.DFPercent = suggestDF
	th.TFIDF = suggestTFIDF

	cands, err := engine.SuggestStopwords(ctx, docs, th)
	if err != nil {
		return err
	}
	if suggestLimit > 0 && len(cands) > suggestLimit {
		cands = cands[:suggestLimit]
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOKEN\tSCORE\tHIGH_DF\tLOW_TFIDF")
	tokens := make([]string, len(cands))
	for i, c := range cands {
		tokens[i] = c.Token
		fmt.Fprintf(tw, "%s\t%.3f\t%v\t%v\n", c.Token, c.Score, c.Reason.HighDF, c.Reason.LowTFIDF)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if suggestAccept && len(tokens) > 0 {
		if err := engine.AcceptStopwords(ctx, tokens); err != nil {
			return err
		}
		log.Info("added to stoplist", "tokens", len(tokens))
	}
	return nil
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	engine, _, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	runs, err := engine.Store().ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	posts, err := engine.Store().CountPosts(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTAGE\tSTATUS\tDOCS\tSTARTED\tMODULARITY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%.4f\n",
			r.ID, r.Stage, r.Status, r.Docs, r.StartedAt.Format(time.RFC3339), r.Modularity)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored posts: %d\n", posts)
	return err
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	engine, _, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	st := engine.Store()
	run, err := st.GetRun(ctx, args[0])
	if err != nil {
		return err
	}
	terms, err := st.GetTerms(ctx, run.ID)
	if err != nil {
		return err
	}
	edges, err := st.GetEdges(ctx, run.ID)
	if err != nil {
		return err
	}
	members, err := st.GetPartition(ctx, run.ID)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run %s (%s, %s)\ndocs: %d\nparams: %s\n\n", run.ID, run.Stage, run.Status, run.Docs, run.Params)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTERM\tWEIGHT\tDF\tINCLUDED")
	for _, t := range limited(terms, showLimit) {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%d\t%v\n", t.Rank, t.Term, t.Weight, t.DF, t.Included)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "SOURCE\tTARGET\tWEIGHT\tNPMI")
	for _, e := range limited(edges, showLimit) {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\n", e.Source, e.Target, e.Weight, e.NPMI)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(members) == 0 {
		return nil
	}
	byCommunity := make(map[int][]string)
	maxID := 0
	for _, m := range members {
		byCommunity[m.Community] = append(byCommunity[m.Community], m.Label)
		maxID = max(maxID, m.Community)
	}
	fmt.Fprintf(w, "\nmodularity: %.4f\n", run.Modularity)
	for id := 0; id <= maxID; id++ {
		labels := byCommunity[id]
		if len(labels) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "Community %d (%d nodes): %s\n", id, len(labels), strings.Join(labels, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// limited returns at most n items; n <= 0 keeps everything.
func limited[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func runNeighbors(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	engine, _, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	runID, term := args[0], args[1]
	if _, err := engine.Store().GetRun(ctx, runID); err != nil {
		return err
	}
	neighbors, err := engine.Store().TopNeighbors(ctx, runID, term, neighborsLimit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TERM\tWEIGHT\tNPMI")
	for _, n := range neighbors {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\n", n.Term, n.Weight, n.NPMI)
	}
	return tw.Flush()
}

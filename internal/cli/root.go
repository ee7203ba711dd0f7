package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/korsna/pkg/korsna"
	"github.com/cognicore/korsna/pkg/korsna/config"
	"github.com/cognicore/korsna/pkg/korsna/store"
	"github.com/cognicore/korsna/pkg/korsna/store/memstore"
	"github.com/cognicore/korsna/pkg/korsna/store/sqlite"
)

// Version is set at build time.
var Version = "dev"

var (
	cfgFile string
	verbose bool
	workDir string
)

var rootCmd = &cobra.Command{
	Use:   "korsna",
	Short: "Korean forum text mining and co-occurrence network analysis",
	Long: `korsna crawls forum posts about parental leave, cleans them, extracts
nouns and topics, builds a term co-occurrence network and analyses it.

Stages exchange CSV files in the working directory:
  crawl        -> Crawling.csv
  preprocess   -> preprocessed.csv
  nouns        -> nouns.csv
  topics       -> topics.csv
  sna          -> SNA_df.csv
  analyze      (report only)
  communities  -> communities.csv`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
		initConfig(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "korsna %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./korsna.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", ".", "directory holding the stage files")
	rootCmd.PersistentFlags().String("encoding", "utf-8", "input encoding (utf-8, cp949)")
	rootCmd.PersistentFlags().String("db", "", "SQLite run store (empty keeps runs in memory)")

	bindFlag("encoding", rootCmd.PersistentFlags().Lookup("encoding"))
	bindFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(versionCmd)
}

type binding struct {
	key  string
	flag *pflag.Flag
}

// bindings lists the flags that override config keys. Several commands
// may bind the same key; only flags of the running command that were set
// on the command line are applied.
var bindings []binding

func bindFlag(key string, f *pflag.Flag) {
	bindings = append(bindings, binding{key: key, flag: f})
}

// initConfig loads .env, the config file and KORSNA_* variables.
func initConfig(cmd *cobra.Command) {
	_ = godotenv.Load()

	viper.Reset()
	setDefaults(config.Default())
	for _, b := range bindings {
		if b.flag.Changed && cmd.Flags().Lookup(b.flag.Name) == b.flag {
			_ = viper.BindPFlag(b.key, b.flag)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(workDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("korsna")
	}

	viper.SetEnvPrefix("KORSNA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Debug("using config file", "path", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		log.Warn("config file not read", "path", cfgFile, "err", err)
	}
}

// setDefaults registers every key of cfg with viper so that environment
// variables can override keys the config file does not mention.
func setDefaults(cfg config.Config) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return
	}
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if sub, ok := v.(map[string]any); ok {
				walk(key, sub)
				continue
			}
			viper.SetDefault(key, v)
		}
	}
	walk("", tree)
}

func setupLogger() {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	log.SetDefault(log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	}))
}

// loadConfig resolves the effective configuration.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.ResolveWordLists(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// stagePath resolves a stage file against the working directory.
func stagePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(workDir, name)
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.Store.Path == "" {
		return memstore.New(), nil
	}
	st, err := sqlite.OpenSQLite(ctx, stagePath(cfg.Store.Path))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newEngine loads the config and opens the run store.
func newEngine(ctx context.Context) (*korsna.Engine, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, cfg, err
	}
	return korsna.New(korsna.Options{Config: cfg, Store: st}), cfg, nil
}

func dumpYAML(v any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

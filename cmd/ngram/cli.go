package main

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	ngram "github.com/ieee0824/ngram-go"
	"github.com/ieee0824/ngram-go/config"
	"github.com/ieee0824/ngram-go/corpus"
	"github.com/ieee0824/ngram-go/internal/logutil"
	"github.com/ieee0824/ngram-go/internal/server"
	"github.com/ieee0824/ngram-go/language"
)

// env bundles what every subcommand needs.
type env struct {
	cfg    *config.Config
	corpus *corpus.Corpus
	logger *zap.Logger
}

func (e *env) session(opts ...ngram.Option) (*ngram.Session, error) {
	base := []ngram.Option{
		ngram.WithMaxOrder(e.cfg.MaxOrder),
		ngram.WithLength(e.cfg.Length),
		ngram.WithSeed(e.cfg.Seed),
		ngram.WithFinalWindow(e.cfg.FinalWindow),
		ngram.WithLogger(e.logger),
	}
	return ngram.NewSession(e.corpus, append(base, opts...)...)
}

// setup resolves configuration in order defaults < file < environment <
// flags, then loads the corpus.
func setup(cmd *cobra.Command) (*env, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if flags.Changed("corpus") {
		cfg.Corpus, _ = flags.GetStringSlice("corpus")
	}
	if flags.Changed("max-order") {
		cfg.MaxOrder, _ = flags.GetInt("max-order")
	}
	if flags.Changed("length") {
		cfg.Length, _ = flags.GetInt("length")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("final-window") {
		cfg.FinalWindow, _ = flags.GetBool("final-window")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logutil.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	c, err := corpus.Load(cfg.Corpus...)
	if err != nil {
		return nil, err
	}
	logger.Debug("corpus loaded",
		zap.Strings("files", c.Sources),
		zap.Int("tokens", len(c.Tokens)),
		zap.Int("vocabulary", c.Vocab.Len()))

	return &env{cfg: cfg, corpus: c, logger: logger}, nil
}

func GenerateHandler(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.logger.Sync() //nolint:errcheck

	phrase := strings.Join(args, " ")
	if strings.TrimSpace(phrase) == "" {
		phrase = e.cfg.Start
	}

	sess, err := e.session()
	if err != nil {
		return err
	}
	results, err := sess.Generate(cmd.Context(), corpus.SplitPhrase(phrase))
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%d-gram: %s\n", r.Order, r.Text)
	}
	return nil
}

func PerplexityHandler(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.logger.Sync() //nolint:errcheck

	sess, err := e.session()
	if err != nil {
		return err
	}

	var scores []ngram.Score
	refs, _ := cmd.Flags().GetStringSlice("ref")
	if len(refs) > 0 {
		text, err := corpus.ReadFiles(refs...)
		if err != nil {
			return err
		}
		scores, err = sess.Evaluate(cmd.Context(), language.Preprocess(text))
		if err != nil {
			return err
		}
	} else {
		scores, err = sess.Perplexity(cmd.Context())
		if err != nil {
			return err
		}
	}

	for _, sc := range scores {
		fmt.Fprintf(cmd.OutOrStdout(), "%d-gram perplexity: %.2f\n", sc.Order, sc.Perplexity)
	}
	return nil
}

func ServeHandler(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.logger.Sync() //nolint:errcheck

	ln, err := net.Listen("tcp", e.cfg.Server.Addr)
	if err != nil {
		return err
	}
	return server.New(e.corpus, e.cfg, e.logger).Serve(cmd.Context(), ln)
}

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ngram",
		Short: "N-gram sentence generator and perplexity scorer",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", os.Getenv("NGRAM_CONFIG"), "Path to yaml config file")
	flags.StringSlice("corpus", nil, "Corpus text files (repeat or comma separate)")
	flags.IntP("max-order", "n", 5, "Highest n-gram order to sweep (2-7)")
	flags.IntP("length", "l", 12, "Sentence length in words, start words included (5-30)")
	flags.Uint64("seed", 0, "Random seed (0 picks one per run)")
	flags.Bool("final-window", false, "Also count the window ending on the last corpus token")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")

	cobra.EnableCommandSorting = false

	generateCmd := &cobra.Command{
		Use:   "generate [start words...]",
		Short: "Generate one sentence per n-gram order",
		RunE:  GenerateHandler,
	}

	perplexityCmd := &cobra.Command{
		Use:   "perplexity",
		Short: "Score each n-gram order by perplexity",
		Args:  cobra.NoArgs,
		RunE:  PerplexityHandler,
	}
	perplexityCmd.Flags().StringSlice("ref", nil, "Held-out text files to score (default: the training corpus)")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show frequency table sizes per n-gram order",
		Args:  cobra.NoArgs,
		RunE:  StatsHandler,
	}
	statsCmd.Flags().Int("top", 0, "Also list the most frequent n-grams of --order")
	statsCmd.Flags().Int("order", 2, "Order used by --top")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  ServeHandler,
	}

	rootCmd.AddCommand(
		generateCmd,
		perplexityCmd,
		statsCmd,
		serveCmd,
	)

	return rootCmd
}

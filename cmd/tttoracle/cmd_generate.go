package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/freeeve/tttoracle/internal/board"
	"github.com/freeeve/tttoracle/internal/config"
	"github.com/freeeve/tttoracle/internal/corpus"
	"github.com/freeeve/tttoracle/internal/logx"
)

type generateOptions struct {
	configPath       string
	output           string
	report           string
	parquet          string
	mover            string
	seed             int64
	compatible       bool
	overrideOriginal string
}

func newGenerateCmd(g *globals) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a stratified evaluation corpus",
		Long: `Samples opening, midgame and endgame boards, labels each with its full
optimal move set and writes the corpus together with a report. The corpus is
re-validated before it is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, g, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file (defaults apply when empty)")
	f.StringVar(&opts.output, "output", "", "corpus path (.json or .json.zst)")
	f.StringVar(&opts.report, "report", "", "report path (default <output>_report.json)")
	f.StringVar(&opts.parquet, "parquet", "", "also write the corpus as parquet")
	f.StringVar(&opts.mover, "mover", "", "mover policy: auto, X or O")
	f.Int64Var(&opts.seed, "seed", 0, "random seed (0 draws a fresh one)")
	f.BoolVar(&opts.compatible, "compatible", false, "write the single-answer compatible shape")
	f.StringVar(&opts.overrideOriginal, "override-original", "", "write a compatible corpus over this existing single-answer file")
	return cmd
}

func runGenerate(cmd *cobra.Command, g *globals, opts *generateOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyGenerateFlags(cmd, &cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := g.log
	if opts.configPath != "" && !cmd.Flags().Changed("log-level") && !cmd.Flags().Changed("log-format") {
		log = logx.NewLogger(logx.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Out: cmd.ErrOrStderr()})
	}

	mover, err := moverPolicy(cfg.Corpus.Mover)
	if err != nil {
		return err
	}
	src, seed := corpus.NewSource(cfg.Corpus.Seed)
	log.Info().
		Int("opening", cfg.Corpus.Quotas.Opening).
		Int("midgame", cfg.Corpus.Quotas.Midgame).
		Int("endgame", cfg.Corpus.Quotas.Endgame).
		Int64("seed", seed).
		Str("mover", cfg.Corpus.Mover).
		Str("mode", cfg.Output.Mode).
		Msg("generating corpus")

	start := time.Now()
	gen := corpus.NewGenerator(corpus.GeneratorConfig{
		Opening:     cfg.Corpus.Quotas.Opening,
		Midgame:     cfg.Corpus.Quotas.Midgame,
		Endgame:     cfg.Corpus.Quotas.Endgame,
		MaxAttempts: cfg.Corpus.MaxAttempts,
		Mover:       mover,
	}, src, log)
	cases, stats, err := gen.Generate(cmd.Context())
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if n := stats.SkippedTotal(); n > 0 {
		log.Warn().Int("skipped", n).Int("generated", len(cases)).Msg("corpus is under quota")
	}

	val := corpus.Validate(cases, log)
	if val.ParseFailures > 0 || val.Unanswerable > 0 {
		return fmt.Errorf("validation failed: %d parse failures, %d unanswerable", val.ParseFailures, val.Unanswerable)
	}

	mode := corpus.Mode(cfg.Output.Mode)
	if err := corpus.WriteJSON(cfg.Output.Path, cases, mode); err != nil {
		return err
	}
	if cfg.Output.Parquet != "" {
		if err := corpus.WriteParquet(cfg.Output.Parquet, cases); err != nil {
			return err
		}
	}

	rep := corpus.NewReport(cases, mode, &stats, val)
	rep.Seed = seed
	rep.Mover = cfg.Corpus.Mover
	rep.Output = cfg.Output.Path
	reportPath := cfg.Output.Report
	if reportPath == "" {
		reportPath = reportPathFor(cfg.Output.Path)
	}
	if err := corpus.WriteReport(reportPath, rep); err != nil {
		return err
	}

	log.Info().
		Str("output", cfg.Output.Path).
		Str("report", reportPath).
		Int("cases", len(cases)).
		Int("corrections", val.Corrections).
		Float64("avg_solutions", rep.MultiOptimal.AverageSolutions).
		Dur("elapsed", time.Since(start)).
		Msg("corpus written")
	return nil
}

func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config, opts *generateOptions) {
	f := cmd.Flags()
	if f.Changed("output") {
		cfg.Output.Path = opts.output
	}
	if f.Changed("report") {
		cfg.Output.Report = opts.report
	}
	if f.Changed("parquet") {
		cfg.Output.Parquet = opts.parquet
	}
	if f.Changed("mover") {
		cfg.Corpus.Mover = opts.mover
	}
	if f.Changed("seed") {
		cfg.Corpus.Seed = opts.seed
	}
	if opts.compatible {
		cfg.Output.Mode = config.ModeCompatible
	}
	if opts.overrideOriginal != "" {
		cfg.Output.Path = opts.overrideOriginal
		cfg.Output.Mode = config.ModeCompatible
	}
}

func moverPolicy(s string) (board.Mark, error) {
	if s == "" || s == "auto" {
		return board.Empty, nil
	}
	m, err := board.ParseMark(s)
	if err != nil || m == board.Empty {
		return board.Empty, errors.New("mover must be auto, X or O")
	}
	return m, nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/freeeve/tttoracle/internal/corpus"
)

type validateOptions struct {
	corpusPath string
	write      bool
	report     string
}

func newValidateCmd(g *globals) *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Re-derive every case of a corpus and report drift",
		Long: `Re-parses each board_state, re-runs the oracle and compares the stored
answers. Corrections fail the command unless --write is given, in which case
the corrected corpus replaces the input in its original shape.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, g, opts)
		},
	}
	cmd.Flags().StringVar(&opts.corpusPath, "corpus", "", "corpus file (.json, .json.zst or .parquet)")
	cmd.Flags().BoolVar(&opts.write, "write", false, "write corrections back to the corpus")
	cmd.Flags().StringVar(&opts.report, "report", "", "write a validation report to this path")
	_ = cmd.MarkFlagRequired("corpus")
	return cmd
}

func runValidate(cmd *cobra.Command, g *globals, opts *validateOptions) error {
	cases, err := corpus.ReadFile(opts.corpusPath)
	if err != nil {
		return err
	}
	mode := corpus.DetectMode(cases)
	g.log.Debug().Str("corpus", opts.corpusPath).Str("mode", string(mode)).Int("cases", len(cases)).Msg("corpus loaded")
	val := corpus.Validate(cases, g.log)

	if opts.report != "" {
		rep := corpus.NewReport(cases, mode, nil, val)
		rep.Output = opts.corpusPath
		if err := corpus.WriteReport(opts.report, rep); err != nil {
			return err
		}
	}

	if val.ParseFailures > 0 || val.Unanswerable > 0 {
		return fmt.Errorf("%d cases could not be re-derived", val.ParseFailures+val.Unanswerable)
	}
	if val.Corrections == 0 {
		return nil
	}
	if !opts.write {
		return fmt.Errorf("%d cases disagree with the oracle (rerun with --write to correct)", val.Corrections)
	}

	if strings.HasSuffix(opts.corpusPath, ".parquet") {
		err = corpus.WriteParquet(opts.corpusPath, cases)
	} else {
		err = corpus.WriteJSON(opts.corpusPath, cases, mode)
	}
	if err != nil {
		return err
	}
	g.log.Info().Int("corrections", val.Corrections).Str("corpus", opts.corpusPath).Msg("corrections written")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/freeeve/tttoracle/internal/leakage"
	"github.com/freeeve/tttoracle/internal/transcript"
)

type filterOptions struct {
	corpusPath string
	input      string
	output     string
	processed  string
	workers    int
	watch      bool
	samples    bool
}

func newFilterCmd(g *globals) *cobra.Command {
	opts := &filterOptions{}
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Drop training records that land on held-out positions",
		Long: `Loads the held-out positions of a corpus and removes every transcript move
(or training sample) that faces one of them. --input may be a single file or a
directory; a directory is processed with a worker pool and consumed files move
to the processed directory. With --watch the directory is watched until
interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFilter(cmd, g, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.corpusPath, "corpus", "", "held-out corpus (.json, .json.zst or .parquet)")
	f.StringVar(&opts.input, "input", "", "transcript file or directory")
	f.StringVar(&opts.output, "output", "", "output file, or directory when --input is a directory")
	f.StringVar(&opts.processed, "processed", "", "where consumed inputs move (default <input>/processed)")
	f.IntVar(&opts.workers, "workers", 1, "files filtered in parallel")
	f.BoolVar(&opts.watch, "watch", false, "keep watching the input directory")
	f.BoolVar(&opts.samples, "samples", false, "input holds {input, output} training samples instead of games")
	_ = cmd.MarkFlagRequired("corpus")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runFilter(cmd *cobra.Command, g *globals, opts *filterOptions) error {
	guard, err := leakage.LoadGuard(opts.corpusPath)
	if err != nil {
		return err
	}
	st := guard.Stats()
	g.log.Info().
		Str("corpus", opts.corpusPath).
		Int("positions", st.Positions).
		Int("boards", st.Boards).
		Msg("held-out positions loaded")

	info, err := os.Stat(opts.input)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if opts.watch {
			return errors.New("--watch needs a directory input")
		}
		return filterFile(g, guard, opts)
	}
	if opts.samples {
		return errors.New("--samples needs a file input")
	}

	w, err := transcript.NewWorker(transcript.Config{
		InputDir:     opts.input,
		OutputDir:    opts.output,
		ProcessedDir: opts.processed,
		Workers:      opts.workers,
		Logger:       g.log,
	}, guard)
	if err != nil {
		return err
	}
	if opts.watch {
		if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		g.log.Info().Msg("filter stopped")
		return nil
	}
	_, err = w.ProcessDir(cmd.Context())
	return err
}

func filterFile(g *globals, guard *leakage.Guard, opts *filterOptions) error {
	out := opts.output
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		out = filepath.Join(out, filepath.Base(opts.input))
	}

	var st leakage.FilterStats
	if opts.samples {
		samples, err := transcript.ReadSamples(opts.input)
		if err != nil {
			return err
		}
		kept, fs := transcript.FilterSamples(guard, samples)
		st = fs
		err = transcript.WriteFiltered(out, kept, transcript.NewFilteringInfo(guard, st, opts.input))
		if err != nil {
			return err
		}
	} else {
		games, err := transcript.ReadGames(opts.input)
		if err != nil {
			return err
		}
		kept, fs := transcript.FilterGames(guard, games)
		st = fs
		err = transcript.WriteFiltered(out, kept, transcript.NewFilteringInfo(guard, st, opts.input))
		if err != nil {
			return err
		}
	}

	g.log.Info().
		Str("output", out).
		Int("records_in", st.GamesIn).
		Int("records_out", st.GamesOut).
		Int("moves_removed", st.MovesRemoved).
		Int("unparsed", st.Unparsed).
		Msg("filtered")
	if st.MovesIn > 0 && st.Unparsed == st.MovesIn {
		return fmt.Errorf("no record in %s could be parsed", opts.input)
	}
	return nil
}

package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/freeeve/tttoracle/internal/corpus"
	"github.com/freeeve/tttoracle/internal/grade"
)

type gradeOptions struct {
	corpusPath string
	responses  string
	output     string
}

func newGradeCmd(g *globals) *cobra.Command {
	opts := &gradeOptions{}
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Score model responses against a corpus",
		Long: `Reads JSONL responses ({"id": N, "response": "..."}), extracts the move
each one settles on and counts it correct when it is in the case's optimal set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGrade(cmd, g, opts)
		},
	}
	cmd.Flags().StringVar(&opts.corpusPath, "corpus", "", "corpus file")
	cmd.Flags().StringVar(&opts.responses, "responses", "", "JSONL responses file")
	cmd.Flags().StringVar(&opts.output, "output", "", "write the detailed evaluation here")
	_ = cmd.MarkFlagRequired("corpus")
	_ = cmd.MarkFlagRequired("responses")
	return cmd
}

func runGrade(cmd *cobra.Command, g *globals, opts *gradeOptions) error {
	cases, err := corpus.ReadFile(opts.corpusPath)
	if err != nil {
		return err
	}
	responses, err := grade.ReadResponses(opts.responses)
	if err != nil {
		return err
	}

	ev := grade.Grade(cases, responses)
	ev.Info.Corpus = opts.corpusPath
	ev.Info.Responses = opts.responses
	g.log.Info().
		Int("cases", ev.Summary.TotalCases).
		Int("correct", ev.Summary.CorrectCases).
		Int("unanswered", ev.Summary.Unanswered).
		Float64("accuracy", ev.Summary.AccuracyPercentage).
		Msg("graded")

	if opts.output != "" {
		if err := grade.WriteEvaluation(opts.output, ev); err != nil {
			return err
		}
	}
	printSummary(cmd.OutOrStdout(), ev.Summary)
	return nil
}

func printSummary(w io.Writer, s grade.Summary) {
	fmt.Fprintf(w, "accuracy: %.2f%% (%d/%d, %d unanswered)\n",
		s.AccuracyPercentage, s.CorrectCases, s.TotalCases, s.Unanswered)
	for _, section := range []struct {
		name    string
		buckets map[string]grade.Bucket
	}{
		{"difficulty", s.DifficultyBreakdown},
		{"stage", s.StageBreakdown},
		{"move type", s.MoveTypeBreakdown},
	} {
		fmt.Fprintf(w, "%s:\n", section.name)
		keys := make([]string, 0, len(section.buckets))
		for k := range section.buckets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b := section.buckets[k]
			fmt.Fprintf(w, "  %-14s %6.2f%% (%d/%d)\n", k, b.Accuracy, b.Correct, b.Total)
		}
	}
}

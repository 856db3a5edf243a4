package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/freeeve/tttoracle/internal/board"
	"github.com/freeeve/tttoracle/internal/solver"
)

type solveOptions struct {
	board string
	mover string
}

// solveOutput is what solve prints.
type solveOutput struct {
	BoardKey     string                         `json:"board_key"`
	BoardState   string                         `json:"board_state"`
	Player       board.Mark                     `json:"player"`
	MoveType     solver.Classification          `json:"move_type"`
	Score        int                            `json:"score"`
	OptimalMoves []string                       `json:"optimal_moves"`
	Primary      string                         `json:"primary_optimal"`
	MoveScores   map[string]int                 `json:"move_scores"`
	MoveAnalysis map[string]solver.MoveAnalysis `json:"move_analysis"`
}

func newSolveCmd(g *globals) *cobra.Command {
	opts := &solveOptions{}
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Print the optimal move set for one board",
		Long: `Accepts the pipe-separated layout, the plain layout or a nine-character
key ("X...O...."). Pass --board - to read the board from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSolve(cmd, g, opts)
		},
	}
	cmd.Flags().StringVar(&opts.board, "board", "", "board text, or - for stdin")
	cmd.Flags().StringVar(&opts.mover, "mover", "", "X or O (default: side to move)")
	_ = cmd.MarkFlagRequired("board")
	return cmd
}

func runSolve(cmd *cobra.Command, g *globals, opts *solveOptions) error {
	text := opts.board
	if text == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read board: %w", err)
		}
		text = string(data)
	}
	b, err := board.Parse(strings.TrimSpace(text))
	if err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}

	mover := b.SideToMove()
	if opts.mover != "" {
		if mover, err = board.ParseMark(opts.mover); err != nil {
			return err
		}
	}

	ans, ok := solver.Oracle(b, mover)
	if !ok {
		return fmt.Errorf("board %s is over: %s", b.Key(), board.Winner(b))
	}
	g.log.Debug().Str("board", b.Key()).Str("mover", mover.String()).
		Str("move_type", ans.Result.Classification.String()).Msg("solved")

	out := solveOutput{
		BoardKey:     b.Key(),
		BoardState:   board.Render(b),
		Player:       mover,
		MoveType:     ans.Result.Classification,
		Score:        ans.Result.Score,
		OptimalMoves: board.FormatMoves(ans.Result.Moves),
		Primary:      board.FormatMove(ans.Primary),
		MoveScores:   make(map[string]int),
		MoveAnalysis: make(map[string]solver.MoveAnalysis),
	}
	for _, p := range b.LegalMoves() {
		out.MoveScores[board.FormatMove(p)] = solver.Evaluate(b, mover, p)
	}
	for _, a := range ans.Analysis {
		out.MoveAnalysis[board.FormatMove(a.Position)] = a
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

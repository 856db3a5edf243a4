package solver

import (
	"fmt"

	"github.com/freeeve/tttoracle/internal/board"
)

// Classification labels how an optimal set was found.
type Classification uint8

const (
	ClassUnknown         Classification = iota
	ClassWinningMove                    // completes a line this ply
	ClassBlockingMove                   // stops an opponent line
	ClassWinningSequence                // forced win found by search
	ClassDrawMove                       // best play draws
	ClassBestDefense                    // every move loses; delays the loss
)

// Scores reported for the fast-path rungs, above anything search can return.
const (
	WinSentinel   = 1000
	BlockSentinel = 500
)

var classNames = map[Classification]string{
	ClassWinningMove:     "winning_move",
	ClassBlockingMove:    "blocking_move",
	ClassWinningSequence: "winning_sequence",
	ClassDrawMove:        "draw_move",
	ClassBestDefense:     "best_defense",
}

func (c Classification) String() string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return "unknown"
}

// MarshalText encodes the classification name.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a classification name.
func (c *Classification) UnmarshalText(text []byte) error {
	parsed, err := ParseClassification(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseClassification is the inverse of Classification.String.
func ParseClassification(s string) (Classification, error) {
	for c, name := range classNames {
		if name == s {
			return c, nil
		}
	}
	return ClassUnknown, fmt.Errorf("unknown classification %q", s)
}

// Result is an optimal move set with its label and score.
type Result struct {
	Moves          []int
	Classification Classification
	Score          int
}

// Extract returns every move tied for best for mover, using the priority ladder:
// immediate wins, then blocks of opponent wins, then full search. ok is false when
// the board is terminal or has no legal moves, or when mover is not X or O.
//
// When the opponent has two or more separate winning cells no single move blocks
// them all; the block rung still returns every blocking cell, unranked.
func Extract(b board.Board, mover board.Mark) (Result, bool) {
	if !mover.IsPlayer() || board.Winner(b).Terminal() {
		return Result{}, false
	}

	if wins := completingMoves(b, mover); len(wins) > 0 {
		return Result{Moves: wins, Classification: ClassWinningMove, Score: WinSentinel}, true
	}

	if blocks := completingMoves(b, mover.Opponent()); len(blocks) > 0 {
		return Result{Moves: blocks, Classification: ClassBlockingMove, Score: BlockSentinel}, true
	}

	return search(b, mover), true
}

// completingMoves returns the empty cells where m would complete a line.
func completingMoves(b board.Board, m board.Mark) []int {
	var moves []int
	for _, p := range b.LegalMoves() {
		if out := board.Winner(b.Play(p, m)); out.Kind == board.Win && out.Winner == m {
			moves = append(moves, p)
		}
	}
	return moves
}

func search(b board.Board, mover board.Mark) Result {
	var (
		best  int
		moves []int
	)
	for i, p := range b.LegalMoves() {
		v := Evaluate(b, mover, p)
		switch {
		case i == 0 || v > best:
			best = v
			moves = []int{p}
		case v == best:
			moves = append(moves, p)
		}
	}

	class := ClassDrawMove
	switch {
	case best > 0:
		class = ClassWinningSequence
	case best < 0:
		class = ClassBestDefense
	}
	return Result{Moves: moves, Classification: class, Score: best}
}

// Contains reports whether pos is in the result's move set.
func (r Result) Contains(pos int) bool {
	for _, m := range r.Moves {
		if m == pos {
			return true
		}
	}
	return false
}

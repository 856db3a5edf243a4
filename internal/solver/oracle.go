package solver

import "github.com/freeeve/tttoracle/internal/board"

// Answer is everything the oracle knows about a position for one mover.
type Answer struct {
	Board    board.Board
	Mover    board.Mark
	Result   Result
	Primary  int
	Analysis []MoveAnalysis
}

// Oracle runs Extract, TieBreak and Analyze. ok is false for terminal boards.
func Oracle(b board.Board, mover board.Mark) (Answer, bool) {
	res, ok := Extract(b, mover)
	if !ok {
		return Answer{Board: b, Mover: mover, Primary: -1}, false
	}
	return Answer{
		Board:    b,
		Mover:    mover,
		Result:   res,
		Primary:  TieBreak(b, mover, res.Moves),
		Analysis: Analyze(b, mover, res.Moves),
	}, true
}

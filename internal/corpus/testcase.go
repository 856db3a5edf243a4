// Package corpus builds, validates and stores the evaluation corpus.
//
// A corpus is a list of TestCase records, each a non-terminal board, the mark to
// move, and the oracle's answer: every optimal move, a single primary move
// picked by the tie-break heuristic, and a per-move breakdown. Generation is
// stratified by game stage and always followed by a validation pass that
// re-derives every answer from the serialized board text.
package corpus

import (
	"fmt"
	"strings"

	"github.com/freeeve/tttoracle/internal/board"
	"github.com/freeeve/tttoracle/internal/solver"
)

// Stage is the phase of the game a case was sampled from.
type Stage uint8

const (
	StageOpening Stage = iota
	StageMidgame
	StageEndgame
)

// Stages lists every stage in generation order.
var Stages = []Stage{StageOpening, StageMidgame, StageEndgame}

var stageNames = [...]string{"opening", "midgame", "endgame"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", s)
}

func (s Stage) MarshalText() ([]byte, error) {
	if int(s) >= len(stageNames) {
		return nil, fmt.Errorf("invalid stage %d", s)
	}
	return []byte(stageNames[s]), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	for i, name := range stageNames {
		if strings.EqualFold(string(text), name) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("invalid stage %q", text)
}

// MarkRange is the inclusive number of marks on boards of this stage.
func (s Stage) MarkRange() (lo, hi int) {
	switch s {
	case StageOpening:
		return 0, 2
	case StageMidgame:
		return 3, 5
	default:
		return 6, 8
	}
}

// Difficulty is the grading bucket of a case.
type Difficulty uint8

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// Difficulties lists every difficulty from easiest.
var Difficulties = []Difficulty{Easy, Medium, Hard}

var difficultyNames = [...]string{"easy", "medium", "hard"}

func (d Difficulty) String() string {
	if int(d) < len(difficultyNames) {
		return difficultyNames[d]
	}
	return fmt.Sprintf("difficulty(%d)", d)
}

func (d Difficulty) MarshalText() ([]byte, error) {
	if int(d) >= len(difficultyNames) {
		return nil, fmt.Errorf("invalid difficulty %d", d)
	}
	return []byte(difficultyNames[d]), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	for i, name := range difficultyNames {
		if strings.EqualFold(string(text), name) {
			*d = Difficulty(i)
			return nil
		}
	}
	return fmt.Errorf("invalid difficulty %q", text)
}

// DifficultyFor maps a classification to a difficulty. Endgame cases are never
// easy: immediate wins and blocks are medium there, everything else hard.
func DifficultyFor(stage Stage, class solver.Classification) Difficulty {
	if stage == StageEndgame {
		if class == solver.ClassWinningMove || class == solver.ClassBlockingMove {
			return Medium
		}
		return Hard
	}
	switch class {
	case solver.ClassWinningMove:
		return Easy
	case solver.ClassBlockingMove, solver.ClassWinningSequence:
		return Medium
	default:
		return Hard
	}
}

// Mode selects the serialized shape of a corpus.
type Mode string

const (
	// ModeMultiOptimal keeps the full optimal set and per-move analysis.
	ModeMultiOptimal Mode = "multi_optimal"
	// ModeCompatible keeps only optimal_move, for older consumers.
	ModeCompatible Mode = "compatible"
)

// TestCase is one labeled position.
type TestCase struct {
	ID                    int                            `json:"id"`
	Difficulty            Difficulty                     `json:"difficulty"`
	Stage                 Stage                          `json:"stage"`
	BoardState            string                         `json:"board_state"`
	BoardKey              string                         `json:"board_key,omitempty"`
	Player                board.Mark                     `json:"player"`
	AvailableMoves        []string                       `json:"available_moves"`
	MoveType              solver.Classification          `json:"move_type"`
	Description           string                         `json:"description,omitempty"`
	MinimaxVerified       bool                           `json:"minimax_verified"`
	MinimaxScore          *int                           `json:"minimax_score,omitempty"`
	OptimalMoves          []string                       `json:"optimal_moves,omitempty"`
	PrimaryOptimal        string                         `json:"primary_optimal,omitempty"`
	OptimalMove           string                         `json:"optimal_move"`
	TotalOptimalSolutions int                            `json:"total_optimal_solutions,omitempty"`
	MoveAnalysis          map[string]solver.MoveAnalysis `json:"move_analysis,omitempty"`
}

// NewTestCase labels b for mover. ok is false when b is terminal.
func NewTestCase(id int, stage Stage, b board.Board, mover board.Mark) (TestCase, bool) {
	ans, ok := solver.Oracle(b, mover)
	if !ok {
		return TestCase{}, false
	}
	tc := TestCase{
		ID:              id,
		Stage:           stage,
		BoardState:      board.Render(b),
		BoardKey:        b.Key(),
		Player:          mover,
		AvailableMoves:  board.FormatMoves(b.LegalMoves()),
		MinimaxVerified: true,
	}
	tc.apply(ans)
	tc.Description = fmt.Sprintf("%s, %d marks placed, %s to move - %s",
		stage, board.Size-b.Empties(), mover, tc.MoveType)
	return tc, true
}

// apply overwrites every oracle-derived field.
func (tc *TestCase) apply(ans solver.Answer) {
	score := ans.Result.Score
	tc.MoveType = ans.Result.Classification
	tc.Difficulty = DifficultyFor(tc.Stage, tc.MoveType)
	tc.MinimaxScore = &score
	tc.OptimalMoves = board.FormatMoves(ans.Result.Moves)
	tc.PrimaryOptimal = board.FormatMove(ans.Primary)
	tc.OptimalMove = tc.PrimaryOptimal
	tc.TotalOptimalSolutions = len(ans.Result.Moves)
	tc.MoveAnalysis = make(map[string]solver.MoveAnalysis, len(ans.Analysis))
	for _, a := range ans.Analysis {
		tc.MoveAnalysis[board.FormatMove(a.Position)] = a
	}
}

// Compatible returns a copy without the multi-optimal fields.
func (tc TestCase) Compatible() TestCase {
	tc.MinimaxScore = nil
	tc.OptimalMoves = nil
	tc.PrimaryOptimal = ""
	tc.TotalOptimalSolutions = 0
	tc.MoveAnalysis = nil
	return tc
}

// Accepted returns the set of moves graded as correct. Compatible cases only
// carry optimal_move.
func (tc TestCase) Accepted() []string {
	if len(tc.OptimalMoves) > 0 {
		return tc.OptimalMoves
	}
	if tc.OptimalMove != "" {
		return []string{tc.OptimalMove}
	}
	return nil
}

// Shape converts cases for the given mode.
func Shape(cases []TestCase, mode Mode) []TestCase {
	if mode != ModeCompatible {
		return cases
	}
	out := make([]TestCase, len(cases))
	for i, tc := range cases {
		out[i] = tc.Compatible()
	}
	return out
}

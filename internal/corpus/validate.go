package corpus

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/freeeve/tttoracle/internal/board"
	"github.com/freeeve/tttoracle/internal/solver"
)

// Mismatch records one corrected case.
type Mismatch struct {
	ID         int                   `json:"id"`
	Board      string                `json:"board_key"`
	OldPrimary string                `json:"old_primary"`
	NewPrimary string                `json:"new_primary"`
	OldType    solver.Classification `json:"old_move_type"`
	NewType    solver.Classification `json:"new_move_type"`
}

// Failure records a case that could not be re-derived.
type Failure struct {
	ID     int    `json:"id"`
	Reason string `json:"reason"`
}

// ValidationReport summarizes a validation pass. Corrections > 0 or any
// failures mean the corpus did not survive its own round trip.
type ValidationReport struct {
	Checked       int        `json:"checked"`
	Corrections   int        `json:"corrections"`
	ParseFailures int        `json:"parse_failures"`
	Unanswerable  int        `json:"unanswerable"`
	Mismatches    []Mismatch `json:"mismatches,omitempty"`
	Failures      []Failure  `json:"failures,omitempty"`
}

// Clean reports whether the pass found nothing to fix.
func (r ValidationReport) Clean() bool {
	return r.Corrections == 0 && r.ParseFailures == 0 && r.Unanswerable == 0
}

// Validate re-parses each case's board_state, re-runs the oracle for its
// player and overwrites the stored answer where it disagrees. Cases are
// corrected in place.
func Validate(cases []TestCase, log zerolog.Logger) ValidationReport {
	var rep ValidationReport
	for i := range cases {
		tc := &cases[i]
		rep.Checked++

		b, err := board.Parse(tc.BoardState)
		if err != nil {
			rep.ParseFailures++
			rep.Failures = append(rep.Failures, Failure{ID: tc.ID, Reason: err.Error()})
			log.Warn().Int("id", tc.ID).Err(err).Msg("board_state does not parse")
			continue
		}
		if !tc.Player.IsPlayer() {
			rep.Unanswerable++
			rep.Failures = append(rep.Failures, Failure{ID: tc.ID, Reason: "player is not X or O"})
			log.Warn().Int("id", tc.ID).Str("board", b.Key()).Msg("case has no player")
			continue
		}
		ans, ok := solver.Oracle(b, tc.Player)
		if !ok {
			rep.Unanswerable++
			rep.Failures = append(rep.Failures, Failure{ID: tc.ID, Reason: "terminal board " + board.Winner(b).String()})
			log.Warn().Int("id", tc.ID).Str("board", b.Key()).Msg("terminal board in corpus")
			continue
		}

		primary := board.FormatMove(ans.Primary)
		moves := board.FormatMoves(ans.Result.Moves)
		agrees := tc.OptimalMove == primary &&
			tc.MoveType == ans.Result.Classification &&
			(tc.BoardKey == "" || tc.BoardKey == b.Key()) &&
			(len(tc.OptimalMoves) == 0 || slices.Equal(tc.OptimalMoves, moves))
		if agrees {
			continue
		}

		m := Mismatch{
			ID:         tc.ID,
			Board:      b.Key(),
			OldPrimary: tc.OptimalMove,
			NewPrimary: primary,
			OldType:    tc.MoveType,
			NewType:    ans.Result.Classification,
		}
		compatible := len(tc.OptimalMoves) == 0
		tc.BoardKey = b.Key()
		tc.AvailableMoves = board.FormatMoves(b.LegalMoves())
		tc.apply(ans)
		if compatible {
			*tc = tc.Compatible()
		}
		rep.Corrections++
		rep.Mismatches = append(rep.Mismatches, m)
	}

	ev := log.Info()
	if !rep.Clean() {
		ev = log.Warn()
	}
	ev.Int("checked", rep.Checked).Int("corrections", rep.Corrections).
		Int("parse_failures", rep.ParseFailures).Int("unanswerable", rep.Unanswerable).
		Msg("validation complete")
	return rep
}

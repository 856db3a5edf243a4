package solver

import "github.com/freeeve/tttoracle/internal/board"

// Heuristic weights for picking one move out of an optimal set.
const (
	weightCenter       = 10
	weightCorner       = 8
	weightEdge         = 3
	weightThreatMade   = 5
	weightThreatRemove = 3
	openingCenterBonus = 15
	openingEmpties     = 7
)

// MoveAnalysis is the strategic breakdown of one candidate move.
type MoveAnalysis struct {
	Position       int                `json:"-"`
	PositionType   board.PositionType `json:"position_type"`
	ThreatsCreated int                `json:"threats_created"`
	ThreatsBlocked int                `json:"threats_blocked"`
	StrategicValue int                `json:"strategic_value"`
}

// AnalyzeMove scores pos for mover. It does not affect whether a move is optimal.
func AnalyzeMove(b board.Board, mover board.Mark, pos int) MoveAnalysis {
	opp := mover.Opponent()
	after := b.Play(pos, mover)

	created := max(0, after.Threats(mover)-b.Threats(mover))
	removed := max(0, b.Threats(opp)-after.Threats(opp))

	value := positionWeight(pos) + weightThreatMade*created + weightThreatRemove*removed
	if pos == board.Center && b.Empties() >= openingEmpties {
		value += openingCenterBonus
	}

	return MoveAnalysis{
		Position:       pos,
		PositionType:   board.TypeOf(pos),
		ThreatsCreated: created,
		ThreatsBlocked: removed,
		StrategicValue: value,
	}
}

// Analyze returns AnalyzeMove for each move, in the given order.
func Analyze(b board.Board, mover board.Mark, moves []int) []MoveAnalysis {
	out := make([]MoveAnalysis, len(moves))
	for i, p := range moves {
		out[i] = AnalyzeMove(b, mover, p)
	}
	return out
}

// TieBreak picks the primary move from a non-empty optimal set: highest strategic
// value, lowest position on ties. It returns -1 for an empty set.
func TieBreak(b board.Board, mover board.Mark, moves []int) int {
	best, bestValue := -1, 0
	for _, p := range moves {
		v := AnalyzeMove(b, mover, p).StrategicValue
		if best == -1 || v > bestValue || (v == bestValue && p < best) {
			best, bestValue = p, v
		}
	}
	return best
}

func positionWeight(pos int) int {
	switch board.TypeOf(pos) {
	case board.PositionCenter:
		return weightCenter
	case board.PositionCorner:
		return weightCorner
	default:
		return weightEdge
	}
}

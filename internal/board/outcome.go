package board

// OutcomeKind tags an Outcome.
type OutcomeKind uint8

const (
	Ongoing OutcomeKind = iota
	Win
	Draw
)

// Outcome is derived from a Board and never stored alongside it.
type Outcome struct {
	Kind   OutcomeKind
	Winner Mark // set only when Kind == Win
}

func (o Outcome) String() string {
	switch o.Kind {
	case Win:
		return "win(" + o.Winner.String() + ")"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

// Terminal reports whether the game is over.
func (o Outcome) Terminal() bool {
	return o.Kind != Ongoing
}

// Winner scans all eight lines. A full board without a line is a draw.
func Winner(b Board) Outcome {
	for _, l := range Lines {
		m := b[l[0]]
		if m != Empty && b[l[1]] == m && b[l[2]] == m {
			return Outcome{Kind: Win, Winner: m}
		}
	}
	if b.IsFull() {
		return Outcome{Kind: Draw}
	}
	return Outcome{Kind: Ongoing}
}

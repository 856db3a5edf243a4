// Package transcript reads externally produced game transcripts and filters
// them against a leakage guard.
package transcript

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/freeeve/tttoracle/internal/board"
	"github.com/freeeve/tttoracle/internal/leakage"
)

// ErrNoBoard is returned for records that carry no board text.
var ErrNoBoard = errors.New("no board in record")

// Move is one turn of a game. Fields other than the known ones are kept in
// Extra and written back unchanged.
type Move struct {
	Player      int        `json:"player"`
	Mark        board.Mark `json:"mark,omitempty"`
	Board       string     `json:"board_state,omitempty"`
	Observation string     `json:"observation,omitempty"`
	Action      string     `json:"action,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var moveFields = []string{"player", "mark", "board_state", "observation", "action"}

func (m *Move) UnmarshalJSON(data []byte) error {
	type plain Move
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitExtra(data, moveFields)
	if err != nil {
		return err
	}
	p.Extra = extra
	*m = Move(p)
	return nil
}

func (m Move) MarshalJSON() ([]byte, error) {
	type plain Move
	base, err := json.Marshal(plain(m))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, m.Extra)
}

// Key canonicalizes the position the mover faced. The board comes from the
// board_state field or the observation text; the mark from the mark field,
// the observation, or the player index (0 is X).
func (m Move) Key() (leakage.Key, error) {
	text, mark := m.Board, m.Mark
	if text == "" || mark == board.Empty {
		obsBoard, obsMark := ParseObservation(m.Observation)
		if text == "" {
			text = obsBoard
		}
		if mark == board.Empty {
			mark = obsMark
		}
	}
	if text == "" {
		return leakage.Key{}, ErrNoBoard
	}
	if mark == board.Empty {
		mark = board.X
		if m.Player%2 == 1 {
			mark = board.O
		}
	}
	return leakage.Canonicalize(text, mark)
}

// Game is one recorded game.
type Game struct {
	Moves        []Move `json:"moves"`
	AvoidedMoves int    `json:"avoided_moves_count,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var gameFields = []string{"moves", "avoided_moves_count"}

func (g *Game) UnmarshalJSON(data []byte) error {
	type plain Game
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitExtra(data, gameFields)
	if err != nil {
		return err
	}
	p.Extra = extra
	*g = Game(p)
	return nil
}

func (g Game) MarshalJSON() ([]byte, error) {
	type plain Game
	base, err := json.Marshal(plain(g))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, g.Extra)
}

// Sample is a training sample whose input embeds an observation.
type Sample struct {
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
}

// Key canonicalizes the observation in the input. Without a mark in the text
// the sample is taken as X to move.
func (s Sample) Key() (leakage.Key, error) {
	text, mark := ParseObservation(s.Input)
	if text == "" {
		return leakage.Key{}, ErrNoBoard
	}
	if mark == board.Empty {
		mark = board.X
	}
	return leakage.Canonicalize(text, mark)
}

var markPattern = regexp.MustCompile(`(?i)(?:\bplayer|\byou are(?: playing)?|你是)\s*([XO])\b`)

// ParseObservation extracts the board rows (lines containing '|') and the
// active mark from free observation text. Either result may be empty.
func ParseObservation(text string) (string, board.Mark) {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "|") {
			rows = append(rows, line)
		}
	}
	mark := board.Empty
	if m := markPattern.FindStringSubmatch(text); m != nil {
		mark, _ = board.ParseMark(m[1])
	}
	return strings.Join(rows, "\n"), mark
}

// FilterGame drops the moves of game that land on held-out positions.
func FilterGame(g *leakage.Guard, game Game) (Game, leakage.FilterStats) {
	kept, removed, unparsed := leakage.Filter(g, game.Moves)
	st := leakage.FilterStats{
		GamesIn:      1,
		MovesIn:      len(game.Moves),
		MovesRemoved: removed,
		Unparsed:     unparsed,
	}
	game.Moves = kept
	if removed > 0 {
		game.AvoidedMoves += removed
	}
	if len(kept) == 0 {
		st.GamesDropped = 1
	} else {
		st.GamesOut = 1
	}
	return game, st
}

// FilterGames filters every game and drops the ones left without moves.
func FilterGames(g *leakage.Guard, games []Game) ([]Game, leakage.FilterStats) {
	var total leakage.FilterStats
	out := make([]Game, 0, len(games))
	for _, game := range games {
		filtered, st := FilterGame(g, game)
		total.Add(st)
		if len(filtered.Moves) > 0 {
			out = append(out, filtered)
		}
	}
	return out, total
}

// FilterSamples drops samples on held-out positions. Each sample counts as
// both a game and a move in the returned stats.
func FilterSamples(g *leakage.Guard, samples []Sample) ([]Sample, leakage.FilterStats) {
	kept, removed, unparsed := leakage.Filter(g, samples)
	return kept, leakage.FilterStats{
		GamesIn:      len(samples),
		GamesOut:     len(kept),
		GamesDropped: removed,
		MovesIn:      len(samples),
		MovesRemoved: removed,
		Unparsed:     unparsed,
	}
}

func splitExtra(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func mergeExtra(base []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(base, &all); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

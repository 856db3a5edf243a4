// Package leakage keeps held-out corpus positions out of generated data.
//
// A Guard is built once from a frozen corpus. Every position is reduced to a
// canonical Key (nine cells plus the mark to move) through board.Parse, so any
// supported pretty-printer of the same board maps to the same key.
package leakage

import (
	"fmt"

	"github.com/freeeve/tttoracle/internal/board"
	"github.com/freeeve/tttoracle/internal/corpus"
)

// Key identifies a position for set membership only.
type Key struct {
	Board string
	Mark  board.Mark
}

// String formats the key as "X........|X".
func (k Key) String() string {
	return k.Board + "|" + k.Mark.String()
}

// KeyOf returns the key of b with mark to move.
func KeyOf(b board.Board, mark board.Mark) Key {
	return Key{Board: b.Key(), Mark: mark}
}

// Canonicalize parses a textual board in any supported format.
func Canonicalize(text string, mark board.Mark) (Key, error) {
	b, err := board.Parse(text)
	if err != nil {
		return Key{}, err
	}
	return KeyOf(b, mark), nil
}

// Guard holds the canonical keys of a frozen corpus.
type Guard struct {
	source    string
	positions map[Key]struct{}
	boards    map[string]struct{}
}

// NewGuard indexes cases. A case whose board_state does not parse is an error:
// a guard with holes would let its positions through.
func NewGuard(cases []corpus.TestCase) (*Guard, error) {
	g := &Guard{
		positions: make(map[Key]struct{}, len(cases)),
		boards:    make(map[string]struct{}, len(cases)),
	}
	for _, tc := range cases {
		k, err := Canonicalize(tc.BoardState, tc.Player)
		if err != nil {
			return nil, fmt.Errorf("case %d: %w", tc.ID, err)
		}
		g.positions[k] = struct{}{}
		g.boards[k.Board] = struct{}{}
	}
	return g, nil
}

// LoadGuard reads a corpus file and indexes it.
func LoadGuard(path string) (*Guard, error) {
	cases, err := corpus.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load held-out corpus: %w", err)
	}
	g, err := NewGuard(cases)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}
	g.source = path
	return g, nil
}

// Contains reports whether the position is held out.
func (g *Guard) Contains(k Key) bool {
	_, ok := g.positions[k]
	return ok
}

// ContainsBoard reports whether the board appears in the corpus for any mover.
func (g *Guard) ContainsBoard(boardKey string) bool {
	_, ok := g.boards[boardKey]
	return ok
}

// Len returns the number of distinct held-out positions.
func (g *Guard) Len() int {
	return len(g.positions)
}

// Stats describes the guard for filter metadata.
type Stats struct {
	Source    string `json:"test_set_path,omitempty"`
	Positions int    `json:"test_positions_count"`
	Boards    int    `json:"test_situations_count"`
}

func (g *Guard) Stats() Stats {
	return Stats{Source: g.source, Positions: len(g.positions), Boards: len(g.boards)}
}

// Keyed is a record that reduces to a position key.
type Keyed interface {
	Key() (Key, error)
}

// Filter returns the items whose key is not held out. Items that cannot be
// keyed are kept, since no collision can be shown, and counted as unparsed.
func Filter[T Keyed](g *Guard, items []T) (kept []T, removed, unparsed int) {
	kept = make([]T, 0, len(items))
	for _, it := range items {
		k, err := it.Key()
		if err != nil {
			unparsed++
			kept = append(kept, it)
			continue
		}
		if g.Contains(k) {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	return kept, removed, unparsed
}

// FilterStats counts the effect of filtering a batch of games.
type FilterStats struct {
	GamesIn      int `json:"original_data_count"`
	GamesOut     int `json:"filtered_data_count"`
	GamesDropped int `json:"dropped_games"`
	MovesIn      int `json:"moves_in"`
	MovesRemoved int `json:"avoided_moves"`
	Unparsed     int `json:"unparsed_moves"`
}

// Add accumulates o into s.
func (s *FilterStats) Add(o FilterStats) {
	s.GamesIn += o.GamesIn
	s.GamesOut += o.GamesOut
	s.GamesDropped += o.GamesDropped
	s.MovesIn += o.MovesIn
	s.MovesRemoved += o.MovesRemoved
	s.Unparsed += o.Unparsed
}

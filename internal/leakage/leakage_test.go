package leakage

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeeve/tttoracle/internal/board"
	"github.com/freeeve/tttoracle/internal/corpus"
)

func reachable() []board.Board {
	seen := make(map[board.Board]struct{})
	var out []board.Board
	var walk func(b board.Board, m board.Mark)
	walk = func(b board.Board, m board.Mark) {
		if _, ok := seen[b]; ok {
			return
		}
		seen[b] = struct{}{}
		out = append(out, b)
		if board.Winner(b).Terminal() {
			return
		}
		for _, p := range b.LegalMoves() {
			walk(b.Play(p, m), m.Opponent())
		}
	}
	walk(board.Board{}, board.X)
	return out
}

func frozen(t *testing.T, keys ...string) *Guard {
	t.Helper()
	var cases []corpus.TestCase
	for i, k := range keys {
		b := board.MustParse(k)
		tc, ok := corpus.NewTestCase(i+1, corpus.StageOpening, b, board.X)
		require.True(t, ok)
		cases = append(cases, tc)
	}
	g, err := NewGuard(cases)
	require.NoError(t, err)
	return g
}

func TestCanonicalize_RendererInvariant(t *testing.T) {
	for _, b := range reachable() {
		want := KeyOf(b, board.X)
		for name, render := range map[string]func(board.Board) string{
			"render":  board.Render,
			"plain":   board.RenderPlain,
			"compact": board.RenderCompact,
			"key":     board.Board.Key,
		} {
			got, err := Canonicalize(render(b), board.X)
			require.NoError(t, err, "%s of %s", name, b.Key())
			require.Equal(t, want, got, "%s of %s", name, b.Key())
		}
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	for _, b := range reachable() {
		k, err := Canonicalize(board.Render(b), board.O)
		require.NoError(t, err)
		again, err := Canonicalize(k.Board, k.Mark)
		require.NoError(t, err)
		require.Equal(t, k, again)
	}
}

func TestCanonicalize_Error(t *testing.T) {
	_, err := Canonicalize("X | O\n---------\nX", board.X)
	assert.True(t, errors.Is(err, board.ErrParse))
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "X........|X", Key{Board: "X........", Mark: board.X}.String())
}

// A frozen corpus holding "X........" for X catches that position in every
// printer's output and nothing else.
func TestGuard_CornerOpening(t *testing.T) {
	g := frozen(t, "X........")
	require.Equal(t, 1, g.Len())

	b := board.MustParse("X........")
	for _, text := range []string{board.Render(b), board.RenderPlain(b), board.RenderCompact(b)} {
		k, err := Canonicalize(text, board.X)
		require.NoError(t, err)
		assert.True(t, g.Contains(k), "missed %q", text)

		k, err = Canonicalize(text, board.O)
		require.NoError(t, err)
		assert.False(t, g.Contains(k), "other mover should pass")
	}
	assert.True(t, g.ContainsBoard("X........"))
	assert.False(t, g.ContainsBoard("........X"))
}

type item struct {
	text string
	mark board.Mark
}

func (it item) Key() (Key, error) { return Canonicalize(it.text, it.mark) }

func TestFilter(t *testing.T) {
	g := frozen(t, "X........", "XO.......")
	items := []item{
		{board.RenderPlain(board.MustParse("X........")), board.X},
		{board.Render(board.MustParse("X........")), board.O},
		{board.Render(board.MustParse("XO.......")), board.X},
		{"not a board", board.X},
		{board.RenderCompact(board.MustParse("....X....")), board.X},
	}
	kept, removed, unparsed := Filter(g, items)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, unparsed)
	require.Len(t, kept, 3)
	assert.Equal(t, items[1], kept[0])
	assert.Equal(t, items[3], kept[1])
	assert.Equal(t, items[4], kept[2])
}

func TestLoadGuard(t *testing.T) {
	dir := t.TempDir()
	var cases []corpus.TestCase
	for i, k := range []string{".........", "X........", "X...O...."} {
		b := board.MustParse(k)
		tc, ok := corpus.NewTestCase(i+1, corpus.StageOpening, b, b.SideToMove())
		require.True(t, ok)
		cases = append(cases, tc)
	}
	path := filepath.Join(dir, "frozen.json.zst")
	require.NoError(t, corpus.WriteJSON(path, cases, corpus.ModeCompatible))

	g, err := LoadGuard(path)
	require.NoError(t, err)
	assert.Equal(t, Stats{Source: path, Positions: 3, Boards: 3}, g.Stats())
	assert.True(t, g.Contains(Key{Board: "X........", Mark: board.O}))
	assert.False(t, g.Contains(Key{Board: "X........", Mark: board.X}))

	_, err = LoadGuard(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestNewGuard_RejectsBadCase(t *testing.T) {
	tc, ok := corpus.NewTestCase(3, corpus.StageOpening, board.Board{}, board.X)
	require.True(t, ok)
	tc.BoardState = strings.Repeat("?", 9)
	_, err := NewGuard([]corpus.TestCase{tc})
	assert.ErrorIs(t, err, board.ErrParse)
}

func TestFilterStats_Add(t *testing.T) {
	s := FilterStats{GamesIn: 1, MovesIn: 5, MovesRemoved: 1}
	s.Add(FilterStats{GamesIn: 2, GamesOut: 1, GamesDropped: 1, MovesIn: 4, MovesRemoved: 2, Unparsed: 1})
	assert.Equal(t, FilterStats{GamesIn: 3, GamesOut: 1, GamesDropped: 1, MovesIn: 9, MovesRemoved: 3, Unparsed: 1}, s)
}

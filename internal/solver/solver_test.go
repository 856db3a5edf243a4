package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeeve/tttoracle/internal/board"
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

// plainMinimax is an unpruned reference search with the same scoring.
func plainMinimax(b board.Board, player board.Mark, maximizing bool, depth int) int {
	out := board.Winner(b)
	switch {
	case out.Kind == board.Win && out.Winner == player:
		return winScore - depth
	case out.Kind == board.Win:
		return depth - winScore
	case out.Kind == board.Draw:
		return 0
	}
	mover := player
	best := math.MinInt
	if !maximizing {
		mover = player.Opponent()
		best = math.MaxInt
	}
	for _, p := range b.LegalMoves() {
		v := plainMinimax(b.Play(p, mover), player, !maximizing, depth+1)
		if maximizing {
			best = max(best, v)
		} else {
			best = min(best, v)
		}
	}
	return best
}

func TestExtract_ImmediateWin(t *testing.T) {
	b := board.MustParse("XX.O.....")
	res, ok := Extract(b, board.X)
	require.True(t, ok)
	assert.Equal(t, []int{2}, res.Moves)
	assert.Equal(t, ClassWinningMove, res.Classification)
	assert.Equal(t, WinSentinel, res.Score)
}

func TestExtract_ForcedBlock(t *testing.T) {
	b := board.MustParse("OO.......")
	res, ok := Extract(b, board.X)
	require.True(t, ok)
	assert.Equal(t, []int{2}, res.Moves)
	assert.Equal(t, ClassBlockingMove, res.Classification)
	assert.Equal(t, BlockSentinel, res.Score)
}

func TestExtract_EmptyBoard(t *testing.T) {
	res, ok := Extract(board.Board{}, board.X)
	require.True(t, ok)
	require.NotEmpty(t, res.Moves)
	for _, m := range res.Moves {
		assert.True(t, m >= 0 && m < board.Size, "move %d out of range", m)
	}
	// every opening move draws under perfect play
	assert.Len(t, res.Moves, 9)
	assert.Equal(t, ClassDrawMove, res.Classification)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, board.Center, TieBreak(board.Board{}, board.X, res.Moves))
}

func TestExtract_Terminal(t *testing.T) {
	_, ok := Extract(board.Board{board.X, board.O, board.X, board.X, board.O, board.O, board.O, board.X, board.X}, board.X)
	assert.False(t, ok, "full board")

	_, ok = Extract(board.MustParse("XXXOO...."), board.O)
	assert.False(t, ok, "won board")
}

func TestExtract_MoverMustBeAPlayer(t *testing.T) {
	b := board.MustParse("X........")
	_, ok := Extract(b, board.Empty)
	assert.False(t, ok)

	ans, ok := Oracle(b, board.Empty)
	assert.False(t, ok)
	assert.Equal(t, -1, ans.Primary)

	assert.Zero(t, Evaluate(b, board.Empty, board.Center))
	assert.Zero(t, Minimax(b, board.Empty, true, 0, math.MinInt, math.MaxInt))
}

func TestExtract_SearchLabels(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		mover board.Mark
		class Classification
		moves []int
	}{
		// X in a corner, O on an adjacent edge: X forces a win
		{"winning sequence", "XO.......", board.X, ClassWinningSequence, nil},
		// O must answer a corner opening in the center
		{"corner opening reply", "X........", board.O, ClassDrawMove, []int{4}},
		// X threatens the long diagonal
		{"diagonal block", "X...X.O..", board.O, ClassBlockingMove, []int{8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := Extract(board.MustParse(tt.key), tt.mover)
			require.True(t, ok)
			assert.Equal(t, tt.class, res.Classification)
			if tt.moves != nil {
				assert.Equal(t, tt.moves, res.Moves)
			}
		})
	}
}

// Search-rung sets are exactly the argmax of Evaluate and the label follows the
// sign of the best score.
func TestExtract_SearchRungIsArgmax(t *testing.T) {
	seen := make(map[Classification]int)
	for _, b := range reachable() {
		if board.Winner(b).Terminal() {
			continue
		}
		for _, mover := range []board.Mark{board.X, board.O} {
			res, ok := Extract(b, mover)
			require.True(t, ok)
			seen[res.Classification]++
			switch res.Classification {
			case ClassWinningMove, ClassBlockingMove:
				continue
			case ClassWinningSequence:
				require.Positive(t, res.Score, "board %s", b)
			case ClassDrawMove:
				require.Zero(t, res.Score, "board %s", b)
			case ClassBestDefense:
				require.Negative(t, res.Score, "board %s", b)
			}
			for _, p := range b.LegalMoves() {
				v := Evaluate(b, mover, p)
				require.LessOrEqual(t, v, res.Score, "board %s move %d", b, p)
				require.Equal(t, v == res.Score, res.Contains(p), "board %s move %d", b, p)
			}
		}
	}
	assert.Positive(t, seen[ClassWinningSequence])
	assert.Positive(t, seen[ClassDrawMove])
}

func TestExtract_WinCompleteness(t *testing.T) {
	for _, b := range reachable() {
		if board.Winner(b).Terminal() {
			continue
		}
		mover := b.SideToMove()
		var want []int
		for _, p := range b.LegalMoves() {
			if out := board.Winner(b.Play(p, mover)); out.Kind == board.Win && out.Winner == mover {
				want = append(want, p)
			}
		}
		if len(want) == 0 {
			continue
		}
		res, ok := Extract(b, mover)
		require.True(t, ok)
		require.Equal(t, ClassWinningMove, res.Classification, "board %s", b)
		require.Equal(t, want, res.Moves, "board %s", b)
	}
}

func TestExtract_BlockCompleteness(t *testing.T) {
	checked := 0
	for _, b := range reachable() {
		if board.Winner(b).Terminal() {
			continue
		}
		mover := b.SideToMove()
		if len(completingMoves(b, mover)) > 0 {
			continue
		}
		threats := completingMoves(b, mover.Opponent())
		if len(threats) != 1 {
			continue
		}
		res, ok := Extract(b, mover)
		require.True(t, ok)
		require.Equal(t, ClassBlockingMove, res.Classification, "board %s", b)
		require.Equal(t, threats, res.Moves, "board %s", b)
		checked++
	}
	assert.Positive(t, checked)
}

func TestExtract_NonEmpty(t *testing.T) {
	for _, b := range reachable() {
		if board.Winner(b).Terminal() {
			continue
		}
		for _, mover := range []board.Mark{board.X, board.O} {
			res, ok := Extract(b, mover)
			require.True(t, ok, "board %s", b)
			require.NotEmpty(t, res.Moves, "board %s mover %s", b, mover)
			for _, m := range res.Moves {
				require.Equal(t, board.Empty, b[m], "move %d on occupied cell in %s", m, b)
			}
		}
	}
}

// With two separate opponent threats the block rung returns both cells, even
// though search proves every move loses. This is the documented ladder behaviour.
func TestExtract_UnblockableForkKnownLimitation(t *testing.T) {
	b := board.MustParse("XX.XO...O")
	require.NoError(t, b.Validate())
	require.Equal(t, board.O, b.SideToMove())

	res, ok := Extract(b, board.O)
	require.True(t, ok)
	assert.Equal(t, ClassBlockingMove, res.Classification)
	assert.Equal(t, []int{2, 6}, res.Moves)
	assert.Equal(t, BlockSentinel, res.Score)

	exact := search(b, board.O)
	assert.Negative(t, exact.Score, "every move loses under full search")
	assert.Equal(t, ClassBestDefense, exact.Classification)
}

func TestAlphaBetaMatchesPlainMinimax(t *testing.T) {
	if testing.Short() {
		t.Skip("exhaustive comparison")
	}
	for _, b := range reachable() {
		if board.Winner(b).Terminal() {
			continue
		}
		mover := b.SideToMove()
		for _, p := range b.LegalMoves() {
			want := plainMinimax(b.Play(p, mover), mover, false, 0)
			got := Evaluate(b, mover, p)
			require.Equal(t, want, got, "board %s move %d", b, p)
		}
	}
}

func TestMinimax_TerminalScoring(t *testing.T) {
	won := board.MustParse("XXXOO....")
	assert.Equal(t, 10, Minimax(won, board.X, false, 0, math.MinInt, math.MaxInt))
	assert.Equal(t, 7, Minimax(won, board.X, false, 3, math.MinInt, math.MaxInt))
	assert.Equal(t, -7, Minimax(won, board.O, true, 3, math.MinInt, math.MaxInt))

	draw := board.Board{board.X, board.O, board.X, board.X, board.O, board.O, board.O, board.X, board.X}
	assert.Equal(t, 0, Minimax(draw, board.X, true, 5, math.MinInt, math.MaxInt))
}

func countNodes(b board.Board, m board.Mark) int {
	n := 1
	if board.Winner(b).Terminal() {
		return n
	}
	for _, p := range b.LegalMoves() {
		n += countNodes(b.Play(p, m), m.Opponent())
	}
	return n
}

func TestEvaluate_PrunesEmptyBoard(t *testing.T) {
	_, st := EvaluateWithStats(board.Board{}, board.X, board.Center)
	full := countNodes(board.Board{}.Play(board.Center, board.X), board.O)
	assert.Positive(t, st.Nodes)
	assert.Less(t, st.Nodes, full)
}

func TestClassification_Text(t *testing.T) {
	for c := ClassWinningMove; c <= ClassBestDefense; c++ {
		text, err := c.MarshalText()
		require.NoError(t, err)
		var back Classification
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, c, back)
	}
	var c Classification
	assert.Error(t, c.UnmarshalText([]byte("optimal_move")))
}

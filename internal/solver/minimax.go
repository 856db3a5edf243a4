// Package solver computes game-theoretic move sets for tic-tac-toe positions.
//
// The full game tree is small enough (under 9! leaves, far fewer after pruning)
// that no transposition table is kept; every call searches from scratch. That
// only holds because the state space is tiny.
package solver

import (
	"math"

	"github.com/freeeve/tttoracle/internal/board"
)

// winScore is the terminal value of a win at depth 0.
const winScore = 10

// Stats counts search work for diagnostics.
type Stats struct {
	Nodes int
}

// Minimax returns the value of b from player's point of view, with alpha-beta
// pruning. maximizing says whether player is the side to move. A win for player
// scores winScore-depth, a loss depth-winScore, a draw 0. A player other than X
// or O scores 0 without searching.
func Minimax(b board.Board, player board.Mark, maximizing bool, depth, alpha, beta int) int {
	if !player.IsPlayer() {
		return 0
	}
	var st Stats
	return minimax(b, player, maximizing, depth, alpha, beta, &st)
}

func minimax(b board.Board, player board.Mark, maximizing bool, depth, alpha, beta int, st *Stats) int {
	st.Nodes++

	switch out := board.Winner(b); {
	case out.Kind == board.Win && out.Winner == player:
		return winScore - depth
	case out.Kind == board.Win:
		return depth - winScore
	case out.Kind == board.Draw:
		return 0
	}

	if maximizing {
		best := math.MinInt
		for p := 0; p < board.Size; p++ {
			if b[p] != board.Empty {
				continue
			}
			v := minimax(b.Play(p, player), player, false, depth+1, alpha, beta, st)
			best = max(best, v)
			alpha = max(alpha, v)
			if beta <= alpha {
				break
			}
		}
		return best
	}

	opponent := player.Opponent()
	best := math.MaxInt
	for p := 0; p < board.Size; p++ {
		if b[p] != board.Empty {
			continue
		}
		v := minimax(b.Play(p, opponent), player, true, depth+1, alpha, beta, st)
		best = min(best, v)
		beta = min(beta, v)
		if beta <= alpha {
			break
		}
	}
	return best
}

// Evaluate plays pos for player and returns the exact value of the resulting
// position, searched with a full window and the opponent to reply.
func Evaluate(b board.Board, player board.Mark, pos int) int {
	v, _ := EvaluateWithStats(b, player, pos)
	return v
}

// EvaluateWithStats is Evaluate that also reports how many nodes were visited.
func EvaluateWithStats(b board.Board, player board.Mark, pos int) (int, Stats) {
	var st Stats
	if !player.IsPlayer() {
		return 0, st
	}
	v := minimax(b.Play(pos, player), player, false, 0, math.MinInt, math.MaxInt, &st)
	return v, st
}

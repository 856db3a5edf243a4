package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Move notation: a position 0-8 rendered as "[n]".
//
//   0 | 1 | 2
//   ---------
//   3 | 4 | 5
//   ---------
//   6 | 7 | 8

// PositionType classifies a cell by its geometry.
type PositionType string

const (
	PositionCenter PositionType = "center"
	PositionCorner PositionType = "corner"
	PositionEdge   PositionType = "edge"
)

// TypeOf returns the geometric class of pos.
func TypeOf(pos int) PositionType {
	switch pos {
	case Center:
		return PositionCenter
	case 0, 2, 6, 8:
		return PositionCorner
	default:
		return PositionEdge
	}
}

// FormatMove renders a position as "[n]".
func FormatMove(pos int) string {
	return "[" + strconv.Itoa(pos) + "]"
}

// FormatMoves renders each position with FormatMove.
func FormatMoves(moves []int) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = FormatMove(m)
	}
	return out
}

// ParseMove parses "[n]" (surrounding whitespace allowed) into a position.
func ParseMove(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) < 3 || s[0] != '[' || s[len(s)-1] != ']' {
		return 0, fmt.Errorf("move %q is not in [n] notation", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s[1 : len(s)-1]))
	if err != nil {
		return 0, fmt.Errorf("move %q: %w", s, err)
	}
	if n < 0 || n >= Size {
		return 0, fmt.Errorf("move %q out of range 0-8", s)
	}
	return n, nil
}

// ParseMoves parses a list of "[n]" moves.
func ParseMoves(ss []string) ([]int, error) {
	out := make([]int, 0, len(ss))
	for _, s := range ss {
		n, err := ParseMove(s)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Package board holds the 3x3 tic-tac-toe position, terminal detection, and the
// textual formats boards travel in.
package board

import (
	"errors"
	"fmt"
	"strings"
)

// Size is the number of cells on the board.
const Size = 9

// Center is the middle cell.
const Center = 4

var (
	// ErrTurnOrder is returned when X does not lead O by zero or one mark.
	ErrTurnOrder = errors.New("mark counts violate turn order")
	// ErrDoubleWin is returned when both marks complete a line.
	ErrDoubleWin = errors.New("both marks have three in a row")
)

// Mark is the content of a cell.
type Mark uint8

const (
	Empty Mark = iota
	X          // always moves first
	O
)

// IsPlayer reports whether m is X or O.
func (m Mark) IsPlayer() bool {
	return m == X || m == O
}

// Opponent returns the other player's mark. Empty has no opponent.
func (m Mark) Opponent() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return " "
	}
}

// KeyChar is the character used for the mark in canonical keys.
func (m Mark) KeyChar() byte {
	switch m {
	case X:
		return 'X'
	case O:
		return 'O'
	default:
		return '.'
	}
}

// MarshalText encodes a player mark as "X" or "O".
func (m Mark) MarshalText() ([]byte, error) {
	if !m.IsPlayer() {
		return nil, fmt.Errorf("mark %d is not a player", m)
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a player mark.
func (m *Mark) UnmarshalText(text []byte) error {
	parsed, err := ParseMark(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMark parses a player mark ("X" or "O", case-insensitive).
func ParseMark(s string) (Mark, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return X, nil
	case "O":
		return O, nil
	}
	return Empty, fmt.Errorf("invalid mark %q", s)
}

// Lines are the eight winning triples: rows, columns, diagonals.
var Lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Board is a row-major position. It is a value type: Play returns a copy.
type Board [Size]Mark

// FromKey builds a board from a 9-character canonical key.
func FromKey(key string) (Board, error) {
	return Parse(key)
}

// Play returns a copy of the board with mark placed at pos.
func (b Board) Play(pos int, m Mark) Board {
	b[pos] = m
	return b
}

// Count returns how many cells hold m.
func (b Board) Count(m Mark) int {
	n := 0
	for _, c := range b {
		if c == m {
			n++
		}
	}
	return n
}

// Empties returns the number of empty cells.
func (b Board) Empties() int {
	return b.Count(Empty)
}

// IsFull reports whether no cell is empty.
func (b Board) IsFull() bool {
	return b.Empties() == 0
}

// LegalMoves returns the empty positions in ascending order.
func (b Board) LegalMoves() []int {
	moves := make([]int, 0, Size)
	for i, c := range b {
		if c == Empty {
			moves = append(moves, i)
		}
	}
	return moves
}

// SideToMove returns X when both marks have been placed equally often, else O.
func (b Board) SideToMove() Mark {
	if b.Count(X) > b.Count(O) {
		return O
	}
	return X
}

// Key returns the 9-character canonical encoding (X, O, '.').
func (b Board) Key() string {
	var sb [Size]byte
	for i, c := range b {
		sb[i] = c.KeyChar()
	}
	return string(sb[:])
}

func (b Board) String() string {
	return b.Key()
}

// Validate checks the count and double-win invariants.
func (b Board) Validate() error {
	diff := b.Count(X) - b.Count(O)
	if diff != 0 && diff != 1 {
		return fmt.Errorf("%w: X=%d O=%d", ErrTurnOrder, b.Count(X), b.Count(O))
	}
	if b.completes(X) && b.completes(O) {
		return ErrDoubleWin
	}
	return nil
}

func (b Board) completes(m Mark) bool {
	for _, l := range Lines {
		if b[l[0]] == m && b[l[1]] == m && b[l[2]] == m {
			return true
		}
	}
	return false
}

// Threats counts lines holding two of m and one empty cell.
func (b Board) Threats(m Mark) int {
	n := 0
	for _, l := range Lines {
		own, empty := 0, 0
		for _, p := range l {
			switch b[p] {
			case m:
				own++
			case Empty:
				empty++
			}
		}
		if own == 2 && empty == 1 {
			n++
		}
	}
	return n
}

package board

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("unparseable board")

// ParseError reports text that does not decompose into a 3x3 grid.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse board %q: %s", e.Text, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

const separator = "---------"

// Render produces the canonical rendering used in corpus files:
//
//	" X | O |   \n---------\n   | X |   \n---------\n   |   | O "
func Render(b Board) string {
	rows := make([]string, 3)
	for r := 0; r < 3; r++ {
		rows[r] = fmt.Sprintf(" %s | %s | %s ", b[r*3], b[r*3+1], b[r*3+2])
	}
	return strings.Join(rows, "\n"+separator+"\n")
}

// RenderPlain produces the self-play environment rendering, which has no outer
// padding: "X | O |  ".
func RenderPlain(b Board) string {
	rows := make([]string, 3)
	for r := 0; r < 3; r++ {
		rows[r] = fmt.Sprintf("%s | %s | %s", b[r*3], b[r*3+1], b[r*3+2])
	}
	return strings.Join(rows, "\n"+separator+"\n")
}

// RenderCompact produces three lines of X, O and '.'.
func RenderCompact(b Board) string {
	k := b.Key()
	return k[0:3] + "\n" + k[3:6] + "\n" + k[6:9]
}

// Parse decodes any supported rendering: Render, RenderPlain, RenderCompact,
// bordered rows ("| X | O |   |"), or a bare 9-character key. Separator lines made
// of '-', '+' or '=' are skipped. Cells may be blank, '.', '_' or a digit
// placeholder to mean empty.
func Parse(text string) (Board, error) {
	var b Board
	cells := make([]Mark, 0, Size)
	rows := 0

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if isSeparator(line) {
			continue
		}
		var row []Mark
		var err error
		if strings.Contains(line, "|") {
			row, err = parsePipeRow(line)
		} else {
			row, err = parseCompactRow(line)
		}
		if err != nil {
			return b, &ParseError{Text: text, Reason: err.Error()}
		}
		if len(row) != 3 && len(row) != Size {
			return b, &ParseError{Text: text, Reason: fmt.Sprintf("row %d has %d cells", rows+1, len(row))}
		}
		cells = append(cells, row...)
		rows++
	}

	if len(cells) != Size {
		return b, &ParseError{Text: text, Reason: fmt.Sprintf("found %d cells, want 9", len(cells))}
	}
	if rows != 1 && rows != 3 {
		return b, &ParseError{Text: text, Reason: fmt.Sprintf("found %d rows, want 3", rows)}
	}
	copy(b[:], cells)
	return b, nil
}

// MustParse is Parse for literals in tests and tables.
func MustParse(text string) Board {
	b, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return b
}

func isSeparator(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" {
		return true
	}
	for _, r := range t {
		if r != '-' && r != '+' && r != '=' {
			return false
		}
	}
	return true
}

func parsePipeRow(line string) ([]Mark, error) {
	parts := strings.Split(line, "|")
	if len(parts) == 5 && strings.TrimSpace(parts[0]) == "" && strings.TrimSpace(parts[4]) == "" {
		parts = parts[1:4]
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("row %q has %d cells", line, len(parts))
	}
	row := make([]Mark, 3)
	for i, p := range parts {
		m, ok := cellMark(strings.TrimSpace(p))
		if !ok {
			return nil, fmt.Errorf("invalid cell %q", strings.TrimSpace(p))
		}
		row[i] = m
	}
	return row, nil
}

func parseCompactRow(line string) ([]Mark, error) {
	t := strings.Join(strings.Fields(line), "")
	row := make([]Mark, 0, len(t))
	for _, r := range t {
		m, ok := cellMark(string(r))
		if !ok {
			return nil, fmt.Errorf("invalid cell %q", string(r))
		}
		row = append(row, m)
	}
	return row, nil
}

func cellMark(s string) (Mark, bool) {
	switch s {
	case "X", "x":
		return X, true
	case "O", "o":
		return O, true
	case "", ".", "_":
		return Empty, true
	}
	if len(s) == 1 && s[0] >= '0' && s[0] <= '8' {
		return Empty, true
	}
	return Empty, false
}

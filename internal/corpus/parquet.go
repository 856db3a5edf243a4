package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/freeeve/tttoracle/internal/board"
	"github.com/freeeve/tttoracle/internal/solver"
)

const parquetSchema = "tictactoe_case_v1"

// CaseRow is the columnar form of a TestCase. Moves are stored as positions.
type CaseRow struct {
	ID              int32         `parquet:"id"`
	Difficulty      string        `parquet:"difficulty,dict"`
	Stage           string        `parquet:"stage,dict"`
	BoardState      string        `parquet:"board_state"`
	BoardKey        string        `parquet:"board_key"`
	Player          string        `parquet:"player,dict"`
	AvailableMoves  []int32       `parquet:"available_moves"`
	MoveType        string        `parquet:"move_type,dict"`
	Description     string        `parquet:"description"`
	MinimaxVerified bool          `parquet:"minimax_verified"`
	MinimaxScore    *int32        `parquet:"minimax_score,optional"`
	OptimalMoves    []int32       `parquet:"optimal_moves"`
	OptimalMove     int32         `parquet:"optimal_move"`
	Analysis        []AnalysisRow `parquet:"move_analysis"`
}

// AnalysisRow is one entry of CaseRow.Analysis.
type AnalysisRow struct {
	Position       int32  `parquet:"position"`
	PositionType   string `parquet:"position_type,dict"`
	ThreatsCreated int32  `parquet:"threats_created"`
	ThreatsBlocked int32  `parquet:"threats_blocked"`
	StrategicValue int32  `parquet:"strategic_value"`
}

// WriteParquet writes cases to path with zstd column compression.
func WriteParquet(path string, cases []TestCase) error {
	rows := make([]CaseRow, 0, len(cases))
	for _, tc := range cases {
		row, err := toRow(tc)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", parquetSchema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// ReadParquet loads cases written by WriteParquet.
func ReadParquet(path string) ([]TestCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[CaseRow](f)
	defer reader.Close()

	var cases []TestCase
	buf := make([]CaseRow, 64)
	for {
		n, err := reader.Read(buf)
		for i := 0; i < n; i++ {
			tc, convErr := fromRow(buf[i])
			if convErr != nil {
				return nil, convErr
			}
			cases = append(cases, tc)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet: %w", err)
		}
	}
	return cases, nil
}

func toRow(tc TestCase) (CaseRow, error) {
	avail, err := board.ParseMoves(tc.AvailableMoves)
	if err != nil {
		return CaseRow{}, fmt.Errorf("case %d available_moves: %w", tc.ID, err)
	}
	optimal, err := board.ParseMoves(tc.OptimalMoves)
	if err != nil {
		return CaseRow{}, fmt.Errorf("case %d optimal_moves: %w", tc.ID, err)
	}
	primary, err := board.ParseMove(tc.OptimalMove)
	if err != nil {
		return CaseRow{}, fmt.Errorf("case %d optimal_move: %w", tc.ID, err)
	}
	row := CaseRow{
		ID:              int32(tc.ID),
		Difficulty:      tc.Difficulty.String(),
		Stage:           tc.Stage.String(),
		BoardState:      tc.BoardState,
		BoardKey:        tc.BoardKey,
		Player:          tc.Player.String(),
		AvailableMoves:  int32s(avail),
		MoveType:        tc.MoveType.String(),
		Description:     tc.Description,
		MinimaxVerified: tc.MinimaxVerified,
		OptimalMoves:    int32s(optimal),
		OptimalMove:     int32(primary),
	}
	if tc.MinimaxScore != nil {
		s := int32(*tc.MinimaxScore)
		row.MinimaxScore = &s
	}
	for _, pos := range optimal {
		a, ok := tc.MoveAnalysis[board.FormatMove(pos)]
		if !ok {
			continue
		}
		row.Analysis = append(row.Analysis, AnalysisRow{
			Position:       int32(pos),
			PositionType:   string(a.PositionType),
			ThreatsCreated: int32(a.ThreatsCreated),
			ThreatsBlocked: int32(a.ThreatsBlocked),
			StrategicValue: int32(a.StrategicValue),
		})
	}
	return row, nil
}

func fromRow(row CaseRow) (TestCase, error) {
	tc := TestCase{
		ID:              int(row.ID),
		BoardState:      row.BoardState,
		BoardKey:        row.BoardKey,
		AvailableMoves:  formatInt32s(row.AvailableMoves),
		Description:     row.Description,
		MinimaxVerified: row.MinimaxVerified,
		OptimalMove:     board.FormatMove(int(row.OptimalMove)),
	}
	if err := tc.Difficulty.UnmarshalText([]byte(row.Difficulty)); err != nil {
		return tc, fmt.Errorf("case %d: %w", row.ID, err)
	}
	if err := tc.Stage.UnmarshalText([]byte(row.Stage)); err != nil {
		return tc, fmt.Errorf("case %d: %w", row.ID, err)
	}
	if strings.TrimSpace(row.Player) == "" {
		return tc, fmt.Errorf("case %d: %w", row.ID, ErrNoPlayer)
	}
	if err := tc.Player.UnmarshalText([]byte(row.Player)); err != nil {
		return tc, fmt.Errorf("case %d: %w", row.ID, err)
	}
	if err := tc.MoveType.UnmarshalText([]byte(row.MoveType)); err != nil {
		return tc, fmt.Errorf("case %d: %w", row.ID, err)
	}
	if row.MinimaxScore != nil {
		s := int(*row.MinimaxScore)
		tc.MinimaxScore = &s
	}
	if len(row.OptimalMoves) > 0 {
		tc.OptimalMoves = formatInt32s(row.OptimalMoves)
		tc.PrimaryOptimal = tc.OptimalMove
		tc.TotalOptimalSolutions = len(row.OptimalMoves)
	}
	if len(row.Analysis) > 0 {
		tc.MoveAnalysis = make(map[string]solver.MoveAnalysis, len(row.Analysis))
		for _, a := range row.Analysis {
			tc.MoveAnalysis[board.FormatMove(int(a.Position))] = solver.MoveAnalysis{
				Position:       int(a.Position),
				PositionType:   board.PositionType(a.PositionType),
				ThreatsCreated: int(a.ThreatsCreated),
				ThreatsBlocked: int(a.ThreatsBlocked),
				StrategicValue: int(a.StrategicValue),
			}
		}
	}
	return tc, nil
}

func int32s(v []int) []int32 {
	if len(v) == 0 {
		return nil
	}
	out := make([]int32, len(v))
	for i, n := range v {
		out[i] = int32(n)
	}
	return out
}

func formatInt32s(v []int32) []string {
	out := make([]string, len(v))
	for i, n := range v {
		out[i] = board.FormatMove(int(n))
	}
	return out
}

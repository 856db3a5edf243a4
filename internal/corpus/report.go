package corpus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/freeeve/tttoracle/internal/board"
	"github.com/freeeve/tttoracle/internal/solver"
)

// Report describes one generation or validation run.
type Report struct {
	RunID        string                        `json:"run_id"`
	CreatedAt    time.Time                     `json:"created_at"`
	Seed         int64                         `json:"seed,omitempty"`
	Mode         Mode                          `json:"mode"`
	Mover        string                        `json:"mover,omitempty"`
	Output       string                        `json:"output,omitempty"`
	Total        int                           `json:"total_cases"`
	Stages       map[Stage]int                 `json:"stage_distribution"`
	Generation   *GenerationStats              `json:"generation,omitempty"`
	Difficulty   map[Difficulty]int            `json:"difficulty_distribution"`
	MoveTypes    map[solver.Classification]int `json:"move_type_distribution"`
	MultiOptimal MultiOptimalStats             `json:"multi_optimal"`
	Validation   ValidationReport              `json:"validation"`
}

// MultiOptimalStats summarizes how often several moves tie for optimal.
type MultiOptimalStats struct {
	CasesWithMultiple int                        `json:"cases_with_multiple"`
	AverageSolutions  float64                    `json:"average_solutions"`
	MaxSolutions      int                        `json:"max_solutions"`
	PositionTypes     map[board.PositionType]int `json:"position_types"`
}

// NewReport summarizes cases. stats is nil for runs that did not generate.
func NewReport(cases []TestCase, mode Mode, stats *GenerationStats, val ValidationReport) Report {
	r := Report{
		RunID:      uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Mode:       mode,
		Total:      len(cases),
		Stages:     make(map[Stage]int),
		Generation: stats,
		Difficulty: make(map[Difficulty]int),
		MoveTypes:  make(map[solver.Classification]int),
		Validation: val,
		MultiOptimal: MultiOptimalStats{
			PositionTypes: make(map[board.PositionType]int),
		},
	}

	solutions := 0
	for _, tc := range cases {
		r.Stages[tc.Stage]++
		r.Difficulty[tc.Difficulty]++
		r.MoveTypes[tc.MoveType]++

		n := len(tc.Accepted())
		solutions += n
		r.MultiOptimal.MaxSolutions = max(r.MultiOptimal.MaxSolutions, n)
		if n > 1 {
			r.MultiOptimal.CasesWithMultiple++
			for _, a := range tc.MoveAnalysis {
				r.MultiOptimal.PositionTypes[a.PositionType]++
			}
		}
	}
	if len(cases) > 0 {
		r.MultiOptimal.AverageSolutions = float64(solutions) / float64(len(cases))
	}
	return r
}

// WriteReport writes r as indented JSON.
func WriteReport(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return WriteAtomic(path, append(data, '\n'))
}

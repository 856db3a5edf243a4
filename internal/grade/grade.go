// Package grade scores free-text answers against a corpus.
package grade

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/freeeve/tttoracle/internal/board"
	"github.com/freeeve/tttoracle/internal/corpus"
)

// movePatterns are tried in order; the last match of the first pattern that
// matches at all is the answer.
var movePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:answer|答案)\s*[:：]\s*\[([0-8])\]`),
	regexp.MustCompile(`(?i)(?:final choice|最终选择)\s*[:：]\s*\[([0-8])\]`),
	regexp.MustCompile(`(?i)(?:choice|选择)\s*[:：]\s*\[([0-8])\]`),
	regexp.MustCompile(`(?i)(?:i choose|我选择)\s*[:：]?\s*\[([0-8])\]`),
	regexp.MustCompile(`\[([0-8])\]`),
	regexp.MustCompile(`(?i)(?:position|位置)\s*([0-8])\b`),
}

// ExtractMove finds the move a response settles on.
func ExtractMove(response string) (int, bool) {
	for _, re := range movePatterns {
		matches := re.FindAllStringSubmatch(response, -1)
		if len(matches) == 0 {
			continue
		}
		n, err := strconv.Atoi(matches[len(matches)-1][1])
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Response is one line of a responses file.
type Response struct {
	ID       int    `json:"id"`
	Response string `json:"response"`
}

// ReadResponses reads JSONL responses keyed by case id. Blank lines are
// skipped; a repeated id is an error.
func ReadResponses(path string) (map[int]string, error) {
	data, err := corpus.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("read responses: %w", err)
	}
	out := make(map[int]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var r Response
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNum, err)
		}
		if _, dup := out[r.ID]; dup {
			return nil, fmt.Errorf("%s:%d: duplicate id %d", path, lineNum, r.ID)
		}
		out[r.ID] = r.Response
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read responses: %w", err)
	}
	return out, nil
}

// Result is the grading of one case.
type Result struct {
	CaseID         int      `json:"case_id"`
	BoardState     string   `json:"board_state"`
	Player         string   `json:"player"`
	AvailableMoves []string `json:"available_moves"`
	OptimalMoves   []string `json:"optimal_moves"`
	ModelOutput    string   `json:"model_output"`
	PredictedMove  string   `json:"predicted_move,omitempty"`
	Answered       bool     `json:"answered"`
	IsCorrect      bool     `json:"is_correct"`
	Difficulty     string   `json:"difficulty"`
	Stage          string   `json:"stage"`
	MoveType       string   `json:"move_type"`
}

// Bucket is the tally for one breakdown key.
type Bucket struct {
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// Summary aggregates a grading run.
type Summary struct {
	TotalCases          int               `json:"total_cases"`
	CorrectCases        int               `json:"correct_cases"`
	Unanswered          int               `json:"unanswered"`
	AccuracyPercentage  float64           `json:"accuracy_percentage"`
	DifficultyBreakdown map[string]Bucket `json:"difficulty_breakdown"`
	StageBreakdown      map[string]Bucket `json:"stage_breakdown"`
	MoveTypeBreakdown   map[string]Bucket `json:"move_type_breakdown"`
}

// Info identifies the inputs of a grading run.
type Info struct {
	Timestamp time.Time `json:"timestamp"`
	Corpus    string    `json:"test_set,omitempty"`
	Responses string    `json:"responses,omitempty"`
}

// Evaluation is the full grading output.
type Evaluation struct {
	Info            Info     `json:"evaluation_info"`
	Summary         Summary  `json:"summary"`
	DetailedResults []Result `json:"detailed_results"`
}

// Grade scores every case. A move is correct when it is in the case's optimal
// set, or equals optimal_move for compatible corpora. Cases without a response
// or without a recognizable move count as incorrect.
func Grade(cases []corpus.TestCase, responses map[int]string) Evaluation {
	ev := Evaluation{
		Info: Info{Timestamp: time.Now().UTC()},
		Summary: Summary{
			DifficultyBreakdown: make(map[string]Bucket),
			StageBreakdown:      make(map[string]Bucket),
			MoveTypeBreakdown:   make(map[string]Bucket),
		},
		DetailedResults: make([]Result, 0, len(cases)),
	}

	for _, tc := range cases {
		res := Result{
			CaseID:         tc.ID,
			BoardState:     tc.BoardState,
			Player:         tc.Player.String(),
			AvailableMoves: tc.AvailableMoves,
			OptimalMoves:   tc.Accepted(),
			ModelOutput:    responses[tc.ID],
			Difficulty:     tc.Difficulty.String(),
			Stage:          tc.Stage.String(),
			MoveType:       tc.MoveType.String(),
		}
		if pos, ok := ExtractMove(res.ModelOutput); ok {
			res.Answered = true
			res.PredictedMove = board.FormatMove(pos)
			res.IsCorrect = slices.Contains(res.OptimalMoves, res.PredictedMove)
		}

		s := &ev.Summary
		s.TotalCases++
		if res.IsCorrect {
			s.CorrectCases++
		}
		if !res.Answered {
			s.Unanswered++
		}
		tally(s.DifficultyBreakdown, res.Difficulty, res.IsCorrect)
		tally(s.StageBreakdown, res.Stage, res.IsCorrect)
		tally(s.MoveTypeBreakdown, res.MoveType, res.IsCorrect)
		ev.DetailedResults = append(ev.DetailedResults, res)
	}

	ev.Summary.AccuracyPercentage = percent(ev.Summary.CorrectCases, ev.Summary.TotalCases)
	for _, m := range []map[string]Bucket{ev.Summary.DifficultyBreakdown, ev.Summary.StageBreakdown, ev.Summary.MoveTypeBreakdown} {
		for k, b := range m {
			b.Accuracy = percent(b.Correct, b.Total)
			m[k] = b
		}
	}
	return ev
}

func tally(m map[string]Bucket, key string, correct bool) {
	b := m[key]
	b.Total++
	if correct {
		b.Correct++
	}
	m[key] = b
}

func percent(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}

// WriteEvaluation writes ev as indented JSON.
func WriteEvaluation(path string, ev Evaluation) error {
	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return fmt.Errorf("encode evaluation: %w", err)
	}
	return corpus.WriteAtomic(path, append(data, '\n'))
}

package corpus

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/freeeve/tttoracle/internal/board"
)

// DefaultMaxAttempts bounds rejection sampling per slot.
const DefaultMaxAttempts = 100

// Source is the randomness the generator draws from. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewSource returns a seeded source. Seed 0 picks a fresh seed from the clock;
// the seed actually used is returned so a run can be reproduced.
func NewSource(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), seed
}

// GeneratorConfig sizes a corpus.
type GeneratorConfig struct {
	Opening     int
	Midgame     int
	Endgame     int
	MaxAttempts int        // default 100
	Mover       board.Mark // Empty asks the side to move; X or O fixes the mover
}

func (c GeneratorConfig) quota(s Stage) int {
	switch s {
	case StageOpening:
		return c.Opening
	case StageMidgame:
		return c.Midgame
	default:
		return c.Endgame
	}
}

// GenerationStats counts what happened per stage.
type GenerationStats struct {
	Requested map[Stage]int `json:"requested"`
	Generated map[Stage]int `json:"generated"`
	Skipped   map[Stage]int `json:"skipped"`
	Rejected  int           `json:"rejected_boards"`
}

// SkippedTotal is the number of slots lost to sampling exhaustion.
func (s GenerationStats) SkippedTotal() int {
	n := 0
	for _, v := range s.Skipped {
		n += v
	}
	return n
}

// Generator produces a stratified corpus.
type Generator struct {
	cfg GeneratorConfig
	src Source
	log zerolog.Logger
}

// NewGenerator creates a generator. A nil src gets a clock-seeded source.
func NewGenerator(cfg GeneratorConfig, src Source, log zerolog.Logger) *Generator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if src == nil {
		src, _ = NewSource(0)
	}
	return &Generator{cfg: cfg, src: src, log: log}
}

// Generate fills every stage quota in order. A slot whose sampling attempts are
// exhausted is skipped and counted; the corpus then ends up under quota.
func (g *Generator) Generate(ctx context.Context) ([]TestCase, GenerationStats, error) {
	stats := GenerationStats{
		Requested: make(map[Stage]int),
		Generated: make(map[Stage]int),
		Skipped:   make(map[Stage]int),
	}
	var cases []TestCase

	for _, stage := range Stages {
		quota := g.cfg.quota(stage)
		stats.Requested[stage] = quota
		for i := 0; i < quota; i++ {
			if err := ctx.Err(); err != nil {
				return cases, stats, err
			}
			b, rejected, ok := g.sample(stage)
			stats.Rejected += rejected
			if !ok {
				stats.Skipped[stage]++
				g.log.Warn().Str("stage", stage.String()).Int("slot", i).Int("attempts", g.cfg.MaxAttempts).
					Msg("sampling exhausted, slot skipped")
				continue
			}
			tc, ok := NewTestCase(len(cases)+1, stage, b, g.mover(b))
			if !ok {
				stats.Skipped[stage]++
				continue
			}
			cases = append(cases, tc)
			stats.Generated[stage]++
			g.log.Debug().Int("id", tc.ID).Str("stage", stage.String()).Str("board", tc.BoardKey).
				Str("move_type", tc.MoveType.String()).Strs("optimal", tc.OptimalMoves).Msg("case")
		}
		g.log.Info().Str("stage", stage.String()).Int("generated", stats.Generated[stage]).
			Int("skipped", stats.Skipped[stage]).Msg("stage complete")
	}
	return cases, stats, nil
}

func (g *Generator) mover(b board.Board) board.Mark {
	if g.cfg.Mover == board.X || g.cfg.Mover == board.O {
		return g.cfg.Mover
	}
	return b.SideToMove()
}

// sample draws a board for stage. X gets the extra mark when the count is odd.
// Boards with a winner are redrawn up to MaxAttempts times; rejected counts
// the redraws.
func (g *Generator) sample(stage Stage) (b board.Board, rejected int, ok bool) {
	lo, hi := stage.MarkRange()
	n := lo + g.src.Intn(hi-lo+1)
	for attempt := 0; attempt < g.cfg.MaxAttempts; attempt++ {
		b = g.place(n)
		if !board.Winner(b).Terminal() {
			return b, rejected, true
		}
		rejected++
	}
	return board.Board{}, rejected, false
}

func (g *Generator) place(n int) board.Board {
	var cells [board.Size]int
	for i := range cells {
		cells[i] = i
	}
	g.src.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })

	xs := (n + 1) / 2
	var b board.Board
	for i := 0; i < n; i++ {
		if i < xs {
			b[cells[i]] = board.X
		} else {
			b[cells[i]] = board.O
		}
	}
	return b
}

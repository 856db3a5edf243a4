package transcript

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/freeeve/tttoracle/internal/leakage"
)

// Config configures the filter worker.
type Config struct {
	InputDir     string         // Directory to read transcript files from
	OutputDir    string         // Directory for filtered files
	ProcessedDir string         // Directory to move consumed inputs to (default InputDir/processed)
	Workers      int            // Files filtered in parallel (default 1)
	PollInterval time.Duration  // Rescan interval in watch mode (default 10s)
	Debounce     time.Duration  // Delay after a file event before scanning (default 250ms)
	Logger       zerolog.Logger // Logger
}

// Worker filters transcript files from a folder.
type Worker struct {
	cfg   Config
	guard *leakage.Guard
	log   zerolog.Logger
}

// NewWorker creates a worker and its directories.
func NewWorker(cfg Config, guard *leakage.Guard) (*Worker, error) {
	if cfg.InputDir == "" {
		return nil, errors.New("transcript worker: input dir is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("transcript worker: output dir is required")
	}
	if guard == nil {
		return nil, errors.New("transcript worker: guard is required")
	}
	if cfg.ProcessedDir == "" {
		cfg.ProcessedDir = filepath.Join(cfg.InputDir, "processed")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = 250 * time.Millisecond
	}

	for _, dir := range []string{cfg.InputDir, cfg.OutputDir, cfg.ProcessedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	return &Worker{
		cfg:   cfg,
		guard: guard,
		log:   cfg.Logger,
	}, nil
}

// Run filters whatever is already in the input dir, then watches it until ctx
// is cancelled. A periodic rescan covers events the watcher misses.
func (w *Worker) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(w.cfg.InputDir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.InputDir, err)
	}

	w.log.Info().
		Str("input_dir", w.cfg.InputDir).
		Str("output_dir", w.cfg.OutputDir).
		Str("processed_dir", w.cfg.ProcessedDir).
		Int("held_out", w.guard.Len()).
		Msg("transcript filter watching")

	if _, err := w.ProcessDir(ctx); err != nil && ctx.Err() == nil {
		w.log.Warn().Err(err).Msg("process files failed")
	}

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isTranscriptFile(filepath.Base(ev.Name)) && ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				debounce = time.After(w.cfg.Debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watcher error")
		case <-debounce:
			debounce = nil
			if _, err := w.ProcessDir(ctx); err != nil && ctx.Err() == nil {
				w.log.Warn().Err(err).Msg("process files failed")
			}
		case <-ticker.C:
			if _, err := w.ProcessDir(ctx); err != nil && ctx.Err() == nil {
				w.log.Warn().Err(err).Msg("process files failed")
			}
		}
	}
}

// ProcessDir filters every transcript file currently in the input dir. Files
// that fail stay in place and are reported; the rest move to the processed dir.
func (w *Worker) ProcessDir(ctx context.Context) (leakage.FilterStats, error) {
	var total leakage.FilterStats
	if err := ctx.Err(); err != nil {
		return total, err
	}

	entries, err := os.ReadDir(w.cfg.InputDir)
	if err != nil {
		return total, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && isTranscriptFile(e.Name()) {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return total, nil
	}
	sort.Strings(files)
	w.log.Info().Int("files", len(files)).Int("workers", w.cfg.Workers).Msg("found transcript files")

	type fileResult struct {
		name  string
		stats leakage.FilterStats
		err   error
	}
	fileChan := make(chan string, len(files))
	resultChan := make(chan fileResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileChan {
				if err := ctx.Err(); err != nil {
					resultChan <- fileResult{name: name, err: err}
					continue
				}
				st, err := w.ProcessFile(filepath.Join(w.cfg.InputDir, name))
				resultChan <- fileResult{name: name, stats: st, err: err}
			}
		}()
	}
	for _, name := range files {
		fileChan <- name
	}
	close(fileChan)
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var processed, failed int
	var errs []error
	for result := range resultChan {
		if result.err != nil {
			w.log.Error().Err(result.err).Str("file", result.name).Msg("filter failed")
			errs = append(errs, fmt.Errorf("%s: %w", result.name, result.err))
			failed++
			continue
		}
		total.Add(result.stats)

		srcPath := filepath.Join(w.cfg.InputDir, result.name)
		destPath := filepath.Join(w.cfg.ProcessedDir, result.name)
		if err := os.Rename(srcPath, destPath); err != nil {
			w.log.Warn().Err(err).Str("file", result.name).Msg("move to processed failed")
		}
		processed++
	}

	w.log.Info().
		Int("processed", processed).
		Int("failed", failed).
		Int("games_in", total.GamesIn).
		Int("games_out", total.GamesOut).
		Int("moves_removed", total.MovesRemoved).
		Int("unparsed", total.Unparsed).
		Msg("batch complete")
	return total, errors.Join(errs...)
}

// ProcessFile filters one file into the output dir under the same name.
func (w *Worker) ProcessFile(path string) (leakage.FilterStats, error) {
	start := time.Now()
	games, err := ReadGames(path)
	if err != nil {
		return leakage.FilterStats{}, err
	}
	kept, st := FilterGames(w.guard, games)

	out := filepath.Join(w.cfg.OutputDir, filepath.Base(path))
	if err := WriteFiltered(out, kept, NewFilteringInfo(w.guard, st, path)); err != nil {
		return st, err
	}

	w.log.Info().
		Str("file", filepath.Base(path)).
		Int("games_in", st.GamesIn).
		Int("games_out", st.GamesOut).
		Int("games_dropped", st.GamesDropped).
		Int("moves_in", st.MovesIn).
		Int("moves_removed", st.MovesRemoved).
		Int("unparsed", st.Unparsed).
		Dur("elapsed", time.Since(start)).
		Msg("file filtered")
	return st, nil
}

func isTranscriptFile(name string) bool {
	return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.zst")
}

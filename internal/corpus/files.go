package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/tttoracle/internal/board"
)

// ErrUnknownFormat is returned for corpus paths with an unsupported extension.
var ErrUnknownFormat = errors.New("unknown corpus format")

// ErrNoPlayer is returned for a stored case whose player is missing.
var ErrNoPlayer = errors.New("case has no player")

// Compressed reports whether path names a zstd-compressed file.
func Compressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// WriteAtomic writes data to path through a temp file and a rename, creating
// the parent directory. A .zst path is compressed first.
func WriteAtomic(path string, data []byte) error {
	if Compressed(path) {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return fmt.Errorf("create zstd encoder: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		enc.Close()
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// ReadAll reads path, decompressing .zst files.
func ReadAll(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !Compressed(path) {
		return data, nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	return out, nil
}

// WriteJSON writes cases as an indented JSON array in the given mode.
func WriteJSON(path string, cases []TestCase, mode Mode) error {
	data, err := json.MarshalIndent(Shape(cases, mode), "", "  ")
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	return WriteAtomic(path, append(data, '\n'))
}

// ReadFile loads a corpus from .json, .json.zst or .parquet.
func ReadFile(path string) ([]TestCase, error) {
	switch {
	case strings.HasSuffix(path, ".parquet"):
		return ReadParquet(path)
	case strings.HasSuffix(path, ".json"), strings.HasSuffix(path, ".json.zst"):
		data, err := ReadAll(path)
		if err != nil {
			return nil, fmt.Errorf("read corpus: %w", err)
		}
		return Decode(bytes.NewReader(data))
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Decode reads a JSON array of cases. Every case must name its player.
func Decode(r io.Reader) ([]TestCase, error) {
	var cases []TestCase
	if err := json.NewDecoder(r).Decode(&cases); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	for i := range cases {
		if !cases[i].Player.IsPlayer() {
			return nil, fmt.Errorf("case %d: %w", cases[i].ID, ErrNoPlayer)
		}
		for key, a := range cases[i].MoveAnalysis {
			pos, err := board.ParseMove(key)
			if err != nil {
				return nil, fmt.Errorf("case %d move_analysis: %w", cases[i].ID, err)
			}
			a.Position = pos
			cases[i].MoveAnalysis[key] = a
		}
	}
	return cases, nil
}

// DetectMode returns ModeCompatible when no case carries an optimal set.
func DetectMode(cases []TestCase) Mode {
	for _, tc := range cases {
		if len(tc.OptimalMoves) > 0 {
			return ModeMultiOptimal
		}
	}
	if len(cases) == 0 {
		return ModeMultiOptimal
	}
	return ModeCompatible
}

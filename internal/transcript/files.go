package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/freeeve/tttoracle/internal/corpus"
	"github.com/freeeve/tttoracle/internal/leakage"
)

// ReadGames loads games from path. The file holds a bare array, or an object
// with the games under "data" or "games". A .zst suffix is decompressed.
func ReadGames(path string) ([]Game, error) {
	data, err := corpus.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("read transcripts: %w", err)
	}
	games, err := DecodeGames(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return games, nil
}

// DecodeGames decodes any of the accepted transcript shapes.
func DecodeGames(data []byte) ([]Game, error) {
	return decodeRecords[Game](data, "games")
}

// ReadSamples loads training samples from a bare array or a {"data": [...]}
// object, optionally zstd-compressed.
func ReadSamples(path string) ([]Sample, error) {
	data, err := corpus.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	samples, err := decodeRecords[Sample](data, "samples")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// decodeRecords accepts a bare array, or an object holding the array under
// "data" or under alt.
func decodeRecords[T any](data []byte, alt string) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty file")
	}
	var out []T
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return out, nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	body, ok := env["data"]
	if !ok {
		body, ok = env[alt]
	}
	if !ok {
		return nil, fmt.Errorf("object has neither data nor %s", alt)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return out, nil
}

// FilteringInfo is the metadata header of a filtered file.
type FilteringInfo struct {
	leakage.Stats
	leakage.FilterStats
	AvoidedCount int       `json:"avoided_count"`
	InputFile    string    `json:"source_file,omitempty"`
	Timestamp    time.Time `json:"filtering_timestamp"`
}

// NewFilteringInfo describes one filtering pass over source.
func NewFilteringInfo(g *leakage.Guard, st leakage.FilterStats, source string) FilteringInfo {
	return FilteringInfo{
		Stats:        g.Stats(),
		FilterStats:  st,
		AvoidedCount: st.GamesIn - st.GamesOut,
		InputFile:    source,
		Timestamp:    time.Now().UTC(),
	}
}

// WriteFiltered writes {"filtering_info": info, "data": records} atomically.
func WriteFiltered[T any](path string, records []T, info FilteringInfo) error {
	if records == nil {
		records = []T{}
	}
	out := struct {
		Info FilteringInfo `json:"filtering_info"`
		Data []T           `json:"data"`
	}{info, records}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode filtered records: %w", err)
	}
	return corpus.WriteAtomic(path, append(data, '\n'))
}

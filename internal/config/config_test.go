package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.Corpus.Quotas.Total())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
corpus:
  quotas:
    opening: 5
    midgame: 6
    endgame: 7
  seed: 42
  mover: X
output:
  path: out/cases.json.zst
  mode: compatible
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Quotas{Opening: 5, Midgame: 6, Endgame: 7}, cfg.Corpus.Quotas)
	assert.Equal(t, int64(42), cfg.Corpus.Seed)
	assert.Equal(t, "X", cfg.Corpus.Mover)
	assert.Equal(t, 100, cfg.Corpus.MaxAttempts, "default kept")
	assert.Equal(t, "out/cases.json.zst", cfg.Output.Path)
	assert.Equal(t, ModeCompatible, cfg.Output.Mode)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Log.Format, "default kept")
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero quotas", "corpus:\n  quotas: {opening: 0, midgame: 0, endgame: 0}\n"},
		{"negative quota", "corpus:\n  quotas: {opening: -1}\n"},
		{"zero attempts", "corpus:\n  max_attempts: 0\n"},
		{"bad mover", "corpus:\n  mover: Z\n"},
		{"bad mode", "output:\n  mode: single\n"},
		{"missing path", "output:\n  path: \"\"\n"},
		{"bad level", "log:\n  level: trace\n"},
		{"unknown key", "corpus:\n  quota: 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

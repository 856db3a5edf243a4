// Package config loads the corpus generation settings from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Output modes.
const (
	ModeMultiOptimal = "multi_optimal"
	ModeCompatible   = "compatible"
)

// Config is the top-level configuration file.
type Config struct {
	Corpus CorpusConfig `yaml:"corpus"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

// CorpusConfig controls sampling.
type CorpusConfig struct {
	Quotas      Quotas `yaml:"quotas"`
	MaxAttempts int    `yaml:"max_attempts" validate:"min=1,max=100000"`
	Seed        int64  `yaml:"seed"` // 0 draws a fresh seed per run
	Mover       string `yaml:"mover" validate:"oneof=auto X O"`
}

// Quotas are the per-stage case counts.
type Quotas struct {
	Opening int `yaml:"opening" validate:"min=0"`
	Midgame int `yaml:"midgame" validate:"min=0"`
	Endgame int `yaml:"endgame" validate:"min=0"`
}

// Total is the sum of all stage quotas.
func (q Quotas) Total() int {
	return q.Opening + q.Midgame + q.Endgame
}

// OutputConfig says where generated files go.
type OutputConfig struct {
	Path    string `yaml:"path" validate:"required"`
	Report  string `yaml:"report"`
	Parquet string `yaml:"parquet"`
	Mode    string `yaml:"mode" validate:"oneof=multi_optimal compatible"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=auto console json"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterStructValidation(validateQuotas, Quotas{})
}

func validateQuotas(sl validator.StructLevel) {
	q := sl.Current().Interface().(Quotas)
	if q.Total() < 1 {
		sl.ReportError(q.Opening, "Quotas", "quotas", "total", "")
	}
}

// Default returns the reference sizing: 30/40/30 cases, 100 attempts per slot.
func Default() Config {
	return Config{
		Corpus: CorpusConfig{
			Quotas:      Quotas{Opening: 30, Midgame: 40, Endgame: 30},
			MaxAttempts: 100,
			Mover:       "auto",
		},
		Output: OutputConfig{
			Path: "data/processed/tictactoe_test_set_100_multi_optimal.json",
			Mode: ModeMultiOptimal,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads YAML over the defaults. Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

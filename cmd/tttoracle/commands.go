package main

import (
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/freeeve/tttoracle/internal/logx"
)

// globals holds the persistent flags and the logger built from them.
type globals struct {
	logLevel  string
	logFormat string
	log       zerolog.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:          "tttoracle",
		Short:        "Tic-tac-toe move oracle and evaluation corpus tools",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			g.log = logx.NewLogger(logx.Options{
				Level:  g.logLevel,
				Format: g.logFormat,
				Out:    cmd.ErrOrStderr(),
			})
		},
	}
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "auto", "log format (auto, console, json)")

	rootCmd.AddCommand(
		newGenerateCmd(g),
		newValidateCmd(g),
		newFilterCmd(g),
		newGradeCmd(g),
		newSolveCmd(g),
	)
	return rootCmd
}

// reportPathFor derives "<corpus>_report.json" next to a corpus file.
func reportPathFor(corpusPath string) string {
	base := corpusPath
	for _, ext := range []string{".zst", ".json", ".parquet"} {
		base = strings.TrimSuffix(base, ext)
	}
	return filepath.Clean(base + "_report.json")
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"filearr/internal/decision"
	"filearr/internal/language"
	"filearr/internal/logging"
	"filearr/internal/pipeline"
	"filearr/internal/store"
)

// newClassifyCommand runs a local dry run for one file. The daemon does not
// need to be running; the ledger and settings are read from the database.
func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var (
		overrides decision.Overrides
		verbose   bool
	)
	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Show where a file would be routed without moving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("inspect %s: %w", path, err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			level := "error"
			if verbose {
				level = "debug"
			}
			logger, err := logging.New(logging.Options{Level: level, Format: "console", Writer: cmd.ErrOrStderr()})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			rt := pipeline.Build(cfg, st, nil, nil, logger)
			out := rt.Pipeline.Process(cmd.Context(), path, pipeline.Options{
				Source:    pipeline.SourceManual,
				Overrides: overrides,
				DryRun:    true,
			})
			if ctx.wantJSON() {
				return writeJSON(cmd, out)
			}
			renderOutcome(newStatusWriter(cmd.OutOrStdout()), out, info.Size())
			return nil
		},
	}
	cmd.Flags().StringVar(&overrides.MoviesDir, "movies-dir", "", "Override the movies root")
	cmd.Flags().StringVar(&overrides.RegionalDir, "regional-dir", "", "Override the regional-language root")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline stages to stderr")
	return cmd
}

func renderOutcome(w *statusWriter, out pipeline.Outcome, size int64) {
	w.section("Classification")
	w.line("File", statusInfo, filepath.Base(out.Path))
	w.line("Size", statusInfo, humanize.IBytes(uint64(size)))
	w.line("Outcome", outcomeKind(out.Status), string(out.Status))
	if out.Reason != "" {
		w.line("Reason", statusInfo, out.Reason)
	}
	if out.Match != nil {
		title := out.Match.Title
		if out.Match.Year > 0 {
			title = fmt.Sprintf("%s (%d)", title, out.Match.Year)
		}
		w.line("Match", statusInfo, title)
	}
	if out.Language != "" {
		w.line("Language", statusInfo, fmt.Sprintf("%s (%s)", language.DisplayName(out.Language), out.Language))
	}
	if out.Score != 0 {
		w.line("Quality", statusInfo, fmt.Sprintf("%d", out.Score))
	}
	if out.Destination != "" {
		w.line("Destination", statusInfo, out.Destination)
	}
}

func outcomeKind(status store.Status) statusKind {
	switch status {
	case store.StatusProcessed, pipeline.StatusPlanned:
		return statusOK
	case store.StatusFailed:
		return statusError
	case store.StatusRejected, store.StatusSkipped:
		return statusWarn
	default:
		return statusInfo
	}
}

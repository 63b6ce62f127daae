package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"filearr/internal/api"
	"filearr/internal/cleanup"
	"filearr/internal/pipeline"
	"filearr/internal/store"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Run bulk classification over an existing directory tree",
	}
	cleanupCmd.AddCommand(newCleanupStartCommand(ctx))
	cleanupCmd.AddCommand(newCleanupStopCommand(ctx))
	cleanupCmd.AddCommand(newCleanupStatusCommand(ctx))
	return cleanupCmd
}

func newCleanupStartCommand(ctx *commandContext) *cobra.Command {
	var (
		req  api.CleanupRequest
		wait bool
	)
	cmd := &cobra.Command{
		Use:   "start <origin>",
		Short: "Start a cleanup job (one at a time)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			origin, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve origin: %w", err)
			}
			req.Origin = origin
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.StartCleanup(cmd.Context(), req)
				if err != nil {
					if api.IsStatus(err, 409) {
						return fmt.Errorf("a cleanup job is already running; stop it with `filearr cleanup stop`")
					}
					return err
				}
				if !wait {
					if ctx.wantJSON() {
						return writeJSON(cmd, resp)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: job %s\n", resp.Message, resp.JobID)
					return nil
				}
				status, err := waitForCleanup(cmd.Context(), client, resp.JobID)
				if err != nil {
					return err
				}
				return printCleanup(cmd, ctx, status)
			})
		},
	}
	cmd.Flags().StringVar(&req.MoviesDir, "movies-dir", "", "Override the movies root for this job")
	cmd.Flags().StringVar(&req.RegionalDir, "regional-dir", "", "Override the regional-language root for this job")
	cmd.Flags().BoolVar(&req.DryRun, "dry-run", false, "Plan moves without touching files or the ledger")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the job to finish and print its summary")
	return cmd
}

func waitForCleanup(ctx context.Context, client *api.Client, jobID string) (cleanup.Status, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		status, err := client.Cleanup(ctx)
		if err != nil {
			return cleanup.Status{}, err
		}
		if status.State == cleanup.StateIdle && status.Last != nil && status.Last.JobID == jobID {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return cleanup.Status{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newCleanupStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running cleanup job after its current file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.StopCleanup(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.wantJSON() {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}

func newCleanupStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running or last cleanup job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				status, err := client.Cleanup(cmd.Context())
				if err != nil {
					return err
				}
				return printCleanup(cmd, ctx, status)
			})
		},
	}
}

var summaryOrder = []store.Status{
	store.StatusProcessed,
	pipeline.StatusPlanned,
	store.StatusRejected,
	store.StatusSkipped,
	store.StatusIgnored,
	store.StatusFailed,
}

func printCleanup(cmd *cobra.Command, ctx *commandContext, status cleanup.Status) error {
	if ctx.wantJSON() {
		return writeJSON(cmd, status)
	}
	out := cmd.OutOrStdout()
	w := newStatusWriter(out)
	renderCleanup(w, status)

	summary := status.Current
	if summary == nil {
		summary = status.Last
	}
	if summary == nil {
		return nil
	}
	rows := make([][]string, 0, len(summaryOrder))
	for _, s := range summaryOrder {
		if n := summary.Counts[s]; n > 0 {
			rows = append(rows, []string{string(s), humanize.Comma(int64(n))})
		}
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Outcome", "Files"}, rows, []columnAlignment{alignLeft, alignRight}, w.color))
	}
	return nil
}

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"filearr/internal/api"
	"filearr/internal/store"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		status string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent classification outcomes from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Logs(cmd.Context(), limit, store.Status(strings.ToLower(strings.TrimSpace(status))))
				if err != nil {
					return err
				}
				if ctx.wantJSON() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(out, "No ledger entries")
					return nil
				}
				rows := make([][]string, 0, len(resp.Entries))
				for _, entry := range resp.Entries {
					rows = append(rows, logRow(entry))
				}
				fmt.Fprintln(out, renderTable(
					[]string{"When", "Status", "File", "Match", "Detail"},
					rows,
					nil,
					shouldColorize(out),
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Number of entries to show (max 1000)")
	cmd.Flags().StringVar(&status, "status", "", "Only show one status (processed, rejected, skipped, failed)")
	return cmd
}

func logRow(entry store.Entry) []string {
	match := ""
	if entry.Title != "" {
		match = entry.Title
		if entry.Year > 0 {
			match = fmt.Sprintf("%s (%d)", entry.Title, entry.Year)
		}
	}
	detail := entry.Reason
	if entry.Status == store.StatusProcessed && entry.Destination != "" {
		detail = filepath.Dir(entry.Destination)
	}
	return []string{
		humanize.Time(entry.CreatedAt),
		string(entry.Status),
		entry.Filename,
		match,
		detail,
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"filearr/internal/api"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Show or control the inbox watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Watch(cmd.Context())
				if err != nil {
					return err
				}
				return printWatch(cmd, ctx, resp)
			})
		},
	}
	for _, sub := range []struct{ name, short string }{
		{"start", "Start the inbox watcher"},
		{"stop", "Stop the inbox watcher after the current file"},
		{"restart", "Restart the watcher so a changed input directory applies"},
	} {
		watchCmd.AddCommand(newWatchSubcommand(ctx, sub.name, sub.short))
	}
	return watchCmd
}

func newWatchSubcommand(ctx *commandContext, command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   command,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.WatchCommand(cmd.Context(), command)
				if err != nil {
					return err
				}
				return printWatch(cmd, ctx, resp)
			})
		},
	}
}

func printWatch(cmd *cobra.Command, ctx *commandContext, resp api.WatchResponse) error {
	if ctx.wantJSON() {
		return writeJSON(cmd, resp)
	}
	out := cmd.OutOrStdout()
	if resp.Message != "" {
		fmt.Fprintln(out, resp.Message)
	}
	w := newStatusWriter(out)
	if resp.Watch.Active {
		w.line("Watcher", statusOK, "watching "+resp.Watch.InputDir)
	} else {
		w.line("Watcher", statusWarn, "inactive")
	}
	w.line("Active", statusInfo, yesNo(resp.Watch.Active))
	w.line("Last rescan", statusInfo, relativeTime(resp.Watch.LastRescan))
	return nil
}

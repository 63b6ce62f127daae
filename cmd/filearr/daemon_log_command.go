package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"filearr/internal/api"
)

const followWait = 10 * time.Second

func newDaemonLogCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
	)
	cmd := &cobra.Command{
		Use:   "daemon-log",
		Short: "Print the daemon log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := cmd.Context()
			if follow {
				var stop context.CancelFunc
				runCtx, stop = signal.NotifyContext(runCtx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
			}
			return ctx.withClient(func(client *api.Client) error {
				out := cmd.OutOrStdout()
				page, err := client.DaemonLog(runCtx, -1, lines, 0)
				if err != nil {
					return err
				}
				for _, line := range page.Lines {
					fmt.Fprintln(out, line)
				}
				for follow {
					page, err = client.DaemonLog(runCtx, page.Offset, 0, followWait)
					if err != nil {
						if errors.Is(runCtx.Err(), context.Canceled) {
							return nil
						}
						return err
					}
					for _, line := range page.Lines {
						fmt.Fprintln(out, line)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to print")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	return cmd
}

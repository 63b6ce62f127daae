package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"filearr/internal/api"
	"filearr/internal/daemonctl"
)

func newStartCommand(ctx *commandContext) *cobra.Command {
	var (
		noWatch bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			executable, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			bind := ctx.apiBind()
			client, err := api.NewClient(bind, cfg.Paths.APIToken)
			if err != nil {
				return wrapAPIError(err, bind)
			}
			state, err := daemonctl.Start(cmd.Context(), client, executable, daemonctl.LaunchOptions{
				ConfigPath: ctx.configPath,
				NoWatch:    noWatch,
			}, timeout)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if state == daemonctl.StartStateAlreadyRunning {
				fmt.Fprintf(out, "Daemon already running at %s\n", bind)
				return nil
			}
			fmt.Fprintf(out, "Daemon started at %s\n", bind)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Start without the inbox watcher")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "How long to wait for the API to answer")
	return cmd
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	var (
		force   bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the background daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := daemonctl.Stop(cmd.Context(), cfg, timeout, force)
			out := cmd.OutOrStdout()
			switch {
			case errors.Is(err, daemonctl.ErrNotRunning):
				fmt.Fprintln(out, "Daemon is not running")
				return nil
			case err != nil:
				return err
			case result.ForcedKill:
				fmt.Fprintf(out, "Daemon (pid %d) killed\n", result.PID)
			default:
				fmt.Fprintf(out, "Daemon (pid %d) stopped\n", result.PID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Kill the daemon if it does not exit in time")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "Grace period before giving up or killing")
	return cmd
}

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"filearr/internal/api"
	"filearr/internal/cleanup"
	"filearr/internal/config"
	"filearr/internal/preflight"
	"filearr/internal/store"
)

var ledgerOrder = []store.Status{
	store.StatusProcessed,
	store.StatusRejected,
	store.StatusSkipped,
	store.StatusFailed,
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, watcher, cleanup, and readiness status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status api.StatusResponse
			err := ctx.withClient(func(client *api.Client) error {
				var err error
				status, err = client.Status(cmd.Context())
				return err
			})
			if errors.Is(err, errDaemonUnreachable) {
				return renderOfflineStatus(cmd, ctx, err)
			}
			if err != nil {
				return err
			}
			if ctx.wantJSON() {
				return writeJSON(cmd, status)
			}
			renderStatus(newStatusWriter(cmd.OutOrStdout()), status)
			return nil
		},
	}
}

func renderStatus(w *statusWriter, status api.StatusResponse) {
	w.section("Daemon")
	w.line("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID))
	w.line("Database", statusInfo, status.DatabasePath)
	if status.InFlight > 0 {
		w.line("In flight", statusInfo, fmt.Sprintf("%d file(s)", status.InFlight))
	}
	w.blank()

	w.section("Watcher")
	watch := status.Watch
	switch {
	case watch.Active:
		w.line("Watcher", statusOK, "watching "+watch.InputDir)
	case watch.LastError != "":
		w.line("Watcher", statusError, "inactive: "+watch.LastError)
	default:
		w.line("Watcher", statusWarn, "inactive")
	}
	w.line("Last event", statusInfo, relativeTime(watch.LastEvent))
	w.line("Last rescan", statusInfo, relativeTime(watch.LastRescan))
	w.line("Handled", statusInfo, humanize.Comma(watch.Handled)+" file(s)")
	w.blank()

	w.section("Cleanup")
	renderCleanup(w, status.Cleanup)
	w.blank()

	w.section("Ledger")
	for _, s := range ledgerOrder {
		kind := statusInfo
		if s == store.StatusFailed && status.Ledger[s] > 0 {
			kind = statusWarn
		}
		w.line(string(s), kind, humanize.Comma(int64(status.Ledger[s])))
	}
	w.blank()

	renderChecks(w, status.Checks)
}

func renderCleanup(w *statusWriter, status cleanup.Status) {
	switch status.State {
	case cleanup.StateRunning, cleanup.StateStopRequested:
		kind := statusOK
		if status.State == cleanup.StateStopRequested {
			kind = statusWarn
		}
		message := status.State.String()
		if status.Current != nil {
			message = fmt.Sprintf("%s job %s on %s (%d scanned)", message, status.Current.JobID,
				status.Current.Request.Origin, status.Current.Scanned)
		}
		w.line("Cleanup", kind, message)
		if status.CurrentFile != "" {
			w.line("Current file", statusInfo, status.CurrentFile)
		}
	default:
		w.line("Cleanup", statusInfo, "idle")
	}
	if last := status.Last; last != nil {
		kind := statusOK
		outcome := "finished"
		switch {
		case last.Error != "":
			kind, outcome = statusError, "failed: "+last.Error
		case last.Cancelled:
			kind, outcome = statusWarn, "stopped"
		}
		w.line("Last job", kind, fmt.Sprintf("%s %s, %s scanned (%s)", last.JobID, outcome,
			humanize.Comma(int64(last.Scanned)), relativeTime(last.FinishedAt)))
	}
}

func renderChecks(w *statusWriter, checks []preflight.Result) {
	if len(checks) == 0 {
		return
	}
	w.section("Readiness")
	for _, check := range checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
			if check.Optional {
				kind = statusWarn
			}
		}
		w.line(check.Name, kind, check.Detail)
	}
}

// renderOfflineStatus reports a stopped daemon together with the readiness
// checks that can run from the config file alone.
func renderOfflineStatus(cmd *cobra.Command, ctx *commandContext, cause error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return cause
	}
	checks := preflight.RunAll(cfg, config.NewLayered(cfg, nil))
	if ctx.wantJSON() {
		return writeJSON(cmd, api.StatusResponse{Running: false, Checks: checks})
	}
	w := newStatusWriter(cmd.OutOrStdout())
	w.section("Daemon")
	w.line("Daemon", statusError, cause.Error())
	w.blank()
	renderChecks(w, checks)
	return nil
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

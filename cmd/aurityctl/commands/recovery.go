package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/BernardUriza/aurity-sub000/pkg/diagnose"
	"github.com/BernardUriza/aurity-sub000/pkg/transport"
)

func newRestartCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "restart <job-id>",
		Short:   "Ask the backend to re-run a job",
		GroupID: "recovery",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := args[0]

			// Fetch the snapshot first so the legacy-job limitation is
			// caught client-side, before the restart request.
			snap, err := a.client.GetJob(cmd.Context(), jobID)
			if err != nil {
				a.out.Error(err)
				return err
			}

			newJobID, err := a.recovery.Restart(cmd.Context(), jobID, snap.SessionID)
			if errors.Is(err, diagnose.ErrLegacyJob) {
				a.out.Warning(fmt.Sprintf("job %s predates session tracking and cannot be restarted", jobID))
				return err
			}
			if err != nil {
				a.out.Error(err)
				return err
			}

			a.out.Info(fmt.Sprintf("Job restarted as %s", newJobID))
			a.out.Result(map[string]string{"new_job_id": newJobID})
			return nil
		},
	}
	return cmd
}

func newCancelCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cancel <job-id>",
		Short:   "Stop a job on the backend",
		GroupID: "recovery",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := args[0]
			if err := a.recovery.CancelBackend(cmd.Context(), jobID); err != nil {
				if transport.IsNotFound(err) {
					a.out.Warning(fmt.Sprintf("job %s not found", jobID))
				} else {
					a.out.Error(err)
				}
				return err
			}
			a.out.Info(fmt.Sprintf("Job %s cancelled", jobID))
			return nil
		},
	}
	return cmd
}

func newLogsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logs <job-id>",
		Short:   "Show a job's backend diagnostic logs",
		GroupID: "recovery",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := a.recovery.FetchLogs(cmd.Context(), args[0])
			if err != nil {
				a.out.Error(err)
				return err
			}

			// The payload is opaque diagnostic data: pretty-print it when
			// possible, show it raw otherwise.
			var pretty any
			if json.Unmarshal(payload, &pretty) == nil {
				indented, err := json.MarshalIndent(pretty, "", "  ")
				if err == nil {
					a.out.Info(string(indented))
					a.out.Result(pretty)
					return nil
				}
			}
			a.out.Info(string(payload))
			return nil
		},
	}
	return cmd
}

func newHealthCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "health",
		Short:   "Show backend dependency availability",
		GroupID: "recovery",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := a.recovery.FetchSystemHealth(cmd.Context())
			if err != nil {
				a.out.Error(err)
				return err
			}

			names := make([]string, 0, len(health))
			for name := range health {
				names = append(names, name)
			}
			sort.Strings(names)

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				state := "unavailable"
				if health[name] {
					state = "ok"
				}
				rows = append(rows, []string{name, state})
			}
			a.out.Table([]string{"service", "state"}, rows)
			a.out.Result(health)
			return nil
		},
	}
	return cmd
}

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BernardUriza/aurity-sub000/pkg/job"
)

func newJobsCommand(a *app) *cobra.Command {
	var (
		sessionID string
		limit     int
	)

	cmd := &cobra.Command{
		Use:     "jobs",
		Short:   "List recent transcription jobs",
		GroupID: "jobs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := a.client.ListJobs(cmd.Context(), sessionID, limit)
			if err != nil {
				a.out.Error(err)
				return err
			}

			rows := make([][]string, 0, len(jobs))
			for _, snap := range jobs {
				rows = append(rows, []string{
					snap.JobID,
					sessionLabel(snap),
					string(snap.Status),
					fmt.Sprintf("%.0f%%", snap.ProgressPct),
					fmt.Sprintf("%d/%d", snap.ProcessedChunks, snap.TotalChunks),
					ageLabel(snap.UpdatedAt),
				})
			}
			a.out.Table([]string{"job", "session", "status", "progress", "chunks", "updated"}, rows)
			a.out.Result(jobs)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Only jobs for this session")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum jobs to list")

	return cmd
}

func sessionLabel(snap *job.Snapshot) string {
	if snap.IsLegacy() {
		// Make the restart limitation visible up front instead of letting
		// a restart attempt discover it.
		return "legacy (no restart)"
	}
	return snap.SessionID
}

func ageLabel(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return time.Since(t).Round(time.Second).String() + " ago"
}

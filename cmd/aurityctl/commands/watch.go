package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BernardUriza/aurity-sub000/pkg/diagnose"
	"github.com/BernardUriza/aurity-sub000/pkg/job"
	"github.com/BernardUriza/aurity-sub000/pkg/poll"
)

func newWatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch <job-id>",
		Short:   "Poll a job and stream incremental results until it finishes",
		GroupID: "jobs",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchJob(cmd, a, args[0])
		},
	}
	return cmd
}

// watchJob runs one polling subscription to completion, rendering progress
// and stall warnings. Shared by `watch` and `submit --watch`.
func watchJob(cmd *cobra.Command, a *app, jobID string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := diagnose.NewWatcher(a.cfg.Stall.Threshold)
	stallWarned := false

	sub := a.engine.Start(ctx, jobID, func(snap *job.Snapshot) {
		watcher.Observe(snap)

		message := fmt.Sprintf("%s %.0f%%", snap.Status, snap.ProgressPct)
		if n := len(snap.Chunks); n > 0 {
			last := snap.Chunks[n-1]
			message = fmt.Sprintf("%s · [%s] %s", message, last.Speaker, last.Text)
		}
		a.out.Progress(snap.ProcessedChunks, snap.TotalChunks, message)

		if watcher.Stuck() && !stallWarned {
			stallWarned = true
			a.out.Warning(fmt.Sprintf(
				"job %s has had no backend update for over %s; it may be stuck (try `%s logs %s` or `%s restart %s`)",
				jobID, a.cfg.Stall.Threshold, cliExecutable, jobID, cliExecutable, jobID,
			))
		}
	})

	outcome := sub.Wait()
	return reportOutcome(a, sub.JobID(), outcome)
}

func reportOutcome(a *app, jobID string, outcome poll.Outcome) error {
	switch outcome.Reason {
	case poll.ReasonCompleted:
		a.out.Info(fmt.Sprintf("Job %s completed with %d chunks", jobID, len(outcome.Snapshot.Chunks)))
		a.out.Result(outcome.Snapshot)
		return nil

	case poll.ReasonFailed:
		// Backend-reported failure: display the message verbatim.
		err := fmt.Errorf("job %s failed: %s", jobID, outcome.Snapshot.Error)
		a.out.Error(err)
		return err

	case poll.ReasonExhausted:
		// Not a job failure: the backend was still working when the
		// attempt ceiling was reached. A fresh watch resumes observation.
		a.out.Warning(fmt.Sprintf(
			"job %s is still processing after %d polls; gave up observing (run `%s watch %s` to resume)",
			jobID, outcome.Attempts, cliExecutable, jobID,
		))
		if outcome.Snapshot != nil {
			a.out.Result(outcome.Snapshot)
		}
		return fmt.Errorf("gave up observing job %s", jobID)

	case poll.ReasonCancelled:
		a.out.Info(fmt.Sprintf("Stopped watching job %s (the backend keeps processing)", jobID))
		return nil

	default:
		a.out.Error(outcome.Err)
		return outcome.Err
	}
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BernardUriza/aurity-sub000/pkg/scribe"
	"github.com/BernardUriza/aurity-sub000/pkg/store"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		format string
		outDir string
	)

	cmd := &cobra.Command{
		Use:     "export <job-id>",
		Short:   "Download a job's transcript and save it locally",
		GroupID: "jobs",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := args[0]

			data, err := a.client.Export(cmd.Context(), jobID, scribe.ExportFormat(format))
			if err != nil {
				a.out.Error(err)
				return err
			}

			dir := outDir
			if dir == "" {
				dir = a.cfg.Export.Dir
			}
			exports, err := store.NewExportStore(dir)
			if err != nil {
				a.out.Error(err)
				return err
			}

			path, err := exports.Write(jobID, scribe.ExportFormat(format), data)
			if err != nil {
				a.out.Error(err)
				return err
			}

			// Retention is opportunistic: a failed prune never fails the
			// export that triggered it.
			if maxAge := a.cfg.Export.MaxAge; maxAge > 0 {
				if removed, err := exports.Prune(maxAge); err == nil && removed > 0 {
					a.out.Info(fmt.Sprintf("Pruned %d export(s) older than %s", removed, maxAge))
				}
			}

			a.out.Info(fmt.Sprintf("Export written to %s", path))
			a.out.Result(map[string]string{"path": path})
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(scribe.ExportJSON), "Export format: json or markdown")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (defaults to export.dir config)")

	return cmd
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/BernardUriza/aurity-sub000/pkg/scribe"
)

func newSubmitCommand(a *app) *cobra.Command {
	var (
		sessionID    string
		language     string
		model        string
		chunkSeconds int
		beamSize     int
		noVAD        bool
		noClassify   bool
		watch        bool
	)

	def := scribe.DefaultProcessingConfig()

	cmd := &cobra.Command{
		Use:     "submit <audio-file>",
		Short:   "Upload an audio file for asynchronous transcription",
		GroupID: "jobs",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open audio file: %w", err)
			}
			defer func() { _ = f.Close() }()

			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat audio file: %w", err)
			}

			jobID, err := a.client.Submit(cmd.Context(), scribe.SubmitRequest{
				File:      f,
				Filename:  filepath.Base(path),
				Size:      info.Size(),
				SessionID: sessionID,
				Language:  language,
				Processing: scribe.ProcessingConfig{
					Model:        model,
					ChunkSeconds: chunkSeconds,
					BeamSize:     beamSize,
					VADFilter:    !noVAD,
					Classify:     !noClassify,
				},
			})
			if err != nil {
				a.out.Error(err)
				return err
			}

			a.out.Info(fmt.Sprintf("Job %s submitted", jobID))
			a.out.Result(map[string]string{"job_id": jobID})

			if !watch {
				return nil
			}
			log.Debug().Str("command", "submit").Str("job_id", jobID).Msg("chaining into watch")
			return watchJob(cmd, a, jobID)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to group the job under")
	cmd.Flags().StringVar(&language, "language", "", "Language hint, e.g. es")
	cmd.Flags().StringVar(&model, "model", def.Model, "Transcription model")
	cmd.Flags().IntVar(&chunkSeconds, "chunk-seconds", def.ChunkSeconds, "Audio window per chunk")
	cmd.Flags().IntVar(&beamSize, "beam-size", def.BeamSize, "Decoder beam size")
	cmd.Flags().BoolVar(&noVAD, "no-vad", false, "Disable the voice-activity filter")
	cmd.Flags().BoolVar(&noClassify, "no-classify", false, "Disable speaker classification")
	cmd.Flags().BoolVar(&watch, "watch", false, "Watch the job after submitting")

	return cmd
}

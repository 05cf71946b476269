// Package commands wires the aurityctl CLI: configuration loading, logging
// setup, the output pipeline, and one subcommand per backend operation.
package commands

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/BernardUriza/aurity-sub000/pkg/config"
	"github.com/BernardUriza/aurity-sub000/pkg/diagnose"
	"github.com/BernardUriza/aurity-sub000/pkg/output"
	"github.com/BernardUriza/aurity-sub000/pkg/output/subscribers"
	"github.com/BernardUriza/aurity-sub000/pkg/poll"
	"github.com/BernardUriza/aurity-sub000/pkg/scribe"
)

const cliExecutable = "aurityctl"

// app bundles the dependencies every subcommand needs. Built once in the
// root PersistentPreRunE.
type app struct {
	cfg      config.Config
	client   *scribe.Client
	engine   *poll.Engine
	recovery *diagnose.Recovery
	out      *output.Emitter
}

// NewCommand constructs the top-level aurityctl command, wiring global
// flags, configuration, logging, and the output pipeline.
func NewCommand() *cobra.Command {
	var (
		configFile     string
		jsonOutput     bool
		verbosityCount int
		verbose        bool
		a              app
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Client for the Aurity transcription service",
		Long: `aurityctl submits audio for asynchronous transcription, watches job
progress with incremental chunk results, and exposes recovery actions for
stalled jobs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			manager := config.NewManager()
			if err := manager.Load(cmd.Flags(), configFile); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			a.cfg = manager.Get()

			// Verbosity flags win over the configured log level:
			// 0 => Error, 1 (-v) => Info, 2+ => Debug.
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else if verbosityCount > 0 {
				switch verbosityCount {
				case 1:
					zerolog.SetGlobalLevel(zerolog.InfoLevel)
				default:
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
			} else if level, err := zerolog.ParseLevel(a.cfg.Log.Level); err == nil {
				zerolog.SetGlobalLevel(level)
			} else {
				zerolog.SetGlobalLevel(zerolog.ErrorLevel)
			}
			if a.cfg.Log.Format == "text" {
				log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			}

			stream := output.NewStream()
			if jsonOutput {
				stream.Subscribe(subscribers.NewJSONFormatter(os.Stdout))
			} else {
				colorEnabled := isatty.IsTerminal(os.Stdout.Fd())
				stream.Subscribe(subscribers.NewHumanFormatter(os.Stdout, os.Stderr, colorEnabled))
			}
			a.out = output.NewEmitter(stream)

			a.client = scribe.NewClient(scribe.Config{
				BaseURL:        a.cfg.Backend.BaseURL,
				RequestTimeout: a.cfg.Backend.RequestTimeout,
				StatusTimeout:  a.cfg.Backend.StatusTimeout,
				MaxRetries:     a.cfg.Backend.MaxRetries,
				MaxUploadBytes: a.cfg.Backend.MaxUploadBytes,
				CacheTTL:       a.cfg.Cache.TTL,
			})
			a.engine = poll.NewEngine(a.client, poll.Config{
				Interval:    a.cfg.Poll.Interval,
				MaxAttempts: a.cfg.Poll.MaxAttempts,
			})
			a.recovery = diagnose.NewRecovery(a.client)
			return nil
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit JSON Lines output")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddGroup(&cobra.Group{ID: "jobs", Title: "Job Commands"})
	cmd.AddGroup(&cobra.Group{ID: "recovery", Title: "Recovery Commands"})

	cmd.AddCommand(newSubmitCommand(&a))
	cmd.AddCommand(newWatchCommand(&a))
	cmd.AddCommand(newJobsCommand(&a))
	cmd.AddCommand(newExportCommand(&a))
	cmd.AddCommand(newRestartCommand(&a))
	cmd.AddCommand(newCancelCommand(&a))
	cmd.AddCommand(newLogsCommand(&a))
	cmd.AddCommand(newHealthCommand(&a))

	return cmd
}

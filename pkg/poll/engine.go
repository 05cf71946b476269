// Package poll drives a job through its lifecycle by fetching status on a
// fixed cadence, merging each response into an accumulated snapshot, and
// streaming the merged snapshots to the subscriber in tick order.
//
// Each Start call owns an independent timer and an independent accumulated
// snapshot. Two subscribers observing the same job each get a consistent
// view; the engine deliberately does not deduplicate observers.
package poll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/BernardUriza/aurity-sub000/pkg/job"
	"github.com/BernardUriza/aurity-sub000/pkg/metrics"
	"github.com/BernardUriza/aurity-sub000/pkg/transport"
)

// Fetcher is the subset of the backend client the engine needs.
type Fetcher interface {
	GetJob(ctx context.Context, jobID string) (*job.Snapshot, error)
}

// Config bounds a polling run.
type Config struct {
	// Interval is the fixed delay between ticks.
	Interval time.Duration

	// MaxAttempts is the ceiling on ticks before the engine gives up
	// observing. Hitting it is not a job failure; see ReasonExhausted.
	MaxAttempts int
}

// DefaultConfig returns the production cadence: a tick every 1.5s, giving
// up after 240 attempts (six minutes of observation).
func DefaultConfig() Config {
	return Config{
		Interval:    1500 * time.Millisecond,
		MaxAttempts: 240,
	}
}

// Reason discriminates why a polling run ended. Exhausted and Failed are
// distinct on purpose: an exhausted run means the backend was still working
// when the client stopped watching, and a fresh Start may resume.
type Reason string

const (
	ReasonCompleted Reason = "completed"
	ReasonFailed    Reason = "failed"
	ReasonExhausted Reason = "exhausted"
	ReasonCancelled Reason = "cancelled"

	// ReasonError ends a run on a definitive fetch error, e.g. the backend
	// answering 404 for the job. Unlike transient failures these are never
	// absorbed; the error is in Outcome.Err.
	ReasonError Reason = "error"
)

// Outcome is the final result of one polling run.
type Outcome struct {
	Reason Reason

	// Snapshot is the last merged snapshot, nil when no fetch ever
	// succeeded.
	Snapshot *job.Snapshot

	// Err carries the last fetch error for exhausted runs. Nil for
	// completed and cancelled runs; for failed runs the backend's message
	// is in Snapshot.Error.
	Err error

	// Attempts is the number of ticks issued.
	Attempts int
}

// UpdateFunc receives each merged snapshot, in ascending tick order. It is
// never invoked after cancellation is acknowledged or after the terminal
// emission.
type UpdateFunc func(*job.Snapshot)

// Engine starts polling runs. It is stateless across runs and safe for
// concurrent use.
type Engine struct {
	fetcher Fetcher
	cfg     Config
}

// NewEngine creates an engine. Zero config fields take defaults.
func NewEngine(fetcher Fetcher, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	return &Engine{fetcher: fetcher, cfg: cfg}
}

// Subscription is one observer's handle on a polling run.
type Subscription struct {
	id     string
	jobID  string
	cancel context.CancelFunc
	done   chan struct{}

	// outcome is written exactly once, before done is closed.
	outcome Outcome
}

// ID identifies this subscription in logs.
func (s *Subscription) ID() string { return s.id }

// JobID returns the observed job.
func (s *Subscription) JobID() string { return s.jobID }

// Cancel stops client-side observation. It does not cancel the backend
// job; that is an explicit recovery action. Safe to call multiple times.
func (s *Subscription) Cancel() { s.cancel() }

// Done is closed when the run has ended and the outcome is available.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Wait blocks until the run ends and returns its outcome.
func (s *Subscription) Wait() Outcome {
	<-s.done
	return s.outcome
}

// Start begins observing jobID, invoking onUpdate with each merged
// snapshot. The returned subscription owns its timer and accumulated
// state; cancel it (or cancel ctx) to stop observing.
func (e *Engine) Start(ctx context.Context, jobID string, onUpdate UpdateFunc) *Subscription {
	runCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		id:     uuid.New().String(),
		jobID:  jobID,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go e.run(runCtx, sub, onUpdate)
	return sub
}

func (e *Engine) run(ctx context.Context, sub *Subscription, onUpdate UpdateFunc) {
	defer close(sub.done)
	defer sub.cancel()

	metrics.Default.PollsActive.Inc()
	defer metrics.Default.PollsActive.Dec()

	logger := log.With().
		Str("component", "poll").
		Str("subscription_id", sub.id).
		Str("job_id", sub.jobID).
		Logger()

	var accumulated *job.Snapshot
	var lastErr error
	attempts := 0

	finish := func(reason Reason, err error) {
		sub.outcome = Outcome{
			Reason:   reason,
			Snapshot: accumulated,
			Err:      err,
			Attempts: attempts,
		}
		metrics.Default.PollOutcome.WithLabelValues(string(reason)).Inc()
		logger.Debug().Str("reason", string(reason)).Int("attempts", attempts).Msg("polling ended")
	}

	for {
		if ctx.Err() != nil {
			finish(ReasonCancelled, nil)
			return
		}

		attempts++
		metrics.Default.PollTicks.Inc()

		snap, err := e.fetcher.GetJob(ctx, sub.jobID)
		switch {
		case ctx.Err() != nil:
			// Cancellation surfaced through the fetch; no callback after
			// this point.
			finish(ReasonCancelled, nil)
			return
		case err != nil && !transport.IsTransient(err):
			// Definitive answers (404 and other 4xx) are never absorbed.
			finish(ReasonError, err)
			return
		case err != nil:
			// A transient failed tick is not a failed job. Swallow it and
			// let the next tick try again, up to the attempt ceiling.
			lastErr = err
			logger.Debug().Err(err).Int("attempt", attempts).Msg("status fetch failed, will retry next tick")
		default:
			lastErr = nil
			accumulated = job.Merge(accumulated, snap)
			onUpdate(accumulated)

			if accumulated.Status == job.StatusFailed {
				finish(ReasonFailed, nil)
				return
			}
			if accumulated.Status.IsTerminal() {
				finish(ReasonCompleted, nil)
				return
			}
		}

		if attempts >= e.cfg.MaxAttempts {
			finish(ReasonExhausted, lastErr)
			return
		}

		timer := time.NewTimer(e.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			finish(ReasonCancelled, nil)
			return
		case <-timer.C:
		}
	}
}

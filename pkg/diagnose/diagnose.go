// Package diagnose derives a "possibly stuck" signal from job snapshots
// and exposes the recovery actions an operator can take. Diagnosis and
// recovery are decoupled: detecting a stall never triggers an action by
// itself.
package diagnose

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/BernardUriza/aurity-sub000/pkg/job"
)

// DefaultStallThreshold is how long a job may sit in_progress without a
// backend update before it is considered possibly stuck.
const DefaultStallThreshold = 2 * time.Minute

// ErrLegacyJob is returned when restart is requested for a job that
// predates session tracking. The limitation is permanent; no network call
// is attempted.
var ErrLegacyJob = errors.New("restart unsupported for legacy job")

// IsStuck reports whether a job looks stalled: still in progress with no
// backend update for longer than threshold. The decision uses the
// backend's UpdatedAt, never the arrival time of the response, and is
// always false for terminal states regardless of age.
//
// This is a client-side heuristic only. The backend provides no liveness
// signal, so a stuck verdict means "worth investigating", not "dead".
func IsStuck(snap *job.Snapshot, now time.Time, threshold time.Duration) bool {
	if snap == nil || snap.Status != job.StatusInProgress {
		return false
	}
	if threshold <= 0 {
		threshold = DefaultStallThreshold
	}
	if snap.UpdatedAt.IsZero() {
		return false
	}
	return now.Sub(snap.UpdatedAt) > threshold
}

// Backend is the subset of the scribe client recovery needs.
type Backend interface {
	Restart(ctx context.Context, jobID string) (string, error)
	CancelJob(ctx context.Context, jobID string) error
	Logs(ctx context.Context, jobID string) (json.RawMessage, error)
	Health(ctx context.Context) (map[string]bool, error)
}

// Recovery exposes the explicit recovery actions for stalled or failed
// jobs. Each action is a single resilient request against its own
// endpoint.
type Recovery struct {
	backend Backend
}

// NewRecovery wraps a backend client.
func NewRecovery(backend Backend) *Recovery {
	return &Recovery{backend: backend}
}

// Restart asks the backend to re-run the job and returns the replacement
// job ID. Jobs with the legacy session marker fail fast with ErrLegacyJob
// before any request is issued.
func (r *Recovery) Restart(ctx context.Context, jobID, sessionID string) (string, error) {
	if sessionID == job.LegacySessionID {
		return "", ErrLegacyJob
	}
	return r.backend.Restart(ctx, jobID)
}

// CancelBackend stops the job on the backend. Distinct from cancelling a
// poll subscription, which only stops client-side observation.
func (r *Recovery) CancelBackend(ctx context.Context, jobID string) error {
	return r.backend.CancelJob(ctx, jobID)
}

// FetchLogs retrieves the job's diagnostic payload for display.
func (r *Recovery) FetchLogs(ctx context.Context, jobID string) (json.RawMessage, error) {
	return r.backend.Logs(ctx, jobID)
}

// FetchSystemHealth retrieves per-dependency availability flags.
func (r *Recovery) FetchSystemHealth(ctx context.Context) (map[string]bool, error) {
	return r.backend.Health(ctx)
}

// Watcher consumes a snapshot stream and remembers the latest snapshot so
// a stall verdict can be asked for at any time. It is independent of the
// polling loop: feed it from the subscriber callback.
type Watcher struct {
	mu        sync.Mutex
	latest    *job.Snapshot
	threshold time.Duration
	now       func() time.Time
}

// NewWatcher creates a watcher with the given threshold (<= 0 selects
// DefaultStallThreshold).
func NewWatcher(threshold time.Duration) *Watcher {
	if threshold <= 0 {
		threshold = DefaultStallThreshold
	}
	return &Watcher{
		threshold: threshold,
		now:       time.Now,
	}
}

// Observe records the latest snapshot. Safe to call from the poll
// callback.
func (w *Watcher) Observe(snap *job.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.latest = snap
}

// Stuck reports whether the most recently observed snapshot looks stalled.
func (w *Watcher) Stuck() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return IsStuck(w.latest, w.now(), w.threshold)
}

// Latest returns the most recently observed snapshot, or nil.
func (w *Watcher) Latest() *job.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.latest
}

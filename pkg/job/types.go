// Package job defines the client-side model of an asynchronous transcription
// job: the snapshot a poll observes, its incremental chunks, and the merge
// rules that accumulate chunks across polls.
package job

import (
	"strings"
	"time"
)

// LegacySessionID marks jobs created before session tracking existed.
// It is a data marker, not an error: such jobs can be observed and
// cancelled but never restarted.
const LegacySessionID = "unknown"

// Status is the backend-reported lifecycle state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transitions can occur.
// Polling must stop once a terminal status is observed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Speaker is the diarization label attached to a chunk.
type Speaker string

const (
	SpeakerClinician Speaker = "clinician"
	SpeakerPatient   Speaker = "patient"

	// SpeakerOther buckets any label the client does not recognize.
	// Unknown labels are never rejected.
	SpeakerOther Speaker = "other"
)

// ParseSpeaker maps a wire label onto the known enumeration, folding
// unrecognized values into SpeakerOther.
func ParseSpeaker(label string) Speaker {
	switch Speaker(strings.ToLower(strings.TrimSpace(label))) {
	case SpeakerClinician:
		return SpeakerClinician
	case SpeakerPatient:
		return SpeakerPatient
	default:
		return SpeakerOther
	}
}

// Chunk is one incrementally-produced unit of job output, ordered by Index.
type Chunk struct {
	// Index is unique within a job and defines ordering.
	Index int `json:"chunk_idx"`

	// Speaker is the diarization bucket for this span.
	Speaker Speaker `json:"speaker"`

	// StartTime and EndTime are offsets in seconds; EndTime >= StartTime.
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`

	// Text is the transcribed content for this span.
	Text string `json:"text"`

	// SpeedRatio and Confidence are opaque quality scalars produced by the
	// backend. The client propagates them without interpretation.
	SpeedRatio float64 `json:"speed_ratio"`
	Confidence float64 `json:"confidence"`
}

// Snapshot is the authoritative client-side view of one job at a point in
// time. Snapshots are immutable once built; Merge produces a new one.
type Snapshot struct {
	// JobID is the opaque backend identifier, stable for the job lifetime.
	JobID string `json:"job_id"`

	// SessionID groups jobs logically. LegacySessionID for pre-session jobs.
	SessionID string `json:"session_id"`

	Status Status `json:"status"`

	// ProgressPct is 0-100. The backend reports it monotonically
	// non-decreasing while in progress, but violations are tolerated.
	ProgressPct float64 `json:"progress_pct"`

	ProcessedChunks int `json:"processed_chunks"`

	// TotalChunks may be 0 before the backend has sized the work.
	TotalChunks int `json:"total_chunks"`

	// Chunks is ordered by Index ascending and only ever grows across
	// merges of the same job.
	Chunks []Chunk `json:"chunks"`

	// Error is set only when Status is StatusFailed. Display verbatim.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the backend's last-touch time. Staleness decisions use
	// this field, never the client's arrival time.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLegacy reports whether the job predates session tracking.
func (s *Snapshot) IsLegacy() bool {
	return s.SessionID == LegacySessionID
}

// CanRestart reports whether the restart action is available. Legacy jobs
// can never be restarted; this capability is communicated proactively so
// callers need not discover it by a failing request.
func (s *Snapshot) CanRestart() bool {
	return !s.IsLegacy()
}

// ChunkIndexes returns the indexes present, in order. Test helper for
// accumulation assertions, but generally useful for gap inspection.
func (s *Snapshot) ChunkIndexes() []int {
	out := make([]int, len(s.Chunks))
	for i, c := range s.Chunks {
		out[i] = c.Index
	}
	return out
}

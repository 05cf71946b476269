package job

import (
	"encoding/json"
	"fmt"
	"time"
)

// rawJob is the backend wire shape for GET /jobs/{id} and list items.
// Field presence is uneven across backend versions, so everything decodes
// leniently and FromWire normalizes.
type rawJob struct {
	JobID           string     `json:"job_id"`
	SessionID       string     `json:"session_id"`
	Status          string     `json:"status"`
	ProgressPct     float64    `json:"progress_pct"`
	ProcessedChunks int        `json:"processed_chunks"`
	TotalChunks     int        `json:"total_chunks"`
	Chunks          []rawChunk `json:"chunks"`
	Error           string     `json:"error"`
	CreatedAt       string     `json:"created_at"`
	UpdatedAt       string     `json:"updated_at"`
}

type rawChunk struct {
	ChunkIdx   int     `json:"chunk_idx"`
	Speaker    string  `json:"speaker"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Text       string  `json:"text"`
	SpeedRatio float64 `json:"speed_ratio"`
	Confidence float64 `json:"confidence"`
}

// Decode parses a backend job payload into a Snapshot.
func Decode(data []byte) (*Snapshot, error) {
	var raw rawJob
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode job payload: %w", err)
	}
	return fromWire(raw)
}

// DecodeList parses a backend job-list payload.
func DecodeList(data []byte) ([]*Snapshot, error) {
	var raws []rawJob
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode job list payload: %w", err)
	}
	out := make([]*Snapshot, 0, len(raws))
	for _, raw := range raws {
		snap, err := fromWire(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func fromWire(raw rawJob) (*Snapshot, error) {
	if raw.JobID == "" {
		return nil, fmt.Errorf("job payload missing job_id")
	}

	sessionID := raw.SessionID
	if sessionID == "" {
		// Pre-session backends omit the field entirely.
		sessionID = LegacySessionID
	}

	status := Status(raw.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("job %s: unknown status %q", raw.JobID, raw.Status)
	}

	snap := &Snapshot{
		JobID:           raw.JobID,
		SessionID:       sessionID,
		Status:          status,
		ProgressPct:     raw.ProgressPct,
		ProcessedChunks: raw.ProcessedChunks,
		TotalChunks:     raw.TotalChunks,
		Error:           raw.Error,
		CreatedAt:       parseWireTime(raw.CreatedAt),
		UpdatedAt:       parseWireTime(raw.UpdatedAt),
	}

	snap.Chunks = make([]Chunk, 0, len(raw.Chunks))
	for _, rc := range raw.Chunks {
		snap.Chunks = append(snap.Chunks, Chunk{
			Index:      rc.ChunkIdx,
			Speaker:    ParseSpeaker(rc.Speaker),
			StartTime:  rc.StartTime,
			EndTime:    rc.EndTime,
			Text:       rc.Text,
			SpeedRatio: rc.SpeedRatio,
			Confidence: rc.Confidence,
		})
	}
	sortChunks(snap.Chunks)

	return snap, nil
}

// parseWireTime accepts the timestamp formats observed from the backend.
// A zero time is returned for absent or unparseable values; staleness
// checks treat zero as "never updated".
func parseWireTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

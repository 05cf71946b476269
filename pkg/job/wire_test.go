package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_FullPayload(t *testing.T) {
	payload := []byte(`{
		"job_id": "j1",
		"session_id": "s1",
		"status": "in_progress",
		"progress_pct": 40,
		"processed_chunks": 2,
		"total_chunks": 5,
		"created_at": "2026-03-01T10:00:00Z",
		"updated_at": "2026-03-01T10:01:30Z",
		"chunks": [
			{"chunk_idx": 1, "speaker": "patient", "start_time": 30, "end_time": 60, "text": "second", "speed_ratio": 1.2, "confidence": 0.91},
			{"chunk_idx": 0, "speaker": "clinician", "start_time": 0, "end_time": 30, "text": "first"}
		]
	}`)

	snap, err := Decode(payload)
	require.NoError(t, err)

	assert.Equal(t, "j1", snap.JobID)
	assert.Equal(t, "s1", snap.SessionID)
	assert.Equal(t, StatusInProgress, snap.Status)
	assert.Equal(t, 2, snap.ProcessedChunks)
	assert.Equal(t, 5, snap.TotalChunks)
	assert.False(t, snap.IsLegacy())

	// Chunks arrive unordered and must be sorted by index.
	require.Len(t, snap.Chunks, 2)
	assert.Equal(t, []int{0, 1}, snap.ChunkIndexes())
	assert.Equal(t, SpeakerClinician, snap.Chunks[0].Speaker)
	assert.Equal(t, SpeakerPatient, snap.Chunks[1].Speaker)
	assert.Equal(t, 1.2, snap.Chunks[1].SpeedRatio)
	assert.Equal(t, 0.91, snap.Chunks[1].Confidence)
}

func TestDecode_MissingSessionIsLegacy(t *testing.T) {
	snap, err := Decode([]byte(`{"job_id": "j1", "status": "pending"}`))
	require.NoError(t, err)

	assert.Equal(t, LegacySessionID, snap.SessionID)
	assert.True(t, snap.IsLegacy())
	assert.False(t, snap.CanRestart())
}

func TestDecode_ExplicitLegacyMarker(t *testing.T) {
	snap, err := Decode([]byte(`{"job_id": "j1", "session_id": "unknown", "status": "completed"}`))
	require.NoError(t, err)
	assert.True(t, snap.IsLegacy())
}

func TestDecode_UnknownSpeakerIsBucketed(t *testing.T) {
	snap, err := Decode([]byte(`{
		"job_id": "j1", "session_id": "s1", "status": "in_progress",
		"chunks": [{"chunk_idx": 0, "speaker": "narrator", "text": "hm"}]
	}`))
	require.NoError(t, err)

	require.Len(t, snap.Chunks, 1)
	assert.Equal(t, SpeakerOther, snap.Chunks[0].Speaker, "unrecognized speakers are bucketed, never rejected")
}

func TestDecode_UnknownStatusIsRejected(t *testing.T) {
	_, err := Decode([]byte(`{"job_id": "j1", "status": "exploded"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestDecode_MissingJobIDIsRejected(t *testing.T) {
	_, err := Decode([]byte(`{"status": "pending"}`))
	require.Error(t, err)
}

func TestDecodeList(t *testing.T) {
	jobs, err := DecodeList([]byte(`[
		{"job_id": "j1", "session_id": "s1", "status": "completed"},
		{"job_id": "j2", "status": "failed", "error": "model crashed"}
	]`))
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "j1", jobs[0].JobID)
	assert.True(t, jobs[1].IsLegacy())
	assert.Equal(t, "model crashed", jobs[1].Error)
}

func TestParseSpeaker(t *testing.T) {
	assert.Equal(t, SpeakerClinician, ParseSpeaker("clinician"))
	assert.Equal(t, SpeakerClinician, ParseSpeaker(" Clinician "))
	assert.Equal(t, SpeakerPatient, ParseSpeaker("PATIENT"))
	assert.Equal(t, SpeakerOther, ParseSpeaker("narrator"))
	assert.Equal(t, SpeakerOther, ParseSpeaker(""))
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

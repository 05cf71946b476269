package scribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BernardUriza/aurity-sub000/pkg/transport"
)

const jobPayload = `{
	"job_id": "j1",
	"session_id": "s1",
	"status": "in_progress",
	"progress_pct": 40,
	"processed_chunks": 2,
	"total_chunks": 5,
	"chunks": [
		{"chunk_idx": 0, "speaker": "clinician", "text": "first"},
		{"chunk_idx": 1, "speaker": "patient", "text": "second"}
	]
}`

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:    baseURL,
		MaxRetries: 0,
		CacheTTL:   time.Minute,
	})
}

func TestGetJob_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/j1", r.URL.Path)
		_, _ = w.Write([]byte(jobPayload))
	}))
	defer srv.Close()

	snap, err := newTestClient(srv.URL).GetJob(context.Background(), "j1")
	require.NoError(t, err)

	assert.Equal(t, "j1", snap.JobID)
	assert.Equal(t, []int{0, 1}, snap.ChunkIndexes())
}

func TestGetJob_CacheFallbackAfterFailure(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(jobPayload))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	// First fetch succeeds and populates the cache.
	first, err := client.GetJob(context.Background(), "j1")
	require.NoError(t, err)

	// Backend goes down; the cached snapshot is served instead.
	fail.Store(true)
	second, err := client.GetJob(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetJob_ErrorPropagatesWithoutCacheEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail": "db down"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetJob(context.Background(), "j-cold")
	require.Error(t, err)

	var apiErr *transport.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "db down", apiErr.Detail)
}

func TestGetJob_NotFoundIsNotMaskedByCache(t *testing.T) {
	var deleted atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if deleted.Load() {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail": "no such job"}`))
			return
		}
		_, _ = w.Write([]byte(jobPayload))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	// First fetch succeeds and populates the cache.
	_, err := client.GetJob(context.Background(), "j1")
	require.NoError(t, err)

	// The job is deleted on the backend. 404 is a definitive answer and
	// must surface even while the cached snapshot is still live.
	deleted.Store(true)
	snap, err := client.GetJob(context.Background(), "j1")
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.True(t, transport.IsNotFound(err))
}

func TestListJobs_NotFoundIsNotMaskedByCache(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail": "no such session"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"job_id": "j1", "session_id": "s1", "status": "completed"}]`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	_, err := client.ListJobs(context.Background(), "s1", 10)
	require.NoError(t, err)

	fail.Store(true)
	jobs, err := client.ListJobs(context.Background(), "s1", 10)
	require.Error(t, err)
	assert.Nil(t, jobs)
	assert.True(t, transport.IsNotFound(err))
}

func TestGetJob_NotFoundIsDistinct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "no such job"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetJob(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, transport.IsNotFound(err))
}

func TestListJobs_BuildsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs", r.URL.Path)
		assert.Equal(t, "s1", r.URL.Query().Get("session_id"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[{"job_id": "j1", "session_id": "s1", "status": "completed"}]`))
	}))
	defer srv.Close()

	jobs, err := newTestClient(srv.URL).ListJobs(context.Background(), "s1", 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "j1", jobs[0].JobID)
}

func TestRestart_ReturnsNewJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/j1/restart", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"new_job_id": "j2"}`))
	}))
	defer srv.Close()

	newID, err := newTestClient(srv.URL).Restart(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, "j2", newID)
}

func TestCancelJob(t *testing.T) {
	var called atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
		assert.Equal(t, "/jobs/j1/cancel", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv.URL).CancelJob(context.Background(), "j1"))
	assert.True(t, called.Load())
}

func TestExport_RejectsUnknownFormat(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Export(context.Background(), "j1", "pdf")

	var precondErr *PreconditionError
	require.ErrorAs(t, err, &precondErr)
	assert.Equal(t, int32(0), calls.Load(), "precondition failures issue no requests")
}

func TestExport_PassesFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "markdown", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte("# Transcript"))
	}))
	defer srv.Close()

	data, err := newTestClient(srv.URL).Export(context.Background(), "j1", ExportMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "# Transcript", string(data))
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"whisper_available": true, "classifier_available": false}`))
	}))
	defer srv.Close()

	health, err := newTestClient(srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		"whisper_available":    true,
		"classifier_available": false,
	}, health)
}

func TestLogs_ReturnsOpaquePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/j1/logs", r.URL.Path)
		_, _ = w.Write([]byte(`{"lines": ["chunk 3 slow"]}`))
	}))
	defer srv.Close()

	payload, err := newTestClient(srv.URL).Logs(context.Background(), "j1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"lines": ["chunk 3 slow"]}`, string(payload))
}

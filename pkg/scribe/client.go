// Package scribe is the typed client for the transcription backend. It
// builds on the resilient transport layer and adds cache fallback on the
// read paths: a successful fetch always overwrites the cache, a transient
// failure (after retries) serves the cached value when one is still live.
// Definitive backend answers such as 404 propagate unchanged.
package scribe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/BernardUriza/aurity-sub000/pkg/cache"
	"github.com/BernardUriza/aurity-sub000/pkg/job"
	"github.com/BernardUriza/aurity-sub000/pkg/transport"
)

// Config carries every tunable of the backend client. Defaults mirror the
// observed production values; see config.DefaultConfig for the full tree.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:8000".
	BaseURL string

	// RequestTimeout budgets quick metadata calls (list, logs, health).
	RequestTimeout time.Duration

	// StatusTimeout budgets job-status polls, which carry chunk payloads
	// and warrant a longer budget than metadata calls.
	StatusTimeout time.Duration

	// MaxRetries bounds transient-failure retries per request.
	MaxRetries int

	// MaxUploadBytes caps submissions client-side. Oversized files are
	// rejected before any network call.
	MaxUploadBytes int64

	// CacheTTL bounds how stale a fallback value may be.
	CacheTTL time.Duration
}

// DefaultMaxUploadBytes is the documented submission cap.
const DefaultMaxUploadBytes = 100 << 20

// Client talks to the transcription backend.
type Client struct {
	cfg       Config
	transport *transport.Client

	jobCache  *cache.Cache[*job.Snapshot]
	listCache *cache.Cache[[]*job.Snapshot]
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTransport replaces the underlying transport client (used by tests
// and by embedders that need custom HTTP behavior).
func WithTransport(t *transport.Client) ClientOption {
	return func(c *Client) {
		c.transport = t
	}
}

// NewClient creates a backend client. Zero config fields fall back to
// package defaults.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = transport.DefaultTimeout
	}
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = 8 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	var topts []transport.Option
	if cfg.MaxRetries > 0 {
		topts = append(topts, transport.WithRetryConfig(transport.RetryConfig{MaxRetries: cfg.MaxRetries}))
	}

	c := &Client{
		cfg:       cfg,
		transport: transport.NewClient(topts...),
		jobCache:  cache.New[*job.Snapshot](cfg.CacheTTL),
		listCache: cache.New[[]*job.Snapshot](cfg.CacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJob fetches the current snapshot of one job, including every chunk
// produced so far. On transient transport failure (after retries) a live
// cached snapshot is returned instead; with no live entry the original
// error propagates unchanged. Definitive answers (404 and other 4xx) are
// never masked by the cache.
func (c *Client) GetJob(ctx context.Context, jobID string) (*job.Snapshot, error) {
	data, err := c.transport.Do(ctx, http.MethodGet, c.url("/jobs/"+url.PathEscape(jobID)), nil, transport.RequestOptions{
		Timeout: c.cfg.StatusTimeout,
	})
	if err != nil {
		if transport.IsTransient(err) {
			if snap, ok := c.jobCache.Get(jobCacheKey(jobID)); ok {
				log.Debug().
					Str("component", "scribe").
					Str("job_id", jobID).
					Msg("status fetch failed, serving cached snapshot")
				return snap, nil
			}
		}
		return nil, err
	}

	snap, err := job.Decode(data)
	if err != nil {
		return nil, err
	}
	c.jobCache.Set(jobCacheKey(jobID), snap)
	return snap, nil
}

// ListJobs fetches recent jobs, optionally scoped to a session. Cache
// fallback applies as for GetJob.
func (c *Client) ListJobs(ctx context.Context, sessionID string, limit int) ([]*job.Snapshot, error) {
	q := url.Values{}
	if sessionID != "" {
		q.Set("session_id", sessionID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	endpoint := c.url("/jobs")
	if enc := q.Encode(); enc != "" {
		endpoint += "?" + enc
	}

	key := listCacheKey(sessionID, limit)
	data, err := c.transport.Do(ctx, http.MethodGet, endpoint, nil, transport.RequestOptions{
		Timeout: c.cfg.RequestTimeout,
	})
	if err != nil {
		if transport.IsTransient(err) {
			if jobs, ok := c.listCache.Get(key); ok {
				return jobs, nil
			}
		}
		return nil, err
	}

	jobs, err := job.DecodeList(data)
	if err != nil {
		return nil, err
	}
	c.listCache.Set(key, jobs)
	return jobs, nil
}

// Restart asks the backend to re-run a job, returning the replacement job
// ID. The backend answers 404 with a legacy-job message for jobs that
// predate session tracking; diagnose.Recovery guards that case before the
// call is ever made.
func (c *Client) Restart(ctx context.Context, jobID string) (string, error) {
	data, err := c.transport.Do(ctx, http.MethodPost, c.url("/jobs/"+url.PathEscape(jobID)+"/restart"), nil, transport.RequestOptions{
		Timeout: c.cfg.RequestTimeout,
	})
	if err != nil {
		return "", err
	}

	var payload struct {
		NewJobID string `json:"new_job_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decode restart response: %w", err)
	}
	if payload.NewJobID == "" {
		return "", fmt.Errorf("restart response missing new_job_id")
	}
	return payload.NewJobID, nil
}

// CancelJob asks the backend to stop processing a job. This is distinct
// from cancelling a poll subscription, which only stops observation.
func (c *Client) CancelJob(ctx context.Context, jobID string) error {
	_, err := c.transport.Do(ctx, http.MethodPost, c.url("/jobs/"+url.PathEscape(jobID)+"/cancel"), nil, transport.RequestOptions{
		Timeout: c.cfg.RequestTimeout,
	})
	return err
}

// Logs fetches the diagnostic payload for a job. The payload is opaque:
// rendered for the operator, never interpreted.
func (c *Client) Logs(ctx context.Context, jobID string) (json.RawMessage, error) {
	data, err := c.transport.Do(ctx, http.MethodGet, c.url("/jobs/"+url.PathEscape(jobID)+"/logs"), nil, transport.RequestOptions{
		Timeout: c.cfg.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// ExportFormat selects the export rendering.
type ExportFormat string

const (
	ExportJSON     ExportFormat = "json"
	ExportMarkdown ExportFormat = "markdown"
)

// Export downloads the rendered transcript blob for a completed job.
func (c *Client) Export(ctx context.Context, jobID string, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportJSON, ExportMarkdown:
	default:
		return nil, &PreconditionError{Field: "format", Reason: fmt.Sprintf("unsupported export format %q", format)}
	}

	endpoint := c.url("/jobs/"+url.PathEscape(jobID)+"/export") + "?format=" + url.QueryEscape(string(format))
	return c.transport.Do(ctx, http.MethodGet, endpoint, nil, transport.RequestOptions{
		Timeout: c.cfg.StatusTimeout,
	})
}

// Health reports per-dependency availability as the backend sees it. Keys
// are `<service>_available` flags.
func (c *Client) Health(ctx context.Context) (map[string]bool, error) {
	data, err := c.transport.Do(ctx, http.MethodGet, c.url("/health"), nil, transport.RequestOptions{
		Timeout: c.cfg.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}

	var payload map[string]bool
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}
	return payload, nil
}

func (c *Client) url(path string) string {
	return c.cfg.BaseURL + path
}

func jobCacheKey(jobID string) string {
	return "job:" + jobID
}

func listCacheKey(sessionID string, limit int) string {
	return fmt.Sprintf("jobs:%s:%d", sessionID, limit)
}

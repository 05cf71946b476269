// Package transport implements the resilient HTTP layer every backend call
// goes through: per-request cancellable timeouts, a bounded immediate retry
// on transient failures, and typed errors the rest of the client can branch
// on exhaustively.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/BernardUriza/aurity-sub000/pkg/metrics"
)

// RetryConfig bounds the retry behavior of a single logical request.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first
	// failure. Retries fire immediately; the observed backend behavior
	// requires no backoff.
	MaxRetries int
}

// DefaultRetryConfig returns the standard single-retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 1}
}

// WithRetry runs fn up to 1+cfg.MaxRetries times, stopping early when fn
// succeeds, when the failure is not transient, or when ctx is done. The
// final transient failure is wrapped in ErrRetriesExhausted.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt > 0 {
			metrics.Default.RequestRetries.Inc()
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}

// RequestOptions tune a single call site.
type RequestOptions struct {
	// Timeout is the per-attempt budget. Zero means DefaultTimeout.
	// Status polling uses a longer budget than quick metadata calls.
	Timeout time.Duration

	// MaxRetries overrides the client retry policy when > 0.
	MaxRetries int

	// ContentType is set on the request when a body is present.
	ContentType string

	// Headers are additional request headers, applied to every attempt.
	Headers map[string]string
}

// DefaultTimeout is the per-attempt budget when a call site does not
// override it.
const DefaultTimeout = 1000 * time.Millisecond

// Client issues resilient HTTP requests. Caching is deliberately not done
// here; falling back to cached data is a caller-level decision.
type Client struct {
	httpClient *http.Client
	retry      RetryConfig
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRetryConfig sets the default retry policy for all requests.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// NewClient creates a transport client with the default retry policy.
func NewClient(opts ...Option) *Client {
	c := &Client{
		// Per-attempt deadlines come from the request context, not from
		// http.Client.Timeout, so one client serves every call site.
		httpClient: &http.Client{},
		retry:      DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues one logical request and returns the response body on any 2xx
// answer. Non-2xx answers become *APIError; 5xx and network failures are
// retried per the effective policy, 4xx are returned to the caller as-is.
func (c *Client) Do(ctx context.Context, method, url string, body []byte, opts RequestOptions) ([]byte, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	retry := c.retry
	if opts.MaxRetries > 0 {
		retry.MaxRetries = opts.MaxRetries
	}

	var result []byte
	err := WithRetry(ctx, retry, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		if opts.ContentType != "" {
			req.Header.Set("Content-Type", opts.ContentType)
		}
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}

		data, err := c.roundTrip(req)
		if err != nil {
			return err
		}
		result = data
		return nil
	})
	if err != nil {
		metrics.Default.Requests.WithLabelValues(method, "error").Inc()
		log.Debug().
			Str("component", "transport").
			Str("method", method).
			Str("url", url).
			Err(err).
			Msg("request failed")
		return nil, err
	}

	metrics.Default.Requests.WithLabelValues(method, "ok").Inc()
	return result, nil
}

func (c *Client) roundTrip(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Detail:     decodeErrorBody(resp.Body),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return data, nil
}

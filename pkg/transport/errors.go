package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrRetriesExhausted wraps the final transient failure after the retry
// budget is spent. Callers use errors.Is to distinguish "the network kept
// failing" from a definitive backend answer.
var ErrRetriesExhausted = errors.New("retries exhausted")

// APIError is a non-2xx answer from the backend. The Detail field carries
// the backend's JSON error body `detail` value; it is free text suitable
// for display and is never parsed further.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// IsNotFound reports whether the backend answered 404. Not-found is a
// distinct condition: never retried and never conflated with a failed job.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsServerError reports whether the answer was a 5xx. These are treated as
// transient and are eligible for retry.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// IsNotFound reports whether err is (or wraps) a 404 APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

// IsTransient reports whether err represents a failure that a later
// attempt could plausibly resolve: a 5xx answer, a network error, or a
// per-request timeout. 4xx answers are definitive and never transient.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsServerError()
	}
	// Anything that is not a backend answer is a network-level failure.
	return err != nil
}

// decodeErrorBody extracts the backend's `detail` message from an error
// body. Bodies that are not the expected JSON shape yield an empty detail;
// the status code alone still identifies the condition.
func decodeErrorBody(body io.Reader) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	return payload.Detail
}

package scribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/BernardUriza/aurity-sub000/pkg/transport"
)

// ProcessingConfig is the configuration bag attached to a submission. The
// backend interprets these; the client only carries them.
type ProcessingConfig struct {
	// Model selects the transcription model.
	Model string

	// ChunkSeconds is the audio window per chunk.
	ChunkSeconds int

	// BeamSize tunes decoder search width.
	BeamSize int

	// VADFilter toggles the voice-activity-detection pre-filter.
	VADFilter bool

	// Classify toggles per-chunk speaker classification.
	Classify bool
}

// DefaultProcessingConfig returns the backend's documented defaults.
func DefaultProcessingConfig() ProcessingConfig {
	return ProcessingConfig{
		Model:        "base",
		ChunkSeconds: 30,
		BeamSize:     5,
		VADFilter:    true,
		Classify:     true,
	}
}

// SubmitRequest describes one audio upload.
type SubmitRequest struct {
	// File is the audio payload. Size must be known up front so the
	// client-side cap can reject oversized files before any network I/O.
	File     io.Reader
	Filename string
	Size     int64

	// SessionID groups the job with its clinical session.
	SessionID string

	// Language is an optional hint, e.g. "es".
	Language string

	Processing ProcessingConfig
}

// Submit uploads an audio file for asynchronous processing and returns the
// job identifier to poll. It never waits for completion.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if req.File == nil {
		return "", &PreconditionError{Field: "file", Reason: "no file provided"}
	}
	if req.Size > c.cfg.MaxUploadBytes {
		return "", &PreconditionError{
			Field:  "file",
			Reason: fmt.Sprintf("file is %d bytes, cap is %d", req.Size, c.cfg.MaxUploadBytes),
		}
	}
	if req.Processing.ChunkSeconds < 0 || req.Processing.BeamSize < 0 {
		return "", &PreconditionError{Field: "processing", Reason: "negative processing parameter"}
	}

	body, contentType, err := buildMultipart(req)
	if err != nil {
		return "", err
	}

	// The idempotency key lets the backend collapse duplicate submissions
	// when a retry fires after a response was lost in transit.
	idempotencyKey := uuid.New().String()

	data, err := c.transport.Do(ctx, http.MethodPost, c.url("/jobs"), body, transport.RequestOptions{
		// Uploads move real payload; give them the long budget.
		Timeout:     uploadTimeout(c.cfg.StatusTimeout),
		ContentType: contentType,
		Headers:     map[string]string{"Idempotency-Key": idempotencyKey},
	})
	if err != nil {
		return "", err
	}

	var payload struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if payload.JobID == "" {
		return "", fmt.Errorf("submit response missing job_id")
	}

	log.Info().
		Str("component", "scribe").
		Str("job_id", payload.JobID).
		Str("session_id", req.SessionID).
		Int64("bytes", req.Size).
		Msg("job submitted")
	return payload.JobID, nil
}

func buildMultipart(req SubmitRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := req.Filename
	if filename == "" {
		filename = "audio"
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, req.File); err != nil {
		return nil, "", fmt.Errorf("copy file payload: %w", err)
	}

	fields := map[string]string{
		"session_id":    req.SessionID,
		"language":      req.Language,
		"model":         req.Processing.Model,
		"chunk_seconds": strconv.Itoa(req.Processing.ChunkSeconds),
		"beam_size":     strconv.Itoa(req.Processing.BeamSize),
		"vad_filter":    strconv.FormatBool(req.Processing.VADFilter),
		"classify":      strconv.FormatBool(req.Processing.Classify),
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// uploadTimeout scales the status budget for payload-bearing uploads.
func uploadTimeout(statusTimeout time.Duration) time.Duration {
	const minimum = 30 * time.Second
	if statusTimeout*4 > minimum {
		return statusTimeout * 4
	}
	return minimum
}

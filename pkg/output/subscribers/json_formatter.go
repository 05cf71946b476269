package subscribers

import (
	"encoding/json"
	"io"
	"time"

	"github.com/BernardUriza/aurity-sub000/pkg/output"
)

// JSONFormatter emits one JSON object per event (JSON Lines), for script
// consumption when --json is present.
type JSONFormatter struct {
	encoder *json.Encoder
}

// NewJSONFormatter creates a JSONFormatter subscriber.
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	return &JSONFormatter{
		encoder: json.NewEncoder(writer),
	}
}

// Name returns the subscriber identifier.
func (s *JSONFormatter) Name() string {
	return "json-formatter"
}

// ShouldHandle accepts everything; scripts get the full event stream.
func (s *JSONFormatter) ShouldHandle(event output.Event) bool {
	return true
}

// Handle renders one event as a JSON line.
func (s *JSONFormatter) Handle(event output.Event) {
	jsonEvent := map[string]any{
		"type":      event.Type,
		"timestamp": event.Timestamp.Format(time.RFC3339),
	}
	if event.Message != "" {
		jsonEvent["message"] = event.Message
	}
	if event.Data != nil {
		jsonEvent["data"] = event.Data
	}

	// Encoding failures (e.g. broken pipe) cannot propagate; drop the event.
	_ = s.encoder.Encode(jsonEvent)
}

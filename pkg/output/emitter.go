package output

import "time"

// Emitter is the producer-side API: commands call these methods and the
// stream takes care of rendering.
type Emitter struct {
	stream *Stream
}

// NewEmitter creates an emitter bound to a stream.
func NewEmitter(stream *Stream) *Emitter {
	return &Emitter{stream: stream}
}

// Info emits a general message.
func (e *Emitter) Info(message string) {
	e.stream.Emit(Event{
		Type:      EventInfo,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// Error emits an error message.
func (e *Emitter) Error(err error) {
	e.stream.Emit(Event{
		Type:      EventError,
		Message:   err.Error(),
		Timestamp: time.Now(),
	})
}

// Warning emits a warning message.
func (e *Emitter) Warning(message string) {
	e.stream.Emit(Event{
		Type:      EventWarning,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// Table emits tabular data.
func (e *Emitter) Table(headers []string, rows [][]string) {
	e.stream.Emit(Event{
		Type: EventTable,
		Data: map[string]any{
			"headers": headers,
			"rows":    rows,
		},
		Timestamp: time.Now(),
	})
}

// Progress emits a progress update: current/total chunks plus a status
// line.
func (e *Emitter) Progress(current, total int, message string) {
	e.stream.Emit(Event{
		Type:    EventProgress,
		Message: message,
		Data: map[string]any{
			"current": current,
			"total":   total,
		},
		Timestamp: time.Now(),
	})
}

// Result emits a structured command result.
func (e *Emitter) Result(data any) {
	e.stream.Emit(Event{
		Type:      EventResult,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// Package output decouples command logic from rendering. Commands emit
// events (messages, tables, progress, results) to a stream; subscribers
// render them as human-friendly terminal output or JSON lines. How many
// views render a stream is invisible to the producer.
package output

import "time"

// EventType classifies output events.
type EventType string

const (
	// EventInfo is a general message, always visible.
	EventInfo EventType = "info"

	// EventError is an error message.
	EventError EventType = "error"

	// EventWarning is a warning, e.g. a possible stall.
	EventWarning EventType = "warning"

	// EventTable is tabular data (job listings).
	EventTable EventType = "table"

	// EventProgress is a job progress update.
	EventProgress EventType = "progress"

	// EventResult is a structured command result (a snapshot, a health
	// report) for machine consumption.
	EventResult EventType = "result"
)

// Event is one unit of command output.
type Event struct {
	Type EventType

	// Message is the primary text content.
	Message string

	// Data carries structured payload: table headers/rows, progress
	// values, or a result object.
	Data any

	Timestamp time.Time
}

// Subscriber renders events. Subscribers must not fail the producer:
// rendering errors are swallowed.
type Subscriber interface {
	// Name identifies the subscriber.
	Name() string

	// ShouldHandle filters events before Handle is called.
	ShouldHandle(event Event) bool

	// Handle renders one event.
	Handle(event Event)
}

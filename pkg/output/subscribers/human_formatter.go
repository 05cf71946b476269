package subscribers

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cast"

	"github.com/BernardUriza/aurity-sub000/pkg/output"
)

var (
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // Green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")). // Red
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")). // Yellow
			Bold(true)

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")) // Light gray

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62")) // Blue
)

// HumanFormatter renders human-friendly terminal output. Used when the
// --json flag is not present.
type HumanFormatter struct {
	stdout       io.Writer
	stderr       io.Writer
	colorEnabled bool
}

// NewHumanFormatter creates a HumanFormatter subscriber.
func NewHumanFormatter(stdout, stderr io.Writer, colorEnabled bool) *HumanFormatter {
	return &HumanFormatter{
		stdout:       stdout,
		stderr:       stderr,
		colorEnabled: colorEnabled,
	}
}

// Name returns the subscriber identifier.
func (s *HumanFormatter) Name() string {
	return "human-formatter"
}

// ShouldHandle filters events. Structured results are for the JSON
// formatter; humans see the table/progress renderings instead.
func (s *HumanFormatter) ShouldHandle(event output.Event) bool {
	return event.Type != output.EventResult
}

// Handle renders one event.
func (s *HumanFormatter) Handle(event output.Event) {
	switch event.Type {
	case output.EventInfo:
		s.printStyled(s.stdout, infoStyle, event.Message)

	case output.EventError:
		if s.colorEnabled {
			s.printStyled(s.stderr, errorStyle, "Error: "+event.Message)
		} else {
			_, _ = fmt.Fprintf(s.stderr, "Error: %s\n", event.Message)
		}

	case output.EventWarning:
		if s.colorEnabled {
			s.printStyled(s.stdout, warningStyle, "Warning: "+event.Message)
		} else {
			_, _ = fmt.Fprintf(s.stdout, "Warning: %s\n", event.Message)
		}

	case output.EventTable:
		data := cast.ToStringMap(event.Data)
		headers := toStringSlice(data["headers"])
		rows := toRows(data["rows"])
		s.printTable(headers, rows)

	case output.EventProgress:
		data := cast.ToStringMap(event.Data)
		s.printProgress(cast.ToInt(data["current"]), cast.ToInt(data["total"]), event.Message)
	}
}

func (s *HumanFormatter) printStyled(w io.Writer, style lipgloss.Style, message string) {
	if !s.colorEnabled {
		_, _ = fmt.Fprintln(w, message)
		return
	}
	_, _ = fmt.Fprintln(w, style.Render(message))
}

func (s *HumanFormatter) printTable(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(s.stdout, 0, 0, 2, ' ', 0)

	headerLine := make([]string, len(headers))
	for i, h := range headers {
		if s.colorEnabled {
			headerLine[i] = tableHeaderStyle.Render(strings.ToUpper(h))
		} else {
			headerLine[i] = strings.ToUpper(h)
		}
	}
	_, _ = fmt.Fprintln(w, strings.Join(headerLine, "\t"))

	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func (s *HumanFormatter) printProgress(current, total int, message string) {
	line := message
	if total > 0 {
		line = fmt.Sprintf("[%d/%d] %s", current, total, message)
	}
	s.printStyled(s.stdout, progressStyle, line)
}

func toStringSlice(v any) []string {
	if ss, ok := v.([]string); ok {
		return ss
	}
	return cast.ToStringSlice(v)
}

func toRows(v any) [][]string {
	if rows, ok := v.([][]string); ok {
		return rows
	}
	return nil
}

package ui

import (
	"encoding/json"
	"io"
)

// Severity classifies the visual weight of a piece of inline text. The print
// layer maps each value to a terminal style; data consumers (JSON, tests) see
// plain text.
type Severity uint8

const (
	SeverityInfo     Severity = iota // plain, no colour emphasis
	SeveritySuccess                  // green, positive outcome
	SeverityWarn                     // yellow, needs attention
	SeverityError                    // red, failure
	SeverityCritical                 // bold, must be reviewed before action
)

// StyledText pairs a plain string with a Severity annotation.
//
// JSON serialization: the struct marshals as just the plain Text string so
// consumers receive clean output with no ANSI codes.
type StyledText struct {
	Text     string
	Severity Severity
}

// MarshalJSON serializes StyledText as a plain JSON string (just Text).
func (s StyledText) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Text)
}

// UI provides all terminal interaction for multisend commands.
//
// It abstracts output and user prompts so that:
//   - Production code uses TerminalUI (writes to os.Stdout, reads from os.Stdin)
//   - Tests use RecordingUI (captures all output, serves scripted inputs)
//
// The batch orchestrator reports per-recipient progress through an injected
// UI, so tests can assert the exact sequence of progress lines without a
// terminal.
type UI interface {
	// Style returns the text from t coloured according to its Severity.
	// When colours are disabled (piped output, RecordingUI) the plain text is
	// returned unchanged.
	Style(t StyledText) string

	// Info writes a neutral status line.
	Info(format string, args ...any)

	// Success writes a positive outcome in green.
	Success(format string, args ...any)

	// Warn writes a non-fatal warning in yellow.
	Warn(format string, args ...any)

	// Error writes a failure in red. It does NOT exit or return an error,
	// callers decide what to do next.
	Error(format string, args ...any)

	// Critical writes data the user must review before an irreversible
	// action, like the recipient table before signing. Rendered bold on
	// terminals.
	Critical(format string, args ...any)

	// Section writes a visual separator centred around a title.
	// Example: "===== Confirm recipients before sending ====="
	Section(title string)

	// KeyValue renders an aligned 2-column block with labels on the left.
	// Used for compact metadata like Status/Sender/Total.
	KeyValue(rows [][2]string)

	// Table renders a bordered table with an optional header row. Pass nil
	// headers for a clean key-value card.
	Table(headers []string, rows [][]string)

	// Spinner starts an animated spinner with the given message and returns
	// a stop function:
	//
	//	stop := u.Spinner("Broadcasting...")
	//	defer stop()
	//
	// In RecordingUI and non-terminal contexts the stop function is a no-op.
	Spinner(msg string) func()

	// Ask displays a "> " prompt and reads a line. It loops until validate
	// returns nil. Pass nil to accept any input.
	Ask(validate func(string) error) string

	// Confirm asks a yes/no question and returns the boolean answer.
	Confirm(prompt string, defaultYes bool) bool

	// Indent returns a child UI with indent level increased by one, sharing
	// the same underlying writer and reader.
	Indent() UI

	// Writer returns an io.Writer that prepends the current indentation to
	// every line.
	Writer() io.Writer
}

// Package session owns the application state for a single coloring-book run:
// the transcript, the two external call statuses, the generated pages, the
// selection set and the current screen. The Machine is the only mutator.
package session

import "errors"

// CallStatus tracks the lifecycle of one external API call.
type CallStatus int

const (
	StatusIdle CallStatus = iota
	StatusInFlight
	StatusSucceeded
	StatusFailed
)

// String returns a human-readable status name
func (s CallStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusInFlight:
		return "in flight"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Screen identifies which of the two screens is active.
type Screen int

const (
	PromptScreen Screen = iota
	ImageScreen
)

// Sentinel errors for local validation. Provider errors are passed through
// verbatim from the API clients.
var (
	// ErrEmptyInput is returned when the transcript is empty or whitespace
	ErrEmptyInput = errors.New("describe what you want to color first")

	// ErrNoSelection is returned when printing with no pages selected
	ErrNoSelection = errors.New("select at least one page to print")
)

// Snapshot is a read-only view of the session for rendering. The view layer
// never mutates session state directly.
type Snapshot struct {
	Screen        Screen
	Transcript    string
	RefinedPrompt string
	Images        []string
	Selected      []string
	PromptStatus  CallStatus
	ImageStatus   CallStatus
	ErrorMessage  string
}

// PromptCall describes a prompt-refinement request the view layer should
// start. The token must be echoed back through ResolvePrompt.
type PromptCall struct {
	Token      uint64
	Transcript string
}

// ImageCall describes a page-generation request the view layer should start.
// The token must be echoed back through ResolveImages.
type ImageCall struct {
	Token  uint64
	Prompt string
}

package session

import (
	"fmt"
	"strings"
)

// PageCount is the number of style variants generated per refined prompt.
const PageCount = 2

// Machine is the application state machine. It is synchronous and owns every
// mutation of the session; asynchronous work is described by the call values
// returned from SubmitPrompt and ResolvePrompt, executed by the caller, and
// fed back in through ResolvePrompt/ResolveImages with the captured token.
// A resolution whose token no longer matches the current attempt is stale
// and is discarded without touching any state.
type Machine struct {
	screen        Screen
	transcript    string
	refinedPrompt string
	images        []string
	selected      []string
	promptStatus  CallStatus
	imageStatus   CallStatus
	errorMessage  string

	promptToken uint64
	imageToken  uint64
}

// NewMachine returns a machine in the initial state: empty transcript, both
// statuses idle, prompt screen active.
func NewMachine() *Machine {
	return &Machine{}
}

// Snapshot returns a copy of the current state for rendering.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		Screen:        m.screen,
		Transcript:    m.transcript,
		RefinedPrompt: m.refinedPrompt,
		Images:        append([]string(nil), m.images...),
		Selected:      append([]string(nil), m.selected...),
		PromptStatus:  m.promptStatus,
		ImageStatus:   m.imageStatus,
		ErrorMessage:  m.errorMessage,
	}
}

// EditTranscript replaces the transcript text. Editing is only possible on
// the prompt screen while no refinement call is outstanding; the event is
// ignored otherwise.
func (m *Machine) EditTranscript(text string) {
	if m.screen != PromptScreen || m.promptStatus == StatusInFlight {
		return
	}
	m.transcript = text
}

// AppendTranscript appends dictated text to the transcript, inserting a
// space when needed. Subject to the same guard as EditTranscript.
func (m *Machine) AppendTranscript(text string) {
	if text == "" {
		return
	}
	joined := m.transcript
	if joined != "" && !strings.HasSuffix(joined, " ") {
		joined += " "
	}
	m.EditTranscript(joined + text)
}

// SubmitPrompt starts a prompt-refinement attempt. It returns nil without a
// call when a refinement is already in flight, or when the transcript is
// blank, in which case the failure is recorded locally and no external call
// is made. A successful submit also resets any previous page state so stale
// images can never survive a resubmission.
func (m *Machine) SubmitPrompt() *PromptCall {
	if m.promptStatus == StatusInFlight {
		return nil
	}
	if strings.TrimSpace(m.transcript) == "" {
		m.promptStatus = StatusFailed
		m.errorMessage = ErrEmptyInput.Error()
		return nil
	}

	m.imageStatus = StatusIdle
	m.images = nil
	m.selected = nil
	m.errorMessage = ""
	m.promptStatus = StatusInFlight
	m.promptToken++

	return &PromptCall{Token: m.promptToken, Transcript: m.transcript}
}

// ResolvePrompt delivers the outcome of a refinement attempt. Success moves
// to the image screen and immediately starts the page-generation attempt for
// the new refined prompt; the returned ImageCall describes it. Failure
// records the provider error and stays on the prompt screen. Stale
// resolutions return nil.
func (m *Machine) ResolvePrompt(token uint64, refined string, err error) *ImageCall {
	if token != m.promptToken || m.promptStatus != StatusInFlight {
		return nil
	}

	if err != nil {
		m.promptStatus = StatusFailed
		m.errorMessage = err.Error()
		m.refinedPrompt = ""
		return nil
	}

	m.refinedPrompt = refined
	m.promptStatus = StatusSucceeded
	m.errorMessage = ""
	m.screen = ImageScreen

	return m.startImageCall()
}

// startImageCall begins a page-generation attempt. Only reachable with
// promptStatus succeeded and the image screen active.
func (m *Machine) startImageCall() *ImageCall {
	m.imageStatus = StatusInFlight
	m.images = nil
	m.selected = nil
	m.imageToken++

	return &ImageCall{Token: m.imageToken, Prompt: m.refinedPrompt}
}

// ResolveImages delivers the outcome of a page-generation attempt. Results
// for a superseded attempt, or arriving after the user navigated back to the
// prompt screen, are discarded.
func (m *Machine) ResolveImages(token uint64, locators []string, err error) {
	if token != m.imageToken || m.imageStatus != StatusInFlight || m.screen != ImageScreen {
		return
	}

	if err == nil && len(locators) != PageCount {
		err = fmt.Errorf("expected %d pages, got %d", PageCount, len(locators))
	}
	if err != nil {
		m.imageStatus = StatusFailed
		m.errorMessage = err.Error()
		m.images = nil
		m.selected = nil
		return
	}

	m.images = append([]string(nil), locators...)
	m.selected = nil
	m.imageStatus = StatusSucceeded
	m.errorMessage = ""
}

// ToggleSelection adds or removes a page from the selection, preserving
// insertion order for display and print. Ignored unless pages are available
// and the locator is one of them.
func (m *Machine) ToggleSelection(locator string) {
	if m.imageStatus != StatusSucceeded {
		return
	}
	present := false
	for _, img := range m.images {
		if img == locator {
			present = true
			break
		}
	}
	if !present {
		return
	}

	for i, sel := range m.selected {
		if sel == locator {
			m.selected = append(m.selected[:i], m.selected[i+1:]...)
			return
		}
	}
	m.selected = append(m.selected, locator)
}

// IsSelected reports whether a page is in the selection set.
func (m *Machine) IsSelected(locator string) bool {
	for _, sel := range m.selected {
		if sel == locator {
			return true
		}
	}
	return false
}

// RequestPrint returns the selected locators in selection order for the
// print formatter. Printing never mutates the session. With no pages
// available or nothing selected it returns an error the view layer surfaces
// as a notice.
func (m *Machine) RequestPrint() ([]string, error) {
	if m.imageStatus != StatusSucceeded {
		return nil, ErrNoSelection
	}
	if len(m.selected) == 0 {
		return nil, ErrNoSelection
	}
	return append([]string(nil), m.selected...), nil
}

// GoBack returns to the prompt screen and resets all page state, so that a
// later resubmission always generates fresh pages. The transcript and the
// refined prompt survive; resubmitting overwrites them. Ignored on the
// prompt screen.
func (m *Machine) GoBack() {
	if m.screen != ImageScreen {
		return
	}
	m.screen = PromptScreen
	m.images = nil
	m.imageStatus = StatusIdle
	m.selected = nil
	m.errorMessage = ""
}

package session

import (
	"errors"
	"testing"
)

const (
	pageA = "data:image/png;base64,cGFnZUE="
	pageB = "data:image/png;base64,cGFnZUI="
)

// submitAndRefine drives a machine through a successful prompt refinement
// and returns the resulting image call.
func submitAndRefine(t *testing.T, m *Machine, refined string) *ImageCall {
	t.Helper()

	call := m.SubmitPrompt()
	if call == nil {
		t.Fatal("SubmitPrompt() returned no call")
	}
	img := m.ResolvePrompt(call.Token, refined, nil)
	if img == nil {
		t.Fatal("ResolvePrompt() did not start an image call")
	}
	return img
}

func TestNewMachine_InitialState(t *testing.T) {
	m := NewMachine()
	snap := m.Snapshot()

	if snap.Screen != PromptScreen {
		t.Errorf("Screen = %v, want PromptScreen", snap.Screen)
	}
	if snap.Transcript != "" {
		t.Errorf("Transcript = %q, want empty", snap.Transcript)
	}
	if snap.PromptStatus != StatusIdle || snap.ImageStatus != StatusIdle {
		t.Errorf("statuses = %v/%v, want idle/idle", snap.PromptStatus, snap.ImageStatus)
	}
	if len(snap.Images) != 0 || len(snap.Selected) != 0 {
		t.Error("expected no images and no selection initially")
	}
}

func TestSubmitPrompt_EmptyTranscript(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tabs and newlines", "\t\n  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			m.EditTranscript(tt.transcript)

			call := m.SubmitPrompt()
			if call != nil {
				t.Fatal("SubmitPrompt() started a call for blank input")
			}

			snap := m.Snapshot()
			if snap.Screen != PromptScreen {
				t.Errorf("Screen = %v, want PromptScreen", snap.Screen)
			}
			if snap.PromptStatus != StatusFailed {
				t.Errorf("PromptStatus = %v, want failed", snap.PromptStatus)
			}
			if snap.ErrorMessage != ErrEmptyInput.Error() {
				t.Errorf("ErrorMessage = %q, want %q", snap.ErrorMessage, ErrEmptyInput.Error())
			}
		})
	}
}

func TestSubmitPrompt_WhileInFlight(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")

	first := m.SubmitPrompt()
	if first == nil {
		t.Fatal("SubmitPrompt() returned no call")
	}

	if second := m.SubmitPrompt(); second != nil {
		t.Error("SubmitPrompt() started a second call while one was in flight")
	}
}

func TestEditTranscript_GuardedWhileInFlight(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	m.SubmitPrompt()

	m.EditTranscript("changed")
	if got := m.Snapshot().Transcript; got != "a happy dinosaur" {
		t.Errorf("Transcript = %q, transcript must be read-only while in flight", got)
	}
}

func TestEditTranscript_AllowedAfterFailure(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	call := m.SubmitPrompt()
	m.ResolvePrompt(call.Token, "", errors.New("service unavailable"))

	m.EditTranscript("a sleepy cat")
	if got := m.Snapshot().Transcript; got != "a sleepy cat" {
		t.Errorf("Transcript = %q, want editable after failure", got)
	}

	// Resubmission allowed
	if m.SubmitPrompt() == nil {
		t.Error("SubmitPrompt() refused resubmission after failure")
	}
}

func TestResolvePrompt_SuccessStartsImageCall(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")

	img := submitAndRefine(t, m, "A happy dinosaur, black and white line art")

	snap := m.Snapshot()
	if snap.Screen != ImageScreen {
		t.Errorf("Screen = %v, want ImageScreen", snap.Screen)
	}
	if snap.PromptStatus != StatusSucceeded {
		t.Errorf("PromptStatus = %v, want succeeded", snap.PromptStatus)
	}
	if snap.ImageStatus != StatusInFlight {
		t.Errorf("ImageStatus = %v, want in flight", snap.ImageStatus)
	}
	if snap.RefinedPrompt != "A happy dinosaur, black and white line art" {
		t.Errorf("RefinedPrompt = %q", snap.RefinedPrompt)
	}
	if img.Prompt != snap.RefinedPrompt {
		t.Errorf("ImageCall.Prompt = %q, want refined prompt", img.Prompt)
	}
}

func TestResolvePrompt_Failure(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	call := m.SubmitPrompt()

	img := m.ResolvePrompt(call.Token, "", errors.New("quota exceeded"))
	if img != nil {
		t.Error("ResolvePrompt() started an image call after failure")
	}

	snap := m.Snapshot()
	if snap.Screen != PromptScreen {
		t.Errorf("Screen = %v, must stay on PromptScreen", snap.Screen)
	}
	if snap.PromptStatus != StatusFailed {
		t.Errorf("PromptStatus = %v, want failed", snap.PromptStatus)
	}
	if snap.ErrorMessage != "quota exceeded" {
		t.Errorf("ErrorMessage = %q, want provider message verbatim", snap.ErrorMessage)
	}
	if snap.RefinedPrompt != "" {
		t.Errorf("RefinedPrompt = %q, want cleared", snap.RefinedPrompt)
	}
}

func TestResolvePrompt_StaleTokenDiscarded(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	first := m.SubmitPrompt()

	// First attempt fails, user resubmits.
	m.ResolvePrompt(first.Token, "", errors.New("timeout"))
	second := m.SubmitPrompt()

	// The first attempt's late success must be discarded.
	if img := m.ResolvePrompt(first.Token, "stale prompt", nil); img != nil {
		t.Error("stale ResolvePrompt() was not discarded")
	}
	if snap := m.Snapshot(); snap.Screen != PromptScreen || snap.PromptStatus != StatusInFlight {
		t.Errorf("stale resolution mutated state: screen=%v status=%v", snap.Screen, snap.PromptStatus)
	}

	// The current attempt still resolves normally.
	if img := m.ResolvePrompt(second.Token, "fresh prompt", nil); img == nil {
		t.Error("current attempt failed to resolve")
	}
	if got := m.Snapshot().RefinedPrompt; got != "fresh prompt" {
		t.Errorf("RefinedPrompt = %q, want fresh prompt", got)
	}
}

// Scenario 1: happy path end to end.
func TestScenario_FullGeneration(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")

	img := submitAndRefine(t, m, "A happy dinosaur, black and white line art, thick outlines")
	m.ResolveImages(img.Token, []string{pageA, pageB}, nil)

	snap := m.Snapshot()
	if snap.Screen != ImageScreen {
		t.Errorf("Screen = %v, want ImageScreen", snap.Screen)
	}
	if snap.ImageStatus != StatusSucceeded {
		t.Errorf("ImageStatus = %v, want succeeded", snap.ImageStatus)
	}
	if len(snap.Images) != 2 || snap.Images[0] != pageA || snap.Images[1] != pageB {
		t.Errorf("Images = %v, want [pageA pageB] in order received", snap.Images)
	}
	if len(snap.Selected) != 0 {
		t.Errorf("Selected = %v, want empty", snap.Selected)
	}
}

// Scenario 2: select one page and print it.
func TestScenario_SelectAndPrint(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	img := submitAndRefine(t, m, "refined")
	m.ResolveImages(img.Token, []string{pageA, pageB}, nil)

	m.ToggleSelection(pageA)
	if snap := m.Snapshot(); len(snap.Selected) != 1 || snap.Selected[0] != pageA {
		t.Fatalf("Selected = %v, want [pageA]", snap.Selected)
	}

	toPrint, err := m.RequestPrint()
	if err != nil {
		t.Fatalf("RequestPrint() error = %v", err)
	}
	if len(toPrint) != 1 || toPrint[0] != pageA {
		t.Errorf("RequestPrint() = %v, want [pageA]", toPrint)
	}

	// Printing never mutates the session.
	if snap := m.Snapshot(); len(snap.Selected) != 1 || snap.ImageStatus != StatusSucceeded {
		t.Error("RequestPrint() mutated session state")
	}
}

// Scenario 4: image generation failure.
func TestScenario_ImageFailure(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	img := submitAndRefine(t, m, "refined")

	m.ResolveImages(img.Token, nil, errors.New("no decodable image payload"))

	snap := m.Snapshot()
	if snap.ImageStatus != StatusFailed {
		t.Errorf("ImageStatus = %v, want failed", snap.ImageStatus)
	}
	if len(snap.Images) != 0 {
		t.Errorf("Images = %v, want none", snap.Images)
	}
	if snap.ErrorMessage != "no decodable image payload" {
		t.Errorf("ErrorMessage = %q", snap.ErrorMessage)
	}

	// Print is rejected with no pages.
	if _, err := m.RequestPrint(); err == nil {
		t.Error("RequestPrint() should be rejected after image failure")
	}
}

// Scenario 5: GoBack resets page state and keeps the prompt.
func TestScenario_GoBack(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	img := submitAndRefine(t, m, "refined")
	m.ResolveImages(img.Token, []string{pageA, pageB}, nil)
	m.ToggleSelection(pageB)

	m.GoBack()

	snap := m.Snapshot()
	if snap.Screen != PromptScreen {
		t.Errorf("Screen = %v, want PromptScreen", snap.Screen)
	}
	if len(snap.Images) != 0 || snap.ImageStatus != StatusIdle || len(snap.Selected) != 0 {
		t.Errorf("page state not reset: images=%v status=%v selected=%v",
			snap.Images, snap.ImageStatus, snap.Selected)
	}
	if snap.Transcript != "a happy dinosaur" {
		t.Errorf("Transcript = %q, must survive GoBack", snap.Transcript)
	}
	if snap.RefinedPrompt != "refined" {
		t.Errorf("RefinedPrompt = %q, must survive GoBack", snap.RefinedPrompt)
	}
}

func TestGoBack_OnPromptScreenIgnored(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("keep me")
	m.GoBack()

	if snap := m.Snapshot(); snap.Screen != PromptScreen || snap.Transcript != "keep me" {
		t.Error("GoBack() on the prompt screen must be a no-op")
	}
}

func TestGoBack_ThenResubmitGeneratesFreshPages(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	firstImg := submitAndRefine(t, m, "refined one")
	m.ResolveImages(firstImg.Token, []string{pageA, pageB}, nil)

	m.GoBack()

	secondImg := submitAndRefine(t, m, "refined two")
	if secondImg.Token == firstImg.Token {
		t.Error("re-entry must start a new image attempt with a new token")
	}
	if secondImg.Prompt != "refined two" {
		t.Errorf("ImageCall.Prompt = %q, want current refined prompt", secondImg.Prompt)
	}

	// Stale pages never reappear: the machine is waiting on the new attempt.
	snap := m.Snapshot()
	if len(snap.Images) != 0 || snap.ImageStatus != StatusInFlight {
		t.Errorf("stale pages resurfaced: images=%v status=%v", snap.Images, snap.ImageStatus)
	}
}

func TestResolveImages_LateResultAfterGoBackDiscarded(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	img := submitAndRefine(t, m, "refined")

	// User navigates away before the call resolves.
	m.GoBack()
	m.ResolveImages(img.Token, []string{pageA, pageB}, nil)

	snap := m.Snapshot()
	if len(snap.Images) != 0 || snap.ImageStatus != StatusIdle {
		t.Errorf("late image result applied after GoBack: images=%v status=%v",
			snap.Images, snap.ImageStatus)
	}
}

func TestResolveImages_StaleTokenDiscarded(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	firstImg := submitAndRefine(t, m, "refined one")

	// Back out and resubmit; a new image attempt supersedes the first.
	m.GoBack()
	submitAndRefine(t, m, "refined two")

	m.ResolveImages(firstImg.Token, []string{pageA, pageB}, nil)
	if snap := m.Snapshot(); snap.ImageStatus != StatusInFlight {
		t.Errorf("stale image resolution mutated state: %v", snap.ImageStatus)
	}
}

func TestResolveImages_WrongPageCount(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	img := submitAndRefine(t, m, "refined")

	m.ResolveImages(img.Token, []string{pageA}, nil)

	snap := m.Snapshot()
	if snap.ImageStatus != StatusFailed {
		t.Errorf("ImageStatus = %v, want failed for wrong page count", snap.ImageStatus)
	}
	if len(snap.Images) != 0 {
		t.Errorf("Images = %v, want none", snap.Images)
	}
}

func TestToggleSelection_Idempotence(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	img := submitAndRefine(t, m, "refined")
	m.ResolveImages(img.Token, []string{pageA, pageB}, nil)
	m.ToggleSelection(pageB)

	before := m.Snapshot().Selected

	m.ToggleSelection(pageA)
	m.ToggleSelection(pageA)

	after := m.Snapshot().Selected
	if len(after) != len(before) {
		t.Fatalf("Selected = %v, want %v after double toggle", after, before)
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("Selected[%d] = %q, want %q", i, after[i], before[i])
		}
	}
}

func TestToggleSelection_PreservesInsertionOrder(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	img := submitAndRefine(t, m, "refined")
	m.ResolveImages(img.Token, []string{pageA, pageB}, nil)

	m.ToggleSelection(pageB)
	m.ToggleSelection(pageA)

	snap := m.Snapshot()
	if len(snap.Selected) != 2 || snap.Selected[0] != pageB || snap.Selected[1] != pageA {
		t.Errorf("Selected = %v, want [pageB pageA] in toggle order", snap.Selected)
	}
}

func TestToggleSelection_Guards(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")

	// No pages yet.
	m.ToggleSelection(pageA)
	if len(m.Snapshot().Selected) != 0 {
		t.Error("selection allowed before pages are available")
	}

	img := submitAndRefine(t, m, "refined")
	m.ResolveImages(img.Token, []string{pageA, pageB}, nil)

	// Unknown locator.
	m.ToggleSelection("data:image/png;base64,Ym9ndXM=")
	if len(m.Snapshot().Selected) != 0 {
		t.Error("selection allowed for a locator not among the pages")
	}
}

func TestRequestPrint_EmptySelection(t *testing.T) {
	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	img := submitAndRefine(t, m, "refined")
	m.ResolveImages(img.Token, []string{pageA, pageB}, nil)

	if _, err := m.RequestPrint(); !errors.Is(err, ErrNoSelection) {
		t.Errorf("RequestPrint() error = %v, want ErrNoSelection", err)
	}
}

// Invariant: selected is always a subset of images (or both empty).
func TestInvariant_SelectedSubsetOfImages(t *testing.T) {
	check := func(t *testing.T, m *Machine) {
		t.Helper()
		snap := m.Snapshot()
		for _, sel := range snap.Selected {
			found := false
			for _, img := range snap.Images {
				if img == sel {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("selected %q not present in images %v", sel, snap.Images)
			}
		}
	}

	m := NewMachine()
	m.EditTranscript("a happy dinosaur")
	img := submitAndRefine(t, m, "refined")
	m.ResolveImages(img.Token, []string{pageA, pageB}, nil)
	m.ToggleSelection(pageA)
	m.ToggleSelection(pageB)
	check(t, m)

	m.GoBack()
	check(t, m)

	img = submitAndRefine(t, m, "refined again")
	check(t, m)
	m.ResolveImages(img.Token, nil, errors.New("boom"))
	check(t, m)
}

func TestAppendTranscript(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		add     string
		want    string
	}{
		{"first words", "", "a happy dinosaur", "a happy dinosaur"},
		{"appends with space", "a happy", "dinosaur", "a happy dinosaur"},
		{"trailing space kept", "a happy ", "dinosaur", "a happy dinosaur"},
		{"empty addition", "a happy dinosaur", "", "a happy dinosaur"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			m.EditTranscript(tt.initial)
			m.AppendTranscript(tt.add)
			if got := m.Snapshot().Transcript; got != tt.want {
				t.Errorf("Transcript = %q, want %q", got, tt.want)
			}
		})
	}
}

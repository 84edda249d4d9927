package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"doodlepress/gemini"
	"doodlepress/printer"
	"doodlepress/session"
	"doodlepress/speech"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the Bubble Tea model for the coloring-page workflow. All state
// transitions go through the session machine; the model only renders
// snapshots and runs the external calls the machine asks for.
type Model struct {
	machine *session.Machine

	// UI components
	input   textarea.Model
	spinner spinner.Model

	// Pages from the last accepted generation, for style names and sizes
	pages []gemini.Page

	// Dictation state
	dictating  bool
	recognizer speech.Recognizer
	dictation  <-chan speech.Update
	livePhrase string

	// Transient notice shown under the main content (print results etc.)
	notice      string
	noticeError bool

	startTime time.Time

	// Dimensions
	width  int
	height int

	// State flags
	quitting   bool
	backToMenu bool
}

// promptResultMsg is sent when prompt refinement completes
type promptResultMsg struct {
	token   uint64
	refined string
	err     error
}

// pagesResultMsg is sent when page generation completes
type pagesResultMsg struct {
	token uint64
	pages []gemini.Page
	err   error
}

// dictationUpdateMsg carries one update from the speech recognizer
type dictationUpdateMsg struct {
	update speech.Update
	ok     bool
}

// printResultMsg is sent when the print document has been handed to the
// system browser
type printResultMsg struct {
	count int
	err   error
}

// NewModel creates the workflow model in its initial state
func NewModel() Model {
	ta := textarea.New()
	ta.Placeholder = "A friendly dragon having a tea party in a garden..."
	ta.CharLimit = 500
	ta.SetWidth(60)
	ta.SetHeight(4)
	ta.ShowLineNumbers = false
	ta.Focus()

	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: SpinnerFrames,
		FPS:    time.Second / 8,
	}
	s.Style = lipgloss.NewStyle().Foreground(ColorCrayon)

	return Model{
		machine: session.NewMachine(),
		input:   ta,
		spinner: s,
		width:   80,
		height:  24,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textarea.Blink,
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := m.width - 10
		if w > 72 {
			w = 72
		}
		if w > 10 {
			m.input.SetWidth(w)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case promptResultMsg:
		imageCall := m.machine.ResolvePrompt(msg.token, msg.refined, msg.err)
		if imageCall != nil {
			m.startTime = time.Now()
			return m, m.generatePages(imageCall)
		}
		m.syncInput()
		return m, nil

	case pagesResultMsg:
		m.machine.ResolveImages(msg.token, gemini.Locators(msg.pages), msg.err)
		snap := m.machine.Snapshot()
		if snap.ImageStatus == session.StatusSucceeded && len(snap.Images) == len(msg.pages) {
			m.pages = msg.pages
		}
		return m, nil

	case dictationUpdateMsg:
		return m.handleDictation(msg)

	case printResultMsg:
		if msg.err != nil {
			m.notice = "Print failed: " + msg.err.Error()
			m.noticeError = true
		} else {
			m.notice = fmt.Sprintf("Sent %d page(s) to your browser's print dialog", msg.count)
			m.noticeError = false
		}
		return m, nil
	}

	// Forward everything else to the transcript editor when it is active
	if m.editing() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.machine.EditTranscript(m.input.Value())
		return m, cmd
	}

	return m, nil
}

// editing reports whether keystrokes should reach the transcript editor
func (m Model) editing() bool {
	snap := m.machine.Snapshot()
	return snap.Screen == session.PromptScreen && snap.PromptStatus != session.StatusInFlight
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.machine.Snapshot()

	switch msg.String() {
	case "ctrl+c":
		m.stopDictation()
		m.quitting = true
		return m, tea.Quit
	}

	if snap.Screen == session.PromptScreen {
		return m.handlePromptKey(msg, snap)
	}
	return m.handleImageKey(msg, snap)
}

// handlePromptKey handles input on the description screen
func (m Model) handlePromptKey(msg tea.KeyMsg, snap session.Snapshot) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if snap.PromptStatus == session.StatusInFlight {
			return m, nil
		}
		m.stopDictation()
		m.backToMenu = true
		return m, tea.Quit

	case "ctrl+s":
		m.machine.EditTranscript(m.input.Value())
		call := m.machine.SubmitPrompt()
		m.notice = ""
		if call == nil {
			return m, nil
		}
		m.stopDictation()
		m.startTime = time.Now()
		m.syncInput()
		return m, m.refinePrompt(call)

	case "ctrl+d":
		return m.toggleDictation(snap)
	}

	// Everything else is text input
	if m.editing() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.machine.EditTranscript(m.input.Value())
		return m, cmd
	}
	return m, nil
}

// handleImageKey handles input on the pages screen
func (m Model) handleImageKey(msg tea.KeyMsg, snap session.Snapshot) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		m.machine.GoBack()
		m.pages = nil
		m.notice = ""
		m.syncInput()
		return m, textarea.Blink

	case "1", "2":
		idx := int(msg.String()[0] - '1')
		if idx < len(snap.Images) {
			m.machine.ToggleSelection(snap.Images[idx])
		}
		return m, nil

	case "p":
		locators, err := m.machine.RequestPrint()
		if err != nil {
			m.notice = err.Error()
			m.noticeError = true
			return m, nil
		}
		m.notice = "Opening print dialog..."
		m.noticeError = false
		return m, printPages(locators)
	}

	return m, nil
}

// syncInput refreshes the editor content from the machine after a transition
// that may have changed the transcript or its editability.
func (m *Model) syncInput() {
	snap := m.machine.Snapshot()
	if m.input.Value() != snap.Transcript {
		m.input.SetValue(snap.Transcript)
	}
	if m.editing() {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// refinePrompt runs the prompt-refinement call
func (m Model) refinePrompt(call *session.PromptCall) tea.Cmd {
	return func() tea.Msg {
		client, err := gemini.NewClientFromEnv()
		if err != nil {
			return promptResultMsg{token: call.Token, err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		refined, err := client.RefinePrompt(ctx, call.Transcript)
		return promptResultMsg{token: call.Token, refined: refined, err: err}
	}
}

// generatePages runs the page-generation call
func (m Model) generatePages(call *session.ImageCall) tea.Cmd {
	return func() tea.Msg {
		client, err := gemini.NewClientFromEnv()
		if err != nil {
			return pagesResultMsg{token: call.Token, err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		pages, err := client.GeneratePages(ctx, call.Prompt)
		return pagesResultMsg{token: call.Token, pages: pages, err: err}
	}
}

// printPages builds the print document and opens it
func printPages(locators []string) tea.Cmd {
	return func() tea.Msg {
		return printResultMsg{
			count: len(locators),
			err:   printer.Print(locators),
		}
	}
}

// toggleDictation starts or stops microphone dictation
func (m Model) toggleDictation(snap session.Snapshot) (tea.Model, tea.Cmd) {
	if m.dictating {
		m.stopDictation()
		return m, nil
	}
	if snap.PromptStatus == session.StatusInFlight {
		return m, nil
	}

	rec, err := speech.NewRecognizer()
	if err != nil {
		m.notice = "Dictation unavailable: " + err.Error()
		m.noticeError = true
		return m, nil
	}

	updates, err := rec.Start()
	if err != nil {
		m.notice = "Dictation failed to start: " + err.Error()
		m.noticeError = true
		return m, nil
	}

	m.recognizer = rec
	m.dictation = updates
	m.dictating = true
	m.livePhrase = ""
	m.notice = ""
	return m, listenDictation(updates)
}

// stopDictation tears down the recognizer if one is running
func (m *Model) stopDictation() {
	if m.recognizer != nil {
		m.recognizer.Stop()
		m.recognizer = nil
	}
	m.dictating = false
	m.dictation = nil
	m.livePhrase = ""
}

// listenDictation waits for the next recognizer update
func listenDictation(updates <-chan speech.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		return dictationUpdateMsg{update: u, ok: ok}
	}
}

// handleDictation folds a recognizer update into the transcript
func (m Model) handleDictation(msg dictationUpdateMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		m.stopDictation()
		return m, nil
	}
	if msg.update.Err != nil {
		m.notice = msg.update.Err.Error()
		m.noticeError = true
		m.stopDictation()
		return m, nil
	}

	if msg.update.Final {
		m.machine.AppendTranscript(msg.update.Text)
		m.livePhrase = ""
		m.syncInput()
	} else {
		m.livePhrase = msg.update.Text
	}

	return m, listenDictation(m.dictation)
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return MutedStyle.Render("Goodbye!\n")
	}

	snap := m.machine.Snapshot()

	var b strings.Builder
	b.WriteString(GetHeader())
	b.WriteString("\n")

	if snap.Screen == session.PromptScreen {
		b.WriteString(m.renderPromptScreen(snap))
	} else {
		b.WriteString(m.renderImageScreen(snap))
	}

	if m.notice != "" {
		b.WriteString("\n")
		if m.noticeError {
			b.WriteString(WarningStyle.Render(m.notice))
		} else {
			b.WriteString(InfoStyle.Render(m.notice))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp(snap))

	return b.String()
}

// renderPromptScreen renders the description editor
func (m Model) renderPromptScreen(snap session.Snapshot) string {
	title := TitleStyle.Render("What would you like to color?")

	if snap.PromptStatus == session.StatusInFlight {
		status := m.spinner.View() + " " + BodyStyle.Render("Turning your idea into a coloring page prompt...")
		elapsed := MutedStyle.Render(fmt.Sprintf("Elapsed: %s", formatDuration(time.Since(m.startTime))))
		return BoxStyle.Render(title + "\n\n" +
			MutedStyle.Render(snap.Transcript) + "\n\n" +
			status + "\n" + elapsed)
	}

	var parts []string
	parts = append(parts, title)
	parts = append(parts, m.input.View())

	if m.dictating {
		mic := InfoStyle.Render("Listening...")
		if m.livePhrase != "" {
			mic += " " + MutedStyle.Render(m.livePhrase)
		}
		parts = append(parts, mic)
	}

	if snap.PromptStatus == session.StatusFailed && snap.ErrorMessage != "" {
		parts = append(parts, ErrorStyle.Render(snap.ErrorMessage))
	}

	box := FocusedBoxStyle
	if m.dictating {
		box = box.BorderForeground(ColorInfo)
	}
	return box.Render(strings.Join(parts, "\n\n"))
}

// renderImageScreen renders the generated pages and the selection
func (m Model) renderImageScreen(snap session.Snapshot) string {
	var b strings.Builder

	prompt := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSecondary).
		Padding(0, 2).
		Render(SubtitleStyle.Render("Prompt") + "\n" + BodyStyle.Render(snap.RefinedPrompt))
	b.WriteString(prompt)
	b.WriteString("\n")

	switch snap.ImageStatus {
	case session.StatusInFlight:
		status := m.spinner.View() + " " + BodyStyle.Render("Drawing your coloring pages...")
		elapsed := MutedStyle.Render(fmt.Sprintf("Elapsed: %s", formatDuration(time.Since(m.startTime))))
		b.WriteString(BoxStyle.Render(status + "\n" + elapsed))

	case session.StatusFailed:
		errorBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorError).
			Padding(1, 2).
			Render(ErrorStyle.Render("Generation failed") + "\n\n" + BodyStyle.Render(snap.ErrorMessage))
		b.WriteString(errorBox)

	case session.StatusSucceeded:
		b.WriteString(m.renderPages(snap))
	}

	return b.String()
}

// renderPages renders one card per generated page
func (m Model) renderPages(snap session.Snapshot) string {
	var cards []string
	for i, locator := range snap.Images {
		selected := m.machine.IsSelected(locator)

		checkbox := "[ ]"
		border := ColorBorder
		if selected {
			checkbox = "[x]"
			border = ColorSuccess
		}

		label := fmt.Sprintf("Page %d", i+1)
		detail := ""
		if i < len(m.pages) {
			detail = m.pages[i].Style
			if m.pages[i].Size > 0 {
				detail += fmt.Sprintf(" (%s)", formatSize(m.pages[i].Size))
			}
		}

		content := BodyStyle.Render(checkbox+" "+label) + "\n" + MutedStyle.Render(detail)
		card := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(1, 3).
			Render(content)
		cards = append(cards, card)
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)

	count := len(snap.Selected)
	var footer string
	if count == 0 {
		footer = MutedStyle.Render("Press 1 or 2 to pick the pages you want to print")
	} else {
		footer = SuccessStyle.Render(fmt.Sprintf("%d page(s) selected", count))
	}

	return row + "\n" + footer
}

// renderHelp renders context-sensitive keyboard help
func (m Model) renderHelp(snap session.Snapshot) string {
	var keys []string

	if snap.Screen == session.PromptScreen {
		if snap.PromptStatus == session.StatusInFlight {
			keys = append(keys, "ctrl+c", "Quit")
		} else {
			keys = append(keys, "ctrl+s", "Generate")
			if m.dictating {
				keys = append(keys, "ctrl+d", "Stop dictation")
			} else if speech.Available() {
				keys = append(keys, "ctrl+d", "Dictate")
			}
			keys = append(keys, "esc", "Menu")
		}
	} else {
		if snap.ImageStatus == session.StatusSucceeded {
			keys = append(keys, "1/2", "Select")
			keys = append(keys, "p", "Print")
		}
		keys = append(keys, "esc", "Back")
		keys = append(keys, "q", "Quit")
	}

	helpStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	keyStyle := lipgloss.NewStyle().Foreground(ColorSubtle).Bold(true)

	var parts []string
	for i := 0; i < len(keys); i += 2 {
		parts = append(parts, keyStyle.Render(keys[i])+" "+helpStyle.Render(keys[i+1]))
	}

	return helpStyle.Render(strings.Join(parts, "  |  "))
}

// Getter methods for external access
func (m Model) IsQuitting() bool { return m.quitting }
func (m Model) BackToMenu() bool { return m.backToMenu }

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func formatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}

// RunUI runs the coloring-page workflow and reports whether the user wants
// to return to the main menu
func RunUI() (continueApp bool, err error) {
	model := NewModel()
	p := tea.NewProgram(model, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m := finalModel.(Model)
	return m.BackToMenu(), nil
}

package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tmux-task-popup/internal/logging/events"
	"github.com/atomicstack/tmux-task-popup/internal/ui/command"
)

const addActionID = "task:add"

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch m.mode {
	case ModeInput:
		return m.handleInputKey(key)
	case ModeRunning:
		return m.handleRunningKey(key)
	default:
		return m.handleDoneKey(key)
	}
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc":
		events.Input.Cancel(events.InputReasonEscape)
		return tea.Quit
	case "enter":
		return m.submit()
	case "tab":
		m.acceptSuggestion()
		return nil
	case "up", "ctrl+p":
		m.recallHistory(1)
		return nil
	case "down", "ctrl+n":
		m.recallHistory(-1)
		return nil
	case "shift+tab":
		m.cycleSuggestion()
		return nil
	case "ctrl+u":
		if m.input.Value() != "" {
			m.setInput("")
			events.Input.Cleared()
		}
		return nil
	}
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.historyIndex = -1
		m.errMsg = ""
		m.refreshSuggestions()
	}
	return cmd
}

// submit launches the command for the current input. Blank input closes the
// popup without running anything.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		events.Input.Cancel(events.InputReasonEmpty)
		return tea.Quit
	}
	events.Input.Submit(text)
	m.mode = ModeRunning
	m.submitted = text
	m.suggestions = nil
	m.errMsg = ""
	m.input.Blur()
	return m.bus.Execute(command.Request{ID: addActionID, Label: text, Text: text})
}

func (m *Model) setInput(value string) {
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.errMsg = ""
	m.refreshSuggestions()
}

// recallHistory moves through history; positive steps go back in time. Moving
// past the newest entry restores what was typed before browsing started.
func (m *Model) recallHistory(step int) {
	if m.history == nil || m.history.Len() == 0 {
		return
	}
	next := m.historyIndex + step
	if next >= m.history.Len() {
		return
	}
	if next < 0 {
		if m.historyIndex >= 0 {
			m.historyIndex = -1
			m.setInput(m.draft)
		}
		return
	}
	if m.historyIndex < 0 {
		m.draft = m.input.Value()
	}
	entry, ok := m.history.Recent(next)
	if !ok {
		return
	}
	m.historyIndex = next
	m.setInput(entry)
	m.suggestions = nil
	events.History.Recall(next, entry)
}

func (m *Model) refreshSuggestions() {
	m.suggestion = 0
	if m.history == nil {
		m.suggestions = nil
		return
	}
	m.suggestions = m.history.Suggest(m.input.Value(), maxSuggestions)
}

func (m *Model) cycleSuggestion() {
	if len(m.suggestions) == 0 {
		return
	}
	m.suggestion = (m.suggestion + 1) % len(m.suggestions)
}

func (m *Model) acceptSuggestion() {
	if len(m.suggestions) == 0 {
		return
	}
	query := m.input.Value()
	entry := m.suggestions[m.suggestion]
	m.historyIndex = -1
	m.setInput(entry)
	events.History.Complete(query, entry)
}

func (m *Model) handleRunningKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc":
		// The command keeps running; only our interest in its output ends.
		// A launch still in flight is closed once it arrives.
		m.abandoned = true
		if m.reader != nil {
			m.reader.Close()
			m.reader = nil
		}
		return tea.Quit
	}
	return nil
}

func (m *Model) handleDoneKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc", "enter", "q":
		return tea.Quit
	}
	return nil
}

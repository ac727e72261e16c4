package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
)

// defaultSettle bounds how long the harness keeps following poll ticks.
const defaultSettle = 5 * time.Second

// Harness drives the UI model programmatically for integration tests.
type Harness struct {
	model  *Model
	quit   bool
	settle time.Duration
}

// NewHarness creates a harness for the provided model. The cursor is made
// static so no blink ticks are queued.
func NewHarness(model *Model) *Harness {
	if model != nil {
		model.input.Cursor.SetMode(cursor.CursorStatic)
	}
	return &Harness{model: model, settle: defaultSettle}
}

// Send routes a message through the model and executes any returned commands
// until the model goes idle, quits, or the settle deadline passes.
func (h *Harness) Send(msg tea.Msg) {
	if h.model == nil {
		return
	}
	h.processCmd(h.update(msg))
}

// Type sends each rune of text as a key press.
func (h *Harness) Type(text string) {
	for _, r := range text {
		h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// Press sends a single special key.
func (h *Harness) Press(key tea.KeyType) {
	h.Send(tea.KeyMsg{Type: key})
}

func (h *Harness) update(msg tea.Msg) tea.Cmd {
	mdl, cmd := h.model.Update(msg)
	if updated, ok := mdl.(*Model); ok {
		h.model = updated
	}
	return cmd
}

func (h *Harness) processCmd(cmd tea.Cmd) {
	deadline := time.Now().Add(h.settle)
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 && !h.quit {
		if time.Now().After(deadline) {
			return
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
		case tea.QuitMsg:
			h.quit = true
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			queue = append(queue, h.update(msg))
		}
	}
}

// Quit reports whether the model asked the program to exit.
func (h *Harness) Quit() bool {
	return h.quit
}

// View returns the current view string.
func (h *Harness) View() string {
	if h.model == nil {
		return ""
	}
	return h.model.View()
}

// Model exposes the underlying model.
func (h *Harness) Model() *Model {
	return h.model
}

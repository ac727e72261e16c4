package ui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/atomicstack/tmux-task-popup/internal/logging"
	"github.com/atomicstack/tmux-task-popup/internal/logging/events"
	"github.com/atomicstack/tmux-task-popup/internal/stream"
	"github.com/atomicstack/tmux-task-popup/internal/ui/command"
)

const (
	// maxLinesPerPoll bounds how many lines one pollMsg drains before yielding
	// back to the update loop.
	maxLinesPerPoll = 64
	// maxOutputLines caps the retained output buffer.
	maxOutputLines = 500
)

type pollMsg struct{}

func pollNow() tea.Msg { return pollMsg{} }

func (m *Model) schedulePoll() tea.Cmd {
	return tea.Tick(m.pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m *Model) handleLaunchedMsg(msg tea.Msg) tea.Cmd {
	launched, ok := msg.(command.Launched)
	if !ok {
		return nil
	}
	m.ran = true
	if launched.Err == nil && launched.Reader == nil {
		launched.Err = command.ErrNoLauncher
	}
	if launched.Err != nil {
		logging.Error(launched.Err)
		events.Action.Error(launched.Err)
		m.outcome = stream.Error(launched.Err.Error())
		m.errMsg = launched.Err.Error()
		m.mode = ModeDone
		return nil
	}
	if m.abandoned {
		launched.Reader.Close()
		return nil
	}
	m.reader = launched.Reader
	m.pid = m.reader.Pid()
	return pollNow
}

// handlePollMsg drains queued output and decides when to poll next. Lines are
// consumed in bounded batches so key presses are still handled between them.
func (m *Model) handlePollMsg(tea.Msg) tea.Cmd {
	if m.reader == nil || m.mode != ModeRunning {
		return nil
	}
	for i := 0; i < maxLinesPerPoll; i++ {
		outcome := m.reader.Poll()
		switch outcome.Kind {
		case stream.KindLine:
			m.appendOutput(outcome.Line)
		case stream.KindWait:
			return m.schedulePoll()
		default:
			return m.finishRun(outcome)
		}
	}
	return pollNow
}

func (m *Model) appendOutput(line string) {
	events.Task.Line(m.pid, line)
	m.output = append(m.output, ansi.Strip(line))
	if over := len(m.output) - maxOutputLines; over > 0 {
		m.output = append([]string(nil), m.output[over:]...)
	}
}

func (m *Model) finishRun(outcome stream.Outcome) tea.Cmd {
	m.outcome = outcome
	m.reader = nil
	m.mode = ModeDone
	events.Task.Outcome(m.pid, outcome.Kind.String(), outcome.Code, outcome.Message)

	switch outcome.Kind {
	case stream.KindComplete:
		if m.history != nil {
			if err := m.history.Add(m.submitted); err != nil {
				logging.Error(err)
			} else {
				events.History.Append(m.submitted)
			}
		}
		events.Action.Success(m.submitted)
		if m.closeOnSuccess {
			return tea.Quit
		}
	case stream.KindFailed:
		m.errMsg = fmt.Sprintf("command exited with status %d", outcome.Code)
		events.Action.Error(errors.New(m.errMsg))
	case stream.KindError:
		m.errMsg = outcome.Message
		events.Action.Error(errors.New(outcome.Message))
	}
	return nil
}

package command

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tmux-task-popup/internal/logging/events"
	"github.com/atomicstack/tmux-task-popup/internal/stream"
)

// ErrNoLauncher is reported when a request reaches a bus without a launcher.
var ErrNoLauncher = errors.New("no launcher configured")

// Launcher starts the task command for the given text.
type Launcher interface {
	Add(text string) (*stream.Reader, error)
}

// Request encapsulates a launch invocation.
type Request struct {
	ID    string
	Label string
	Text  string
}

// Launched is delivered once the command has been spawned, or has failed to.
type Launched struct {
	Request Request
	Reader  *stream.Reader
	Err     error
}

// Bus coordinates the execution of launch requests.
type Bus struct {
	launcher Launcher
}

// New initialises a command bus instance.
func New(launcher Launcher) *Bus {
	return &Bus{launcher: launcher}
}

// Execute wraps a launch into a Bubble Tea command while emitting trace logs.
func (b *Bus) Execute(req Request) tea.Cmd {
	events.Command.Queue(req.ID, req.Label)
	return func() tea.Msg {
		if b == nil || b.launcher == nil {
			events.Command.Skip(req.ID, req.Label)
			return Launched{Request: req, Err: ErrNoLauncher}
		}
		reader, err := b.launcher.Add(req.Text)
		msg := Launched{Request: req, Reader: reader, Err: err}
		events.Command.Result(req.ID, req.Label, fmt.Sprintf("%T", msg))
		return msg
	}
}

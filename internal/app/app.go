package app

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tmux-task-popup/internal/history"
	"github.com/atomicstack/tmux-task-popup/internal/logging"
	"github.com/atomicstack/tmux-task-popup/internal/logging/events"
	"github.com/atomicstack/tmux-task-popup/internal/stream"
	"github.com/atomicstack/tmux-task-popup/internal/task"
	"github.com/atomicstack/tmux-task-popup/internal/tmux"
	"github.com/atomicstack/tmux-task-popup/internal/ui"
)

// notifyDuration is how long the tmux status line shows the result.
const notifyDuration = 3000

// Config describes user-provided application options.
type Config struct {
	SocketPath     string
	Shell          string
	Command        string
	PollInterval   time.Duration
	CloseOnSuccess bool
	Notify         bool
	HistoryFile    string
	HistorySize    int
	Width          int
	Height         int
	InitialText    string
}

// ErrTaskFailed is returned by Run when the command did not complete
// successfully, so the process can exit non-zero.
var ErrTaskFailed = errors.New("task command failed")

// Run bootstraps and executes the Bubble Tea program.
func Run(cfg Config) error {
	store, err := openHistory(cfg)
	if err != nil {
		// A broken history file must not stop a task from being added.
		logging.Error(err)
	}
	launcher := task.NewLauncher(cfg.Shell, cfg.Command)
	model := ui.NewModel(ui.Options{
		Launcher:       launcher,
		History:        store,
		PollInterval:   cfg.PollInterval,
		CloseOnSuccess: cfg.CloseOnSuccess,
		Width:          cfg.Width,
		Height:         cfg.Height,
		InitialText:    cfg.InitialText,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	if err != nil {
		return err
	}
	return finish(cfg, model.Result())
}

func openHistory(cfg Config) (*history.Store, error) {
	path := cfg.HistoryFile
	if path == "" {
		defaultPath, err := history.DefaultPath()
		if err != nil {
			store, _ := history.Load("", cfg.HistorySize)
			return store, fmt.Errorf("resolve history path: %w", err)
		}
		path = defaultPath
	}
	store, err := history.Load(path, cfg.HistorySize)
	if err == nil {
		events.History.Load(path, store.Len())
	}
	return store, err
}

// finish runs the follow-up for the outcome the popup closed with.
func finish(cfg Config, result ui.Result) error {
	if !result.Ran {
		return nil
	}
	switch result.Outcome.Kind {
	case stream.KindComplete:
		if cfg.Notify {
			notifier := &tmux.Notifier{SocketPath: cfg.SocketPath}
			if err := notifier.Display(result.LastLine, notifyDuration); err != nil {
				logging.Error(err)
			}
		}
		return nil
	case stream.KindFailed:
		return fmt.Errorf("%w: exit status %d", ErrTaskFailed, result.Outcome.Code)
	case stream.KindError:
		return fmt.Errorf("%w: %s", ErrTaskFailed, result.Outcome.Message)
	default:
		// The popup was closed while the command was still running.
		return nil
	}
}

package task

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/atomicstack/tmux-task-popup/internal/logging/events"
	"github.com/atomicstack/tmux-task-popup/internal/stream"
)

const (
	// DefaultShell is used when neither the launcher nor $SHELL names one.
	DefaultShell = "/bin/bash"
	// DefaultCommand is the task-tracking command the text is appended to.
	DefaultCommand = "task add"
)

// LaunchError reports a command that could not be spawned.
type LaunchError struct {
	Shell string
	Err   error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("could not spawn process: %v", e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Launcher runs the task command through the user's shell.
type Launcher struct {
	// Shell overrides $SHELL when set.
	Shell string
	// Command defaults to DefaultCommand.
	Command string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// NewLauncher returns a launcher for the given shell and command; empty
// values fall back to $SHELL and DefaultCommand.
func NewLauncher(shell, command string) *Launcher {
	return &Launcher{Shell: shell, Command: command}
}

// ResolveShell returns the interpreter Add will run.
func (l *Launcher) ResolveShell() string {
	if s := strings.TrimSpace(l.Shell); s != "" {
		return s
	}
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if s := strings.TrimSpace(getenv("SHELL")); s != "" {
		return s
	}
	return DefaultShell
}

// CommandLine returns the shell command line Add runs for text. The text is
// not quoted, so the shell splits it into words.
func (l *Launcher) CommandLine(text string) string {
	command := strings.TrimSpace(l.Command)
	if command == "" {
		command = DefaultCommand
	}
	return fmt.Sprintf("%s %s 2>&1", command, text)
}

// Add spawns the task command for text with stdout and stderr merged into one
// pipe, and returns a Reader that owns the process. On error no process is
// left running.
func (l *Launcher) Add(text string) (*stream.Reader, error) {
	shell := l.ResolveShell()
	line := l.CommandLine(text)

	pr, pw, err := os.Pipe()
	if err != nil {
		launchErr := &LaunchError{Shell: shell, Err: fmt.Errorf("create pipe: %w", err)}
		events.Task.LaunchFailed(shell, line, launchErr)
		return nil, launchErr
	}

	cmd := exec.Command(shell, "-c", line)
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		_ = pr.Close()
		launchErr := &LaunchError{Shell: shell, Err: err}
		events.Task.LaunchFailed(shell, line, launchErr)
		return nil, launchErr
	}
	// The child holds its own copy; ours must go so the reader sees EOF.
	_ = pw.Close()

	events.Task.Launch(shell, line, cmd.Process.Pid)
	return stream.Start(cmd, pr), nil
}

// Package tmux reports task results back to the tmux client that opened the
// popup.
package tmux

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atomicstack/tmux-task-popup/internal/logging/events"
)

// Notifier shows a message in the status line of the tmux client that opened
// the popup.
type Notifier struct {
	SocketPath string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// Run defaults to (*exec.Cmd).Run.
	Run func(cmd *exec.Cmd) error
}

// Available reports whether the popup runs inside a tmux session.
func (n *Notifier) Available() bool {
	return n.socket() != "" || strings.TrimSpace(n.getenv("TMUX")) != ""
}

// Display shows message for durationMs milliseconds. Blank messages are
// ignored.
func (n *Notifier) Display(message string, durationMs int) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	if !n.Available() {
		return fmt.Errorf("not running inside tmux")
	}
	args := []string{"display-message"}
	if durationMs > 0 {
		args = append(args, "-d", strconv.Itoa(durationMs))
	}
	target := strings.TrimSpace(n.getenv("TMUX_PANE"))
	if target != "" {
		args = append(args, "-t", target)
	}
	// display-message expands formats; escape them so output is shown verbatim.
	args = append(args, strings.ReplaceAll(message, "#", "##"))
	events.Notify.Display(target, message)

	run := n.Run
	if run == nil {
		run = (*exec.Cmd).Run
	}
	if err := run(n.command(args...)); err != nil {
		return fmt.Errorf("tmux display-message: %w", err)
	}
	return nil
}

// command builds a tmux invocation bound to the popup's server. TMUX_TMPDIR
// follows the socket so tmux resolves the same server directory.
func (n *Notifier) command(args ...string) *exec.Cmd {
	socket := n.socket()
	full := make([]string, 0, len(args)+2)
	if socket != "" {
		full = append(full, "-S", socket)
	}
	cmd := exec.Command("tmux", append(full, args...)...)
	if socket != "" {
		cmd.Env = append(os.Environ(), "TMUX_TMPDIR="+filepath.Dir(socket))
	}
	return cmd
}

// socket prefers the configured path, then the server named by $TMUX.
func (n *Notifier) socket() string {
	if path := strings.TrimSpace(n.SocketPath); path != "" {
		return path
	}
	if tmuxEnv := n.getenv("TMUX"); tmuxEnv != "" {
		if parts := strings.Split(tmuxEnv, ","); parts[0] != "" {
			return parts[0]
		}
	}
	return ""
}

func (n *Notifier) getenv(key string) string {
	if n.Getenv != nil {
		return n.Getenv(key)
	}
	return os.Getenv(key)
}

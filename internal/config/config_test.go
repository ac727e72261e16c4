package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atomicstack/tmux-task-popup/internal/task"
)

// isolated keeps tests from picking up a config file on the host.
func isolated(environ ...string) []string {
	return append([]string{envConfigFile + "="}, environ...)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs(nil, isolated())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Command != task.DefaultCommand {
		t.Fatalf("expected default command %q, got %q", task.DefaultCommand, cfg.App.Command)
	}
	if cfg.App.PollInterval != DefaultPollInterval {
		t.Fatalf("expected default poll interval, got %s", cfg.App.PollInterval)
	}
	if cfg.App.CloseOnSuccess || cfg.App.Notify || cfg.Logging.Trace {
		t.Fatalf("expected boolean options to default to false, got %#v", cfg)
	}
	if cfg.File != "" {
		t.Fatalf("expected no config file, got %q", cfg.File)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadArgsFlagsOverrideEnv(t *testing.T) {
	environ := isolated(
		envShell+"=/bin/zsh",
		envCommand+"=task log",
		envPollInterval+"=100ms",
		envNotify+"=true",
		envWidth+"=60",
	)
	args := []string{"-command", "task add +inbox", "-poll-interval", "5ms", "-width", "70", "Buy", "milk"}
	cfg, err := LoadArgs(args, environ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Shell != "/bin/zsh" {
		t.Fatalf("expected shell from env, got %q", cfg.App.Shell)
	}
	if cfg.App.Command != "task add +inbox" {
		t.Fatalf("expected command from flag, got %q", cfg.App.Command)
	}
	if cfg.App.PollInterval != 5*time.Millisecond {
		t.Fatalf("expected 5ms poll interval, got %s", cfg.App.PollInterval)
	}
	if !cfg.App.Notify {
		t.Fatalf("expected notify from env")
	}
	if cfg.App.Width != 70 {
		t.Fatalf("expected width 70, got %d", cfg.App.Width)
	}
	if cfg.App.InitialText != "Buy milk" {
		t.Fatalf("expected positional text as initial text, got %q", cfg.App.InitialText)
	}
	if cfg.Flags["pollInterval"] != "5ms" {
		t.Fatalf("expected pollInterval flag 5ms, got %q", cfg.Flags["pollInterval"])
	}
}

func TestLoadArgsRejectsNegativeSize(t *testing.T) {
	if _, err := LoadArgs([]string{"-width", "-1"}, isolated()); err == nil {
		t.Fatalf("expected error for negative width")
	}
	if _, err := LoadArgs([]string{"-height", "-3"}, isolated()); err == nil {
		t.Fatalf("expected error for negative height")
	}
}

func TestLoadArgsConfigFile(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		`shell = "/bin/sh"`,
		`command = "task add project:inbox"`,
		`poll_interval = "40ms"`,
		`close_on_success = true`,
		`history_size = 50`,
		`trace = true`,
	}, "\n"))

	cfg, err := LoadArgs([]string{"-config", path}, isolated(envCloseOnSuccess+"=false"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.File != path {
		t.Fatalf("expected config file %q, got %q", path, cfg.File)
	}
	if cfg.App.Shell != "/bin/sh" || cfg.App.Command != "task add project:inbox" {
		t.Fatalf("expected shell and command from file, got %#v", cfg.App)
	}
	if cfg.App.PollInterval != 40*time.Millisecond {
		t.Fatalf("expected 40ms poll interval, got %s", cfg.App.PollInterval)
	}
	if cfg.App.CloseOnSuccess {
		t.Fatalf("expected env to override close_on_success from file")
	}
	if cfg.App.HistorySize != 50 {
		t.Fatalf("expected history size 50, got %d", cfg.App.HistorySize)
	}
	if !cfg.Logging.Trace {
		t.Fatalf("expected trace from file")
	}
}

func TestLoadArgsConfigFromEnv(t *testing.T) {
	path := writeConfig(t, `command = "task log"`)
	cfg, err := LoadArgs(nil, []string{envConfigFile + "=" + path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Command != "task log" {
		t.Fatalf("expected command from env-selected file, got %q", cfg.App.Command)
	}
}

func TestLoadArgsMissingExplicitConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	if _, err := LoadArgs([]string{"-config=" + missing}, isolated()); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestLoadArgsBadPollIntervalInFile(t *testing.T) {
	path := writeConfig(t, `poll_interval = "soon"`)
	if _, err := LoadArgs([]string{"--config", path}, isolated()); err == nil {
		t.Fatalf("expected error for invalid poll_interval")
	}
}

func TestLoadArgsConfigWordInTaskText(t *testing.T) {
	cfg, err := LoadArgs([]string{"fix", "the", "--config", "parser"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.InitialText != "fix the --config parser" {
		t.Fatalf("expected task text to be kept, got %q", cfg.App.InitialText)
	}
	if cfg.File != "" && strings.HasSuffix(cfg.File, "parser") {
		t.Fatalf("expected task text not to be read as a config path, got %q", cfg.File)
	}
}

func TestConfigPathFromArgs(t *testing.T) {
	tests := []struct {
		args     []string
		want     string
		explicit bool
	}{
		{args: nil},
		{args: []string{"-config", "a.toml"}, want: "a.toml", explicit: true},
		{args: []string{"--config=b.toml"}, want: "b.toml", explicit: true},
		{args: []string{"-trace", "-config="}, want: "", explicit: true},
		{args: []string{"--", "-config", "c.toml"}},
		{args: []string{"config", "d.toml"}},
		{args: []string{"-shell", "/bin/zsh", "-config", "e.toml"}, want: "e.toml", explicit: true},
		{args: []string{"-notify", "--config", "f.toml"}, want: "f.toml", explicit: true},
		{args: []string{"-shell", "-config", "g.toml"}},
		{args: []string{"fix", "the", "--config", "parser"}},
		{args: []string{"-", "-config", "h.toml"}},
	}
	for _, tt := range tests {
		got, explicit := configPathFromArgs(tt.args)
		if got != tt.want || explicit != tt.explicit {
			t.Fatalf("configPathFromArgs(%v) = %q, %v; want %q, %v", tt.args, got, explicit, tt.want, tt.explicit)
		}
	}
}

func TestValidate(t *testing.T) {
	base, err := LoadArgs(nil, isolated())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := base
	cfg.App.PollInterval = 0
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for zero poll interval")
	}

	cfg = base
	cfg.App.Command = "   "
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for blank command")
	}

	cfg = base
	cfg.App.HistorySize = -1
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for negative history size")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}
	if got := expandPath("~/tasks/history"); got != filepath.Join(home, "tasks", "history") {
		t.Fatalf("expected tilde expansion, got %q", got)
	}
	if got := expandPath("/var/log/popup.log"); got != "/var/log/popup.log" {
		t.Fatalf("expected absolute path unchanged, got %q", got)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/atomicstack/tmux-task-popup/internal/app"
	"github.com/atomicstack/tmux-task-popup/internal/config"
	"github.com/atomicstack/tmux-task-popup/internal/history"
	"github.com/atomicstack/tmux-task-popup/internal/logging"
	"github.com/atomicstack/tmux-task-popup/internal/logging/events"
	"github.com/atomicstack/tmux-task-popup/internal/task"
	"golang.org/x/term"
)

func main() {
	runtimeCfg := config.MustLoad()
	if err := config.Validate(runtimeCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	logging.Configure(runtimeCfg.Logging.FilePath)
	logging.SetTraceEnabled(runtimeCfg.Logging.Trace)

	terminal := detectTerminal(term.IsTerminal, term.GetSize)
	events.App.Start(startupTracePayload(runtimeCfg, terminal, os.Getenv))
	if err := requireTerminal(terminal); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		events.App.Exit(2, err)
		os.Exit(2)
	}

	if err := app.Run(runtimeCfg.App); err != nil {
		logging.Error(err)
		if !errors.Is(err, app.ErrTaskFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		events.App.Exit(1, err)
		os.Exit(1)
	}
	events.App.Exit(0, nil)
}

// terminalInfo describes the descriptors the popup draws on.
type terminalInfo struct {
	Stdin  bool `json:"stdin"`
	Stdout bool `json:"stdout"`
	Width  int  `json:"width,omitempty"`
	Height int  `json:"height,omitempty"`
}

func detectTerminal(isTerminal func(int) bool, getSize func(int) (int, int, error)) terminalInfo {
	info := terminalInfo{
		Stdin:  isTerminal(int(os.Stdin.Fd())),
		Stdout: isTerminal(int(os.Stdout.Fd())),
	}
	if info.Stdout {
		if width, height, err := getSize(int(os.Stdout.Fd())); err == nil {
			info.Width, info.Height = width, height
		}
	}
	return info
}

func requireTerminal(info terminalInfo) error {
	if info.Stdin && info.Stdout {
		return nil
	}
	return errors.New("must run in a terminal (try tmux display-popup -E)")
}

// startupTracePayload bundles what a session will run and where it keeps its
// state.
func startupTracePayload(cfg config.Config, terminal terminalInfo, getenv func(string) string) map[string]interface{} {
	launcher := task.NewLauncher(cfg.App.Shell, cfg.App.Command)
	launcher.Getenv = getenv
	payload := map[string]interface{}{
		"argv":        cfg.Args,
		"flags":       cfg.Flags,
		"shell":       launcher.ResolveShell(),
		"commandLine": launcher.CommandLine("<text>"),
		"logFile":     logging.Path(),
		"trace":       cfg.Logging.Trace,
		"terminal":    terminal,
	}
	if cfg.File != "" {
		payload["configFile"] = cfg.File
	}
	if path := cfg.App.HistoryFile; path != "" {
		payload["historyFile"] = path
	} else if path, err := history.DefaultPath(); err == nil {
		payload["historyFile"] = path
	} else {
		payload["historyError"] = err.Error()
	}
	tmuxEnv := map[string]string{}
	for _, key := range []string{"TMUX", "TMUX_PANE"} {
		if value := getenv(key); value != "" {
			tmuxEnv[key] = value
		}
	}
	if cfg.App.SocketPath != "" {
		tmuxEnv["socket"] = cfg.App.SocketPath
	}
	if len(tmuxEnv) > 0 {
		payload["tmux"] = tmuxEnv
	}
	return payload
}

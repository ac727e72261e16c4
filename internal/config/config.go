package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/atomicstack/tmux-task-popup/internal/app"
	"github.com/atomicstack/tmux-task-popup/internal/task"
)

// Config captures runtime configuration for the application.
type Config struct {
	App     app.Config
	Logging Logging
	Flags   map[string]string
	Args    []string
	// File is the config file that was loaded, if any.
	File string
}

type Logging struct {
	FilePath string
	Trace    bool
}

// fileConfig mirrors the TOML config file. Pointer fields distinguish an
// explicit false from an absent key.
type fileConfig struct {
	Socket         string `koanf:"socket"`
	Shell          string `koanf:"shell"`
	Command        string `koanf:"command"`
	PollInterval   string `koanf:"poll_interval"`
	CloseOnSuccess *bool  `koanf:"close_on_success"`
	Notify         *bool  `koanf:"notify"`
	HistoryFile    string `koanf:"history_file"`
	HistorySize    int    `koanf:"history_size"`
	Width          int    `koanf:"width"`
	Height         int    `koanf:"height"`
	LogFile        string `koanf:"log_file"`
	Trace          *bool  `koanf:"trace"`
}

const (
	appName = "tmux-task-popup"

	envConfigFile     = "TMUX_TASK_POPUP_CONFIG"
	envSocketPath     = "TMUX_TASK_POPUP_SOCKET"
	envShell          = "TMUX_TASK_POPUP_SHELL"
	envCommand        = "TMUX_TASK_POPUP_COMMAND"
	envPollInterval   = "TMUX_TASK_POPUP_POLL_INTERVAL"
	envCloseOnSuccess = "TMUX_TASK_POPUP_CLOSE_ON_SUCCESS"
	envNotify         = "TMUX_TASK_POPUP_NOTIFY"
	envHistoryFile    = "TMUX_TASK_POPUP_HISTORY_FILE"
	envHistorySize    = "TMUX_TASK_POPUP_HISTORY_SIZE"
	envWidth          = "TMUX_TASK_POPUP_WIDTH"
	envHeight         = "TMUX_TASK_POPUP_HEIGHT"
	envTrace          = "TMUX_TASK_POPUP_TRACE"
	envLogFile        = "TMUX_TASK_POPUP_LOG_FILE"

	// DefaultPollInterval is how long the UI backs off after an empty poll.
	DefaultPollInterval = 25 * time.Millisecond
)

// Load parses configuration from the config file, environment variables and
// CLI arguments, in increasing order of precedence.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	configPath, explicit := configPathFromArgs(args)
	if !explicit {
		configPath, explicit = env[envConfigFile]
	}
	if !explicit {
		configPath = defaultConfigPath()
	}
	fc, err := loadFile(configPath, explicit)
	if err != nil {
		return Config{}, err
	}

	filePoll := DefaultPollInterval
	if strings.TrimSpace(fc.PollInterval) != "" {
		parsed, err := time.ParseDuration(fc.PollInterval)
		if err != nil {
			return Config{}, fmt.Errorf("%s: poll_interval: %w", configPath, err)
		}
		filePoll = parsed
	}

	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	fs.String("config", configPath, "path to a TOML config file")
	socket := fs.String("socket", envOrDefault(env, envSocketPath, fc.Socket), "path to the tmux socket used for notifications")
	shell := fs.String("shell", envOrDefault(env, envShell, fc.Shell), "shell used to run the command (defaults to $SHELL, then "+task.DefaultShell+")")
	command := fs.String("command", envOrDefault(env, envCommand, orDefault(fc.Command, task.DefaultCommand)), "command the entered text is appended to")
	pollInterval := fs.Duration("poll-interval", envOrDuration(env, envPollInterval, filePoll), "delay between output polls while the command runs")
	closeOnSuccess := fs.Bool("close-on-success", envOrBool(env, envCloseOnSuccess, boolValue(fc.CloseOnSuccess, false)), "close the popup as soon as the command succeeds")
	notify := fs.Bool("notify", envOrBool(env, envNotify, boolValue(fc.Notify, false)), "show the last output line via tmux display-message after success")
	historyFile := fs.String("history-file", envOrDefault(env, envHistoryFile, fc.HistoryFile), "path to the history file (defaults to the XDG state directory)")
	historySize := fs.Int("history-size", envOrInt(env, envHistorySize, fc.HistorySize), "number of history entries to keep (0 uses the default)")
	width := fs.Int("width", envOrInt(env, envWidth, fc.Width), "desired viewport width in cells (0 uses terminal width)")
	height := fs.Int("height", envOrInt(env, envHeight, fc.Height), "desired viewport height in rows (0 uses terminal height)")
	trace := fs.Bool("trace", envOrBool(env, envTrace, boolValue(fc.Trace, false)), "enable verbose JSON trace logging")
	logFile := fs.String("log-file", envOrDefault(env, envLogFile, fc.LogFile), "path to the log file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *width < 0 {
		return Config{}, fmt.Errorf("width must be >= 0 (got %d)", *width)
	}
	if *height < 0 {
		return Config{}, fmt.Errorf("height must be >= 0 (got %d)", *height)
	}

	loaded := ""
	if fc.loaded {
		loaded = configPath
	}

	cfg := Config{
		App: app.Config{
			SocketPath:     *socket,
			Shell:          *shell,
			Command:        *command,
			PollInterval:   *pollInterval,
			CloseOnSuccess: *closeOnSuccess,
			Notify:         *notify,
			HistoryFile:    expandPath(*historyFile),
			HistorySize:    *historySize,
			Width:          *width,
			Height:         *height,
			InitialText:    strings.Join(fs.Args(), " "),
		},
		Logging: Logging{
			FilePath: expandPath(*logFile),
			Trace:    *trace,
		},
		Flags: map[string]string{
			"config":         loaded,
			"socket":         *socket,
			"shell":          *shell,
			"command":        *command,
			"pollInterval":   pollInterval.String(),
			"closeOnSuccess": strconv.FormatBool(*closeOnSuccess),
			"notify":         strconv.FormatBool(*notify),
			"historyFile":    *historyFile,
			"historySize":    strconv.Itoa(*historySize),
			"width":          strconv.Itoa(*width),
			"height":         strconv.Itoa(*height),
			"trace":          strconv.FormatBool(*trace),
			"logFile":        *logFile,
		},
		Args: append([]string(nil), args...),
		File: loaded,
	}

	return cfg, nil
}

type loadedFile struct {
	fileConfig
	loaded bool
}

// loadFile reads the TOML file at path. A missing file is only an error when
// the path was given explicitly.
func loadFile(path string, explicit bool) (loadedFile, error) {
	var out loadedFile
	path = expandPath(path)
	if strings.TrimSpace(path) == "" {
		return out, nil
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return out, fmt.Errorf("config file: %w", err)
		}
		return out, nil
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return out, fmt.Errorf("load %s: %w", path, err)
	}
	if err := k.Unmarshal("", &out.fileConfig); err != nil {
		return out, fmt.Errorf("decode %s: %w", path, err)
	}
	out.loaded = true
	return out, nil
}

func defaultConfigPath() string {
	path, err := xdg.SearchConfigFile(filepath.Join(appName, "config.toml"))
	if err != nil {
		return ""
	}
	return path
}

// boolFlags never consume the following argument.
var boolFlags = map[string]bool{
	"close-on-success": true,
	"notify":           true,
	"trace":            true,
}

// configPathFromArgs finds -config before the full flag set is built, since
// the file supplies the defaults of every other flag. Like flag.Parse it stops
// at "--" or at the first positional argument, so words of the task text are
// never mistaken for flags.
func configPathFromArgs(args []string) (string, bool) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" || len(arg) < 2 || arg[0] != '-' {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name == "config" {
			if hasValue {
				return value, true
			}
			if i+1 < len(args) {
				return args[i+1], true
			}
			return "", false
		}
		if !hasValue && !boolFlags[name] {
			i++
		}
	}
	return "", false
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func boolValue(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate ensures required minimum configuration is present.
func Validate(cfg Config) error {
	if cfg.App.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be > 0 (got %s)", cfg.App.PollInterval)
	}
	if strings.TrimSpace(cfg.App.Command) == "" {
		return fmt.Errorf("command must not be empty")
	}
	if cfg.App.HistorySize < 0 {
		return fmt.Errorf("history size must be >= 0 (got %d)", cfg.App.HistorySize)
	}
	return nil
}

package ui

import (
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tmux-task-popup/internal/history"
	"github.com/atomicstack/tmux-task-popup/internal/stream"
	"github.com/atomicstack/tmux-task-popup/internal/theme"
	"github.com/atomicstack/tmux-task-popup/internal/ui/command"
)

type Mode int

const (
	ModeInput Mode = iota
	ModeRunning
	ModeDone
)

const (
	defaultTitle        = "New Task"
	defaultPlaceholder  = "description +tag project:name"
	defaultPollInterval = 25 * time.Millisecond
	maxSuggestions      = 5
)

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Options configures a Model.
type Options struct {
	Launcher       command.Launcher
	History        *history.Store
	PollInterval   time.Duration
	CloseOnSuccess bool
	Width          int
	Height         int
	InitialText    string
}

// Result summarises how the popup ended.
type Result struct {
	// Ran is false when the popup closed before a command was launched.
	Ran       bool
	Submitted string
	// Outcome is the terminal outcome, or Wait if the popup closed while the
	// command was still running.
	Outcome  stream.Outcome
	LastLine string
}

// Model implements the Bubble Tea model for the task popup.
type Model struct {
	mode  Mode
	title string
	input textinput.Model

	history      *history.Store
	historyIndex int
	draft        string
	suggestions  []string
	suggestion   int

	bus            *command.Bus
	reader         *stream.Reader
	pid            int
	submitted      string
	output         []string
	outcome        stream.Outcome
	ran            bool
	errMsg         string
	pollInterval   time.Duration
	closeOnSuccess bool
	// abandoned is set when the popup is closed while the command runs.
	abandoned bool

	width       int
	height      int
	fixedWidth  bool
	fixedHeight bool

	handlers map[reflect.Type]msgHandler
}

// NewModel initialises the UI state from opts.
func NewModel(opts Options) *Model {
	ti := textinput.New()
	ti.Prompt = "» "
	ti.Placeholder = defaultPlaceholder
	if styles.Prompt != nil {
		ti.PromptStyle = *styles.Prompt
	}
	if styles.Input != nil {
		ti.TextStyle = *styles.Input
	}
	if styles.InputPlaceholder != nil {
		ti.PlaceholderStyle = *styles.InputPlaceholder
	}
	if styles.Cursor != nil {
		ti.Cursor.Style = *styles.Cursor
	}
	ti.Focus()
	if opts.InitialText != "" {
		ti.SetValue(opts.InitialText)
		ti.CursorEnd()
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	m := &Model{
		mode:           ModeInput,
		title:          defaultTitle,
		input:          ti,
		history:        opts.History,
		historyIndex:   -1,
		bus:            command.New(opts.Launcher),
		outcome:        stream.Wait(),
		pollInterval:   interval,
		closeOnSuccess: opts.CloseOnSuccess,
	}
	if opts.Width > 0 {
		m.width = opts.Width
		m.fixedWidth = true
	}
	if opts.Height > 0 {
		m.height = opts.Height
		m.fixedHeight = true
	}
	m.syncInputWidth()
	m.refreshSuggestions()
	m.registerHandlers()
	return m
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	if m.mode == ModeInput {
		return textinput.Blink
	}
	return nil
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if handler := m.handlerFor(msg); handler != nil {
		return m, handler(msg)
	}
	if m.mode == ModeInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Mode reports the current interaction mode.
func (m *Model) Mode() Mode {
	return m.mode
}

// Output returns the command output received so far.
func (m *Model) Output() []string {
	return append([]string(nil), m.output...)
}

// Result reports how the popup ended; it is meaningful once the program exits.
func (m *Model) Result() Result {
	res := Result{Ran: m.ran, Submitted: m.submitted, Outcome: m.outcome}
	for i := len(m.output) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(m.output[i]); line != "" {
			res.LastLine = line
			break
		}
	}
	return res
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(command.Launched{}):  m.handleLaunchedMsg,
		reflect.TypeOf(pollMsg{}):           m.handlePollMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	size, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if !m.fixedWidth {
		m.width = size.Width
	}
	if !m.fixedHeight {
		m.height = size.Height
	}
	m.syncInputWidth()
	return nil
}

func (m *Model) syncInputWidth() {
	if m.width <= 0 {
		m.input.Width = 0
		return
	}
	w := m.width - len([]rune(m.input.Prompt)) - 1
	if w < 1 {
		w = 1
	}
	m.input.Width = w
}

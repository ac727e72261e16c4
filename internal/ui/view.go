package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/atomicstack/tmux-task-popup/internal/stream"
)

const (
	footerInput   = "enter add  tab complete  ↑/↓ history  ctrl+u clear  esc cancel"
	footerRunning = "esc close (command keeps running)"
	footerDone    = "enter/esc close"
)

type styledLine struct {
	text  string
	style *lipgloss.Style
	raw   bool // text contains ANSI escapes; skip style wrapping, use ANSI-aware truncation
}

// View implements tea.Model.
func (m *Model) View() string {
	head := []styledLine{
		{text: m.title, style: styles.Title},
		{},
		m.promptLine(),
	}

	var tail []styledLine
	if status := m.statusLine(); status.text != "" {
		tail = append(tail, styledLine{}, status)
	}
	tail = append(tail, styledLine{}, styledLine{text: m.footerText(), style: styles.Footer})

	var body []styledLine
	switch m.mode {
	case ModeInput:
		body = m.suggestionLines()
	default:
		body = m.outputLines(m.height - len(head) - len(tail))
	}

	lines := make([]styledLine, 0, len(head)+len(body)+len(tail))
	lines = append(lines, head...)
	lines = append(lines, body...)
	lines = append(lines, tail...)
	lines = limitHeight(lines, m.height, m.width)
	return renderLines(applyWidth(lines, m.width))
}

func (m *Model) promptLine() styledLine {
	if m.mode == ModeInput {
		return styledLine{text: m.input.View(), raw: true}
	}
	prompt := m.input.Prompt
	if styles.Prompt != nil {
		prompt = styles.Prompt.Render(prompt)
	}
	text := m.submitted
	if styles.Input != nil {
		text = styles.Input.Render(text)
	}
	return styledLine{text: prompt + text, raw: true}
}

func (m *Model) suggestionLines() []styledLine {
	if len(m.suggestions) == 0 {
		return nil
	}
	lines := make([]styledLine, 0, len(m.suggestions)+1)
	lines = append(lines, styledLine{})
	for i, entry := range m.suggestions {
		style := styles.Suggestion
		marker := "  "
		if i == m.suggestion {
			style = styles.SelectedSuggestion
			marker = "› "
		}
		lines = append(lines, styledLine{text: marker + entry, style: style})
	}
	return lines
}

// outputLines returns the newest output that fits in rows, preceded by a
// blank separator. A non-positive rows means the height is unknown.
func (m *Model) outputLines(rows int) []styledLine {
	if len(m.output) == 0 {
		return nil
	}
	output := m.output
	if rows > 0 {
		visible := rows - 1
		if visible < 1 {
			return nil
		}
		if len(output) > visible {
			output = output[len(output)-visible:]
		}
	}
	lines := make([]styledLine, 0, len(output)+1)
	lines = append(lines, styledLine{})
	for _, line := range output {
		lines = append(lines, styledLine{text: line, style: styles.Output})
	}
	return lines
}

func (m *Model) statusLine() styledLine {
	switch m.mode {
	case ModeRunning:
		if m.pid > 0 {
			return styledLine{text: fmt.Sprintf("Running (pid %d)…", m.pid), style: styles.Running}
		}
		return styledLine{text: "Starting…", style: styles.Running}
	case ModeDone:
		if m.outcome.Kind == stream.KindComplete {
			return styledLine{text: "✓ Task added", style: styles.Success}
		}
	}
	if m.errMsg != "" {
		return styledLine{text: fmt.Sprintf("Error: %s", m.errMsg), style: styles.Error}
	}
	return styledLine{}
}

func (m *Model) footerText() string {
	switch m.mode {
	case ModeRunning:
		return footerRunning
	case ModeDone:
		return footerDone
	default:
		return footerInput
	}
}

func limitHeight(lines []styledLine, height, width int) []styledLine {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	if height == 1 {
		return []styledLine{{text: truncateText("…", width)}}
	}
	trimmed := make([]styledLine, 0, height)
	trimmed = append(trimmed, lines[:height-1]...)
	trimmed = append(trimmed, styledLine{text: truncateText("…", width)})
	return trimmed
}

func applyWidth(lines []styledLine, width int) []styledLine {
	if width <= 0 {
		return lines
	}
	result := make([]styledLine, len(lines))
	for i, line := range lines {
		text := line.text
		if line.raw {
			if lipgloss.Width(text) > width {
				text = truncate.StringWithTail(text, uint(width-1), "…")
			}
		} else {
			text = truncateText(text, width)
		}
		result[i] = styledLine{text: text, style: line.style, raw: line.raw}
	}
	return result
}

func renderLines(lines []styledLine) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if line.raw || line.style == nil || line.text == "" {
			out[i] = line.text
			continue
		}
		out[i] = line.style.Render(line.text)
	}
	return strings.Join(out, "\n")
}

// truncateText shortens text to width terminal cells, ending in an ellipsis
// when there is room for one.
func truncateText(text string, width int) string {
	if width <= 0 || ansi.StringWidth(text) <= width {
		return text
	}
	if width == 1 {
		return ansi.Truncate(text, 1, "")
	}
	return ansi.Truncate(text, width, "…")
}

package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/atomicstack/tmux-task-popup/internal/stream"
	"github.com/atomicstack/tmux-task-popup/internal/testutil"
)

func TestViewInputModeShowsTitleAndFooter(t *testing.T) {
	m := NewModel(Options{})
	view := m.View()
	if !strings.Contains(view, defaultTitle) {
		t.Fatalf("expected title in view, got %q", view)
	}
	if !strings.Contains(view, footerInput) {
		t.Fatalf("expected input footer, got %q", view)
	}
}

func TestViewShowsSuggestions(t *testing.T) {
	store := newHistory(t, "buy milk")
	m := NewModel(Options{History: store, InitialText: "milk"})
	view := m.View()
	if !strings.Contains(view, "› buy milk") {
		t.Fatalf("expected selected suggestion, got %q", view)
	}
}

func TestViewRunningShowsPid(t *testing.T) {
	m := NewModel(Options{})
	m.mode = ModeRunning
	m.submitted = "buy milk"
	m.pid = 42
	view := m.View()
	if !strings.Contains(view, "Running (pid 42)") {
		t.Fatalf("expected running status, got %q", view)
	}
	if !strings.Contains(view, "buy milk") {
		t.Fatalf("expected submitted text, got %q", view)
	}
	if !strings.Contains(view, footerRunning) {
		t.Fatalf("expected running footer, got %q", view)
	}
}

func TestViewDoneStatus(t *testing.T) {
	m := NewModel(Options{})
	m.mode = ModeDone
	m.outcome = stream.Complete()
	if view := m.View(); !strings.Contains(view, "Task added") {
		t.Fatalf("expected success status, got %q", view)
	}
	m.outcome = stream.Error("could not spawn process: boom")
	m.errMsg = m.outcome.Message
	if view := m.View(); !strings.Contains(view, "Error: could not spawn process: boom") {
		t.Fatalf("expected error status, got %q", view)
	}
}

func TestViewDoneGolden(t *testing.T) {
	m := NewModel(Options{Width: 40})
	m.mode = ModeDone
	m.submitted = "buy milk"
	m.output = []string{"added: buy milk"}
	m.outcome = stream.Complete()
	testutil.AssertGolden(t, "view_done.golden", m.View())
}

func TestViewFitsOutputTailToHeight(t *testing.T) {
	m := NewModel(Options{Width: 30, Height: 10})
	m.mode = ModeDone
	m.outcome = stream.Complete()
	for i := 1; i <= 50; i++ {
		m.output = append(m.output, fmt.Sprintf("line %d", i))
	}
	view := m.View()
	rows := strings.Split(view, "\n")
	if len(rows) > 10 {
		t.Fatalf("expected at most 10 rows, got %d", len(rows))
	}
	if !strings.Contains(view, "line 50") {
		t.Fatalf("expected newest line visible, got %q", view)
	}
	if strings.Contains(view, "line 1\n") {
		t.Fatalf("expected oldest lines dropped, got %q", view)
	}
	for _, row := range rows {
		if w := lipgloss.Width(row); w > 30 {
			t.Fatalf("row wider than 30 cells (%d): %q", w, row)
		}
	}
}

func TestTruncateText(t *testing.T) {
	cases := []struct {
		text  string
		width int
		want  string
	}{
		{"hello", 0, "hello"},
		{"hello", 5, "hello"},
		{"hello", 4, "hel…"},
		{"hello", 1, "h"},
		{"日本語テキスト", 5, "日本…"},
		{"日本語", 6, "日本語"},
		{"🎉🎉🎉", 4, "🎉…"},
	}
	for _, tc := range cases {
		if got := truncateText(tc.text, tc.width); got != tc.want {
			t.Fatalf("truncateText(%q, %d) = %q, want %q", tc.text, tc.width, got, tc.want)
		}
	}
}

func TestViewKeepsWideOutputWithinWidth(t *testing.T) {
	m := NewModel(Options{Width: 20})
	m.mode = ModeDone
	m.outcome = stream.Complete()
	m.output = []string{"タスクを追加しました：牛乳を買う"}
	for _, row := range strings.Split(m.View(), "\n") {
		if w := lipgloss.Width(row); w > 20 {
			t.Fatalf("row wider than 20 cells (%d): %q", w, row)
		}
	}
}

func TestLimitHeightAddsEllipsis(t *testing.T) {
	lines := []styledLine{{text: "a"}, {text: "b"}, {text: "c"}}
	got := limitHeight(lines, 2, 0)
	if len(got) != 2 || got[0].text != "a" || got[1].text != "…" {
		t.Fatalf("unexpected result %+v", got)
	}
}

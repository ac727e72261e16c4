package stream

import (
	"os"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomicstack/tmux-task-popup/internal/testutil"
)

func startScript(t *testing.T, script string) *Reader {
	t.Helper()
	shell := testutil.RequireExecutable(t, "/bin/sh")
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	cmd := exec.Command(shell, "-c", script)
	cmd.Stdout = pw
	cmd.Stderr = pw
	require.NoError(t, cmd.Start())
	require.NoError(t, pw.Close())
	return Start(cmd, pr)
}

// drain polls until a terminal outcome and returns every non-Wait outcome seen,
// terminal included, along with the number of Wait results.
func drain(t *testing.T, r *Reader) ([]Outcome, int) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	var seen []Outcome
	waits := 0
	for time.Now().Before(deadline) {
		out := r.Poll()
		switch {
		case out.Kind == KindWait:
			waits++
			time.Sleep(time.Millisecond)
		case out.Terminal():
			return append(seen, out), waits
		default:
			seen = append(seen, out)
		}
	}
	t.Fatalf("no terminal outcome after %d polls, got %v", len(seen)+waits, seen)
	return nil, 0
}

func TestPollDeliversLinesThenComplete(t *testing.T) {
	r := startScript(t, `printf 'a\nb\n'`)
	seen, _ := drain(t, r)
	require.Equal(t, []Outcome{Line("a"), Line("b"), Complete()}, seen)
}

func TestPollReportsExitCode(t *testing.T) {
	r := startScript(t, `exit 3`)
	seen, _ := drain(t, r)
	require.Equal(t, []Outcome{Failed(3)}, seen)
}

func TestPollIsIdempotentAfterTerminal(t *testing.T) {
	r := startScript(t, `echo done; exit 5`)
	seen, _ := drain(t, r)
	require.Equal(t, []Outcome{Line("done"), Failed(5)}, seen)
	for i := 0; i < 5; i++ {
		assert.Equal(t, Failed(5), r.Poll())
	}
}

func TestPollPreservesOrder(t *testing.T) {
	const count = 2000
	r := startScript(t, `i=0; while [ $i -lt 2000 ]; do echo $i; i=$((i+1)); done`)
	seen, _ := drain(t, r)
	require.Len(t, seen, count+1)
	for i := 0; i < count; i++ {
		require.Equal(t, Line(strconv.Itoa(i)), seen[i], "line %d", i)
	}
	require.Equal(t, Complete(), seen[count])
}

func TestPollSkipsUndecodableLines(t *testing.T) {
	r := startScript(t, `printf 'ok\n\377\376\nlast'`)
	seen, _ := drain(t, r)
	require.Equal(t, []Outcome{Line("ok"), Line("last"), Complete()}, seen)
}

func TestPollStripsCarriageReturnAndKeepsEmptyLines(t *testing.T) {
	r := startScript(t, `printf 'a\r\n\nb\n'`)
	seen, _ := drain(t, r)
	require.Equal(t, []Outcome{Line("a"), Line(""), Line("b"), Complete()}, seen)
}

func TestPollIncludesStderr(t *testing.T) {
	r := startScript(t, `echo out; echo err >&2; exit 1`)
	seen, _ := drain(t, r)
	require.Equal(t, []Outcome{Line("out"), Line("err"), Failed(1)}, seen)
}

func TestPollReportsSignalAsError(t *testing.T) {
	r := startScript(t, `kill -9 $$`)
	seen, _ := drain(t, r)
	require.Len(t, seen, 1)
	require.Equal(t, KindError, seen[0].Kind)
	assert.Contains(t, seen[0].Message, ErrIndeterminate.Error())
}

func TestPollDoesNotBlockWhileProcessRuns(t *testing.T) {
	r := startScript(t, `sleep 1`)
	start := time.Now()
	out := r.Poll()
	require.Less(t, time.Since(start), 100*time.Millisecond)
	require.Equal(t, Wait(), out)
	seen, waits := drain(t, r)
	require.Equal(t, []Outcome{Complete()}, seen)
	assert.Positive(t, waits)
}

func TestPollDoesNotBlockAfterOutputCloses(t *testing.T) {
	r := startScript(t, `echo done; exec 1>&- 2>&-; sleep 1`)
	deadline := time.Now().Add(5 * time.Second)
	var seen []Outcome
	for time.Now().Before(deadline) {
		start := time.Now()
		out := r.Poll()
		require.Less(t, time.Since(start), 100*time.Millisecond)
		if out.Kind != KindWait {
			seen = append(seen, out)
			if out.Terminal() {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, []Outcome{Line("done"), Complete()}, seen)
}

func TestCloseStopsWorker(t *testing.T) {
	r := startScript(t, `while :; do echo y; done`)
	r.Close()
	seen, _ := drain(t, r)
	require.Len(t, seen, 1)
	assert.True(t, seen[0].Terminal())
}

func TestOutcomeFromExitWithoutState(t *testing.T) {
	out := outcomeFromExit(exitResult{})
	require.Equal(t, Error(ErrIndeterminate.Error()), out)
}

func TestReapWithoutWorkerReportsError(t *testing.T) {
	r := &Reader{queue: &lineQueue{}}
	r.queue.close()
	out := r.Poll()
	require.Equal(t, KindError, out.Kind)
	require.Equal(t, out, r.Poll())
}

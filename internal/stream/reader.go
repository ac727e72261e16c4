// Package stream reads the output of a spawned command on a background
// goroutine and hands it to a single polling consumer without ever blocking it.
//
// The worker owns the process and its output pipe. It pushes each decoded
// line onto an unbounded queue, closes the queue at end of stream, then waits
// for the process and publishes the exit result. Reader.Poll drains the queue
// and, once the queue is closed and empty, collects that result exactly once,
// reporting Wait until the process has actually exited.
package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/atomicstack/tmux-task-popup/internal/logging"
)

// ErrIndeterminate describes a process whose exit code could not be recovered.
var ErrIndeterminate = errors.New("cannot determine exit status")

type exitResult struct {
	state *os.ProcessState
	err   error
}

// Reader exposes non-blocking polling over the output of one started command.
// It is meant to be used from a single goroutine.
type Reader struct {
	queue   *lineQueue
	results chan exitResult
	outcome *Outcome
	pid     int
}

// Start takes ownership of a started command and the read end of its output
// pipe and launches the worker goroutine before returning.
func Start(cmd *exec.Cmd, output io.ReadCloser) *Reader {
	r := &Reader{
		queue:   &lineQueue{},
		results: make(chan exitResult, 1),
	}
	if cmd.Process != nil {
		r.pid = cmd.Process.Pid
	}
	go forward(cmd, output, r.queue, r.results)
	return r
}

// Pid returns the process id of the command, or 0 when unknown.
func (r *Reader) Pid() int {
	return r.pid
}

// Poll returns the next available event without blocking on the process.
// Once a terminal outcome is returned, every later call returns it again.
func (r *Reader) Poll() Outcome {
	if r.outcome != nil {
		return *r.outcome
	}
	line, ok, closed := r.queue.tryPop()
	if ok {
		return Line(line)
	}
	if !closed {
		return Wait()
	}
	outcome, done := r.reap()
	if !done {
		return Wait()
	}
	r.outcome = &outcome
	return outcome
}

// Close stops accepting output. The worker notices on its next line and stops
// reading; the process itself is left to exit on its own.
func (r *Reader) Close() {
	r.queue.detach()
}

// reap collects the worker's result without blocking. done is false while a
// process that closed its output is still running; the result channel is
// received from at most once.
func (r *Reader) reap() (Outcome, bool) {
	if r.results == nil {
		return Error(ErrIndeterminate.Error()), true
	}
	select {
	case res, ok := <-r.results:
		r.results = nil
		if !ok {
			return Error(ErrIndeterminate.Error()), true
		}
		return outcomeFromExit(res), true
	default:
		return Outcome{}, false
	}
}

func outcomeFromExit(res exitResult) Outcome {
	state := res.state
	if state == nil {
		if res.err != nil {
			return Error(fmt.Sprintf("%s: %v", ErrIndeterminate, res.err))
		}
		return Error(ErrIndeterminate.Error())
	}
	if state.Success() {
		return Complete()
	}
	if !state.Exited() {
		return Error(fmt.Sprintf("%s: %s", ErrIndeterminate, state.String()))
	}
	code := state.ExitCode()
	if code <= 0 {
		code = 1
	}
	return Failed(code)
}

func forward(cmd *exec.Cmd, output io.ReadCloser, queue *lineQueue, results chan<- exitResult) {
	readLines(output, queue)
	queue.close()
	_ = output.Close()
	err := cmd.Wait()
	results <- exitResult{state: cmd.ProcessState, err: err}
	close(results)
}

// readLines pushes every newline-delimited line of r onto the queue. Lines
// that are not valid UTF-8 are skipped. It returns at end of stream, on a read
// error, or once the consumer has detached.
func readLines(r io.Reader, queue *lineQueue) {
	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadString('\n')
		if raw != "" {
			line := strings.TrimSuffix(raw, "\n")
			line = strings.TrimSuffix(line, "\r")
			if utf8.ValidString(line) {
				if !queue.push(line) {
					return
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				logging.Error(fmt.Errorf("read command output: %w", err))
			}
			return
		}
	}
}

package events

import "github.com/atomicstack/tmux-task-popup/internal/logging"

type TaskTracer struct{}

var Task = TaskTracer{}

func (TaskTracer) Launch(shell, commandLine string, pid int) {
	logging.Trace("task.launch", map[string]interface{}{"shell": shell, "command": commandLine, "pid": pid})
}

func (TaskTracer) LaunchFailed(shell, commandLine string, err error) {
	payload := map[string]interface{}{"shell": shell, "command": commandLine}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("task.launch.error", payload)
}

func (TaskTracer) Line(pid int, text string) {
	logging.Trace("task.line", map[string]interface{}{"pid": pid, "text": text})
}

// Outcome records the terminal result of a run. code is only meaningful for
// failed runs and message only for errors.
func (TaskTracer) Outcome(pid int, kind string, code int, message string) {
	payload := map[string]interface{}{"pid": pid, "kind": kind}
	if code != 0 {
		payload["code"] = code
	}
	if message != "" {
		payload["message"] = message
	}
	logging.Trace("task.outcome", payload)
}

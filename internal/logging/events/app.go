package events

import "github.com/atomicstack/tmux-task-popup/internal/logging"

type AppTracer struct{}

var App = AppTracer{}

// Start records the resolved runtime context of a popup session.
func (AppTracer) Start(payload map[string]interface{}) {
	logging.Trace("app.start", payload)
}

func (AppTracer) Exit(code int, err error) {
	payload := map[string]interface{}{"code": code}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("app.exit", payload)
}

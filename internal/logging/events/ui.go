package events

import "github.com/atomicstack/tmux-task-popup/internal/logging"

type InputTracer struct{}

type HistoryTracer struct{}

type ActionTracer struct{}

type CommandTracer struct{}

type NotifyTracer struct{}

type inputReason string

const (
	InputReasonEscape inputReason = "escape"
	InputReasonEmpty  inputReason = "empty"
)

var (
	Input   = InputTracer{}
	History = HistoryTracer{}
	Action  = ActionTracer{}
	Command = CommandTracer{}
	Notify  = NotifyTracer{}
)

func (InputTracer) Submit(text string) {
	logging.Trace("input.submit", map[string]interface{}{"text": text})
}

func (InputTracer) Cancel(reason inputReason) {
	logging.Trace("input.cancel", map[string]interface{}{"reason": string(reason)})
}

func (InputTracer) Cleared() {
	logging.Trace("input.clear", nil)
}

func (HistoryTracer) Load(path string, entries int) {
	logging.Trace("history.load", map[string]interface{}{"path": path, "entries": entries})
}

func (HistoryTracer) Recall(index int, text string) {
	logging.Trace("history.recall", map[string]interface{}{"index": index, "text": text})
}

func (HistoryTracer) Complete(query, text string) {
	logging.Trace("history.complete", map[string]interface{}{"query": query, "text": text})
}

func (HistoryTracer) Append(text string) {
	logging.Trace("history.append", map[string]interface{}{"text": text})
}

func (ActionTracer) Error(err error) {
	if err == nil {
		return
	}
	logging.Trace("action.error", map[string]interface{}{"error": err.Error()})
}

func (ActionTracer) Success(info string) {
	logging.Trace("action.success", map[string]interface{}{"info": info})
}

func (CommandTracer) Queue(id, label string) {
	logging.Trace("command.queue", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) Skip(id, label string) {
	logging.Trace("command.skip", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) Result(id, label, msgType string) {
	logging.Trace("command.result", map[string]interface{}{"id": id, "label": label, "msg": msgType})
}

func (NotifyTracer) Display(target, message string) {
	logging.Trace("notify.display", map[string]interface{}{"target": target, "message": message})
}

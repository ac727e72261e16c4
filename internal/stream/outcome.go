package stream

import "fmt"

// Kind identifies the type of an Outcome returned by Reader.Poll.
type Kind int

const (
	KindLine Kind = iota
	KindWait
	KindComplete
	KindFailed
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindWait:
		return "wait"
	case KindComplete:
		return "complete"
	case KindFailed:
		return "failed"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the result of a single poll. Only the field matching Kind is set.
type Outcome struct {
	Kind    Kind
	Line    string
	Code    int
	Message string
}

func Line(text string) Outcome     { return Outcome{Kind: KindLine, Line: text} }
func Wait() Outcome                { return Outcome{Kind: KindWait} }
func Complete() Outcome            { return Outcome{Kind: KindComplete} }
func Failed(code int) Outcome      { return Outcome{Kind: KindFailed, Code: code} }
func Error(message string) Outcome { return Outcome{Kind: KindError, Message: message} }

// Terminal reports whether the outcome ends the useful lifetime of a Reader.
func (o Outcome) Terminal() bool {
	switch o.Kind {
	case KindComplete, KindFailed, KindError:
		return true
	default:
		return false
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindLine:
		return fmt.Sprintf("line(%q)", o.Line)
	case KindFailed:
		return fmt.Sprintf("failed(%d)", o.Code)
	case KindError:
		return fmt.Sprintf("error(%s)", o.Message)
	default:
		return o.Kind.String()
	}
}

// Package ui contains the Bubble Tea program that powers the task popup.
// The Model type focuses on message orchestration, while dedicated helpers
// own text input, the run loop, and rendering.
//
// Message flow:
//   - Bubble Tea invokes Model.Update with incoming messages, which are routed
//     through a typed handler registry so each tea.Msg is handled by a focused
//     function (key presses, window sizes, launch results, poll ticks).
//   - Key presses are interpreted per mode. In ModeInput they edit the text
//     input, browse history and accept suggestions (internal/ui/input.go).
//
// Running the command:
//   - Submitting the input sends a command.Request through the command bus,
//     which spawns the task command off the update loop and answers with a
//     command.Launched message carrying a stream.Reader.
//   - The run loop (internal/ui/run.go) polls the Reader on every pollMsg. It
//     drains whatever lines are queued, then schedules the next poll with
//     tea.Tick when the Reader reports Wait. Poll never blocks, so the update
//     loop stays responsive while the command runs.
//   - A terminal outcome switches the model to ModeDone; the outcome is kept
//     for Result so the caller can act on it after the program exits.
package ui

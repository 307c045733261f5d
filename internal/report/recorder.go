package report

import (
	"condaenv/internal/classify"
	"condaenv/internal/install"
)

// EventKind names an observer callback.
type EventKind string

const (
	EventEnvFileDetected EventKind = "env_file_detected"
	EventSkipped         EventKind = "skipped"
	EventCommandStarting EventKind = "command_starting"
	EventDiagnostic      EventKind = "diagnostic"
	EventFailureDetected EventKind = "failure_detected"
	EventFinished        EventKind = "finished"
)

// Event is one recorded observer callback.
type Event struct {
	Kind    EventKind
	Text    string // path, command or diagnostic text
	Reason  install.Reason
	Outcome classify.Outcome
	Result  install.Result
}

// Recorder keeps every event in order. It is meant for tests.
type Recorder struct {
	Events []Event
}

// EnvFileDetected implements install.Observer.
func (r *Recorder) EnvFileDetected(path string) {
	r.Events = append(r.Events, Event{Kind: EventEnvFileDetected, Text: path})
}

// Skipped implements install.Observer.
func (r *Recorder) Skipped(reason install.Reason) {
	r.Events = append(r.Events, Event{Kind: EventSkipped, Reason: reason})
}

// CommandStarting implements install.Observer.
func (r *Recorder) CommandStarting(command string) {
	r.Events = append(r.Events, Event{Kind: EventCommandStarting, Text: command})
}

// Diagnostic implements install.Observer.
func (r *Recorder) Diagnostic(text string) {
	r.Events = append(r.Events, Event{Kind: EventDiagnostic, Text: text})
}

// FailureDetected implements install.Observer.
func (r *Recorder) FailureDetected(outcome classify.Outcome) {
	r.Events = append(r.Events, Event{Kind: EventFailureDetected, Outcome: outcome})
}

// Finished implements install.Observer.
func (r *Recorder) Finished(result install.Result) {
	r.Events = append(r.Events, Event{Kind: EventFinished, Result: result})
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind EventKind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Kinds returns the recorded event kinds in order.
func (r *Recorder) Kinds() []EventKind {
	kinds := make([]EventKind, len(r.Events))
	for i, e := range r.Events {
		kinds[i] = e.Kind
	}
	return kinds
}

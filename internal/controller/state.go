package controller

import (
	"github.com/lcsecurity/scamcheck/internal/predict"
)

// Status is the request lifecycle of the current submission.
type Status int

const (
	Idle Status = iota
	InFlight
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case InFlight:
		return "in-flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// State is an immutable snapshot of everything a presentation layer needs.
type State struct {
	Input   string
	Variant predict.Variant
	Status  Status

	// Result is set only when Status is Succeeded.
	Result *predict.Result
	// Error is the user-visible message, set only when Status is Failed.
	Error string

	// Generation identifies the submission this state belongs to.
	Generation uint64
	// Submitted is the text of the current submission, kept even if the
	// user edits the input afterwards.
	Submitted string
	// SubmittedVariant is the backend the current submission was sent to.
	// Variant may have changed since.
	SubmittedVariant predict.Variant
}

// Busy reports whether a request is outstanding.
func (s State) Busy() bool {
	return s.Status == InFlight
}

// Observer is notified with a fresh snapshot after every state change.
type Observer interface {
	StateChanged(State)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(State)

func (f ObserverFunc) StateChanged(s State) {
	f(s)
}

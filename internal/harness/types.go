package harness

import (
	"fmt"
	"strings"
)

// TraceEvent is one executed step.
type TraceEvent struct {
	Step   int    `json:"step"`
	Action string `json:"action"`
	Name   string `json:"name,omitempty"`
	Arg    string `json:"arg,omitempty"`

	// Outcome is "true", "false" or "" for steps without a boolean result.
	Outcome string `json:"outcome,omitempty"`

	// Callbacks is the number of callbacks run by the step.
	Callbacks int `json:"callbacks,omitempty"`

	// Error is the engine error code, when the step failed.
	Error string `json:"error,omitempty"`

	// Detail holds extra lines, e.g. journal entries.
	Detail []string `json:"detail,omitempty"`
}

// String renders the event as one or more trace lines.
func (e TraceEvent) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%3d %s", e.Step, e.Action)
	if e.Name != "" {
		fmt.Fprintf(&b, " %s", e.Name)
	}
	if e.Arg != "" {
		fmt.Fprintf(&b, " %s", e.Arg)
	}
	switch {
	case e.Error != "":
		fmt.Fprintf(&b, " -> error %s", e.Error)
	case e.Outcome != "":
		fmt.Fprintf(&b, " -> %s", e.Outcome)
	}
	if e.Callbacks > 0 {
		fmt.Fprintf(&b, " [callback x%d]", e.Callbacks)
	}
	for _, line := range e.Detail {
		fmt.Fprintf(&b, "\n      %s", line)
	}
	return b.String()
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Final describes every condition after the last step, by name.
	Final []string `json:"final"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Final:  []string{},
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Format renders the full text trace of a scenario run.
func (r *Result) Format(s *Scenario) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", s.Name)
	fmt.Fprintf(&b, "version: %s\n", s.Version)
	b.WriteString("steps:\n")
	for _, ev := range r.Trace {
		b.WriteString(ev.String())
		b.WriteByte('\n')
	}
	b.WriteString("final:\n")
	for _, line := range r.Final {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	return b.String()
}

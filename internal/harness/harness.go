package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/roach88/condwatch/internal/condition"
	"github.com/roach88/condwatch/internal/definition"
	"github.com/roach88/condwatch/internal/engine"
	"github.com/roach88/condwatch/internal/env"
	"github.com/roach88/condwatch/internal/store"
	"github.com/roach88/condwatch/internal/testutil"
)

// Harness is the scenario execution engine. It runs a Watcher against a
// real store in a temporary directory, with a fixed clock and sequential
// journal ids so traces are reproducible.
type Harness struct {
	env     *env.Static
	defs    []definition.Definition
	ids     *engine.SequenceGenerator
	logger  *slog.Logger
	store   *store.Store
	watcher *engine.Watcher
	runs    int
	fired   int
}

// Run executes a scenario and returns the result.
//
// Expectation failures are reported in the Result. An error is returned
// only when the scenario could not be executed at all.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	defs, err := scenario.Definitions()
	if err != nil {
		return nil, fmt.Errorf("failed to load conditions: %w", err)
	}

	dir, err := os.MkdirTemp("", "condwatch-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario dir: %w", err)
	}
	defer os.RemoveAll(dir)

	environment, _ := testutil.NewEnv(scenario.Version, dir)
	h := &Harness{
		env:    environment,
		defs:   defs,
		ids:    engine.NewSequenceGenerator("entry"),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if err := h.open(); err != nil {
		return nil, err
	}
	defer h.close()

	result := NewResult()
	for i, step := range scenario.Steps {
		ev, err := h.execute(ctx, i+1, step, result)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
		result.Trace = append(result.Trace, ev)
	}

	final, err := h.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	result.Final = final
	return result, nil
}

// open starts a new session over the scenario directory and registers
// every condition.
func (h *Harness) open() error {
	st, err := store.OpenDir(h.env.DocumentDir())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	h.runs++
	h.store = st
	h.watcher = engine.New(h.env, st,
		engine.WithLogger(h.logger),
		engine.WithIDGenerator(h.ids),
		engine.WithSession(fmt.Sprintf("run-%d", h.runs)),
	)
	for _, d := range h.defs {
		if err := h.watcher.Register(d.Condition(func() { h.fired++ })); err != nil {
			return fmt.Errorf("failed to register %s: %w", d.Name, err)
		}
	}
	return nil
}

// forget drops a removed condition so a restart does not register it again.
func (h *Harness) forget(name string) {
	key := condition.NormalizeName(name)
	kept := h.defs[:0]
	for _, d := range h.defs {
		if d.Name != key {
			kept = append(kept, d)
		}
	}
	h.defs = kept
}

func (h *Harness) close() {
	if h.store != nil {
		h.store.Close()
		h.store = nil
	}
}

// execute runs one step and checks its expectations.
func (h *Harness) execute(ctx context.Context, n int, step Step, result *Result) (TraceEvent, error) {
	ev := TraceEvent{Step: n, Action: step.Action, Name: step.Name}
	w := h.watcher
	h.fired = 0

	var (
		ok        bool
		hasResult = true
		err       error
	)
	switch step.Action {
	case StepEvaluate:
		ok, err = w.EvaluateCondition(ctx, step.Name)
	case StepTrigger:
		ok, err = w.TriggerCondition(ctx, step.Name)
	case StepLaunch:
		ok, err = w.TriggerLaunch(ctx)
	case StepReactivate:
		ok, err = w.TriggerReactivation(ctx)
	case StepOpen:
		ok, err = w.TriggerOpen(ctx)
	case StepLimit:
		ev.Arg = strconv.FormatInt(*step.Count, 10)
		ok, err = w.LimitCondition(ctx, step.Name, *step.Count)
	case StepUnlimit:
		ok, err = w.UnlimitCondition(ctx, step.Name)
	case StepRemove:
		hasResult = false
		err = w.RemoveCondition(ctx, step.Name)
		if err == nil {
			h.forget(step.Name)
		}
	case StepSetVersion:
		hasResult = false
		ev.Arg = step.Version
		h.env.SetVersion(step.Version)
	case StepRestart:
		hasResult = false
		if rerr := h.restart(ctx, n, result); rerr != nil {
			return ev, rerr
		}
	case StepJournal:
		hasResult = false
		var entries []store.Entry
		entries, err = w.Journal(ctx, step.Name)
		for _, e := range entries {
			ev.Detail = append(ev.Detail, fmt.Sprintf("seq=%d %s activations=%d session=%s", e.Seq, e.Action, e.Activations, e.Session))
		}
	default:
		return ev, fmt.Errorf("unknown action %q", step.Action)
	}
	ev.Callbacks = h.fired

	code := engine.CodeOf(err)
	if err != nil && code == "" {
		return ev, err
	}
	if err != nil {
		ev.Error = string(code)
	} else if hasResult {
		ev.Outcome = strconv.FormatBool(ok)
	}

	switch {
	case step.ExpectError != "":
		if string(code) != step.ExpectError {
			result.AddError(fmt.Sprintf("step %d (%s): expected error %s, got %q", n, step.Action, step.ExpectError, code))
		}
	case err != nil:
		result.AddError(fmt.Sprintf("step %d (%s): unexpected error: %v", n, step.Action, err))
	case step.Expect != nil && *step.Expect != ok:
		result.AddError(fmt.Sprintf("step %d (%s): expected %t, got %t", n, step.Action, *step.Expect, ok))
	}
	return ev, nil
}

// restart closes the store and opens a new session over the same
// directory. The state seen by the new session must equal the old one.
func (h *Harness) restart(ctx context.Context, n int, result *Result) error {
	before, err := h.snapshot(ctx)
	if err != nil {
		return err
	}
	h.close()
	if err := h.open(); err != nil {
		return err
	}
	after, err := h.snapshot(ctx)
	if err != nil {
		return err
	}

	if len(before) != len(after) {
		result.AddError(fmt.Sprintf("step %d (restart): %d conditions before, %d after", n, len(before), len(after)))
		return nil
	}
	for i := range before {
		if before[i] != after[i] {
			result.AddError(fmt.Sprintf("step %d (restart): %q became %q", n, before[i], after[i]))
		}
	}
	return nil
}

// snapshot describes every registered condition, one line each.
func (h *Harness) snapshot(ctx context.Context) ([]string, error) {
	statuses, err := h.watcher.StatusAll(ctx)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(statuses))
	for _, st := range statuses {
		lines = append(lines, describe(st))
	}
	return lines, nil
}

func describe(st engine.Status) string {
	line := fmt.Sprintf("%s %s", st.Name, st.Type)
	switch s := st.State.(type) {
	case condition.VersionState:
		if s.Seen {
			line += " baseline=" + s.Version
		} else {
			line += " baseline=-"
		}
	case condition.CountState:
		line += fmt.Sprintf(" activations=%d", s.Activations)
		if s.Limit != nil {
			line += fmt.Sprintf(" limit=%d", *s.Limit)
		}
		if s.Limited {
			line += " limited"
		}
	}
	return line
}

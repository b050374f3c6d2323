package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/condwatch/internal/condition"
	"github.com/roach88/condwatch/internal/env"
	"github.com/roach88/condwatch/internal/store"
)

// Evaluator decides whether a condition is verified and runs its callback.
//
// Count-based conditions are read-only here: only activation changes
// their counters. Version-change conditions write their baseline.
type Evaluator struct {
	env      env.Provider
	counters *Counters
	logger   *slog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(environment env.Provider, counters *Counters, logger *slog.Logger) *Evaluator {
	return &Evaluator{env: environment, counters: counters, logger: logger}
}

// Evaluate evaluates def. When verified it runs override if non-nil, else
// the registered callback, and returns true.
func (e *Evaluator) Evaluate(ctx context.Context, def condition.Definition, override condition.Callback) (bool, error) {
	state := condition.StateOf(def, e.counters.Record(def.Name))

	var (
		verified bool
		err      error
	)
	switch s := state.(type) {
	case condition.VersionState:
		verified, err = e.evaluateVersion(ctx, def.Name, s)
	case condition.CountState:
		verified = e.evaluateCount(def, s)
	default:
		return false, fmt.Errorf("condition %q: unhandled state %T", def.Name, state)
	}
	if err != nil || !verified {
		return false, err
	}

	cb := def.Callback
	if override != nil {
		cb = override
	}
	if cb != nil {
		cb()
	}
	return true, nil
}

// evaluateVersion compares the current version with the baseline.
//
//	Unseen              -> save baseline, not verified
//	Seen(v), current!=v -> save baseline, verified
//	Seen(v), current==v -> not verified, no write
func (e *Evaluator) evaluateVersion(ctx context.Context, name string, s condition.VersionState) (bool, error) {
	current := e.env.CurrentVersion()

	if s.Seen && s.Version == current {
		e.logger.Debug("version unchanged", "condition", name, "version", current)
		return false, nil
	}

	e.counters.SetBaseline(name, current)
	if err := e.counters.Persist(ctx, name, store.ActionBaseline); err != nil {
		e.logger.Error("failed to persist version baseline", "condition", name, "error", err)
		return false, err
	}

	if !s.Seen {
		e.logger.Debug("version baseline recorded", "condition", name, "version", current)
		return false, nil
	}

	e.logger.Debug("version change detected", "condition", name, "from", s.Version, "to", current)
	return true, nil
}

// evaluateCount checks the counter against the configured thresholds.
// A condition without thresholds is never verified.
func (e *Evaluator) evaluateCount(def condition.Definition, s condition.CountState) bool {
	if !def.Options.HasThreshold() {
		e.logger.Debug("count condition has no thresholds", "condition", def.Name)
		return false
	}
	verified := def.Options.Matches(s.Activations)
	e.logger.Debug("count condition evaluated",
		"condition", def.Name,
		"activations", s.Activations,
		"verified", verified,
	)
	return verified
}

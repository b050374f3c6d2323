package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/condwatch/internal/condition"
	"github.com/roach88/condwatch/internal/env"
	"github.com/roach88/condwatch/internal/store"
)

// Watcher is the caller-facing condition engine: one per application
// session, passed to the call sites that need it.
//
// Thread-safety model: none. All calls are expected from one logical thread
// of control; a host calling from several goroutines must serialize them.
type Watcher struct {
	env       env.Provider
	registry  *Registry
	counters  *Counters
	evaluator *Evaluator
	logger    *slog.Logger
	ids       IDGenerator
	session   string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithIDGenerator sets the generator for journal entry ids.
// Default: UUIDv7Generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(w *Watcher) {
		w.ids = ids
	}
}

// WithSession sets the session id written to journal entries.
// Default: a fresh id from the IDGenerator.
func WithSession(session string) Option {
	return func(w *Watcher) {
		w.session = session
	}
}

// New creates a Watcher over the given environment and durable backing.
// Persisted state is loaded on the first operation that needs it.
func New(environment env.Provider, p Persister, opts ...Option) *Watcher {
	w := &Watcher{
		env:      environment,
		registry: NewRegistry(),
		logger:   slog.Default(),
		ids:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.session == "" {
		w.session = w.ids.Generate()
	}
	w.logger = w.logger.With("session", w.session)
	w.counters = NewCounters(p, w.ids, w.session, func() time.Time { return environment.Now() })
	w.evaluator = NewEvaluator(environment, w.counters, w.logger)
	return w
}

// Session returns the session id of this Watcher.
func (w *Watcher) Session() string {
	return w.session
}

// AddCondition registers or replaces a condition. Persisted counters for
// the name are kept.
func (w *Watcher) AddCondition(name string, typ condition.Type, opts condition.Options, cb condition.Callback) error {
	return w.Register(condition.Definition{Name: name, Type: typ, Options: opts, Callback: cb})
}

// Register is AddCondition taking a full definition.
func (w *Watcher) Register(def condition.Definition) error {
	if err := w.registry.Register(def); err != nil {
		return err
	}
	w.logger.Debug("condition registered", "condition", condition.NormalizeName(def.Name), "type", def.Type)
	return nil
}

// EvaluateCondition evaluates name and runs its registered callback when
// verified.
func (w *Watcher) EvaluateCondition(ctx context.Context, name string) (bool, error) {
	return w.EvaluateConditionWith(ctx, name, nil)
}

// EvaluateConditionWith is EvaluateCondition running cb instead of the
// registered callback, for this call only. A nil cb falls back to the
// registered callback.
func (w *Watcher) EvaluateConditionWith(ctx context.Context, name string, cb condition.Callback) (bool, error) {
	def, err := w.prepare(ctx, name)
	if err != nil {
		return false, err
	}
	return w.evaluator.Evaluate(ctx, def, cb)
}

// TriggerCondition activates a CountTriggered condition.
//
// Returns false without error when the condition is limited. Other types
// are rejected with a type mismatch.
func (w *Watcher) TriggerCondition(ctx context.Context, name string) (bool, error) {
	def, err := w.prepare(ctx, name)
	if err != nil {
		return false, err
	}
	if def.Type != condition.CountTriggered {
		return false, NewTypeMismatchError(def.Name, "trigger", def.Type)
	}
	return w.activate(ctx, def)
}

// TriggerEventFor activates one named condition for a semantic event. The
// condition's type must match the event.
func (w *Watcher) TriggerEventFor(ctx context.Context, ev condition.Event, name string) (bool, error) {
	def, err := w.prepare(ctx, name)
	if err != nil {
		return false, err
	}
	if def.Type != ev.Type() {
		return false, NewTypeMismatchError(def.Name, fmt.Sprintf("%s trigger", ev), def.Type)
	}
	return w.activate(ctx, def)
}

// TriggerLaunch activates every CountLaunch condition.
func (w *Watcher) TriggerLaunch(ctx context.Context) (bool, error) {
	return w.TriggerEvent(ctx, condition.EventLaunch)
}

// TriggerReactivation activates every CountReactivation condition.
func (w *Watcher) TriggerReactivation(ctx context.Context) (bool, error) {
	return w.TriggerEvent(ctx, condition.EventReactivation)
}

// TriggerOpen activates every CountOpen condition.
func (w *Watcher) TriggerOpen(ctx context.Context) (bool, error) {
	return w.TriggerEvent(ctx, condition.EventOpen)
}

// TriggerEvent activates every condition whose type matches ev, in name
// order. Each condition is persisted on its own.
//
// Returns true when at least one condition accepted the activation. On the
// first persistence failure it stops and returns false with the error;
// conditions activated before it stay persisted and show in Status.
func (w *Watcher) TriggerEvent(ctx context.Context, ev condition.Event) (bool, error) {
	if err := w.counters.Load(ctx); err != nil {
		return false, NewPersistenceError("", err)
	}

	accepted := false
	for _, def := range w.registry.OfType(ev.Type()) {
		ok, err := w.activate(ctx, def)
		if err != nil {
			return false, err
		}
		accepted = accepted || ok
	}
	w.logger.Debug("event triggered", "event", ev.String(), "accepted", accepted)
	return accepted, nil
}

// LimitCondition caps the total activations of a count condition at limit,
// replacing any previous cap.
func (w *Watcher) LimitCondition(ctx context.Context, name string, limit int64) (bool, error) {
	def, err := w.prepare(ctx, name)
	if err != nil {
		return false, err
	}
	if !def.Type.IsCount() {
		return false, NewTypeMismatchError(def.Name, "limit", def.Type)
	}
	if limit < 0 {
		return false, NewInvalidConditionError(def.Name, fmt.Errorf("limit must be >= 0, got %d", limit))
	}

	w.counters.SetLimit(def.Name, &limit)
	if err := w.counters.Persist(ctx, def.Name, store.ActionLimit); err != nil {
		w.logger.Error("failed to persist limit", "condition", def.Name, "error", err)
		return false, err
	}
	w.logger.Debug("condition limited", "condition", def.Name, "limit", limit)
	return true, nil
}

// UnlimitCondition removes the activation cap of a count condition,
// including one configured through LimitingActivationCount.
func (w *Watcher) UnlimitCondition(ctx context.Context, name string) (bool, error) {
	def, err := w.prepare(ctx, name)
	if err != nil {
		return false, err
	}
	if !def.Type.IsCount() {
		return false, NewTypeMismatchError(def.Name, "unlimit", def.Type)
	}

	w.counters.SetLimit(def.Name, nil)
	if err := w.counters.Persist(ctx, def.Name, store.ActionUnlimit); err != nil {
		w.logger.Error("failed to persist unlimit", "condition", def.Name, "error", err)
		return false, err
	}
	w.logger.Debug("condition unlimited", "condition", def.Name)
	return true, nil
}

// RemoveCondition unregisters name and deletes its persisted state.
func (w *Watcher) RemoveCondition(ctx context.Context, name string) error {
	def, err := w.prepare(ctx, name)
	if err != nil {
		return err
	}
	if err := w.counters.Forget(ctx, def.Name); err != nil {
		return err
	}
	w.registry.Remove(def.Name)
	w.logger.Debug("condition removed", "condition", def.Name)
	return nil
}

// Status describes the current state of one condition.
type Status struct {
	Name        string            `json:"name"`
	Type        condition.Type    `json:"type"`
	Options     condition.Options `json:"options"`
	Activations int64             `json:"activations"`
	Limit       *int64            `json:"limit,omitempty"`
	Limited     bool              `json:"limited"`
	Baseline    *string           `json:"baseline,omitempty"`
	UpdatedAt   *time.Time        `json:"updated_at,omitempty"`
	State       condition.State   `json:"-"`
}

// Status returns the state of name.
func (w *Watcher) Status(ctx context.Context, name string) (Status, error) {
	def, err := w.prepare(ctx, name)
	if err != nil {
		return Status{}, err
	}
	return w.status(def), nil
}

// StatusAll returns the state of every registered condition, by name.
func (w *Watcher) StatusAll(ctx context.Context) ([]Status, error) {
	if err := w.counters.Load(ctx); err != nil {
		return nil, NewPersistenceError("", err)
	}
	statuses := make([]Status, 0, w.registry.Len())
	for _, name := range w.registry.Names() {
		def, err := w.registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, w.status(def))
	}
	return statuses, nil
}

// Journal returns the persisted history of name.
func (w *Watcher) Journal(ctx context.Context, name string) ([]store.Entry, error) {
	def, err := w.prepare(ctx, name)
	if err != nil {
		return nil, err
	}
	return w.counters.Journal(ctx, def.Name)
}

func (w *Watcher) status(def condition.Definition) Status {
	rec := w.counters.Record(def.Name)
	st := Status{
		Name:        def.Name,
		Type:        def.Type,
		Options:     def.Options.Clone(),
		Activations: rec.Activations,
		State:       condition.StateOf(def, rec),
	}
	if !rec.UpdatedAt.IsZero() {
		at := rec.UpdatedAt
		st.UpdatedAt = &at
	}
	switch s := st.State.(type) {
	case condition.CountState:
		st.Limit = s.Limit
		st.Limited = s.Limited
	case condition.VersionState:
		if s.Seen {
			v := s.Version
			st.Baseline = &v
		}
	}
	return st
}

// prepare loads persisted state and looks up name.
func (w *Watcher) prepare(ctx context.Context, name string) (condition.Definition, error) {
	if err := w.counters.Load(ctx); err != nil {
		return condition.Definition{}, NewPersistenceError(condition.NormalizeName(name), err)
	}
	return w.registry.Lookup(name)
}

// activate increments the counter of a count condition unless it is
// limited.
func (w *Watcher) activate(ctx context.Context, def condition.Definition) (bool, error) {
	if err := checkActivation(def, w.counters.Record(def.Name)); err != nil {
		w.logger.Debug("activation refused", "condition", def.Name, "reason", err)
		return false, nil
	}

	rec, err := w.counters.Mutate(ctx, def.Name, store.ActionActivate, func(r *condition.Record) {
		r.Activations++
	})
	if err != nil {
		w.logger.Error("failed to persist activation", "condition", def.Name, "error", err)
		return false, err
	}
	w.logger.Debug("condition activated", "condition", def.Name, "activations", rec.Activations)
	return true, nil
}

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/condwatch/internal/condition"
	"github.com/roach88/condwatch/internal/store"
)

// Persister is the durable backing of the Counter Store.
// Implemented by *store.Store.
type Persister interface {
	Load(ctx context.Context) (store.Snapshot, error)
	Save(ctx context.Context, rec condition.Record, entry *store.Entry) error
	Delete(ctx context.Context, name string, entry *store.Entry) error
	Journal(ctx context.Context, name string) ([]store.Entry, error)
}

// Counters is the in-memory view of persisted condition state.
//
// It keeps two maps: the working view that setters modify, and the last
// state known to be durable. Persist flushes one name; when the write fails
// the working view of that name is restored from the durable copy, so memory
// and storage never disagree after a call returns.
//
// State is loaded from the Persister on first use.
type Counters struct {
	persister Persister
	clock     *Clock
	ids       IDGenerator
	session   string
	now       func() time.Time

	loaded  bool
	working map[string]condition.Record
	durable map[string]condition.Record
}

// NewCounters creates a Counter Store over p.
func NewCounters(p Persister, ids IDGenerator, session string, now func() time.Time) *Counters {
	return &Counters{
		persister: p,
		clock:     NewClock(),
		ids:       ids,
		session:   session,
		now:       now,
		working:   make(map[string]condition.Record),
		durable:   make(map[string]condition.Record),
	}
}

// Load reads persisted state once. Later calls are no-ops.
func (c *Counters) Load(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	snap, err := c.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load condition state: %w", err)
	}
	for name, rec := range snap.Records {
		c.working[name] = rec.Clone()
		c.durable[name] = rec.Clone()
	}
	c.clock = NewClockAt(snap.LastSeq)
	c.loaded = true
	return nil
}

// Record returns a copy of the working record for name. Unknown names get
// a zero record.
func (c *Counters) Record(name string) condition.Record {
	rec, ok := c.working[name]
	if !ok {
		return condition.Record{Name: name}
	}
	return rec.Clone()
}

// Activations returns the activation counter for name.
func (c *Counters) Activations(name string) int64 {
	return c.working[name].Activations
}

// SetActivations sets the activation counter in the working view.
func (c *Counters) SetActivations(name string, n int64) {
	rec := c.Record(name)
	rec.Activations = n
	c.working[name] = rec
}

// Baseline returns the saved version baseline for name, and whether one
// was ever saved.
func (c *Counters) Baseline(name string) (string, bool) {
	rec := c.working[name]
	if rec.Baseline == nil {
		return "", false
	}
	return *rec.Baseline, true
}

// SetBaseline sets the version baseline in the working view.
func (c *Counters) SetBaseline(name, version string) {
	rec := c.Record(name)
	rec.Baseline = &version
	c.working[name] = rec
}

// Limit returns the persisted limit for name and whether it was ever set
// explicitly.
func (c *Counters) Limit(name string) (*int64, bool) {
	rec := c.Record(name)
	return rec.Limit, rec.LimitSet
}

// SetLimit sets (or with nil, clears) the explicit limit in the working view.
func (c *Counters) SetLimit(name string, limit *int64) {
	rec := c.Record(name)
	if limit != nil {
		v := *limit
		limit = &v
	}
	rec.Limit = limit
	rec.LimitSet = true
	c.working[name] = rec
}

// Persist writes the working record for name together with a journal entry
// for action. On failure the working record is rolled back to the durable
// copy and a persistence Error is returned.
func (c *Counters) Persist(ctx context.Context, name string, action store.Action) error {
	rec := c.Record(name)
	rec.UpdatedAt = c.now()

	seq := c.clock.Next()
	entry := &store.Entry{
		ID:          c.ids.Generate(),
		Seq:         seq,
		Name:        name,
		Action:      action,
		Activations: rec.Activations,
		Session:     c.session,
		At:          rec.UpdatedAt,
	}

	if err := c.persister.Save(ctx, rec, entry); err != nil {
		c.clock.rewind(seq)
		c.rollback(name)
		return NewPersistenceError(name, err)
	}

	c.working[name] = rec.Clone()
	c.durable[name] = rec.Clone()
	return nil
}

// Mutate applies fn to the working record for name and persists it as one
// unit.
func (c *Counters) Mutate(ctx context.Context, name string, action store.Action, fn func(*condition.Record)) (condition.Record, error) {
	rec := c.Record(name)
	fn(&rec)
	c.working[name] = rec
	if err := c.Persist(ctx, name, action); err != nil {
		return c.Record(name), err
	}
	return c.Record(name), nil
}

// Forget deletes the persisted state of name.
func (c *Counters) Forget(ctx context.Context, name string) error {
	seq := c.clock.Next()
	entry := &store.Entry{
		ID:          c.ids.Generate(),
		Seq:         seq,
		Name:        name,
		Action:      store.ActionRemove,
		Activations: c.Activations(name),
		Session:     c.session,
		At:          c.now(),
	}
	if err := c.persister.Delete(ctx, name, entry); err != nil {
		c.clock.rewind(seq)
		return NewPersistenceError(name, err)
	}
	delete(c.working, name)
	delete(c.durable, name)
	return nil
}

// Journal returns the persisted history of name.
func (c *Counters) Journal(ctx context.Context, name string) ([]store.Entry, error) {
	entries, err := c.persister.Journal(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return entries, nil
}

func (c *Counters) rollback(name string) {
	if rec, ok := c.durable[name]; ok {
		c.working[name] = rec.Clone()
		return
	}
	delete(c.working, name)
}

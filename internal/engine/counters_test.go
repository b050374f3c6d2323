package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/condwatch/internal/condition"
	"github.com/roach88/condwatch/internal/store"
	"github.com/roach88/condwatch/internal/testutil"
)

func newTestCounters(t *testing.T) (*Counters, *testutil.FlakyPersister) {
	t.Helper()
	s, err := store.OpenDir(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	p := testutil.NewFlakyPersister(s)
	clock := testutil.NewFakeClock()
	c := NewCounters(p, NewSequenceGenerator("id"), "session", clock.Now)
	require.NoError(t, c.Load(context.Background()))
	return c, p
}

func TestCounters_UnknownNameIsZero(t *testing.T) {
	c, _ := newTestCounters(t)

	assert.Equal(t, int64(0), c.Activations("nobody"))
	_, seen := c.Baseline("nobody")
	assert.False(t, seen)
	limit, set := c.Limit("nobody")
	assert.Nil(t, limit)
	assert.False(t, set)
	assert.Equal(t, condition.Record{Name: "nobody"}, c.Record("nobody"))
}

func TestCounters_SettersAndPersist(t *testing.T) {
	ctx := context.Background()
	c, p := newTestCounters(t)

	c.SetActivations("rate", 4)
	c.SetLimit("rate", condition.Count(9))
	require.NoError(t, c.Persist(ctx, "rate", store.ActionActivate))

	c.SetBaseline("changelog", "3.1")
	require.NoError(t, c.Persist(ctx, "changelog", store.ActionBaseline))

	rec, err := p.Get(ctx, "rate")
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.Activations)
	assert.Equal(t, int64(9), *rec.Limit)
	assert.True(t, rec.LimitSet)
	assert.Equal(t, testutil.Epoch, rec.UpdatedAt)

	v, seen := c.Baseline("changelog")
	assert.True(t, seen)
	assert.Equal(t, "3.1", v)
}

func TestCounters_SetLimitCopies(t *testing.T) {
	c, _ := newTestCounters(t)
	limit := int64(2)
	c.SetLimit("rate", &limit)
	limit = 7

	got, set := c.Limit("rate")
	assert.True(t, set)
	assert.Equal(t, int64(2), *got)
}

func TestCounters_PersistFailureRestoresDurableState(t *testing.T) {
	ctx := context.Background()
	c, p := newTestCounters(t)

	c.SetActivations("rate", 1)
	require.NoError(t, c.Persist(ctx, "rate", store.ActionActivate))

	p.FailWrites = true
	c.SetActivations("rate", 2)
	err := c.Persist(ctx, "rate", store.ActionActivate)
	require.Error(t, err)
	assert.True(t, IsPersistenceError(err))
	assert.Equal(t, int64(1), c.Activations("rate"))

	// a name that was never durable disappears entirely
	c.SetActivations("fresh", 5)
	require.Error(t, c.Persist(ctx, "fresh", store.ActionActivate))
	assert.Equal(t, condition.Record{Name: "fresh"}, c.Record("fresh"))
}

func TestCounters_MutateReturnsPersistedRecord(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCounters(t)

	rec, err := c.Mutate(ctx, "rate", store.ActionActivate, func(r *condition.Record) { r.Activations += 2 })
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Activations)
	assert.Equal(t, testutil.Epoch, rec.UpdatedAt)
}

func TestCounters_LoadIsLazyAndOnce(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenDir(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Save(ctx, condition.Record{Name: "rate", Activations: 3, UpdatedAt: testutil.Epoch},
		&store.Entry{ID: "x", Seq: 7, Name: "rate", Action: store.ActionActivate, Activations: 3, Session: "old", At: testutil.Epoch}))

	c := NewCounters(s, NewSequenceGenerator("id"), "session", testutil.NewFakeClock().Now)
	assert.Equal(t, int64(0), c.Activations("rate"), "nothing read before Load")

	require.NoError(t, c.Load(ctx))
	assert.Equal(t, int64(3), c.Activations("rate"))
	assert.Equal(t, int64(7), c.clock.Current())

	c.SetActivations("rate", 10)
	require.NoError(t, c.Load(ctx))
	assert.Equal(t, int64(10), c.Activations("rate"), "second Load is a no-op")
}

func TestCounters_Forget(t *testing.T) {
	ctx := context.Background()
	c, p := newTestCounters(t)

	_, err := c.Mutate(ctx, "rate", store.ActionActivate, func(r *condition.Record) { r.Activations++ })
	require.NoError(t, err)

	p.FailWrites = true
	require.Error(t, c.Forget(ctx, "rate"))
	assert.Equal(t, int64(1), c.Activations("rate"))

	p.FailWrites = false
	require.NoError(t, c.Forget(ctx, "rate"))
	assert.Equal(t, int64(0), c.Activations("rate"))

	entries, err := c.Journal(ctx, "rate")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, store.ActionRemove, entries[1].Action)
	assert.Equal(t, int64(1), entries[1].Activations)
	assert.Equal(t, int64(2), entries[1].Seq)
}

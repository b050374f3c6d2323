package testutil

import (
	"context"
	"errors"

	"github.com/roach88/condwatch/internal/condition"
	"github.com/roach88/condwatch/internal/store"
)

// ErrInjected is the error returned by a FlakyPersister write that was set
// to fail.
var ErrInjected = errors.New("injected write failure")

// FlakyPersister wraps a store and fails writes on demand.
//
// Reads always go through, so tests can compare memory with what actually
// reached the disk.
type FlakyPersister struct {
	*store.Store

	// FailWrites makes every Save and Delete return ErrInjected.
	FailWrites bool

	// FailAfter, when positive, makes writes fail once Saves reaches it.
	FailAfter int

	// FailLoad makes Load return ErrInjected.
	FailLoad bool

	Saves int
}

// NewFlakyPersister wraps s.
func NewFlakyPersister(s *store.Store) *FlakyPersister {
	return &FlakyPersister{Store: s}
}

func (p *FlakyPersister) Load(ctx context.Context) (store.Snapshot, error) {
	if p.FailLoad {
		return store.Snapshot{}, ErrInjected
	}
	return p.Store.Load(ctx)
}

func (p *FlakyPersister) failing() bool {
	return p.FailWrites || (p.FailAfter > 0 && p.Saves >= p.FailAfter)
}

func (p *FlakyPersister) Save(ctx context.Context, rec condition.Record, entry *store.Entry) error {
	if p.failing() {
		return ErrInjected
	}
	p.Saves++
	return p.Store.Save(ctx, rec, entry)
}

func (p *FlakyPersister) Delete(ctx context.Context, name string, entry *store.Entry) error {
	if p.failing() {
		return ErrInjected
	}
	return p.Store.Delete(ctx, name, entry)
}

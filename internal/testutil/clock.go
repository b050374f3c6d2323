package testutil

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/roach88/condwatch/internal/env"
)

// Epoch is the fixed start time of every test clock.
var Epoch = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// NewFakeClock returns a fake clock set to Epoch. Time only moves when the
// test calls Advance.
func NewFakeClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(Epoch)
}

// NewEnv returns a static environment reporting version, rooted in dir,
// with a fake clock at Epoch.
func NewEnv(version, dir string) (*env.Static, *clockwork.FakeClock) {
	clock := NewFakeClock()
	return env.New(version, dir, clock), clock
}

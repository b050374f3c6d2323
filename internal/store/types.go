package store

import (
	"time"

	"github.com/roach88/condwatch/internal/condition"
)

// Action names a kind of journaled state change.
type Action string

const (
	ActionActivate Action = "activate"
	ActionBaseline Action = "baseline"
	ActionLimit    Action = "limit"
	ActionUnlimit  Action = "unlimit"
	ActionRemove   Action = "remove"
)

// Entry is one journal row.
type Entry struct {
	ID          string    `json:"id"`  // UUIDv7
	Seq         int64     `json:"seq"` // Logical clock, strictly increasing
	Name        string    `json:"name"`
	Action      Action    `json:"action"`
	Activations int64     `json:"activations"` // Counter value after the change
	Session     string    `json:"session"`
	At          time.Time `json:"at"`
}

// Snapshot is the full persisted state as loaded at startup.
type Snapshot struct {
	Records map[string]condition.Record
	LastSeq int64
}

package condition

import "time"

// Record is the persisted state of one condition name.
//
// A Record survives redefinition of its condition: registering a new
// definition under the same name keeps the counters.
type Record struct {
	Name string

	// Activations is the number of accepted activations. It never decreases.
	Activations int64

	// Limit is the persisted activation limit, nil when unlimited.
	// It only applies when LimitSet is true; otherwise the definition's
	// LimitingActivationCount option is used.
	Limit    *int64
	LimitSet bool

	// Baseline is the last seen version, nil until the first evaluation of a
	// version-change condition.
	Baseline *string

	UpdatedAt time.Time
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	c := r
	c.Limit = clonePtr(r.Limit)
	c.Baseline = clonePtr(r.Baseline)
	return c
}

// EffectiveLimit resolves the activation limit for a record under opts.
func (r Record) EffectiveLimit(opts Options) *int64 {
	if r.LimitSet {
		return r.Limit
	}
	return opts.LimitingActivationCount
}

// State is the typed view of a condition's persisted state. It is either a
// CountState or a VersionState.
type State interface {
	isState()
}

// CountState is the state of a count-based condition.
type CountState struct {
	Activations int64
	Limit       *int64
	Limited     bool
}

// VersionState is the state of a version-change condition.
type VersionState struct {
	Seen    bool
	Version string
}

func (CountState) isState()   {}
func (VersionState) isState() {}

// StateOf builds the typed state for a definition from its record.
func StateOf(def Definition, rec Record) State {
	if def.Type == VersionChange {
		if rec.Baseline == nil {
			return VersionState{}
		}
		return VersionState{Seen: true, Version: *rec.Baseline}
	}
	limit := rec.EffectiveLimit(def.Options)
	return CountState{
		Activations: rec.Activations,
		Limit:       clonePtr(limit),
		Limited:     limit != nil && rec.Activations >= *limit,
	}
}

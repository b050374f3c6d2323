package condition

import "fmt"

// Options configures a condition. Every field is optional; nil means absent.
// Configured thresholds combine with OR: a count condition is verified when
// any of them matches.
type Options struct {
	// CountExact verifies when the counter equals the value.
	CountExact *int64 `json:"count_exact,omitempty" yaml:"count_exact,omitempty"`

	// CountModulo verifies when the counter is a multiple of the value.
	// A counter of 0 is a multiple of everything, so a condition that was
	// never activated is verified.
	CountModulo *int64 `json:"count_modulo,omitempty" yaml:"count_modulo,omitempty"`

	// LimitingActivationCount caps the total number of accepted activations.
	// It never affects evaluation.
	LimitingActivationCount *int64 `json:"limiting_activation_count,omitempty" yaml:"limiting_activation_count,omitempty"`
}

// Count returns a pointer to n, for building Options literals.
func Count(n int64) *int64 {
	return &n
}

// HasThreshold reports whether any evaluation threshold is configured.
func (o Options) HasThreshold() bool {
	return o.CountExact != nil || o.CountModulo != nil
}

// Matches reports whether counter satisfies any configured threshold.
func (o Options) Matches(counter int64) bool {
	if o.CountExact != nil && counter == *o.CountExact {
		return true
	}
	if o.CountModulo != nil && *o.CountModulo > 0 && counter%*o.CountModulo == 0 {
		return true
	}
	return false
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.CountExact != nil && *o.CountExact < 0 {
		return fmt.Errorf("count_exact must be >= 0, got %d", *o.CountExact)
	}
	if o.CountModulo != nil && *o.CountModulo <= 0 {
		return fmt.Errorf("count_modulo must be > 0, got %d", *o.CountModulo)
	}
	if o.LimitingActivationCount != nil && *o.LimitingActivationCount < 0 {
		return fmt.Errorf("limiting_activation_count must be >= 0, got %d", *o.LimitingActivationCount)
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate registered options.
func (o Options) Clone() Options {
	return Options{
		CountExact:              clonePtr(o.CountExact),
		CountModulo:             clonePtr(o.CountModulo),
		LimitingActivationCount: clonePtr(o.LimitingActivationCount),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/condwatch/internal/condition"
)

// checkActivation validates that a count condition accepts one more
// activation under its effective limit.
//
// The effective limit is the persisted one once LimitCondition or
// UnlimitCondition has been called for the name, and the definition's
// LimitingActivationCount option otherwise.
//
// Returns LimitReachedError when the condition is limited. Limiting never
// affects evaluation: a limited condition may still be verified.
func checkActivation(def condition.Definition, rec condition.Record) error {
	limit := rec.EffectiveLimit(def.Options)
	if limit != nil && rec.Activations >= *limit {
		return &LimitReachedError{
			Condition:   def.Name,
			Activations: rec.Activations,
			Limit:       *limit,
		}
	}
	return nil
}

// LimitReachedError reports a refused activation.
//
// Watcher methods translate it into a false result; it never escapes as an
// error from the public API.
type LimitReachedError struct {
	Condition   string
	Activations int64
	Limit       int64
}

// Error implements the error interface.
func (e *LimitReachedError) Error() string {
	return fmt.Sprintf("condition %s reached its activation limit: %d activations >= %d limit",
		e.Condition, e.Activations, e.Limit)
}

// IsLimitReached returns true if the error is a LimitReachedError.
// Uses errors.As to handle wrapped errors.
func IsLimitReached(err error) bool {
	var le *LimitReachedError
	return errors.As(err, &le)
}

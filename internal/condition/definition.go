package condition

import (
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Callback is the action run when an evaluation verifies a condition.
type Callback func()

// Definition is a registered condition. It owns no persisted state; counters
// and baselines live in a Record keyed by the same name.
type Definition struct {
	Name     string
	Type     Type
	Options  Options
	Callback Callback
}

// ErrEmptyName is returned for a condition without a name.
var ErrEmptyName = errors.New("condition name is empty")

// NormalizeName returns the key under which a condition name is stored.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// Validate checks that the definition can be registered.
func (d Definition) Validate() error {
	if d.Name == "" {
		return ErrEmptyName
	}
	if !d.Type.Valid() {
		return fmt.Errorf("condition %q: invalid type %s", d.Name, d.Type)
	}
	// Options on a version-change condition are ignored, so they are not
	// validated either.
	if d.Type.IsCount() {
		if err := d.Options.Validate(); err != nil {
			return fmt.Errorf("condition %q: %w", d.Name, err)
		}
	}
	return nil
}

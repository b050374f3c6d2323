package condition

import (
	"fmt"
	"strings"
)

// Type identifies how a condition is activated and evaluated.
type Type int

const (
	// TypeUnknown is the zero value and never valid for a registered condition.
	TypeUnknown Type = iota

	// VersionChange is verified when the observed version differs from the
	// saved baseline. It is never activated.
	VersionChange

	// CountTriggered counts manual triggers.
	CountTriggered

	// CountLaunch counts application launches.
	CountLaunch

	// CountReactivation counts returns from background.
	CountReactivation

	// CountOpen counts generic "open" events.
	CountOpen
)

var typeNames = map[Type]string{
	VersionChange:     "version_change",
	CountTriggered:    "count_triggered",
	CountLaunch:       "count_launch",
	CountReactivation: "count_reactivation",
	CountOpen:         "count_open",
}

// String returns the text form used in definition files and the store.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// Valid reports whether t is one of the enumerated variants.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// IsCount reports whether t is a count-based type.
func (t Type) IsCount() bool {
	switch t {
	case CountTriggered, CountLaunch, CountReactivation, CountOpen:
		return true
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid condition type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseType parses the text form of a Type. Matching is case-insensitive and
// accepts dashes in place of underscores.
func ParseType(s string) (Type, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for t, name := range typeNames {
		if name == key {
			return t, nil
		}
	}
	return TypeUnknown, fmt.Errorf("unknown condition type %q", s)
}

// Event is a semantic activation event. Each event activates conditions of
// exactly one count type.
type Event int

const (
	EventLaunch Event = iota + 1
	EventReactivation
	EventOpen
)

// Type returns the condition type an event activates.
func (e Event) Type() Type {
	switch e {
	case EventLaunch:
		return CountLaunch
	case EventReactivation:
		return CountReactivation
	case EventOpen:
		return CountOpen
	}
	return TypeUnknown
}

func (e Event) String() string {
	switch e {
	case EventLaunch:
		return "launch"
	case EventReactivation:
		return "reactivation"
	case EventOpen:
		return "open"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

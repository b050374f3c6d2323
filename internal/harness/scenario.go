package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/condwatch/internal/definition"
)

// Step kinds.
const (
	StepEvaluate   = "evaluate"
	StepTrigger    = "trigger"
	StepLaunch     = "launch"
	StepReactivate = "reactivate"
	StepOpen       = "open"
	StepLimit      = "limit"
	StepUnlimit    = "unlimit"
	StepRemove     = "remove"
	StepSetVersion = "set_version"
	StepRestart    = "restart"
	StepJournal    = "journal"
)

// Scenario is a scripted session against a fresh condition store.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Version is the application version reported at start.
	Version string `yaml:"version"`

	// Conditions uses the same shape as a YAML definitions file.
	Conditions map[string]definition.Spec `yaml:"conditions"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`
}

// Step is one operation of a scenario.
type Step struct {
	// Action is one of the Step* kinds.
	Action string `yaml:"action"`

	// Name is the condition the step applies to.
	// Required by evaluate, trigger, limit, unlimit, remove and journal.
	Name string `yaml:"name,omitempty"`

	// Count is the cap for limit.
	Count *int64 `yaml:"count,omitempty"`

	// Version is the new application version for set_version.
	Version string `yaml:"version,omitempty"`

	// Expect is the expected boolean outcome. Nil means unchecked.
	Expect *bool `yaml:"expect,omitempty"`

	// ExpectError is the expected engine error code, e.g. TYPE_MISMATCH.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML. Unknown fields are
// rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// Definitions returns the scenario's conditions, validated and sorted.
func (s *Scenario) Definitions() ([]definition.Definition, error) {
	return definition.FromMap(s.Name, s.Conditions)
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Conditions) == 0 {
		return fmt.Errorf("conditions map is required and must be non-empty")
	}
	if _, err := s.Definitions(); err != nil {
		return err
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st Step) error {
	switch st.Action {
	case StepEvaluate, StepTrigger, StepUnlimit, StepRemove, StepJournal:
		if st.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for %s", index, st.Action)
		}
	case StepLimit:
		if st.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for limit", index)
		}
		if st.Count == nil {
			return fmt.Errorf("steps[%d]: count is required for limit", index)
		}
	case StepSetVersion:
		if st.Version == "" {
			return fmt.Errorf("steps[%d]: version is required for set_version", index)
		}
	case StepLaunch, StepReactivate, StepOpen, StepRestart:
	case "":
		return fmt.Errorf("steps[%d]: action is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, st.Action)
	}

	if st.Expect != nil {
		switch st.Action {
		case StepRemove, StepSetVersion, StepRestart, StepJournal:
			return fmt.Errorf("steps[%d]: %s has no boolean outcome to expect", index, st.Action)
		}
		if st.ExpectError != "" {
			return fmt.Errorf("steps[%d]: expect and expect_error are mutually exclusive", index)
		}
	}
	return nil
}

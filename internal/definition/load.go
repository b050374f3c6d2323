// Package definition loads condition definitions from CUE or YAML files.
//
// CUE files declare conditions under a top-level "condition" struct, YAML
// files under a top-level "conditions" mapping. Both use the same shape:
//
//	condition: {
//		"rate-app": {
//			type: "count_launch"
//			options: count_exact: 10
//			message: "Enjoying the app? Leave a rating."
//		}
//	}
package definition

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/condwatch/internal/condition"
)

// Error codes for definition loading.
const (
	ErrCodeRead        = "E201"
	ErrCodeParse       = "E202"
	ErrCodeMissingRoot = "E203"
	ErrCodeInvalid     = "E204"
	ErrCodeFormat      = "E205"
)

// LoadError represents an error that occurred while loading definitions.
type LoadError struct {
	Code      string
	File      string
	Condition string
	Message   string
}

func (e *LoadError) Error() string {
	if e.Condition != "" {
		return fmt.Sprintf("%s: %s: condition %q: %s", e.File, e.Code, e.Condition, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
}

// Definition is one loaded condition. Message is what the CLI prints when
// the condition is verified.
type Definition struct {
	Name    string
	Type    condition.Type
	Options condition.Options
	Message string
}

// Condition converts d into a registrable definition with cb as callback.
func (d Definition) Condition(cb condition.Callback) condition.Definition {
	return condition.Definition{
		Name:     d.Name,
		Type:     d.Type,
		Options:  d.Options.Clone(),
		Callback: cb,
	}
}

// Spec is the on-disk shape of one condition.
type Spec struct {
	Type    string            `json:"type" yaml:"type"`
	Options condition.Options `json:"options,omitempty" yaml:"options,omitempty"`
	Message string            `json:"message,omitempty" yaml:"message,omitempty"`
}

type yamlFile struct {
	Conditions map[string]Spec `yaml:"conditions"`
}

// Load reads a definitions file, choosing the format by extension.
// Definitions are returned sorted by name.
func Load(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, File: path, Message: err.Error()}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return ParseCUE(path, data)
	case ".yaml", ".yml":
		return ParseYAML(path, data)
	default:
		return nil, &LoadError{Code: ErrCodeFormat, File: path,
			Message: "unsupported file extension (want .cue, .yaml or .yml)"}
	}
}

// ParseCUE parses CUE source. filename is used in error messages.
func ParseCUE(filename string, data []byte) ([]Definition, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, File: filename, Message: err.Error()}
	}

	root := value.LookupPath(cue.ParsePath("condition"))
	if !root.Exists() {
		return nil, &LoadError{Code: ErrCodeMissingRoot, File: filename, Message: `no top-level "condition" struct`}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParse, File: filename, Message: fmt.Sprintf("iterating conditions: %v", err)}
	}

	raw := make(map[string]Spec)
	for iter.Next() {
		name := iter.Selector().Unquoted()
		var spec Spec
		if err := iter.Value().Decode(&spec); err != nil {
			return nil, &LoadError{Code: ErrCodeParse, File: filename, Condition: name, Message: err.Error()}
		}
		raw[name] = spec
	}

	return build(filename, raw)
}

// ParseYAML parses YAML source. filename is used in error messages.
func ParseYAML(filename string, data []byte) ([]Definition, error) {
	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, File: filename, Message: err.Error()}
	}
	if file.Conditions == nil {
		return nil, &LoadError{Code: ErrCodeMissingRoot, File: filename, Message: `no top-level "conditions" mapping`}
	}
	return build(filename, file.Conditions)
}

// FromMap builds definitions from already decoded specs. Used by the
// scenario harness, which embeds conditions in its own YAML.
func FromMap(source string, specs map[string]Spec) ([]Definition, error) {
	return build(source, specs)
}

func build(filename string, raw map[string]Spec) ([]Definition, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		spec := raw[name]

		typ, err := condition.ParseType(spec.Type)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalid, File: filename, Condition: name, Message: err.Error()}
		}

		def := Definition{
			Name:    condition.NormalizeName(name),
			Type:    typ,
			Options: spec.Options,
			Message: spec.Message,
		}
		if err := def.Condition(nil).Validate(); err != nil {
			return nil, &LoadError{Code: ErrCodeInvalid, File: filename, Condition: name, Message: err.Error()}
		}
		if seen[def.Name] {
			return nil, &LoadError{Code: ErrCodeInvalid, File: filename, Condition: name,
				Message: "duplicate name after normalization"}
		}
		seen[def.Name] = true
		defs = append(defs, def)
	}
	return defs, nil
}

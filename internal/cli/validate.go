package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/condwatch/internal/definition"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                `json:"valid"`
	Conditions []ValidatedCondition `json:"conditions,omitempty"`
}

// ValidatedCondition summarizes one valid definition.
type ValidatedCondition struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (r ValidationResult) String() string {
	lines := []string{fmt.Sprintf("✓ %d condition(s) valid", len(r.Conditions))}
	for _, c := range r.Conditions {
		lines = append(lines, fmt.Sprintf("  %s (%s)", c.Name, c.Type))
	}
	return strings.Join(lines, "\n")
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a condition definitions file",
		Long: `Load a CUE or YAML definitions file and check every condition:
known type, non-negative thresholds, positive modulo, unique names.

Without an argument the file from --conditions is validated.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Conditions
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	if path == "" {
		return NewExitError(ExitCommandError, "no definitions file given")
	}

	defs, err := definition.Load(path)
	if err != nil {
		var loadErr *definition.LoadError
		if !errors.As(err, &loadErr) {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return reported(WrapExitError(ExitCommandError, "validation aborted", err))
		}
		_ = formatter.Error(loadErr.Code, loadErr.Error(), nil)
		if loadErr.Code == definition.ErrCodeRead || loadErr.Code == definition.ErrCodeFormat {
			return reported(NewExitError(ExitCommandError, loadErr.Error()))
		}
		return reported(NewExitError(ExitFailure, fmt.Sprintf("validation failed: %s", loadErr.Error())))
	}

	formatter.VerboseLog("Loaded %d condition(s) from %s", len(defs), path)
	result := ValidationResult{Valid: true, Conditions: make([]ValidatedCondition, 0, len(defs))}
	for _, d := range defs {
		result.Conditions = append(result.Conditions, ValidatedCondition{Name: d.Name, Type: d.Type.String()})
	}
	return formatter.Success(result)
}

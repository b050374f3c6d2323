package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// LimitResult is the payload of the limit and unlimit commands.
type LimitResult struct {
	Condition string `json:"condition"`
	Limit     *int64 `json:"limit"`
}

func (r LimitResult) String() string {
	if r.Limit == nil {
		return r.Condition + ": unlimited"
	}
	return fmt.Sprintf("%s: limited to %d activations", r.Condition, *r.Limit)
}

// RemoveResult is the payload of the remove command.
type RemoveResult struct {
	Condition string `json:"condition"`
	Removed   bool   `json:"removed"`
}

func (r RemoveResult) String() string {
	return r.Condition + ": removed"
}

// NewLimitCommand creates the limit command.
func NewLimitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "limit <name> <count>",
		Short: "Cap the activations of a count condition",
		Long: `Cap the total number of accepted activations of a count condition.

The cap replaces any previous one, including limiting_activation_count from
the definitions file. Evaluation is not affected.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid count %q", args[1]), err)
			}
			return runLimit(rootOpts, args[0], count, cmd)
		},
	}
}

func runLimit(opts *RootOptions, name string, count int64, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if _, err := s.watcher.LimitCondition(cmd.Context(), name, count); err != nil {
		return engineError(formatter, err)
	}
	return formatter.Success(LimitResult{Condition: name, Limit: &count})
}

// NewUnlimitCommand creates the unlimit command.
func NewUnlimitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "unlimit <name>",
		Short:         "Remove the activation cap of a count condition",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnlimit(rootOpts, args[0], cmd)
		},
	}
}

func runUnlimit(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if _, err := s.watcher.UnlimitCondition(cmd.Context(), name); err != nil {
		return engineError(formatter, err)
	}
	return formatter.Success(LimitResult{Condition: name})
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete the persisted state of a condition",
		Long: `Delete the counters, limit and version baseline of a condition.

The journal keeps its history. The condition starts from zero the next time
it is used.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(rootOpts, args[0], cmd)
		},
	}
}

func runRemove(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.watcher.RemoveCondition(cmd.Context(), name); err != nil {
		return engineError(formatter, err)
	}
	return formatter.Success(RemoveResult{Condition: name, Removed: true})
}

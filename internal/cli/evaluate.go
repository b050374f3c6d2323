package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// EvaluateOptions holds flags for the evaluate command.
type EvaluateOptions struct {
	*RootOptions
	ExitCode bool // exit 1 when the condition is not verified
}

// EvaluateResult is the payload of the evaluate command.
type EvaluateResult struct {
	Condition string   `json:"condition"`
	Verified  bool     `json:"verified"`
	Messages  []string `json:"messages"`
}

func (r EvaluateResult) String() string {
	if !r.Verified {
		return r.Condition + ": not verified"
	}
	lines := append([]string{r.Condition + ": verified"}, r.Messages...)
	return strings.Join(lines, "\n")
}

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvaluateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "evaluate <name>",
		Short: "Evaluate a condition",
		Long: `Evaluate a condition and print its message when verified.

Count conditions are verified when their activation counter matches
count_exact or is a multiple of count_modulo. A version_change condition is
verified when the application version differs from the last one it saw.

Exit codes:
  0 - Evaluated (verified, or not verified without --exit-code)
  1 - Not verified and --exit-code was given
  2 - Command error (unknown condition, unreadable state, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.ExitCode, "exit-code", false, "exit with status 1 when the condition is not verified")

	return cmd
}

func runEvaluate(opts *EvaluateOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	verified, err := s.watcher.EvaluateCondition(cmd.Context(), name)
	if err != nil {
		return engineError(formatter, err)
	}

	result := EvaluateResult{Condition: name, Verified: verified, Messages: s.takeMessages()}
	if err := formatter.Success(result); err != nil {
		return err
	}
	if opts.ExitCode && !verified {
		return reported(NewExitError(ExitFailure, fmt.Sprintf("%s: not verified", name)))
	}
	return nil
}

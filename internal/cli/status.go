package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/condwatch/internal/engine"
	"github.com/roach88/condwatch/internal/store"
)

// StatusResult is the payload of the status command.
type StatusResult struct {
	Conditions []engine.Status `json:"conditions"`
}

func (r StatusResult) String() string {
	if len(r.Conditions) == 0 {
		return "No conditions defined."
	}
	lines := make([]string, 0, len(r.Conditions))
	for _, st := range r.Conditions {
		lines = append(lines, formatStatus(st))
	}
	return strings.Join(lines, "\n")
}

func formatStatus(st engine.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", st.Name, st.Type)
	if st.Baseline != nil {
		fmt.Fprintf(&b, " baseline=%s", *st.Baseline)
	} else if st.Type.IsCount() {
		fmt.Fprintf(&b, " activations=%d", st.Activations)
		if st.Limit != nil {
			fmt.Fprintf(&b, " limit=%d", *st.Limit)
		}
		if st.Limited {
			b.WriteString(" limited")
		}
	} else {
		b.WriteString(" baseline=-")
	}
	return b.String()
}

// JournalResult is the payload of the journal command.
type JournalResult struct {
	Condition string        `json:"condition"`
	Entries   []store.Entry `json:"entries"`
}

func (r JournalResult) String() string {
	if len(r.Entries) == 0 {
		return r.Condition + ": no journal entries"
	}
	lines := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		lines = append(lines, fmt.Sprintf("%d\t%s\t%s\tactivations=%d\tsession=%s",
			e.Seq, e.At.Format(time.RFC3339), e.Action, e.Activations, e.Session))
	}
	return strings.Join(lines, "\n")
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status [name]",
		Short: "Show condition state",
		Long: `Show the counters, limits and version baselines of the defined
conditions, or of one condition.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, args, cmd)
		},
	}
}

func runStatus(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	var result StatusResult
	if len(args) == 1 {
		st, err := s.watcher.Status(cmd.Context(), args[0])
		if err != nil {
			return engineError(formatter, err)
		}
		result.Conditions = []engine.Status{st}
	} else {
		all, err := s.watcher.StatusAll(cmd.Context())
		if err != nil {
			return engineError(formatter, err)
		}
		result.Conditions = all
	}
	return formatter.Success(result)
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "journal <name>",
		Short:         "Show the change history of a condition",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(rootOpts, args[0], cmd)
		},
	}
}

func runJournal(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	entries, err := s.watcher.Journal(cmd.Context(), name)
	if err != nil {
		return engineError(formatter, err)
	}
	return formatter.Success(JournalResult{Condition: name, Entries: entries})
}

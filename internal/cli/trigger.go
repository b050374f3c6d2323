package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/condwatch/internal/condition"
)

// TriggerResult is the payload of the trigger, launch, reactivate and open
// commands.
type TriggerResult struct {
	Condition string `json:"condition,omitempty"`
	Event     string `json:"event,omitempty"`
	Accepted  bool   `json:"accepted"`
}

func (r TriggerResult) String() string {
	subject := r.Condition
	if subject == "" {
		subject = r.Event
	}
	if r.Accepted {
		return subject + ": accepted"
	}
	return subject + ": not accepted"
}

// NewTriggerCommand creates the trigger command.
func NewTriggerCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <name>",
		Short: "Activate a count_triggered condition",
		Long: `Increment the counter of a count_triggered condition.

A limited condition does not count the activation and reports
"not accepted". Other condition types are rejected.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrigger(rootOpts, args[0], cmd)
		},
	}
}

func runTrigger(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	accepted, err := s.watcher.TriggerCondition(cmd.Context(), name)
	if err != nil {
		return engineError(formatter, err)
	}
	return formatter.Success(TriggerResult{Condition: name, Accepted: accepted})
}

type eventCommand struct {
	use   string
	event condition.Event
	short string
}

var (
	eventLaunch     = eventCommand{"launch", condition.EventLaunch, "Record an application launch"}
	eventReactivate = eventCommand{"reactivate", condition.EventReactivation, "Record a return from background"}
	eventOpen       = eventCommand{"open", condition.EventOpen, "Record an open event"}
)

// newEventCommand creates one of the launch, reactivate and open commands.
// Each activates every condition of the matching count type.
func newEventCommand(rootOpts *RootOptions, ev eventCommand) *cobra.Command {
	return &cobra.Command{
		Use:   ev.use,
		Short: ev.short,
		Long: fmt.Sprintf(`%s.

Activates every %s condition. Reports "accepted" when at least one
condition counted the event.`, ev.short, ev.event.Type()),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvent(rootOpts, ev.event, cmd)
		},
	}
}

func runEvent(opts *RootOptions, ev condition.Event, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	accepted, err := s.watcher.TriggerEvent(cmd.Context(), ev)
	if err != nil {
		return engineError(formatter, err)
	}
	return formatter.Success(TriggerResult{Event: ev.String(), Accepted: accepted})
}

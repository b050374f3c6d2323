package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/condwatch/internal/definition"
	"github.com/roach88/condwatch/internal/engine"
	"github.com/roach88/condwatch/internal/env"
	"github.com/roach88/condwatch/internal/store"
)

// session is one CLI invocation's view of the condition store: the
// definitions file registered on a Watcher over the state directory.
type session struct {
	store   *store.Store
	watcher *engine.Watcher
	defs    map[string]definition.Definition

	// messages collects the messages of conditions verified during this
	// session, in callback order.
	messages []string
}

// newLogger builds the CLI logger: text on w, debug level when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openSession loads the definitions file and opens the store. The caller
// must call close.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	if opts.Conditions == "" {
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("no conditions file: set --conditions or %s_CONDITIONS", EnvPrefix))
	}
	defs, err := definition.Load(opts.Conditions)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load conditions", err)
	}

	dir := opts.Dir
	if dir == "" {
		if dir, err = env.DefaultDir(); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to resolve state directory", err)
		}
	}
	version := opts.AppVersion
	if version == "" {
		version = env.BuildVersion()
	}

	provider := env.New(version, dir, nil)
	st, err := store.OpenDir(provider.DocumentDir())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open state directory", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	s := &session{
		store:   st,
		watcher: engine.New(provider, st, engine.WithLogger(logger)),
		defs:    make(map[string]definition.Definition, len(defs)),
	}
	for _, d := range defs {
		message := d.Message
		if message == "" {
			message = d.Name
		}
		if err := s.watcher.Register(d.Condition(func() { s.messages = append(s.messages, message) })); err != nil {
			st.Close()
			return nil, WrapExitError(ExitCommandError, "failed to register conditions", err)
		}
		s.defs[d.Name] = d
	}
	logger.Debug("session opened", "dir", dir, "version", version, "conditions", len(defs))
	return s, nil
}

func (s *session) close() error {
	return s.store.Close()
}

// takeMessages returns and clears the collected messages.
func (s *session) takeMessages() []string {
	msgs := s.messages
	s.messages = nil
	if msgs == nil {
		return []string{}
	}
	return msgs
}

// engineError converts an engine error to an ExitError, reporting it
// through formatter first.
func engineError(formatter *OutputFormatter, err error) error {
	code := string(engine.CodeOf(err))
	if code == "" {
		code = ErrCodeGeneric
	}
	_ = formatter.Error(code, err.Error(), nil)
	return reported(WrapExitError(ExitCommandError, code, err))
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

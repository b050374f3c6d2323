package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys. Each is settable by flag, by CONDWATCH_<KEY> in the
// environment (dashes become underscores) or by the config file.
const (
	KeyDir        = "dir"
	KeyAppVersion = "app-version"
	KeyConditions = "conditions"
	KeyFormat     = "format"
	KeyVerbose    = "verbose"
)

// EnvPrefix is the prefix of configuration environment variables.
const EnvPrefix = "CONDWATCH"

// RootOptions holds global flags for all commands, resolved through viper
// before any subcommand runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Dir        string // state directory; empty means env.DefaultDir()
	AppVersion string // empty means the binary's build version
	Conditions string // definitions file (.cue, .yaml, .yml)
	ConfigFile string

	v *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the condwatch CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "condwatch",
		Short: "condwatch - persistent condition counters",
		Long: `Track user-engagement conditions across application runs.

Conditions count launches, reactivations, opens or manual triggers, or watch
for a change of application version. Evaluating a condition checks its
thresholds and prints the condition's message when it is verified.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default is ./.condwatch.yaml)")
	flags.BoolVarP(&opts.Verbose, KeyVerbose, "v", false, "verbose output")
	flags.StringVar(&opts.Format, KeyFormat, "text", "output format (json|text)")
	flags.StringVar(&opts.Dir, KeyDir, "", "state directory (default is the user config dir)")
	flags.StringVar(&opts.AppVersion, KeyAppVersion, "", "current application version (default is the build version)")
	flags.StringVarP(&opts.Conditions, KeyConditions, "c", "", "condition definitions file (.cue, .yaml)")

	for _, key := range []string{KeyVerbose, KeyFormat, KeyDir, KeyAppVersion, KeyConditions} {
		_ = opts.v.BindPFlag(key, flags.Lookup(key))
	}

	cmd.AddCommand(NewEvaluateCommand(opts))
	cmd.AddCommand(NewTriggerCommand(opts))
	cmd.AddCommand(newEventCommand(opts, eventLaunch))
	cmd.AddCommand(newEventCommand(opts, eventReactivate))
	cmd.AddCommand(newEventCommand(opts, eventOpen))
	cmd.AddCommand(NewLimitCommand(opts))
	cmd.AddCommand(NewUnlimitCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewJournalCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// initConfig reads the config file and environment, then copies the
// resolved values back into opts. Flags set on the command line win.
func (opts *RootOptions) initConfig() error {
	v := opts.v
	if v == nil {
		v = viper.New()
		opts.v = v
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".condwatch")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("failed to read config: %v", err))
		}
	}

	opts.Verbose = v.GetBool(KeyVerbose)
	opts.Format = v.GetString(KeyFormat)
	opts.Dir = v.GetString(KeyDir)
	opts.AppVersion = v.GetString(KeyAppVersion)
	opts.Conditions = v.GetString(KeyConditions)

	if !isValidFormat(opts.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

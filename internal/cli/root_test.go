package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/condwatch/internal/store"
)

const testConditions = `
conditions:
  rate-app:
    type: count_launch
    options:
      count_exact: 3
    message: Enjoying the app? Leave a rating.
  share:
    type: count_triggered
    options:
      count_modulo: 2
  whats-new:
    type: version_change
    message: See what's new.
`

// cliEnv is a state directory plus definitions file for end-to-end runs.
type cliEnv struct {
	dir        string
	conditions string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "conditions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConditions), 0o644))
	return cliEnv{dir: filepath.Join(root, "state"), conditions: path}
}

// run executes the root command with the environment's flags and version.
func (e cliEnv) run(t *testing.T, version string, args ...string) (string, string, error) {
	t.Helper()
	full := append([]string{"--dir", e.dir, "--conditions", e.conditions, "--app-version", version}, args...)
	return execute(t, full...)
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "condwatch", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"evaluate", "trigger", "launch", "reactivate", "open", "limit", "unlimit", "remove", "status", "journal", "validate", "test"}

	for _, name := range commands {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	flags := cmd.PersistentFlags()

	verbose := flags.Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	conditions := flags.Lookup("conditions")
	require.NotNil(t, conditions)
	assert.Equal(t, "c", conditions.Shorthand)

	assert.Equal(t, "text", flags.Lookup("format").DefValue)
	assert.NotNil(t, flags.Lookup("dir"))
	assert.NotNil(t, flags.Lookup("app-version"))
	assert.NotNil(t, flags.Lookup("config"))
}

func TestInvalidFormat(t *testing.T) {
	e := newCLIEnv(t)
	_, _, err := e.run(t, "1.0", "--format", "xml", "status")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestMissingConditionsFile(t *testing.T) {
	_, _, err := execute(t, "--dir", t.TempDir(), "status")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "CONDWATCH_CONDITIONS")
}

func TestLaunchAndEvaluate(t *testing.T) {
	e := newCLIEnv(t)

	for i := 0; i < 2; i++ {
		out, _, err := e.run(t, "1.0", "launch")
		require.NoError(t, err)
		assert.Equal(t, "launch: accepted\n", out)
	}

	out, _, err := e.run(t, "1.0", "evaluate", "rate-app", "--exit-code")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "rate-app: not verified\n", out)

	_, _, err = e.run(t, "1.0", "launch")
	require.NoError(t, err)

	out, _, err = e.run(t, "1.0", "evaluate", "rate-app", "--exit-code")
	require.NoError(t, err)
	assert.Equal(t, "rate-app: verified\nEnjoying the app? Leave a rating.\n", out)
}

func TestEvaluateVersionChange(t *testing.T) {
	e := newCLIEnv(t)

	out, _, err := e.run(t, "1.0", "evaluate", "whats-new")
	require.NoError(t, err)
	assert.Equal(t, "whats-new: not verified\n", out)

	out, _, err = e.run(t, "1.0", "evaluate", "whats-new")
	require.NoError(t, err)
	assert.Equal(t, "whats-new: not verified\n", out)

	out, _, err = e.run(t, "2.0", "evaluate", "whats-new")
	require.NoError(t, err)
	assert.Equal(t, "whats-new: verified\nSee what's new.\n", out)

	out, _, err = e.run(t, "2.0", "status", "whats-new")
	require.NoError(t, err)
	assert.Equal(t, "whats-new (version_change) baseline=2.0\n", out)
}

func TestTriggerJSON(t *testing.T) {
	e := newCLIEnv(t)

	out, _, err := e.run(t, "1.0", "--format", "json", "trigger", "share")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   TriggerResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, TriggerResult{Condition: "share", Accepted: true}, resp.Data)

	out, _, err = e.run(t, "1.0", "--format", "json", "evaluate", "share")
	require.NoError(t, err)
	var eval struct {
		Data EvaluateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &eval))
	assert.False(t, eval.Data.Verified)
	assert.Empty(t, eval.Data.Messages)

	// without a message the callback reports the condition name
	_, _, err = e.run(t, "1.0", "trigger", "share")
	require.NoError(t, err)
	out, _, err = e.run(t, "1.0", "--format", "json", "evaluate", "share")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &eval))
	assert.True(t, eval.Data.Verified)
	assert.Equal(t, []string{"share"}, eval.Data.Messages)
}

func TestEngineErrors(t *testing.T) {
	e := newCLIEnv(t)

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"unknown condition", []string{"evaluate", "nope"}, "NOT_FOUND"},
		{"trigger on launch type", []string{"trigger", "rate-app"}, "TYPE_MISMATCH"},
		{"limit version change", []string{"limit", "whats-new", "1"}, "TYPE_MISMATCH"},
		{"negative limit", []string{"limit", "--", "rate-app", "-1"}, "INVALID_CONDITION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, err := e.run(t, "1.0", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, errOut, "Error ["+tt.wantCode+"]")
		})
	}
}

func TestLimitCountNotANumber(t *testing.T) {
	e := newCLIEnv(t)
	_, _, err := e.run(t, "1.0", "limit", "rate-app", "many")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid count "many"`)
}

func TestLimitStatusJournalRemove(t *testing.T) {
	e := newCLIEnv(t)

	out, _, err := e.run(t, "1.0", "limit", "rate-app", "1")
	require.NoError(t, err)
	assert.Equal(t, "rate-app: limited to 1 activations\n", out)

	out, _, err = e.run(t, "1.0", "launch")
	require.NoError(t, err)
	assert.Equal(t, "launch: accepted\n", out)

	out, _, err = e.run(t, "1.0", "launch")
	require.NoError(t, err)
	assert.Equal(t, "launch: not accepted\n", out)

	out, _, err = e.run(t, "1.0", "status")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"rate-app (count_launch) activations=1 limit=1 limited",
		"share (count_triggered) activations=0",
		"whats-new (version_change) baseline=-",
		"",
	}, "\n"), out)

	out, _, err = e.run(t, "1.0", "unlimit", "rate-app")
	require.NoError(t, err)
	assert.Equal(t, "rate-app: unlimited\n", out)

	out, _, err = e.run(t, "1.0", "journal", "rate-app")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "\tlimit\tactivations=0\t")
	assert.Contains(t, lines[1], "\tactivate\tactivations=1\t")
	assert.Contains(t, lines[2], "\tunlimit\tactivations=1\t")

	out, _, err = e.run(t, "1.0", "remove", "rate-app")
	require.NoError(t, err)
	assert.Equal(t, "rate-app: removed\n", out)

	out, _, err = e.run(t, "1.0", "status", "rate-app")
	require.NoError(t, err)
	assert.Equal(t, "rate-app (count_launch) activations=0\n", out)
}

func TestEventCommands(t *testing.T) {
	e := newCLIEnv(t)

	out, _, err := e.run(t, "1.0", "open")
	require.NoError(t, err)
	assert.Equal(t, "open: not accepted\n", out, "no count_open conditions")

	out, _, err = e.run(t, "1.0", "reactivate")
	require.NoError(t, err)
	assert.Equal(t, "reactivation: not accepted\n", out)

	_, _, err = e.run(t, "1.0", "launch", "extra")
	require.Error(t, err)
}

func TestConfigFromEnvironment(t *testing.T) {
	e := newCLIEnv(t)
	t.Setenv("CONDWATCH_DIR", e.dir)
	t.Setenv("CONDWATCH_CONDITIONS", e.conditions)
	t.Setenv("CONDWATCH_APP_VERSION", "7.0")

	_, _, err := execute(t, "evaluate", "whats-new")
	require.NoError(t, err)

	out, _, err := execute(t, "status", "whats-new")
	require.NoError(t, err)
	assert.Equal(t, "whats-new (version_change) baseline=7.0\n", out)

	// flags win over the environment
	out, _, err = execute(t, "--app-version", "8.0", "evaluate", "whats-new")
	require.NoError(t, err)
	assert.Equal(t, "whats-new: verified\nSee what's new.\n", out)
}

func TestConfigFile(t *testing.T) {
	e := newCLIEnv(t)
	cfg := filepath.Join(t.TempDir(), "condwatch.yaml")
	content := "dir: " + e.dir + "\nconditions: " + e.conditions + "\napp-version: \"3.1\"\nformat: json\n"
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o644))

	out, _, err := execute(t, "--config", cfg, "trigger", "share")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	_, _, err = execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestSession_StateLivesInDir(t *testing.T) {
	e := newCLIEnv(t)

	_, _, err := e.run(t, "1.0", "launch")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(e.dir, store.DatabaseFile))
}

func TestLaunch_LimitedIsQuiet(t *testing.T) {
	e := newCLIEnv(t)

	_, _, err := e.run(t, "1.0", "limit", "rate-app", "0")
	require.NoError(t, err)

	out, errOut, err := e.run(t, "1.0", "launch")
	require.NoError(t, err)
	assert.Equal(t, "launch: not accepted\n", out)
	assert.Empty(t, errOut)
}

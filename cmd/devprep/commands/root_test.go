package commands

import (
	"bytes"
	"testing"

	"github.com/devprep/devprep/pkg/paths"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// execute runs the root command with args and captures stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv(paths.EnvConfigDir, t.TempDir())

	rootCmd := NewRootCmd()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootNoCommand(t *testing.T) {
	out, err := execute(t)
	require.Error(t, err)
	assert.Contains(t, out, "Usage:")
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "devprep version")
	assert.Contains(t, out, "commit:")
}

func TestGenconfigTOML(t *testing.T) {
	out, err := execute(t, "genconfig")
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, toml.Unmarshal([]byte(out), &parsed))
	assert.Contains(t, parsed, "docker")
	assert.Contains(t, parsed, "opencv")
	// Durations round-trip as human-readable strings, not nanoseconds.
	assert.Contains(t, out, "10m0s")
	assert.NotContains(t, out, "600000000000")
}

func TestGenconfigYAML(t *testing.T) {
	out, err := execute(t, "genconfig", "--format", "yaml")
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &parsed))
	assert.Contains(t, parsed, "packages")
}

func TestGenconfigUnknownFormat(t *testing.T) {
	_, err := execute(t, "genconfig", "--format", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestDocsListsTopics(t *testing.T) {
	out, err := execute(t, "docs")
	require.NoError(t, err)
	assert.Contains(t, out, "configuration")
	assert.Contains(t, out, "pipelines")
}

func TestDocsShowsTopic(t *testing.T) {
	out, err := execute(t, "docs", "pipelines")
	require.NoError(t, err)
	assert.Contains(t, out, "Idempotence")
}

func TestDocsUnknownTopic(t *testing.T) {
	_, err := execute(t, "docs", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown topic")
}

func TestPipelineCommandsRejectArgs(t *testing.T) {
	for _, name := range []string{"prepare", "docker", "opencv"} {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, name, "extra")
			require.Error(t, err)
		})
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	rootCmd := NewRootCmd()
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"prepare", "docker", "opencv", "genconfig", "docs", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
	assert.True(t, hasFlag(rootCmd, "yes"))
	assert.True(t, hasFlag(rootCmd, "dry-run"))
	assert.True(t, hasFlag(rootCmd, "config"))
}

func hasFlag(cmd *cobra.Command, name string) bool {
	return cmd.PersistentFlags().Lookup(name) != nil
}

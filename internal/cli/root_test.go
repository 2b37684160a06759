package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "fetchview", cmd.Use)
	assert.Contains(t, cmd.Long, "max_extra_depth")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "cycles", "analyze", "plan", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestAnalyzeAndPlanFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"analyze", "plan"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)

		depth := sub.Flags().Lookup("max-extra-depth")
		require.NotNil(t, depth, name)
		assert.Equal(t, "1", depth.DefValue)
		assert.NotNil(t, sub.Flags().Lookup("store"), name)
		assert.NotNil(t, sub.Flags().Lookup("root"), name)
	}

	plan, _, err := cmd.Find([]string{"plan"})
	require.NoError(t, err)
	assert.Equal(t, "s", plan.Flags().Lookup("selection").Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	schema := writeFile(t, "schema.yaml", songsSchema)
	_, _, err := execute(t, NewRootCommand(), "--format", "xml", "validate", schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootLoadsConfig(t *testing.T) {
	schema := writeFile(t, "schema.yaml", circularSchema)
	config := writeFile(t, "fetchview.yaml", "max_extra_depth: 2\n")

	out, _, err := execute(t, NewRootCommand(), "--config", config, "analyze", schema)
	require.NoError(t, err)
	assert.Contains(t, out, "Registry Circular (max_extra_depth=2, 3 views)")

	out, _, err = execute(t, NewRootCommand(), "--config", config, "analyze", schema, "--max-extra-depth", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Registry Circular (max_extra_depth=0, 1 views)", "flags override the config file")
}

func TestRootRejectsNegativeConfigDepth(t *testing.T) {
	schema := writeFile(t, "schema.yaml", circularSchema)
	config := writeFile(t, "fetchview.yaml", "max_extra_depth: -1\n")

	_, _, err := execute(t, NewRootCommand(), "--config", config, "analyze", schema)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "max_extra_depth must be >= 0")
}

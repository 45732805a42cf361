package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ziwei", cmd.Use)
	assert.Contains(t, cmd.Long, "interpretation")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"save", "list", "delete", "find", "interpret", "settings", "export-ics", "serve", "auth"}

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
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "ziwei.yaml", configFlag.DefValue)
}

func TestInterpretCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	interpretCmd, _, err := cmd.Find([]string{"interpret"})
	require.NoError(t, err)

	palaceFlag := interpretCmd.Flags().Lookup("palace")
	require.NotNil(t, palaceFlag)
	assert.Equal(t, "p", palaceFlag.Shorthand)

	fixLeap := interpretCmd.Flags().Lookup("fix-leap")
	require.NotNil(t, fixLeap)
	assert.Equal(t, "true", fixLeap.DefValue)

	dateFlag := interpretCmd.Flags().Lookup("date")
	require.NotNil(t, dateFlag)
	// --date is required, so default is empty
	assert.Equal(t, "", dateFlag.DefValue)
}

func TestExportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	exportCmd, _, err := cmd.Find([]string{"export-ics"})
	require.NoError(t, err)

	outputFlag := exportCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
}

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	addrFlag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, addrFlag)
	assert.Equal(t, "", addrFlag.DefValue)
}

func TestAuthSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	setKey, _, err := cmd.Find([]string{"auth", "set-key"})
	require.NoError(t, err)
	assert.Equal(t, "set-key", setKey.Name())
}

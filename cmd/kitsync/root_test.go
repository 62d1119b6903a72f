package kitsync

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_HasAllSubcommands(t *testing.T) {
	root := NewRootCmd()

	expected := []string{
		"init", "status", "diff", "update", "rescan",
		"backups", "restore", "prune",
		"genconfig", "version", "completion", "help",
	}
	for _, name := range expected {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, "command %s", name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRootCmd_NoArgsShowsHelp(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{})

	err := root.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "kitsync")
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	root := NewRootCmd()

	for _, flag := range []string{"verbose", "root", "format", "yes", "dry-run"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %s", flag)
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"frobnicate"})

	err := root.Execute()
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	root := NewRootCmd()
	cmd, _, err := root.Find([]string{"version"})
	require.NoError(t, err)
	assert.Equal(t, MsgVersionShort, cmd.Short)
}

func TestTopicsEmbedded(t *testing.T) {
	entries, err := topicFiles.ReadDir("topics")
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, e := range entries {
		names[e.Name()] = true
	}
	assert.True(t, names["quickstart.md"])
	assert.True(t, names["conflicts.md"])
	assert.True(t, names["backups.md"])
}

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand(nil, "test-version")

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"init", "config", "issue", "sync"} {
		assert.Contains(t, names, want)
	}
}

func TestNewRootCommand_Version(t *testing.T) {
	out, err := run(t, NewRootCommand(nil, "1.2.3"), "--version")

	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")
}

func TestNewRootCommand_Help(t *testing.T) {
	out, err := run(t, NewRootCommand(nil, "test-version"), "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "Setup Commands:")
	assert.Contains(t, out, "Issues:")
	assert.Contains(t, out, "Collaboration:")
}

func TestNewRootCommand_PrintsConfigWarnings(t *testing.T) {
	c, _ := newTestContainer(t)
	c.AppConfig.Warnings = []string{`unknown key "colour"`}

	out, err := run(t, NewRootCommand(c, "test-version"), "issue", "list")

	require.NoError(t, err)
	assert.Contains(t, out, `Warning: unknown key "colour"`)
}

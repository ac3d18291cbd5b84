package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "seed", "match"} {
		assert.True(t, names[want], want)
	}
}

func TestMatchCommand_ValidatesFlagsBeforeConnecting(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	rootCmd.SetArgs([]string{"match", "--user", "nope", "--role", "student"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user must be a uuid")

	rootCmd.SetArgs([]string{"match", "--user", "7f0c4a52-7a43-4a4e-9f55-3f2f1f4b7f10", "--role", "mentor"})
	err = rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--role must be student or startup")
}

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Version(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--version"})
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	require.NoError(t, cmd.Execute())

	assert.Equal(t, "tokensales version dev\nBuild date: unknown\nCommit: unknown\n", stdout.String())
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.Subset(t, names, []string{"flat", "networks"})
}

func TestRootCommand_VerboseFlat(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "contracts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "contracts", "Token.sol"), []byte("contract Token {}\n"), 0o644))

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"flat", "-v", "-r", root})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	require.NoError(t, cmd.Execute())

	assert.Equal(t, "// SPDX-License-Identifier: MIXED\n\n// File contracts/Token.sol\ncontract Token {}\n", stdout.String())
	assert.Contains(t, stderr.String(), "level=DEBUG")
	assert.Contains(t, stderr.String(), `msg="Dependency graph" files=1 edges=0`)
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("paths:\n  sources: src\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Sale.sol"), []byte("contract Sale {}\n"), 0o644))

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--config", configPath, "flat", "-r", root})
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())

	assert.True(t, strings.Contains(stdout.String(), "// File src/Sale.sol\n"))
}

func TestRootCommand_ErrorExitsWithError(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"flat", "--watch"})
	var stderr bytes.Buffer
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, stderr.String(), "Error: --watch requires --output")
}

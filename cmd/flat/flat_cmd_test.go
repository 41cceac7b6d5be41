package flat

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	filePath := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	return filePath
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
}

func newSaleProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	createFile(t, root, "contracts/Token.sol", "// SPDX-License-Identifier: MIT\npragma solidity ^0.8.4;\n\ncontract Token {}\n")
	createFile(t, root, "contracts/Sale.sol", "// SPDX-License-Identifier: MIT\npragma solidity ^0.8.4;\n\nimport \"./Token.sol\";\n\ncontract Sale {\n    Token public token;\n}\n")
	return root
}

func executeFlat(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewCommand()
	cmd.SetArgs(args)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestFlatCommand_WholeProject(t *testing.T) {
	root := newSaleProject(t)

	stdout, _, err := executeFlat(t, "-r", root)
	require.NoError(t, err)

	assert.Equal(t, "// SPDX-License-Identifier: MIXED\n\n"+
		"// File contracts/Token.sol\n"+
		"// License-Identifier: MIT\n"+
		"pragma solidity ^0.8.4;\n\n"+
		"contract Token {}\n"+
		"\n"+
		"// File contracts/Sale.sol\n"+
		"// License-Identifier: MIT\n"+
		"\n"+
		"contract Sale {\n"+
		"    Token public token;\n"+
		"}\n", stdout)
}

func TestFlatCommand_EntryFile(t *testing.T) {
	root := newSaleProject(t)

	stdout, _, err := executeFlat(t, "-r", root, filepath.Join(root, "contracts", "Token.sol"))
	require.NoError(t, err)

	assert.Contains(t, stdout, "// File contracts/Token.sol\n")
	assert.NotContains(t, stdout, "contracts/Sale.sol")
}

func TestFlatCommand_Output(t *testing.T) {
	root := newSaleProject(t)
	output := filepath.Join(root, "Flattened.sol")

	stdout, stderr, err := executeFlat(t, "-r", root, "-o", output)
	require.NoError(t, err)

	assert.Empty(t, stdout)
	assert.Contains(t, stderr, `msg="Writing to"`)

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(written), "// SPDX-License-Identifier: MIXED\n"))
	assert.True(t, strings.HasSuffix(string(written), "    Token public token;\n}"))
}

func TestFlatCommand_OutputInsideSources(t *testing.T) {
	root := newSaleProject(t)
	output := filepath.Join(root, "contracts", "Flattened.sol")

	_, _, err := executeFlat(t, "-r", root, "-o", output)
	require.NoError(t, err)
	first, err := os.ReadFile(output)
	require.NoError(t, err)

	_, _, err = executeFlat(t, "-r", root, "-o", output)
	require.NoError(t, err)
	second, err := os.ReadFile(output)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.NotContains(t, string(second), "// File contracts/Flattened.sol")
}

func TestFlatCommand_EmptyProject(t *testing.T) {
	root := t.TempDir()
	output := filepath.Join(root, "Flattened.sol")

	stdout, _, err := executeFlat(t, "-r", root, "-o", output)
	require.NoError(t, err)

	assert.Empty(t, stdout)
	_, err = os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}

func TestFlatCommand_UsesConfiguredSourcesAndExcludes(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, "tokensales.yaml", "paths:\n  sources: src\nflatten:\n  exclude:\n    - \"mocks/**\"\n")
	createFile(t, root, "src/Token.sol", "contract Token {}\n")
	createFile(t, root, "src/mocks/TokenMock.sol", "contract TokenMock {}\n")

	stdout, _, err := executeFlat(t, "-r", root)
	require.NoError(t, err)

	assert.Contains(t, stdout, "// File src/Token.sol\n")
	assert.NotContains(t, stdout, "TokenMock")
}

func TestFlatCommand_MissingImport(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, "contracts/Sale.sol", "import \"./Token.sol\";\ncontract Sale {}\n")

	_, _, err := executeFlat(t, "-r", root)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to resolve import "./Token.sol" in contracts/Sale.sol`)
}

func TestFlatCommand_FileOutsideProject(t *testing.T) {
	root := newSaleProject(t)
	outside := createFile(t, t.TempDir(), "Other.sol", "contract Other {}\n")

	_, _, err := executeFlat(t, "-r", root, outside)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "path must be within project root")
}

func TestFlatCommand_WatchRequiresOutput(t *testing.T) {
	_, _, err := executeFlat(t, "--watch")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch requires --output")
}

func TestFlatCommand_WatchWithCommit(t *testing.T) {
	_, _, err := executeFlat(t, "--watch", "-o", "out.sol", "--commit", "HEAD")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch cannot be used with --commit")
}

func TestFlatCommand_Commit(t *testing.T) {
	root := newSaleProject(t)
	runGit(t, root, "init")
	runGit(t, root, "config", "user.name", "Test User")
	runGit(t, root, "config", "user.email", "test@example.com")
	runGit(t, root, "config", "commit.gpgsign", "false")
	runGit(t, root, "add", "-A")
	runGit(t, root, "commit", "-m", "initial")

	createFile(t, root, "contracts/Token.sol", "contract Token {\n    uint256 public changed;\n}\n")
	createFile(t, root, "contracts/Uncommitted.sol", "contract Uncommitted {}\n")

	stdout, stderr, err := executeFlat(t, "-r", root, "--commit", "HEAD")
	require.NoError(t, err)

	assert.Contains(t, stderr, `msg="Reading sources at commit"`)
	assert.Contains(t, stdout, "contract Token {}")
	assert.NotContains(t, stdout, "changed")
	assert.NotContains(t, stdout, "Uncommitted")
}

func TestFlatCommand_CommitReadsIgnoredLibrariesFromWorkingTree(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, ".gitignore", "node_modules/\n")
	createFile(t, root, "contracts/Token.sol", "import \"solmate/src/tokens/ERC20.sol\";\n\ncontract Token is ERC20 {}\n")
	createFile(t, root, "node_modules/solmate/package.json", `{"version": "6.2.0"}`)
	createFile(t, root, "node_modules/solmate/src/tokens/ERC20.sol", "abstract contract ERC20 {}\n")
	runGit(t, root, "init")
	runGit(t, root, "config", "user.name", "Test User")
	runGit(t, root, "config", "user.email", "test@example.com")
	runGit(t, root, "config", "commit.gpgsign", "false")
	runGit(t, root, "add", "-A")
	runGit(t, root, "commit", "-m", "initial")

	stdout, _, err := executeFlat(t, "-r", root, "--commit", "HEAD")
	require.NoError(t, err)

	assert.Contains(t, stdout, "// File solmate/src/tokens/ERC20.sol@v6.2.0\nabstract contract ERC20 {}")
	assert.Contains(t, stdout, "contract Token is ERC20 {}")
}

func TestFlatCommand_InvalidCommit(t *testing.T) {
	root := newSaleProject(t)
	runGit(t, root, "init")

	_, _, err := executeFlat(t, "-r", root, "--commit", "does-not-exist")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid commit reference 'does-not-exist'")
}

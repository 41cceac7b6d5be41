package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// setupGitRepo initializes a git repository in a temporary directory
func setupGitRepo(t *testing.T, dir string) {
	runGit(t, dir, "init")

	// Configure git user to avoid errors
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "commit.gpgsign", "false")
}

func runGit(t *testing.T, dir string, args ...string) string {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

// createFile creates a file with content, creating parent directories as needed
func createFile(t *testing.T, dir, name, content string) string {
	filePath := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644), "failed to create file %s", name)
	return filePath
}

// commitAll stages everything and returns the new commit SHA
func commitAll(t *testing.T, dir, message string) string {
	runGit(t, dir, "add", "-A")
	runGit(t, dir, "commit", "-m", message)
	return runGit(t, dir, "rev-parse", "HEAD")
}

func gitGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t, goldie.WithNameSuffix(".gold.txt"))
}

// normalizeFilePaths replaces the temp directory with $REPO for golden comparison
func normalizeFilePaths(tmpDir string, paths []string) string {
	if len(paths) == 0 {
		return "(empty)"
	}
	resolvedTmpDir := resolveSymlinks(tmpDir)
	normalized := make([]string, 0, len(paths))
	for _, p := range paths {
		relPath := strings.TrimPrefix(filepath.ToSlash(p), filepath.ToSlash(resolvedTmpDir)+"/")
		normalized = append(normalized, "$REPO/"+relPath)
	}
	return strings.Join(normalized, "\n")
}

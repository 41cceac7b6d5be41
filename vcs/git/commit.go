package git

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PillarGame/TokenSales/vcs"
)

// Commit gives read access to the tree of a single commit, addressed by
// absolute paths inside the working copy of the repository.
type Commit struct {
	repoRoot string
	commitID string
}

// OpenCommit validates commitID and resolves the repository root of repoPath.
func OpenCommit(repoPath, commitID string) (*Commit, error) {
	if err := ValidateCommit(repoPath, commitID); err != nil {
		return nil, err
	}

	repoRoot, err := GetRepositoryRoot(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository root: %w", err)
	}

	return &Commit{
		repoRoot: resolveSymlinks(repoRoot),
		commitID: commitID,
	}, nil
}

// ShortID returns the abbreviated hash of the commit.
func (c *Commit) ShortID() (string, error) {
	return GetShortCommitHash(c.repoRoot, c.commitID)
}

// ContentReader reads file contents as of the commit.
func (c *Commit) ContentReader() vcs.ContentReader {
	return func(filePath string) ([]byte, error) {
		relPath, err := c.relativePath(filePath)
		if err != nil {
			return nil, err
		}
		return GetFileContentFromCommit(c.repoRoot, c.commitID, relPath)
	}
}

// FileLister lists files below a directory as of the commit.
func (c *Commit) FileLister() vcs.FileLister {
	return func(dir string) ([]string, error) {
		relDir, err := c.relativePath(dir)
		if err != nil {
			return nil, err
		}
		files, err := getCommitTreeFiles(c.repoRoot, c.commitID, relDir)
		if err != nil {
			return nil, err
		}

		absolutePaths := toAbsolutePaths(c.repoRoot, files)
		sort.Strings(absolutePaths)
		return absolutePaths, nil
	}
}

func (c *Commit) relativePath(path string) (string, error) {
	rel, err := filepath.Rel(c.repoRoot, path)
	if err != nil {
		return "", fmt.Errorf("failed to evaluate path %q: %w", path, err)
	}
	if rel == "." {
		return rel, nil
	}
	if err := validateGitRelPath(rel); err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// GetFileContentFromCommit reads the content of a file at a specific commit
// using 'git show commit:path'. The filePath should be relative to the repository root.
// A path missing from the commit is reported as fs.ErrNotExist.
func GetFileContentFromCommit(repoPath, commitID, filePath string) ([]byte, error) {
	if err := validateGitRef(commitID); err != nil {
		return nil, err
	}
	if err := validateGitRelPath(filePath); err != nil {
		return nil, err
	}

	out, err := execGit(repoPath, "show", fmt.Sprintf("%s:%s", commitID, filePath))
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.missingPath() {
			return nil, fmt.Errorf("%w: %w", fs.ErrNotExist, err)
		}
		return nil, err
	}

	return out, nil
}

// getCommitTreeFiles returns the repository-relative paths of all files in the
// commit tree below relDir ("." for the whole tree).
func getCommitTreeFiles(repoRoot, commitID, relDir string) ([]string, error) {
	args := []string{"ls-tree", "-r", "--name-only", commitID}
	if relDir != "." {
		args = append(args, "--", relDir)
	}

	out, err := execGit(repoRoot, args...)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// toAbsolutePaths converts relative paths to absolute paths based on the repository root
func toAbsolutePaths(repoRoot string, relativePaths []string) []string {
	absolutePaths := make([]string, 0, len(relativePaths))
	for _, relPath := range relativePaths {
		absolutePaths = append(absolutePaths, filepath.Join(repoRoot, filepath.FromSlash(relPath)))
	}
	return absolutePaths
}

func resolveSymlinks(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return resolved
}

package flat

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RawPath is a user-provided file path from the command line.
type RawPath string

// AbsolutePath is a normalized absolute filesystem path.
type AbsolutePath string

func (p AbsolutePath) String() string {
	return string(p)
}

// PathResolver resolves command line paths against the working directory and
// keeps them inside the project root.
type PathResolver struct {
	root AbsolutePath
}

func NewPathResolver(root string) (PathResolver, error) {
	if root == "" {
		root = "."
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return PathResolver{}, fmt.Errorf("failed to resolve project root: %w", err)
	}

	return PathResolver{root: AbsolutePath(filepath.Clean(resolveSymlinks(absRoot)))}, nil
}

func (r PathResolver) Resolve(path RawPath) (AbsolutePath, error) {
	pathStr := string(path)
	if pathStr == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	absPath, err := filepath.Abs(pathStr)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %q: %w", pathStr, err)
	}
	absPath = resolveSymlinks(filepath.Clean(absPath))

	within, err := isWithinRoot(r.root.String(), absPath)
	if err != nil {
		return "", err
	}
	if !within {
		return "", fmt.Errorf("path must be within project root %s: %q", r.root, pathStr)
	}
	return AbsolutePath(absPath), nil
}

func isWithinRoot(root, targetPath string) (bool, error) {
	rel, err := filepath.Rel(root, targetPath)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate path %q: %w", targetPath, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}
	return !filepath.IsAbs(rel), nil
}

// resolveSymlinks falls back to resolving the parent directory, so files that only
// exist in a commit still compare equal to the resolved project root.
func resolveSymlinks(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		return filepath.Join(dir, filepath.Base(path))
	}
	return path
}

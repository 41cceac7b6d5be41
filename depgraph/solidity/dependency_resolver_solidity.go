package solidity

import (
	"fmt"
	"path"
	"strings"
)

// IsRelativeImport reports whether importPath is resolved against the importing file.
func IsRelativeImport(importPath string) bool {
	return strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../")
}

// ResolveImportPath turns an import path found in the file fromSourceName into the
// source name of the imported file. Relative imports are joined with the importing
// file's directory; every other import is a direct source name.
func ResolveImportPath(fromSourceName, importPath string) (string, error) {
	if err := validateImportPath(importPath); err != nil {
		return "", err
	}

	if !IsRelativeImport(importPath) {
		return path.Clean(importPath), nil
	}

	resolved := path.Join(path.Dir(fromSourceName), importPath)
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return "", fmt.Errorf("%w: %q in %s resolves outside of the project", ErrInvalidImport, importPath, fromSourceName)
	}
	return resolved, nil
}

// LibraryName returns the package a direct source name belongs to: its first path
// segment, or the first two segments for scoped packages such as @openzeppelin/contracts.
func LibraryName(sourceName string) (string, bool) {
	segments := strings.Split(sourceName, "/")

	nameLen := 1
	if strings.HasPrefix(sourceName, "@") {
		nameLen = 2
	}
	if len(segments) <= nameLen || segments[0] == "@" {
		return "", false
	}
	for _, segment := range segments[:nameLen] {
		if segment == "" || segment == "." || segment == ".." {
			return "", false
		}
	}

	return strings.Join(segments[:nameLen], "/"), true
}

func validateImportPath(importPath string) error {
	switch {
	case strings.TrimSpace(importPath) == "":
		return fmt.Errorf("%w: empty import path", ErrInvalidImport)
	case strings.Contains(importPath, "\\"):
		return fmt.Errorf("%w: %q uses backslashes, use forward slashes instead", ErrInvalidImport, importPath)
	case strings.HasPrefix(importPath, "/"):
		return fmt.Errorf("%w: %q is an absolute path", ErrInvalidImport, importPath)
	case strings.Contains(importPath, "://"):
		return fmt.Errorf("%w: %q is a URL", ErrInvalidImport, importPath)
	}
	return nil
}

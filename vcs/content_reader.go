package vcs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// ContentReader is a function that reads file content given a file path.
// This allows the caller to control how files are read (filesystem, git, etc.)
type ContentReader func(filePath string) ([]byte, error)

// FileLister returns the paths of all regular files below dir, sorted.
// A missing dir yields no files and no error.
type FileLister func(dir string) ([]string, error)

// FilesystemContentReader reads files from fsys.
func FilesystemContentReader(fsys afero.Fs) ContentReader {
	return func(filePath string) ([]byte, error) {
		return afero.ReadFile(fsys, filePath)
	}
}

// FilesystemFileLister walks dir on fsys.
func FilesystemFileLister(fsys afero.Fs) FileLister {
	return func(dir string) ([]string, error) {
		exists, err := afero.DirExists(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", dir, err)
		}
		if !exists {
			return nil, nil
		}

		var files []string
		err = afero.Walk(fsys, dir, func(path string, info os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if info.IsDir() {
				return nil
			}
			files = append(files, filepath.Clean(path))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk directory %s: %w", dir, err)
		}

		sort.Strings(files)
		return files, nil
	}
}

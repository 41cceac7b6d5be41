package depgraph

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PillarGame/TokenSales/vcs"
)

const packageManifest = "package.json"

type packageJSON struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// readLibraryInfo reads the installed version of a library from its package.json.
func readLibraryInfo(librariesRoot, libraryName string, read vcs.ContentReader) (*LibraryInfo, error) {
	manifestPath := filepath.Join(librariesRoot, filepath.FromSlash(libraryName), packageManifest)

	data, err := read(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s of library %s: %w", packageManifest, libraryName, err)
	}

	var manifest packageJSON
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse %s of library %s: %w", packageManifest, libraryName, err)
	}

	version := strings.TrimSpace(manifest.Version)
	if version == "" {
		return nil, fmt.Errorf("library %s has no version in %s", libraryName, packageManifest)
	}

	return &LibraryInfo{Name: libraryName, Version: version}, nil
}

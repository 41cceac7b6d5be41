package depgraph

import (
	"fmt"
	"sort"
)

// DependencyGraph is an immutable snapshot of resolved files and their imports.
// An edge from -> to means from imports to.
type DependencyGraph struct {
	files        map[string]*ResolvedFile
	dependencies map[string][]string
}

// GraphEntry lists the files one file imports.
type GraphEntry struct {
	From *ResolvedFile
	To   []*ResolvedFile
}

// NewDependencyGraph builds a graph from files keyed by source name. Every
// dependency must name one of files.
func NewDependencyGraph(files []*ResolvedFile, dependencies map[string][]string) (*DependencyGraph, error) {
	g := &DependencyGraph{
		files:        make(map[string]*ResolvedFile, len(files)),
		dependencies: make(map[string][]string, len(files)),
	}

	for _, file := range files {
		if _, ok := g.files[file.SourceName]; ok {
			return nil, fmt.Errorf("duplicate source name %s", file.SourceName)
		}
		g.files[file.SourceName] = file
	}

	for from, deps := range dependencies {
		if _, ok := g.files[from]; !ok {
			return nil, fmt.Errorf("dependency source %s is not a resolved file", from)
		}
		for _, to := range deps {
			if _, ok := g.files[to]; !ok {
				return nil, fmt.Errorf("dependency %s of %s is not a resolved file", to, from)
			}
		}
		g.dependencies[from] = deduplicatePaths(deps)
	}

	return g, nil
}

// ResolvedFiles returns every file in the graph ordered by source name.
func (g *DependencyGraph) ResolvedFiles() []*ResolvedFile {
	names := g.sourceNames()
	files := make([]*ResolvedFile, 0, len(names))
	for _, name := range names {
		files = append(files, g.files[name])
	}
	return files
}

// Entries returns one entry per file, ordered by source name. Dependencies keep
// their import order.
func (g *DependencyGraph) Entries() []GraphEntry {
	names := g.sourceNames()
	entries := make([]GraphEntry, 0, len(names))
	for _, name := range names {
		deps := g.dependencies[name]
		to := make([]*ResolvedFile, 0, len(deps))
		for _, dep := range deps {
			to = append(to, g.files[dep])
		}
		entries = append(entries, GraphEntry{From: g.files[name], To: to})
	}
	return entries
}

// File looks up a resolved file by source name.
func (g *DependencyGraph) File(sourceName string) (*ResolvedFile, bool) {
	file, ok := g.files[sourceName]
	return file, ok
}

// Dependencies returns the source names imported by sourceName.
func (g *DependencyGraph) Dependencies(sourceName string) []string {
	return append([]string(nil), g.dependencies[sourceName]...)
}

// Len returns the number of resolved files.
func (g *DependencyGraph) Len() int {
	return len(g.files)
}

// EdgeCount returns the number of import edges.
func (g *DependencyGraph) EdgeCount() int {
	count := 0
	for _, deps := range g.dependencies {
		count += len(deps)
	}
	return count
}

func (g *DependencyGraph) sourceNames() []string {
	names := make([]string, 0, len(g.files))
	for name := range g.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// deduplicatePaths removes duplicate entries while preserving insertion order
func deduplicatePaths(paths []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}
	return result
}

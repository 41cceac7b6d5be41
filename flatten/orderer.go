package flatten

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	graphlib "github.com/dominikbraun/graph"

	"github.com/PillarGame/TokenSales/depgraph"
)

var (
	// ErrImportCycle reports files that import each other, directly or transitively.
	ErrImportCycle = errors.New("import cycle")
	// ErrUnknownSourceName reports a graph entry naming a file that was never resolved.
	ErrUnknownSourceName = errors.New("unknown source name")
)

// OrderFiles orders resolvedFiles so that every file comes after the files it imports.
// Ties are broken by source name. Files without any import edge keep their place in
// resolvedFiles after the sorted files.
func OrderFiles(resolvedFiles []*depgraph.ResolvedFile, entries []depgraph.GraphEntry) ([]*depgraph.ResolvedFile, error) {
	if len(resolvedFiles) == 0 {
		return []*depgraph.ResolvedFile{}, nil
	}

	index := make(map[string]*depgraph.ResolvedFile, len(resolvedFiles))
	g := graphlib.New(graphlib.StringHash, graphlib.Directed())
	for _, file := range resolvedFiles {
		index[file.SourceName] = file
		if err := g.AddVertex(file.SourceName); err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("failed to add %s: %w", file.SourceName, err)
		}
	}

	for _, entry := range entries {
		if _, ok := index[entry.From.SourceName]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSourceName, entry.From.SourceName)
		}
		for _, dep := range entry.To {
			if _, ok := index[dep.SourceName]; !ok {
				return nil, fmt.Errorf("%w: %s imported by %s", ErrUnknownSourceName, dep.SourceName, entry.From.SourceName)
			}
			if dep.SourceName == entry.From.SourceName {
				return nil, fmt.Errorf("%w: %s -> %s", ErrImportCycle, dep.SourceName, dep.SourceName)
			}
			// Dependencies point at their dependents so they sort first.
			if err := g.AddEdge(dep.SourceName, entry.From.SourceName); err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("failed to add import of %s by %s: %w", dep.SourceName, entry.From.SourceName, err)
			}
		}
	}

	sorted, err := graphlib.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		if cycle := findCycle(g); len(cycle) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrImportCycle, strings.Join(cycle, " -> "))
		}
		return nil, fmt.Errorf("failed to sort files: %w", err)
	}

	names := append(sorted, sourceNames(resolvedFiles)...)
	seen := make(map[string]bool, len(names))
	ordered := make([]*depgraph.ResolvedFile, 0, len(resolvedFiles))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		file, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSourceName, name)
		}
		ordered = append(ordered, file)
	}

	return ordered, nil
}

func sourceNames(files []*depgraph.ResolvedFile) []string {
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.SourceName)
	}
	return names
}

// findCycle returns one import cycle of g in import direction, starting and ending
// with the same file, or nil if g is acyclic.
func findCycle(g graphlib.Graph[string, string]) []string {
	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return nil
	}

	components, err := graphlib.StronglyConnectedComponents(g)
	if err != nil {
		return nil
	}

	var cycle []string
	for _, component := range components {
		if len(component) < 2 {
			continue
		}
		sort.Strings(component)
		if cycle == nil || component[0] < cycle[0] {
			cycle = cycleThrough(adjacency, component)
		}
	}
	return cycle
}

// cycleThrough walks from the smallest member of a strongly connected component back
// to itself. Edges in g run from dependency to dependent, so the walk is reversed to
// read in import direction.
func cycleThrough(adjacency map[string]map[string]graphlib.Edge[string], component []string) []string {
	start := component[0]
	members := make(map[string]bool, len(component))
	for _, member := range component {
		members[member] = true
	}

	visited := make(map[string]bool)
	var path []string
	var visit func(vertex string) bool
	visit = func(vertex string) bool {
		visited[vertex] = true
		path = append(path, vertex)

		next := make([]string, 0, len(adjacency[vertex]))
		for target := range adjacency[vertex] {
			if members[target] {
				next = append(next, target)
			}
		}
		sort.Strings(next)

		for _, target := range next {
			if target == start {
				path = append(path, start)
				return true
			}
			if !visited[target] && visit(target) {
				return true
			}
		}

		path = path[:len(path)-1]
		return false
	}

	if !visit(start) {
		return nil
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

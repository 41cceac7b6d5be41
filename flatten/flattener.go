// Package flatten concatenates a Solidity file and everything it imports into a
// single self-contained source.
package flatten

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/exp/slog"

	"github.com/PillarGame/TokenSales/depgraph"
	"github.com/PillarGame/TokenSales/internal/logging"
)

// DependencyResolver finds project sources and resolves their imports.
type DependencyResolver interface {
	GetSourcePaths() ([]string, error)
	GetSourceNames(paths []string) ([]string, error)
	GetDependencyGraph(sourceNames []string) (*depgraph.DependencyGraph, error)
}

// Flattener produces flattened sources from a DependencyResolver.
type Flattener struct {
	resolver DependencyResolver
	fs       afero.Fs
	log      *slog.Logger
}

// Option is an option for a Flattener.
type Option func(*Flattener)

// WithLogger returns an Option that sets the logger of a Flattener.
func WithLogger(h slog.Handler) Option {
	return func(f *Flattener) {
		f.log = slog.New(h)
	}
}

// WithFs returns an Option that sets the filesystem flattened output is written to.
func WithFs(fs afero.Fs) Option {
	return func(f *Flattener) {
		f.fs = fs
	}
}

// New returns a Flattener that resolves files with resolver.
func New(resolver DependencyResolver, opts ...Option) *Flattener {
	f := &Flattener{resolver: resolver}
	for _, opt := range opts {
		opt(f)
	}
	if f.fs == nil {
		f.fs = afero.NewOsFs()
	}
	if f.log == nil {
		f.log = logging.NopLogger()
	}
	return f
}

// GetDependencyGraph resolves files and their imports. No files means every
// project source.
func (f *Flattener) GetDependencyGraph(files []string) (*depgraph.DependencyGraph, error) {
	return f.dependencyGraph(files, "")
}

// dependencyGraph resolves files, or every project source except outputPath when
// files is empty.
func (f *Flattener) dependencyGraph(files []string, outputPath string) (*depgraph.DependencyGraph, error) {
	paths := files
	if len(paths) == 0 {
		sourcePaths, err := f.resolver.GetSourcePaths()
		if err != nil {
			return nil, fmt.Errorf("failed to get source paths: %w", err)
		}
		paths = withoutPath(sourcePaths, outputPath)
	}

	sourceNames, err := f.resolver.GetSourceNames(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to get source names: %w", err)
	}

	graph, err := f.resolver.GetDependencyGraph(sourceNames)
	if err != nil {
		return nil, fmt.Errorf("failed to get dependency graph: %w", err)
	}

	f.log.Debug("Dependency graph", "files", graph.Len(), "edges", graph.EdgeCount())
	return graph, nil
}

func withoutPath(paths []string, excluded string) []string {
	if excluded == "" {
		return paths
	}
	excluded = filepath.Clean(excluded)

	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if filepath.Clean(p) != excluded {
			kept = append(kept, p)
		}
	}
	return kept
}

// Flatten returns files and their dependencies as a single source. If outputPath is
// set, the source is written there instead and Flatten returns "". When the whole
// project is flattened, a previous output inside the sources directory is not read
// back in as a source.
func (f *Flattener) Flatten(files []string, outputPath string) (string, error) {
	graph, err := f.dependencyGraph(files, outputPath)
	if err != nil {
		return "", err
	}

	if graph.Len() == 0 {
		return "", nil
	}

	flattened, err := FlattenGraph(graph)
	if err != nil {
		return "", err
	}

	if outputPath == "" {
		return flattened, nil
	}

	f.log.Info("Writing to", "path", outputPath)
	if err := afero.WriteFile(f.fs, outputPath, []byte(flattened), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return "", nil
}

// FlattenGraph concatenates every file of graph in dependency order.
func FlattenGraph(graph *depgraph.DependencyGraph) (string, error) {
	resolvedFiles := graph.ResolvedFiles()
	if len(resolvedFiles) == 0 {
		return "", nil
	}

	ordered, err := OrderFiles(resolvedFiles, graph.Entries())
	if err != nil {
		return "", fmt.Errorf("failed to order files: %w", err)
	}

	var b strings.Builder
	for i, file := range ordered {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "// File %s\n", file.VersionedName())
		b.WriteString(StripImports(file))
		b.WriteString("\n")
	}

	return normalizeDocument(b.String()), nil
}

package depgraph

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"golang.org/x/exp/slog"

	"github.com/PillarGame/TokenSales/depgraph/solidity"
	"github.com/PillarGame/TokenSales/internal/logging"
	"github.com/PillarGame/TokenSales/vcs"
)

const (
	// DefaultSourcesDir is where project sources live, relative to the project root.
	DefaultSourcesDir = "contracts"
	// DefaultLibrariesDir is where installed libraries live, relative to the project root.
	DefaultLibrariesDir = "node_modules"

	sourceFileExtension = ".sol"
)

var (
	// ErrSourceNotFound reports a source name that is neither a project file nor an
	// installed library file.
	ErrSourceNotFound = errors.New("source file not found")
	// ErrOutsideProject reports a path that does not lie inside the project root.
	ErrOutsideProject = errors.New("file is outside the project")
)

// Resolver locates project sources and resolves their transitive imports.
type Resolver struct {
	root          string
	sourcesDir    string
	librariesDir  string
	exclude       []string
	read          vcs.ContentReader
	readLibrary   vcs.ContentReader
	list          vcs.FileLister
	parseCacheLen int
	cache         *parseCache
	log           *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the handler the Resolver logs to.
func WithLogger(h slog.Handler) Option {
	return func(r *Resolver) {
		r.log = slog.New(h)
	}
}

// WithContentReader sets how project files are read. Library files are read with
// the same reader unless WithLibraryContentReader is given.
func WithContentReader(read vcs.ContentReader) Option {
	return func(r *Resolver) {
		r.read = read
	}
}

// WithLibraryContentReader sets how installed library files are read.
func WithLibraryContentReader(read vcs.ContentReader) Option {
	return func(r *Resolver) {
		r.readLibrary = read
	}
}

// WithFileLister sets how the sources directory is listed.
func WithFileLister(list vcs.FileLister) Option {
	return func(r *Resolver) {
		r.list = list
	}
}

// WithFs reads and lists every file through fsys.
func WithFs(fsys afero.Fs) Option {
	return func(r *Resolver) {
		r.read = vcs.FilesystemContentReader(fsys)
		r.list = vcs.FilesystemFileLister(fsys)
	}
}

// WithSourcesDir overrides DefaultSourcesDir.
func WithSourcesDir(dir string) Option {
	return func(r *Resolver) {
		if dir != "" {
			r.sourcesDir = dir
		}
	}
}

// WithLibrariesDir overrides DefaultLibrariesDir.
func WithLibrariesDir(dir string) Option {
	return func(r *Resolver) {
		if dir != "" {
			r.librariesDir = dir
		}
	}
}

// WithExclude drops sources matching any of the doublestar patterns from
// GetSourcePaths. Patterns are matched against paths relative to the sources dir.
func WithExclude(patterns ...string) Option {
	return func(r *Resolver) {
		for _, pattern := range patterns {
			if pattern = strings.TrimSpace(pattern); pattern != "" {
				r.exclude = append(r.exclude, pattern)
			}
		}
	}
}

// WithParseCacheSize sets how many parsed files are remembered between graph builds.
func WithParseCacheSize(size int) Option {
	return func(r *Resolver) {
		r.parseCacheLen = size
	}
}

// NewResolver returns a Resolver for the project at root. By default files are read
// from the operating system's filesystem.
func NewResolver(root string, opts ...Option) (*Resolver, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	r := &Resolver{
		root:          resolveSymlinks(absRoot),
		sourcesDir:    DefaultSourcesDir,
		librariesDir:  DefaultLibrariesDir,
		parseCacheLen: defaultParseCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.read == nil || r.list == nil {
		osFs := afero.NewOsFs()
		if r.read == nil {
			r.read = vcs.FilesystemContentReader(osFs)
		}
		if r.list == nil {
			r.list = vcs.FilesystemFileLister(osFs)
		}
	}
	if r.readLibrary == nil {
		r.readLibrary = r.read
	}
	if r.log == nil {
		r.log = logging.NopLogger()
	}

	for _, pattern := range r.exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	if r.cache, err = newParseCache(r.parseCacheLen); err != nil {
		return nil, fmt.Errorf("failed to create parse cache: %w", err)
	}

	return r, nil
}

// SourcesPath returns the absolute sources directory.
func (r *Resolver) SourcesPath() string {
	return filepath.Join(r.root, filepath.FromSlash(r.sourcesDir))
}

// LibrariesPath returns the absolute libraries directory.
func (r *Resolver) LibrariesPath() string {
	return filepath.Join(r.root, filepath.FromSlash(r.librariesDir))
}

// GetSourcePaths returns the absolute paths of all project sources, sorted.
func (r *Resolver) GetSourcePaths() ([]string, error) {
	sourcesPath := r.SourcesPath()

	files, err := r.list(sourcesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	var paths []string
	for _, file := range files {
		if filepath.Ext(file) != sourceFileExtension {
			continue
		}

		rel, err := filepath.Rel(sourcesPath, file)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", file, err)
		}
		if r.isExcluded(filepath.ToSlash(rel)) {
			r.log.Debug("Excluding source", "path", file)
			continue
		}

		paths = append(paths, file)
	}

	sort.Strings(paths)
	return paths, nil
}

func (r *Resolver) isExcluded(relPath string) bool {
	for _, pattern := range r.exclude {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// GetSourceNames converts file paths into source names. Relative paths are taken
// relative to the working directory.
func (r *Resolver) GetSourceNames(paths []string) ([]string, error) {
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", p, err)
		}
		absPath = resolveSymlinks(absPath)

		rel, err := filepath.Rel(r.root, absPath)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: %s", ErrOutsideProject, p)
		}

		names = append(names, filepath.ToSlash(rel))
	}
	return deduplicatePaths(names), nil
}

// GetDependencyGraph resolves sourceNames and every file they transitively import.
func (r *Resolver) GetDependencyGraph(sourceNames []string) (*DependencyGraph, error) {
	resolution := &graphResolution{
		resolver:     r,
		files:        make(map[string]*ResolvedFile),
		dependencies: make(map[string][]string),
		libraries:    make(map[string]*LibraryInfo),
	}

	var queue []*ResolvedFile
	for _, name := range sourceNames {
		if _, ok := resolution.files[name]; ok {
			continue
		}
		file, err := resolution.resolve(name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", name, err)
		}
		queue = append(queue, file)
	}

	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]

		for _, importPath := range file.Content.Imports {
			depName, err := solidity.ResolveImportPath(file.SourceName, importPath)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve import %q in %s: %w", importPath, file.SourceName, err)
			}

			if _, ok := resolution.files[depName]; !ok {
				dep, err := resolution.resolve(depName)
				if err != nil {
					return nil, fmt.Errorf("failed to resolve import %q in %s: %w", importPath, file.SourceName, err)
				}
				queue = append(queue, dep)
			}

			resolution.dependencies[file.SourceName] = append(resolution.dependencies[file.SourceName], depName)
		}
	}

	files := make([]*ResolvedFile, 0, len(resolution.files))
	for _, file := range resolution.files {
		files = append(files, file)
	}

	graph, err := NewDependencyGraph(files, resolution.dependencies)
	if err != nil {
		return nil, err
	}

	r.log.Debug("Resolved dependency graph", "roots", len(sourceNames), "files", graph.Len(), "edges", graph.EdgeCount())
	return graph, nil
}

// graphResolution holds the state of a single GetDependencyGraph call.
type graphResolution struct {
	resolver     *Resolver
	files        map[string]*ResolvedFile
	dependencies map[string][]string
	libraries    map[string]*LibraryInfo
}

func (g *graphResolution) resolve(sourceName string) (*ResolvedFile, error) {
	r := g.resolver

	if sourceName != path.Clean(sourceName) || path.IsAbs(sourceName) || strings.HasPrefix(sourceName, "../") {
		return nil, fmt.Errorf("%w: invalid source name %q", ErrSourceNotFound, sourceName)
	}

	var file *ResolvedFile
	localPath := filepath.Join(r.root, filepath.FromSlash(sourceName))
	content, err := r.read(localPath)
	switch {
	case err == nil:
		file = &ResolvedFile{
			SourceName:   sourceName,
			AbsolutePath: localPath,
			Content:      FileContent{RawContent: string(content)},
		}
	case errors.Is(err, fs.ErrNotExist):
		if file, err = g.resolveLibraryFile(sourceName); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	imports, err := r.cache.parseImports([]byte(file.Content.RawContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse imports in %s: %w", sourceName, err)
	}
	file.Content.Imports = imports

	r.log.Debug("Resolved source", "sourceName", sourceName, "imports", len(imports))
	g.files[sourceName] = file
	return file, nil
}

func (g *graphResolution) resolveLibraryFile(sourceName string) (*ResolvedFile, error) {
	r := g.resolver

	libraryName, ok := solidity.LibraryName(sourceName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceName)
	}

	libraryPath := filepath.Join(r.LibrariesPath(), filepath.FromSlash(sourceName))
	content, err := r.readLibrary(libraryPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", libraryPath, err)
	}

	library, ok := g.libraries[libraryName]
	if !ok {
		library, err = readLibraryInfo(r.LibrariesPath(), libraryName, r.readLibrary)
		if err != nil {
			return nil, err
		}
		g.libraries[libraryName] = library
	}

	return &ResolvedFile{
		SourceName:   sourceName,
		AbsolutePath: libraryPath,
		Content:      FileContent{RawContent: string(content)},
		Library:      library,
	}, nil
}

func resolveSymlinks(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return resolved
}

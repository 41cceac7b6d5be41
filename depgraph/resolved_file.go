package depgraph

// ResolvedFile is a source file located and read by the Resolver.
type ResolvedFile struct {
	// SourceName is the project-relative, forward-slash name of the file and its
	// unique key. Library files are named by their import path.
	SourceName   string
	AbsolutePath string
	Content      FileContent
	// Library is nil for project files.
	Library *LibraryInfo
}

// FileContent holds the raw text of a file and the import paths found in it.
type FileContent struct {
	RawContent string
	Imports    []string
}

// LibraryInfo identifies the installed package a library file belongs to.
type LibraryInfo struct {
	Name    string
	Version string
}

// VersionedName returns the display name of the file: its source name, suffixed
// with @v<version> for library files.
func (f *ResolvedFile) VersionedName() string {
	if f.Library == nil {
		return f.SourceName
	}
	return f.SourceName + "@v" + f.Library.Version
}

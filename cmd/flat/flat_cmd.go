package flat

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"github.com/PillarGame/TokenSales/depgraph"
	"github.com/PillarGame/TokenSales/flatten"
	"github.com/PillarGame/TokenSales/internal/cmdutil"
	"github.com/PillarGame/TokenSales/vcs"
	"github.com/PillarGame/TokenSales/vcs/git"
)

type flatOptions struct {
	output string
	root   string
	commit string
	watch  bool
}

// NewCommand returns a new flat command instance.
func NewCommand() *cobra.Command {
	opts := &flatOptions{}

	cmd := &cobra.Command{
		Use:   "flat [files...]",
		Short: "Flatten contracts and their dependencies into a single file",
		Long: heredoc.Doc(`
			Resolves the given source files and everything they import, orders them so
			that every file follows its dependencies and concatenates them into one
			source with import statements removed.

			License identifiers are merged into a single MIXED declaration and repeated
			pragmas are kept only once. Without files, every source of the project is
			flattened.
		`),
		Example: heredoc.Doc(`
			tokensales flat
			tokensales flat contracts/Token.sol
			tokensales flat contracts/Token.sol --output Flattened.sol
			tokensales flat --commit 8d4f78 contracts/Token.sol
			tokensales flat --watch --output Flattened.sol
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlat(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the flattened source to this file instead of stdout")
	cmd.Flags().StringVarP(&opts.root, "root", "r", "", "Project root (default: current directory)")
	cmd.Flags().StringVarP(&opts.commit, "commit", "c", "", "Flatten sources as of this git commit")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Flatten again whenever a source changes (requires --output)")

	return cmd
}

func runFlat(cmd *cobra.Command, args []string, opts *flatOptions) error {
	if opts.watch && opts.output == "" {
		return fmt.Errorf("--watch requires --output")
	}
	if opts.watch && opts.commit != "" {
		return fmt.Errorf("--watch cannot be used with --commit")
	}

	project, err := cmdutil.LoadProject(cmd, opts.root)
	if err != nil {
		return err
	}

	files, err := resolveFiles(project.Root, args)
	if err != nil {
		return err
	}

	outputPath := ""
	if opts.output != "" {
		if outputPath, err = filepath.Abs(opts.output); err != nil {
			return fmt.Errorf("failed to resolve output path: %w", err)
		}
		outputPath = resolveSymlinks(outputPath)
	}

	resolver, err := newResolver(cmd, project, opts.commit)
	if err != nil {
		return err
	}
	flattener := flatten.New(resolver, flatten.WithLogger(cmdutil.LogHandler(cmd)))

	if opts.watch {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		w := &flatWatcher{
			flattener:  flattener,
			files:      files,
			outputPath: outputPath,
			dirs:       []string{resolver.SourcesPath(), resolver.LibrariesPath()},
			status:     cmd.ErrOrStderr(),
		}
		return w.run(ctx)
	}

	flattened, err := flattener.Flatten(files, outputPath)
	if err != nil {
		return fmt.Errorf("failed to flatten: %w", err)
	}
	if flattened != "" {
		fmt.Fprintln(cmd.OutOrStdout(), flattened)
	}
	return nil
}

func resolveFiles(root string, args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, nil
	}

	pathResolver, err := NewPathResolver(root)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(args))
	for _, arg := range args {
		path, err := pathResolver.Resolve(RawPath(arg))
		if err != nil {
			return nil, err
		}
		files = append(files, path.String())
	}
	return files, nil
}

// newResolver reads project sources from the working tree, or from commitID when
// set. Libraries always come from the working tree.
func newResolver(cmd *cobra.Command, project *cmdutil.Project, commitID string) (*depgraph.Resolver, error) {
	opts := []depgraph.Option{
		depgraph.WithLogger(cmdutil.LogHandler(cmd)),
		depgraph.WithSourcesDir(project.Config.Paths.Sources),
		depgraph.WithLibrariesDir(project.Config.Paths.Libraries),
		depgraph.WithExclude(project.Config.Flatten.Exclude...),
	}

	if commitID != "" {
		commit, err := git.OpenCommit(project.Root, commitID)
		if err != nil {
			return nil, err
		}
		if shortID, err := commit.ShortID(); err == nil {
			slog.New(cmdutil.LogHandler(cmd)).Info("Reading sources at commit", "commit", shortID)
		}
		opts = append(opts,
			depgraph.WithContentReader(commit.ContentReader()),
			depgraph.WithFileLister(commit.FileLister()),
			depgraph.WithLibraryContentReader(vcs.FilesystemContentReader(afero.NewOsFs())),
		)
	}

	resolver, err := depgraph.NewResolver(project.Root, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}
	return resolver, nil
}

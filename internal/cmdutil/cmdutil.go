// Package cmdutil holds what the subcommands share: the global flags and the
// project they operate on.
package cmdutil

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"github.com/PillarGame/TokenSales/config"
	"github.com/PillarGame/TokenSales/internal/logging"
)

const (
	// ConfigFlag names the persistent flag overriding the configuration file.
	ConfigFlag = "config"
	// VerboseFlag names the persistent flag enabling debug logs.
	VerboseFlag = "verbose"
)

// ConfigPath returns the value of the inherited --config flag, or "" if the
// command has no such flag.
func ConfigPath(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup(ConfigFlag); f != nil {
		return f.Value.String()
	}
	return ""
}

// Verbose reports whether the inherited --verbose flag is set.
func Verbose(cmd *cobra.Command) bool {
	f := cmd.Flags().Lookup(VerboseFlag)
	return f != nil && f.Value.String() == "true"
}

// LogHandler returns the handler commands log to, writing to the command's stderr.
func LogHandler(cmd *cobra.Command) slog.Handler {
	return logging.NewCLIHandler(cmd.ErrOrStderr(), Verbose(cmd))
}

// Project is the project a command operates on.
type Project struct {
	// Root is the absolute project root with symlinks resolved.
	Root   string
	Config *config.Config
}

// LoadProject resolves root, "." if empty, and loads its configuration.
func LoadProject(cmd *cobra.Command, root string) (*Project, error) {
	if root == "" {
		root = "."
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}

	exists, err := afero.DirExists(afero.NewOsFs(), absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to access project root: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("project root does not exist: %s", absRoot)
	}

	cfg, err := config.Load(absRoot, ConfigPath(cmd), config.WithLogger(LogHandler(cmd)))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &Project{Root: absRoot, Config: cfg}, nil
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/PillarGame/TokenSales/cmd/flat"
	"github.com/PillarGame/TokenSales/cmd/networks"
	"github.com/PillarGame/TokenSales/internal/cmdutil"
)

// version is set via build-time ldflags
var version = "dev"

// buildDate is set via build-time ldflags
var buildDate = "unknown"

// commit is set via build-time ldflags
var commit = "unknown"

// rootCmd represents the base command when called without any subcommands
var rootCmd = NewRootCommand()

// NewRootCommand returns the tokensales command with every subcommand registered.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokensales",
		Short: "Build tooling for the token sale contracts",
		Long: `tokensales works on a Solidity project laid out with contracts/ sources and
node_modules/ libraries. It flattens contracts and their imports into a single
source for verification and lists the networks the project deploys to.

Use 'tokensales <command> --help' for detailed information about a command.`,
		Version:      version,
		SilenceUsage: true,
		Annotations: map[string]string{
			"buildDate": buildDate,
			"commit":    commit,
		},
	}

	cmd.AddCommand(flat.NewCommand())
	cmd.AddCommand(networks.NewCommand())

	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
Build date: {{printf "%s" (index .Annotations "buildDate")}}
Commit: {{printf "%s" (index .Annotations "commit")}}
`)

	cmd.PersistentFlags().String(cmdutil.ConfigFlag, "", "Configuration file (default: <root>/tokensales.yaml)")
	cmd.PersistentFlags().BoolP(cmdutil.VerboseFlag, "v", false, "Log debug output to stderr")

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

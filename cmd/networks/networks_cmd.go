package networks

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/PillarGame/TokenSales/config"
	"github.com/PillarGame/TokenSales/internal/cmdutil"
)

type networksOptions struct {
	root string
}

// NewCommand returns a new networks command instance.
func NewCommand() *cobra.Command {
	opts := &networksOptions{}

	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List the networks configured for the project",
		Long: `List every network of the project configuration with its chain id and RPC URL.
API keys in URLs are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := cmdutil.LoadProject(cmd, opts.root)
			if err != nil {
				return err
			}
			return printNetworks(cmd.OutOrStdout(), project.Config)
		},
	}

	cmd.Flags().StringVarP(&opts.root, "root", "r", "", "Project root (default: current directory)")

	return cmd
}

func printNetworks(out io.Writer, cfg *config.Config) error {
	names := cfg.NetworkNames()
	if len(names) == 0 {
		fmt.Fprintln(out, "No networks configured")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCHAIN ID\tLIVE\tURL\tTAGS")
	for _, name := range names {
		network := cfg.Networks[name]

		chainID := "-"
		if network.ChainID != nil {
			chainID = strconv.FormatInt(*network.ChainID, 10)
		}
		tags := "-"
		if len(network.Tags) > 0 {
			tags = strings.Join(network.Tags, ",")
		}

		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", name, chainID, network.Live, redactURL(network.URL), tags)
	}
	return w.Flush()
}

// redactURL hides user info and anything after a /v2/ path segment, where RPC
// providers put API keys.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	hasUser := u.User != nil
	u.User = nil
	if i := strings.Index(u.Path, "/v2/"); i >= 0 && len(u.Path) > i+len("/v2/") {
		u.Path = u.Path[:i+len("/v2/")] + "***"
		u.RawPath = u.Path
	}
	u.RawQuery = ""

	redacted := u.String()
	if hasUser {
		redacted = strings.Replace(redacted, "://", "://***@", 1)
	}
	return redacted
}

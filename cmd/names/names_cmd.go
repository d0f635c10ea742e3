package names

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/LegacyCodeHQ/unstar/analysis"
	"github.com/LegacyCodeHQ/unstar/internal/project"
	"github.com/LegacyCodeHQ/unstar/namespace"
)

// Cmd represents the names command
var Cmd = NewCommand()

// NewCommand returns a new names command instance.
func NewCommand() *cobra.Command {
	opts := &project.Options{}

	cmd := &cobra.Command{
		Use:   "names <module>",
		Short: "Show the names a wildcard import of a module would bind",
		Long: `Show the names "from <module> import *" binds, in order, with where each
name comes from: declared in the module, listed in __all__, or inherited
through one of the module's own wildcard imports.

Examples:
  unstar names pkg.models
  unstar names utils --root ./src`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNames(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Root, "root", "r", "", "Source root (default: current directory)")
	cmd.Flags().StringSliceVarP(&opts.SearchPath, "search-path", "p", nil, "Additional module search directories (repeatable)")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Config file (default: <root>/.unstar.toml)")
	cmd.Flags().StringVarP(&opts.Commit, "commit", "c", "", "Git commit to read modules from")

	return cmd
}

func runNames(cmd *cobra.Command, opts *project.Options, module string) error {
	p, err := project.Open(*opts)
	if err != nil {
		return err
	}

	snapshot, err := analysis.New(p.Analysis).Namespaces().ResolveName(module)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", snapshot.Module.Name, p.DisplayPath(snapshot.Module.Path))
	if snapshot.HasAll {
		fmt.Fprintln(cmd.OutOrStdout(), "Names come from __all__.")
	}
	for _, issue := range snapshot.Issues {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %v\n", issue)
	}
	if len(snapshot.Names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No public names.")
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), formatNames(snapshot))
	return nil
}

func formatNames(snapshot *namespace.Snapshot) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Name", "Provenance", "Origin"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, n := range snapshot.Names {
		table.Append([]string{n.Name, n.Provenance.String(), n.Origin})
	}

	table.Render()
	return tableBuffer.String()
}

package graph

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/LegacyCodeHQ/unstar/analysis"
	"github.com/LegacyCodeHQ/unstar/cmd/graph/formatters"
	"github.com/LegacyCodeHQ/unstar/internal/project"
)

type graphOptions struct {
	project.Options
	outputFormat string
	label        string
}

// Cmd represents the graph command
var Cmd = NewCommand()

// NewCommand returns a new graph command instance.
func NewCommand() *cobra.Command {
	opts := &graphOptions{
		outputFormat: formatters.OutputFormatDOT.String(),
	}

	cmd := &cobra.Command{
		Use:   "graph [root]",
		Short: "Show which modules wildcard-import which",
		Long: `Show the graph of "from module import *" statements between the modules of a
source tree. Modules that wildcard-import each other in a cycle are
highlighted; their wildcards cannot be resolved.

Examples:
  unstar graph                         # DOT output for the current directory
  unstar graph ./src -f mermaid
  unstar graph -c HEAD -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Root = args[0]
			}
			return runGraph(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(
		&opts.outputFormat,
		"format",
		"f",
		opts.outputFormat,
		fmt.Sprintf("Output format (%s)", formatters.SupportedFormats()))
	cmd.Flags().StringVarP(&opts.label, "label", "l", "", "Graph title (default: root directory name)")
	cmd.Flags().StringSliceVarP(&opts.SearchPath, "search-path", "p", nil, "Additional module search directories (repeatable)")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Config file (default: <root>/.unstar.toml)")
	cmd.Flags().StringVarP(&opts.Commit, "commit", "c", "", "Git commit to analyze instead of the working tree")

	return cmd
}

func runGraph(cmd *cobra.Command, opts *graphOptions) error {
	formatter, err := formatters.NewFormatter(opts.outputFormat)
	if err != nil {
		return err
	}

	p, err := project.Open(opts.Options)
	if err != nil {
		return err
	}
	files, err := p.Files()
	if err != nil {
		return err
	}

	reports, err := analysis.New(p.Analysis).Run(cmd.Context(), files)
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", p.Root, err)
	}
	g, err := analysis.WildcardGraph(reports)
	if err != nil {
		return fmt.Errorf("failed to build wildcard graph: %w", err)
	}

	label := opts.label
	if label == "" {
		label = filepath.Base(p.Root)
		if p.FromCommit() {
			label = fmt.Sprintf("%s • %s", label, opts.Commit)
		}
	}

	output, err := formatter.Format(g, formatters.FormatOptions{Label: label})
	if err != nil {
		return fmt.Errorf("failed to format graph: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

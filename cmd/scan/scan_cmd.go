package scan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LegacyCodeHQ/unstar/analysis"
	"github.com/LegacyCodeHQ/unstar/internal/project"
	"github.com/LegacyCodeHQ/unstar/report"
)

type scanOptions struct {
	project.Options
	outputFormat string
	edit         bool
	quiet        bool
}

// Cmd represents the scan command
var Cmd = NewCommand()

// NewCommand returns a new scan command instance.
func NewCommand() *cobra.Command {
	opts := &scanOptions{
		outputFormat: report.OutputFormatText.String(),
	}

	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Report or rewrite the wildcard imports of a source tree",
		Long: `Scan every Python file under root (default: current directory) and work out
which names each "from module import *" supplies that the file uses.

By default the replacements are only printed. Use -e to rewrite the files.

Examples:
  unstar scan                         # dry run over the current directory
  unstar scan ./src -e                # rewrite files under ./src
  unstar scan -p ./vendor             # also look for modules in ./vendor
  unstar scan -c HEAD~3               # analyze a commit without checking it out
  unstar scan --changed -e            # rewrite only files with uncommitted changes
  unstar scan -f json                 # machine-readable report`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Root = args[0]
			}
			return runScan(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.edit, "edit", "e", false, "Rewrite the files in place")
	cmd.Flags().StringSliceVarP(&opts.SearchPath, "search-path", "p", nil, "Additional module search directories (repeatable)")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Config file (default: <root>/.unstar.toml)")
	cmd.Flags().StringVarP(&opts.Commit, "commit", "c", "", "Git commit to analyze instead of the working tree")
	cmd.Flags().BoolVar(&opts.Changed, "changed", false, "Only scan Python files with uncommitted git changes")
	cmd.Flags().IntVar(&opts.LineLength, "line-length", 0, "Wrap replacement imports longer than this (default from config, 79)")
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", opts.outputFormat,
		fmt.Sprintf("Output format (%s)", report.SupportedFormats()))
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Omit the summary table")

	return cmd
}

func runScan(cmd *cobra.Command, opts *scanOptions) error {
	if opts.edit && opts.Commit != "" {
		return fmt.Errorf("--edit cannot be used with --commit")
	}

	formatter, err := report.NewFormatter(opts.outputFormat)
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

	analyzer := analysis.New(p.Analysis)
	reports, err := analyzer.Run(cmd.Context(), files)
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", p.Root, err)
	}

	output, err := formatter.Format(reports, report.Options{Root: p.Root, Quiet: opts.quiet})
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), output)

	if !opts.edit {
		return nil
	}
	// Keep stdout parseable when it carries JSON.
	out := cmd.OutOrStdout()
	if opts.outputFormat == report.OutputFormatJSON.String() {
		out = cmd.ErrOrStderr()
	}
	written, err := analyzer.WriteEdits(reports)
	for _, path := range written {
		fmt.Fprintf(out, "Edited %s\n", p.DisplayPath(path))
	}
	return err
}

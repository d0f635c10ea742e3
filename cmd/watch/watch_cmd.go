package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LegacyCodeHQ/unstar/analysis"
	"github.com/LegacyCodeHQ/unstar/internal/project"
	"github.com/LegacyCodeHQ/unstar/report"
)

// Cmd represents the watch command.
var Cmd = NewCommand()

// NewCommand returns a new watch command instance.
func NewCommand() *cobra.Command {
	opts := &project.Options{}

	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Re-run the dry-run report whenever a Python file changes",
		Long: `Watch a source tree and print the wildcard report again each time a .py
file is written, created, removed or renamed. Files are never edited.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Root = args[0]
			}
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.SearchPath, "search-path", "p", nil, "Additional module search directories (repeatable)")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Config file (default: <root>/.unstar.toml)")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *project.Options) error {
	p, err := project.Open(*opts)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	var mu sync.Mutex
	rescan := func() {
		mu.Lock()
		defer mu.Unlock()
		if err := scanOnce(ctx, p, out); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "rescan error: %v\n", err)
		}
	}

	if err := scanOnce(ctx, p, out); err != nil {
		return fmt.Errorf("initial scan failed: %w", err)
	}

	fmt.Fprintf(out, "Watching %s\n", p.Root)
	fmt.Fprintf(out, "Press Ctrl+C to stop\n")

	return watchAndRescan(ctx, p.Root, p.Filter, p.Config.Watch.Debounce, rescan)
}

// scanOnce analyzes the tree with fresh caches and prints the text report.
func scanOnce(ctx context.Context, p *project.Project, out io.Writer) error {
	files, err := p.Files()
	if err != nil {
		return err
	}
	reports, err := analysis.New(p.Analysis).Run(ctx, files)
	if err != nil {
		return err
	}
	output, err := (&report.TextFormatter{}).Format(reports, report.Options{Root: p.Root})
	if err != nil {
		return err
	}
	fmt.Fprint(out, output)
	return nil
}

// Package analysis runs wildcard resolution and edit planning over a set of
// discovered Python files.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/LegacyCodeHQ/unstar/editplan"
	"github.com/LegacyCodeHQ/unstar/internal/walker"
	"github.com/LegacyCodeHQ/unstar/namespace"
	"github.com/LegacyCodeHQ/unstar/pyast"
	"github.com/LegacyCodeHQ/unstar/pymodule"
	"github.com/LegacyCodeHQ/unstar/vcs"
	"github.com/LegacyCodeHQ/unstar/wildcard"
)

// Options configures an Analyzer.
type Options struct {
	// SearchPath lists the module search directories in order.
	SearchPath []string
	LineLength int
	// Concurrency bounds the number of files parsed at once. Zero means
	// GOMAXPROCS.
	Concurrency int
	// Read and Exists default to the working tree.
	Read   vcs.ContentReader
	Exists pymodule.FileExists
}

// FileReport is the analysis of one file.
type FileReport struct {
	Path     string
	Module   pymodule.Ref
	Source   []byte
	Outcomes []wildcard.Outcome
	Plan     editplan.Plan
	// Err is set when the file could not be read or parsed. Such files are
	// skipped and carry no outcomes.
	Err error
}

// Skipped reports whether the file was left out of the analysis.
func (r FileReport) Skipped() bool {
	return r.Err != nil
}

// Edited returns the file's source with its plan applied.
func (r FileReport) Edited() ([]byte, error) {
	return editplan.Apply(r.Source, r.Plan)
}

// Analyzer owns the per-run parse and namespace caches.
type Analyzer struct {
	opts       Options
	cache      *pyast.Cache
	namespaces *namespace.Resolver
	sites      *wildcard.Resolver
}

// New creates an Analyzer. Each Analyzer sees the files as they were when
// first read; create a new one to pick up changes.
func New(opts Options) *Analyzer {
	if opts.Read == nil {
		opts.Read = vcs.FilesystemContentReader()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}

	cache := pyast.NewCache(opts.Read)
	namespaces := namespace.NewResolver(pymodule.NewLocator(opts.SearchPath, opts.Exists), cache)
	return &Analyzer{
		opts:       opts,
		cache:      cache,
		namespaces: namespaces,
		sites:      wildcard.NewResolver(namespaces),
	}
}

// Namespaces returns the namespace resolver shared by every file of the run.
func (a *Analyzer) Namespaces() *namespace.Resolver {
	return a.namespaces
}

// Run analyzes files and returns one report per file, in the order given.
// Files are parsed in parallel; resolution runs sequentially so that the
// results do not depend on scheduling.
//
// A wildcard import keeps every name that the other files take from its
// module, whether through explicit imports, attribute reads or their own
// wildcard imports. Those reads can grow as files are resolved, so
// resolution repeats until no module's demand changes.
func (a *Analyzer) Run(ctx context.Context, files []walker.File) ([]FileReport, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, _ = a.cache.Load(file.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reports := make([]FileReport, len(files))
	trees := make([]*pyast.Module, len(files))
	demand := make(demands)
	for i, file := range files {
		reports[i] = FileReport{Path: file.Path, Module: file.Module}
		tree, err := a.cache.Load(file.Path)
		if err != nil {
			slog.Warn("skipping file", "path", file.Path, "error", err)
			reports[i].Err = err
			continue
		}
		trees[i] = tree
		reports[i].Source = tree.Source
		demand.addImports(file.Module, tree)
		a.addExports(demand, file.Module)
	}

	for changed := true; changed; {
		changed = false
		for i, file := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if trees[i] == nil {
				continue
			}
			reports[i].Outcomes = a.sites.ResolveDemanded(file.Module, trees[i], demand[file.Module.Name])
			changed = demand.addOutcomes(reports[i].Outcomes) || changed
		}
	}

	for i := range reports {
		if trees[i] == nil {
			continue
		}
		a.plan(&reports[i])
	}
	return reports, nil
}

// addExports records a module's static __all__ as read from the module
// itself, since "from m import *" elsewhere binds exactly those names.
func (a *Analyzer) addExports(demand demands, module pymodule.Ref) {
	if module.Name == "" {
		return
	}
	snapshot, err := a.namespaces.Resolve(module)
	if err != nil || !snapshot.HasAll {
		return
	}
	for _, name := range snapshot.NameList() {
		demand.add(module.Name, name)
	}
}

func (a *Analyzer) plan(report *FileReport) {
	for _, outcome := range report.Outcomes {
		if !outcome.Result.IsResolved() {
			slog.Debug("wildcard left unresolved",
				"path", report.Path, "line", outcome.Site.Line(), "reason", outcome.Result.Err)
		}
	}
	report.Plan = editplan.NewPlan(report.Path, report.Source, report.Outcomes,
		editplan.Options{LineLength: a.opts.LineLength})
}

// WriteEdits applies every non-empty plan and writes the file in place,
// keeping its permissions. It returns the paths it changed.
func (a *Analyzer) WriteEdits(reports []FileReport) ([]string, error) {
	var written []string
	for _, report := range reports {
		if report.Skipped() || report.Plan.IsEmpty() {
			continue
		}

		edited, err := report.Edited()
		if err != nil {
			return written, fmt.Errorf("failed to edit %s: %w", report.Path, err)
		}
		info, err := os.Stat(report.Path)
		if err != nil {
			return written, fmt.Errorf("failed to edit %s: %w", report.Path, err)
		}
		if err := os.WriteFile(report.Path, edited, info.Mode().Perm()); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", report.Path, err)
		}
		a.cache.Forget(report.Path)
		written = append(written, report.Path)
	}
	return written, nil
}

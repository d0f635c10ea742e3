// Package project gathers what the commands need to analyze a source tree:
// its root, configuration, module search path and file source.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LegacyCodeHQ/unstar/analysis"
	"github.com/LegacyCodeHQ/unstar/internal/config"
	"github.com/LegacyCodeHQ/unstar/internal/walker"
	"github.com/LegacyCodeHQ/unstar/vcs/git"
)

// Options are the command-line inputs shared by the commands.
type Options struct {
	Root       string
	ConfigPath string
	SearchPath []string
	// Commit reads files from a git commit instead of the working tree.
	Commit string
	// Changed limits the files to those with uncommitted git changes.
	Changed bool
	// LineLength overrides the configured wrap width when positive.
	LineLength int
}

// Project is an opened source tree.
type Project struct {
	Root     string
	Config   *config.Config
	Filter   *walker.Filter
	Analysis analysis.Options

	snapshot *git.CommitSnapshot
	changed  bool
}

// Open resolves the root, loads the config and, with a commit, lists the
// commit's tree.
func Open(opts Options) (*Project, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", absRoot)
	}

	cfg, err := config.LoadOrDefault(absRoot, opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	filter, err := walker.NewFilter(cfg.Exclude.Dirs, cfg.Exclude.Files)
	if err != nil {
		return nil, err
	}

	if opts.Commit != "" && opts.Changed {
		return nil, fmt.Errorf("--changed cannot be used with --commit")
	}

	p := &Project{Root: absRoot, Config: cfg, Filter: filter, changed: opts.Changed}

	if opts.Commit != "" || opts.Changed {
		// git reports paths with symlinks resolved.
		if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
			p.Root = resolved
		}
	}
	if opts.Commit != "" {
		snapshot, err := git.OpenCommit(p.Root, opts.Commit)
		if err != nil {
			return nil, fmt.Errorf("failed to read commit %s: %w", opts.Commit, err)
		}
		p.snapshot = snapshot
		p.Analysis.Read = snapshot.ContentReader()
		p.Analysis.Exists = snapshot.FileExists
	}

	p.Analysis.SearchPath = cfg.ModuleSearchPath(p.Root, opts.SearchPath)
	p.Analysis.LineLength = cfg.LineLength
	if opts.LineLength > 0 {
		p.Analysis.LineLength = opts.LineLength
	}
	return p, nil
}

// FromCommit reports whether files come from a git commit.
func (p *Project) FromCommit() bool {
	return p.snapshot != nil
}

// Files lists the Python files to analyze, sorted by path.
func (p *Project) Files() ([]walker.File, error) {
	if p.snapshot != nil {
		return walker.Select(p.Root, p.snapshot.PythonFiles(), p.Filter), nil
	}
	if p.changed {
		paths, err := git.GetUncommittedPythonFiles(p.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to list uncommitted files: %w", err)
		}
		return walker.Select(p.Root, paths, p.Filter), nil
	}
	return walker.Walk(p.Root, p.Filter)
}

// DisplayPath returns path relative to the root when it lies inside it.
func (p *Project) DisplayPath(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

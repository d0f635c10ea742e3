// Package walker discovers the Python files of a source tree.
package walker

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/LegacyCodeHQ/unstar/pymodule"
)

// File is one discovered source file.
type File struct {
	Path string
	// Module is the file's dotted module relative to the root. Its Name is
	// empty for files that are not importable, such as "my-script.py".
	Module pymodule.Ref
}

// Filter matches directory and file base names against exclude globs.
type Filter struct {
	dirs  []glob.Glob
	files []glob.Glob
}

// NewFilter compiles the exclude patterns.
func NewFilter(excludeDirs, excludeFiles []string) (*Filter, error) {
	dirGlobs, err := compileAll(excludeDirs, "dir")
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileAll(excludeFiles, "file")
	if err != nil {
		return nil, err
	}
	return &Filter{dirs: dirGlobs, files: fileGlobs}, nil
}

func compileAll(patterns []string, kind string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude %s pattern %q: %w", kind, p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// SkipDir reports whether a directory with this base name is excluded.
func (f *Filter) SkipDir(name string) bool {
	return matchAny(f.dirs, name)
}

// SkipFile reports whether a file with this base name is excluded.
func (f *Filter) SkipFile(name string) bool {
	return matchAny(f.files, name)
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Walk returns the .py files under root that the filter keeps, sorted by path.
func Walk(root string, filter *Filter) ([]File, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && filter.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".py" || filter.SkipFile(d.Name()) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files(root, paths), nil
}

// Select applies the filter to paths that were listed rather than walked,
// such as the tree of a git commit. Every directory between root and the
// file is checked.
func Select(root string, paths []string, filter *Filter) []File {
	var kept []string
	for _, path := range paths {
		if filepath.Ext(path) != ".py" || filter.SkipFile(filepath.Base(path)) {
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if excludedDir(filepath.Dir(rel), filter) {
			continue
		}
		kept = append(kept, path)
	}
	return files(root, kept)
}

func excludedDir(rel string, filter *Filter) bool {
	if rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if filter.SkipDir(part) {
			return true
		}
	}
	return false
}

func files(root string, paths []string) []File {
	sort.Strings(paths)
	result := make([]File, 0, len(paths))
	for _, path := range paths {
		ref, ok := pymodule.ModuleNameForPath(root, path)
		if !ok {
			ref = pymodule.Ref{Path: path}
		}
		result = append(result, File{Path: path, Module: ref})
	}
	return result
}

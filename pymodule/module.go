// Package pymodule maps dotted Python module names to source files along an
// ordered search path.
package pymodule

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrModuleNotFound is returned when no search path entry holds the module.
	ErrModuleNotFound = errors.New("module not found")
	// ErrRelativeBeyondTop is returned for relative imports that climb above
	// the top-level package.
	ErrRelativeBeyondTop = errors.New("attempted relative import beyond top-level package")
)

// Ref identifies a located module.
type Ref struct {
	Name      string
	Path      string
	IsPackage bool
}

// Package returns the dotted package that relative imports in this module
// are resolved against.
func (r Ref) Package() string {
	if r.IsPackage {
		return r.Name
	}
	if i := strings.LastIndexByte(r.Name, '.'); i >= 0 {
		return r.Name[:i]
	}
	return ""
}

func (r Ref) String() string {
	return r.Name
}

// FileExists reports whether a regular file exists at path.
type FileExists func(path string) bool

// FilesystemFileExists checks the working tree.
func FilesystemFileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Locator finds module files on a search path.
type Locator struct {
	searchPath []string
	exists     FileExists
}

// NewLocator returns a Locator that searches the given directories in order.
func NewLocator(searchPath []string, exists FileExists) *Locator {
	if exists == nil {
		exists = FilesystemFileExists
	}
	seen := make(map[string]bool)
	var dirs []string
	for _, dir := range searchPath {
		if dir == "" {
			continue
		}
		clean := filepath.Clean(dir)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		dirs = append(dirs, clean)
	}
	return &Locator{searchPath: dirs, exists: exists}
}

// SearchPath returns the directories searched, in order.
func (l *Locator) SearchPath() []string {
	return append([]string(nil), l.searchPath...)
}

// Locate finds the file for a dotted module name. A package's __init__.py
// takes precedence over a module file of the same name.
func (l *Locator) Locate(name string) (Ref, error) {
	if !validName(name) {
		return Ref{}, fmt.Errorf("%w: %q", ErrModuleNotFound, name)
	}
	modulePath := filepath.Join(strings.Split(name, ".")...)

	for _, dir := range l.searchPath {
		packageCandidate := filepath.Join(dir, modulePath, "__init__.py")
		if l.exists(packageCandidate) {
			return Ref{Name: name, Path: packageCandidate, IsPackage: true}, nil
		}
		fileCandidate := filepath.Join(dir, modulePath) + ".py"
		if l.exists(fileCandidate) {
			return Ref{Name: name, Path: fileCandidate}, nil
		}
	}
	return Ref{}, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
}

// ResolveFrom locates the target of "from <level dots><module> import ..."
// written inside importer.
func (l *Locator) ResolveFrom(importer Ref, module string, level int) (Ref, error) {
	name, err := AbsoluteName(importer, module, level)
	if err != nil {
		return Ref{}, err
	}
	return l.Locate(name)
}

// AbsoluteName turns a possibly relative import into a dotted module name.
func AbsoluteName(importer Ref, module string, level int) (string, error) {
	if level == 0 {
		return module, nil
	}

	pkg := importer.Package()
	if pkg == "" {
		return "", fmt.Errorf("%w: %s has no parent package", ErrRelativeBeyondTop, importer.Name)
	}
	parts := strings.Split(pkg, ".")
	if level-1 >= len(parts) {
		return "", fmt.Errorf("%w: %s in %s", ErrRelativeBeyondTop, strings.Repeat(".", level)+module, importer.Name)
	}
	base := strings.Join(parts[:len(parts)-(level-1)], ".")
	if module == "" {
		return base, nil
	}
	return base + "." + module, nil
}

// ModuleNameForPath derives the dotted module name of a file under root.
// It returns false for files outside root or without a .py extension.
func ModuleNameForPath(root, path string) (Ref, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return Ref{}, false
	}
	if filepath.Ext(rel) != ".py" {
		return Ref{}, false
	}

	parts := strings.Split(filepath.ToSlash(strings.TrimSuffix(rel, ".py")), "/")
	isPackage := parts[len(parts)-1] == "__init__"
	if isPackage {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return Ref{}, false
	}
	name := strings.Join(parts, ".")
	if !validName(name) {
		return Ref{}, false
	}
	return Ref{Name: name, Path: path, IsPackage: isPackage}, true
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if !isIdentifier(part) {
			return false
		}
	}
	return true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r > 0x7f:
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

package git

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/LegacyCodeHQ/unstar/vcs"
)

// CommitSnapshot is a read-only view of the files tracked at one commit.
// Paths handed to it are absolute paths under the repository root.
type CommitSnapshot struct {
	root   string
	commit string
	files  map[string]string
}

// OpenCommit lists the tree of commitID in the repository containing repoPath.
func OpenCommit(repoPath, commitID string) (*CommitSnapshot, error) {
	root, err := GetRepositoryRoot(repoPath)
	if err != nil {
		return nil, err
	}

	tree, err := GetCommitTreeFiles(root, commitID)
	if err != nil {
		return nil, err
	}

	files := make(map[string]string, len(tree))
	for i, abs := range toAbsolutePaths(root, tree) {
		files[abs] = tree[i]
	}
	return &CommitSnapshot{root: root, commit: commitID, files: files}, nil
}

// Root returns the repository root.
func (s *CommitSnapshot) Root() string {
	return s.root
}

// Commit returns the commit reference the snapshot was opened at.
func (s *CommitSnapshot) Commit() string {
	return s.commit
}

// PythonFiles returns the absolute paths of the .py files in the commit, sorted.
func (s *CommitSnapshot) PythonFiles() []string {
	var paths []string
	for abs := range s.files {
		paths = append(paths, abs)
	}
	paths = filterPythonFiles(paths)
	sort.Strings(paths)
	return paths
}

// FileExists reports whether path is tracked at the commit.
func (s *CommitSnapshot) FileExists(path string) bool {
	_, ok := s.files[filepath.Clean(path)]
	return ok
}

// ContentReader returns a reader that serves file content from the commit.
func (s *CommitSnapshot) ContentReader() vcs.ContentReader {
	return func(path string) ([]byte, error) {
		rel, ok := s.files[filepath.Clean(path)]
		if !ok {
			return nil, fmt.Errorf("%s at %s: %w", path, s.commit, fs.ErrNotExist)
		}
		return GetFileContentFromCommit(s.root, s.commit, rel)
	}
}

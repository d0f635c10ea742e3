// Package git reads Python sources out of a git repository, either from the
// working tree's repository metadata or from a specific commit.
package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// IsRepository reports whether path is inside a git work tree.
func IsRepository(path string) bool {
	_, err := gitOutput(path, "rev-parse", "--git-dir")
	return err == nil
}

// GetRepositoryRoot returns the absolute path to the repository root
func GetRepositoryRoot(repoPath string) (string, error) {
	stdout, err := gitOutput(repoPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}

// filterPythonFiles keeps the .py entries of files.
func filterPythonFiles(files []string) []string {
	var pythonFiles []string
	for _, file := range files {
		if filepath.Ext(file) == ".py" {
			pythonFiles = append(pythonFiles, file)
		}
	}
	return pythonFiles
}

// toAbsolutePaths converts relative paths to absolute paths based on the repository root
func toAbsolutePaths(repoRoot string, relativePaths []string) []string {
	absolutePaths := make([]string, 0, len(relativePaths))
	for _, relPath := range relativePaths {
		absolutePaths = append(absolutePaths, filepath.Join(repoRoot, filepath.FromSlash(relPath)))
	}
	return absolutePaths
}

func validateGitRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("git reference cannot be empty")
	}
	if strings.HasPrefix(ref, "-") {
		return fmt.Errorf("git reference cannot start with '-': %q", ref)
	}
	if strings.ContainsAny(ref, "\x00\n\r\t ") {
		return fmt.Errorf("git reference contains whitespace or NUL: %q", ref)
	}
	return nil
}

func validateGitRelPath(path string) error {
	if path == "" {
		return fmt.Errorf("git path cannot be empty")
	}
	if filepath.IsAbs(path) {
		return fmt.Errorf("git path must be relative: %q", path)
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("git path contains NUL: %q", path)
	}
	cleaned := filepath.Clean(path)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("git path escapes repository: %q", path)
	}
	return nil
}

// validateCommit checks if the given commit reference exists in the repository
func validateCommit(repoPath, commitID string) error {
	if err := validateGitRef(commitID); err != nil {
		return err
	}

	if _, err := gitOutput(repoPath, "rev-parse", "--verify", commitID+"^{commit}"); err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.Stderr != "" {
			return fmt.Errorf("invalid commit reference '%s': %s", commitID, cmdErr.Stderr)
		}
		return fmt.Errorf("invalid commit reference '%s'", commitID)
	}
	return nil
}

// GetShortCommitHash returns the short version of a given commit hash
func GetShortCommitHash(repoPath, commitID string) (string, error) {
	if err := validateGitRef(commitID); err != nil {
		return "", err
	}

	stdout, err := gitOutput(repoPath, "rev-parse", "--short", commitID)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}

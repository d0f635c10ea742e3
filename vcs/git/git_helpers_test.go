package git

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// setupGitRepo initializes a git repository in a temporary directory
func setupGitRepo(t *testing.T, dir string) {
	cmd := exec.Command("git", "init")
	cmd.Dir = dir
	require.NoError(t, cmd.Run(), "failed to initialize git repository")

	// Configure git user to avoid errors
	gitConfig(t, dir, "user.name", "Test User")
	gitConfig(t, dir, "user.email", "test@example.com")
}

// gitConfig sets a git config value
func gitConfig(t *testing.T, repoDir, key, value string) {
	cmd := exec.Command("git", "config", key, value)
	cmd.Dir = repoDir
	require.NoError(t, cmd.Run(), "failed to set git config %s", key)
}

// createFile creates a file with content, making parent directories
func createFile(t *testing.T, dir, name, content string) string {
	filePath := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
	err := os.WriteFile(filePath, []byte(content), 0644)
	require.NoError(t, err, "failed to create file %s", name)
	return filePath
}

// gitAdd adds a file to git staging area
func gitAdd(t *testing.T, repoDir, file string) {
	cmd := exec.Command("git", "add", file)
	cmd.Dir = repoDir
	require.NoError(t, cmd.Run(), "failed to git add %s", file)
}

// gitCommit commits files with a message
func gitCommit(t *testing.T, repoDir, message string) {
	cmd := exec.Command("git", "commit", "-m", message)
	cmd.Dir = repoDir
	require.NoError(t, cmd.Run(), "failed to git commit")
}

// gitCommitAndGetSHA commits files and returns the commit SHA
func gitCommitAndGetSHA(t *testing.T, repoDir, message string) string {
	gitCommit(t, repoDir, message)

	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = repoDir

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	require.NoError(t, cmd.Run(), "failed to get commit SHA")

	return strings.TrimSpace(stdout.String())
}

// gitGoldie creates a goldie instance for git tests
func gitGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t, goldie.WithNameSuffix(".gold.txt"))
}

// normalizeFilePaths replaces the repository directory with $REPO so that
// golden files do not depend on the temp directory.
func normalizeFilePaths(tmpDir string, paths []string) string {
	if len(paths) == 0 {
		return "(empty)"
	}
	resolvedTmpDir, _ := filepath.EvalSymlinks(tmpDir)
	var normalized []string
	for _, p := range paths {
		relPath := strings.TrimPrefix(filepath.ToSlash(p), filepath.ToSlash(resolvedTmpDir)+"/")
		normalized = append(normalized, "$REPO/"+relPath)
	}
	sort.Strings(normalized)
	return strings.Join(normalized, "\n")
}

package git

import (
	"fmt"
	"strings"
)

// GetUncommittedPythonFiles lists the .py files with staged, unstaged or
// untracked changes as absolute paths. Deleted files are left out.
func GetUncommittedPythonFiles(repoPath string) ([]string, error) {
	if !IsRepository(repoPath) {
		return nil, fmt.Errorf("%s is not a git repository (use 'git init' to initialize)", repoPath)
	}

	repoRoot, err := GetRepositoryRoot(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository root: %w", err)
	}

	stdout, err := gitOutput(repoPath, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return nil, err
	}

	return toAbsolutePaths(repoRoot, filterPythonFiles(parseStatusPorcelain(string(stdout)))), nil
}

// parseStatusPorcelain returns the paths named by "git status --porcelain"
// output, using the new name of renamed files.
func parseStatusPorcelain(output string) []string {
	var files []string
	for _, line := range strings.Split(output, "\n") {
		if len(line) < 4 {
			continue
		}

		// XY path, where X is the index status and Y the work tree status.
		status := line[:2]
		if strings.Contains(status, "D") {
			continue
		}
		filePath := strings.TrimSpace(line[3:])
		if _, renamed, ok := strings.Cut(filePath, " -> "); ok {
			filePath = renamed
		}
		filePath = strings.Trim(filePath, `"`)

		if filePath != "" {
			files = append(files, filePath)
		}
	}
	return files
}

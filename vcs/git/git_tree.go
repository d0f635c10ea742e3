package git

import (
	"fmt"
	"strings"
)

// GetCommitTreeFiles lists every file path tracked at commitID, relative
// to the repository root and slash separated.
func GetCommitTreeFiles(repoPath, commitID string) ([]string, error) {
	if err := validateCommit(repoPath, commitID); err != nil {
		return nil, err
	}

	stdout, err := gitOutput(repoPath, "ls-tree", "-r", "--name-only", commitID)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(string(stdout), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// GetFileContentFromCommit reads the file content from a specific commit
func GetFileContentFromCommit(repoPath, commitID, relPath string) ([]byte, error) {
	if err := validateGitRef(commitID); err != nil {
		return nil, err
	}
	if err := validateGitRelPath(relPath); err != nil {
		return nil, err
	}

	gitPath := strings.ReplaceAll(relPath, "\\", "/")
	stdout, err := gitOutput(repoPath, "show", fmt.Sprintf("%s:%s", commitID, gitPath))
	if err != nil {
		return nil, err
	}
	return stdout, nil
}

package scan

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewCommand()
	cmd.SetArgs(args)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

var sampleProject = map[string]string{
	"m.py":    "__all__ = [\"f\", \"x\"]\n\ndef f():\n    pass\n\nx = 1\n",
	"dead.py": "value = 1\n",
	"main.py": "from m import *\nfrom dead import *\nf()\n",
}

func TestScan_DryRunLeavesFilesAlone(t *testing.T) {
	root := writeProject(t, sampleProject)

	stdout, _, err := execute(t, root, "-q")

	require.NoError(t, err)
	assert.Equal(t,
		"main.py:1: from m import *  ==>  from m import f\n"+
			"main.py:2: from dead import *  ==>  (deleted)\n",
		stdout)
	content, err := os.ReadFile(filepath.Join(root, "main.py"))
	require.NoError(t, err)
	assert.Equal(t, sampleProject["main.py"], string(content))
}

func TestScan_EditRewritesFiles(t *testing.T) {
	root := writeProject(t, sampleProject)

	stdout, _, err := execute(t, root, "-e", "-q")

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stdout, "Edited main.py\n"), stdout)
	content, err := os.ReadFile(filepath.Join(root, "main.py"))
	require.NoError(t, err)
	assert.Equal(t, "from m import f\nf()\n", string(content))

	stdout, _, err = execute(t, root, "-q")
	require.NoError(t, err)
	assert.Equal(t, "No wildcard imports found.\n", stdout)
}

func TestScan_SearchPathFlag(t *testing.T) {
	root := writeProject(t, map[string]string{
		"app/main.py":   "from shared import *\nhelper()\n",
		"lib/shared.py": "def helper():\n    pass\n",
	})

	stdout, _, err := execute(t, filepath.Join(root, "app"), "-q", "-p", filepath.Join(root, "lib"))

	require.NoError(t, err)
	assert.Equal(t, "main.py:1: from shared import *  ==>  from shared import helper\n", stdout)
}

func TestScan_JSONFormat(t *testing.T) {
	root := writeProject(t, sampleProject)

	stdout, stderr, err := execute(t, root, "-f", "json", "-e")

	require.NoError(t, err)
	var decoded struct {
		Summary struct {
			Wildcards int `json:"wildcards"`
			Deleted   int `json:"deleted"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &decoded))
	assert.Equal(t, 2, decoded.Summary.Wildcards)
	assert.Equal(t, 1, decoded.Summary.Deleted)
	assert.Contains(t, stderr, "Edited main.py")
}

func TestScan_LineLengthFlag(t *testing.T) {
	root := writeProject(t, map[string]string{
		"names.py": "alpha = 1\nbeta = 2\n",
		"main.py":  "from names import *\nalpha, beta\n",
	})

	_, _, err := execute(t, root, "-e", "-q", "--line-length", "20")
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, "main.py"))
	require.NoError(t, err)
	assert.Equal(t, "from names import (\n    alpha,\n    beta,\n)\nalpha, beta\n", string(content))
}

func TestScan_RejectsEditWithCommit(t *testing.T) {
	root := writeProject(t, sampleProject)

	_, _, err := execute(t, root, "-e", "-c", "HEAD")

	assert.EqualError(t, err, "--edit cannot be used with --commit")
}

func TestScan_RejectsUnknownFormat(t *testing.T) {
	root := writeProject(t, sampleProject)

	_, _, err := execute(t, root, "-f", "yaml")

	assert.ErrorContains(t, err, "unknown format: yaml")
}

func commitAll(t *testing.T, root string) {
	t.Helper()
	for _, args := range [][]string{
		{"init"},
		{"config", "user.name", "Test User"},
		{"config", "user.email", "test@example.com"},
		{"add", "."},
		{"commit", "-m", "initial"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
}

func TestScan_Commit(t *testing.T) {
	root := writeProject(t, sampleProject)
	commitAll(t, root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte("x = 1\n"), 0o644))

	stdout, _, err := execute(t, root, "-q", "-c", "HEAD")

	require.NoError(t, err)
	assert.Contains(t, stdout, "main.py:1: from m import *  ==>  from m import f\n")
}

func TestScan_ChangedOnlyReportsUncommittedFiles(t *testing.T) {
	root := writeProject(t, map[string]string{
		"m.py":     "def f():\n    pass\n",
		"main.py":  "from m import *\nf()\n",
		"other.py": "from m import *\nf()\n",
	})
	commitAll(t, root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "other.py"), []byte("from m import *\nf(f)\n"), 0o644))

	stdout, _, err := execute(t, root, "-q", "--changed")

	require.NoError(t, err)
	assert.Equal(t, "other.py:1: from m import *  ==>  from m import f\n", stdout)
}

package project

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func TestOpen_WorkingTree(t *testing.T) {
	t.Setenv("PYTHONPATH", "")
	root := t.TempDir()
	writeFile(t, root, "app.py", "pass\n")
	writeFile(t, root, "vendor/lib.py", "pass\n")
	writeFile(t, root, ".unstar.toml", "search_path = [\"vendor\"]\nline_length = 100\n[exclude]\ndirs = [\"vendor\"]\n")

	p, err := Open(Options{Root: root, SearchPath: []string{"/extra"}})
	require.NoError(t, err)

	assert.False(t, p.FromCommit())
	assert.Equal(t, []string{root, "/extra", filepath.Join(root, "vendor")}, p.Analysis.SearchPath)
	assert.Equal(t, 100, p.Analysis.LineLength)

	files, err := p.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "app.py", p.DisplayPath(files[0].Path))
}

func TestOpen_LineLengthFlagOverridesConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".unstar.toml", "line_length = 100\n")

	p, err := Open(Options{Root: root, LineLength: 60})

	require.NoError(t, err)
	assert.Equal(t, 60, p.Analysis.LineLength)
}

func TestOpen_Errors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file.py", "pass\n")
	writeFile(t, root, "bad/.unstar.toml", "line_length = \"wide\"\n")

	_, err := Open(Options{Root: filepath.Join(root, "missing")})
	assert.Error(t, err)

	_, err = Open(Options{Root: filepath.Join(root, "file.py")})
	assert.ErrorContains(t, err, "is not a directory")

	_, err = Open(Options{Root: filepath.Join(root, "bad")})
	assert.ErrorContains(t, err, "failed to load config")
}

func TestOpen_Commit(t *testing.T) {
	root := t.TempDir()
	runGit(t, root, "init")
	runGit(t, root, "config", "user.name", "Test User")
	runGit(t, root, "config", "user.email", "test@example.com")
	writeFile(t, root, "lib.py", "def helper():\n    pass\n")
	writeFile(t, root, "app.py", "from lib import *\nhelper()\n")
	runGit(t, root, "add", ".")
	runGit(t, root, "commit", "-m", "initial")
	writeFile(t, root, "untracked.py", "pass\n")

	p, err := Open(Options{Root: root, Commit: "HEAD"})
	require.NoError(t, err)
	assert.True(t, p.FromCommit())

	files, err := p.Files()
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, p.DisplayPath(f.Path))
	}
	assert.Equal(t, []string{"app.py", "lib.py"}, names)

	content, err := p.Analysis.Read(files[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "from lib import *\nhelper()\n", string(content))
}

func TestOpen_UnknownCommit(t *testing.T) {
	root := t.TempDir()
	runGit(t, root, "init")

	_, err := Open(Options{Root: root, Commit: "nope"})

	assert.ErrorContains(t, err, "failed to read commit nope")
}

func TestOpen_Changed(t *testing.T) {
	root := t.TempDir()
	runGit(t, root, "init")
	runGit(t, root, "config", "user.name", "Test User")
	runGit(t, root, "config", "user.email", "test@example.com")
	writeFile(t, root, "lib.py", "def helper():\n    pass\n")
	writeFile(t, root, "app.py", "from lib import *\n")
	runGit(t, root, "add", ".")
	runGit(t, root, "commit", "-m", "initial")
	writeFile(t, root, "app.py", "from lib import *\nhelper()\n")
	writeFile(t, root, "venv/site.py", "pass\n")

	p, err := Open(Options{Root: root, Changed: true})
	require.NoError(t, err)
	assert.False(t, p.FromCommit())

	files, err := p.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "app.py", p.DisplayPath(files[0].Path))
	assert.Equal(t, "app", files[0].Module.Name)
}

func TestOpen_ChangedWithCommit(t *testing.T) {
	_, err := Open(Options{Root: t.TempDir(), Commit: "HEAD", Changed: true})

	assert.ErrorContains(t, err, "--changed cannot be used with --commit")
}

package names

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LegacyCodeHQ/unstar/namespace"
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

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	cmd.SetArgs(args)
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return stdout.String(), err
}

// rows splits table output into whitespace-separated fields per line.
func rows(output string) [][]string {
	var result [][]string
	for _, line := range strings.Split(output, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			result = append(result, fields)
		}
	}
	return result
}

func TestNames_ShowsProvenance(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.py": "from b import *\nlocal = 1\n",
		"b.py": "def h():\n    pass\n_private = 2\n",
	})

	output, err := execute(t, "a", "--root", root)

	require.NoError(t, err)
	lines := rows(output)
	assert.Equal(t, []string{"a", "(a.py)"}, lines[0])
	assert.Contains(t, lines, []string{"h", "inherited", "b"})
	assert.Contains(t, lines, []string{"local", "declared"})
	assert.NotContains(t, output, "_private")
}

func TestNames_All(t *testing.T) {
	root := writeProject(t, map[string]string{
		"pkg/__init__.py": "__all__ = [\"run\"]\nfrom .core import run, _helper\n",
		"pkg/core.py":     "def run():\n    pass\n",
	})

	output, err := execute(t, "pkg", "-r", root)

	require.NoError(t, err)
	assert.Contains(t, output, "Names come from __all__.")
	assert.Contains(t, rows(output), []string{"run", "explicit"})
}

func TestNames_TableHasNoColumnBars(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.py": "from b import *\nlocal = 1\n",
		"b.py": "def h():\n    pass\n",
	})

	output, err := execute(t, "a", "-r", root)

	require.NoError(t, err)
	assert.NotContains(t, output, "|")
	assert.Contains(t, rows(output), []string{"NAME", "PROVENANCE", "ORIGIN"})
}

func TestNames_ReportsCycles(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.py": "from b import *\nx = 1\n",
		"b.py": "from a import *\ny = 2\n",
	})

	output, err := execute(t, "a", "-r", root)

	require.NoError(t, err)
	assert.Contains(t, output, "warning: wildcard import cycle")
}

func TestNames_EmptyNamespace(t *testing.T) {
	root := writeProject(t, map[string]string{"quiet.py": "_hidden = 1\n"})

	output, err := execute(t, "quiet", "-r", root)

	require.NoError(t, err)
	assert.Contains(t, output, "No public names.")
}

func TestNames_UnknownModule(t *testing.T) {
	root := writeProject(t, map[string]string{"a.py": "x = 1\n"})

	_, err := execute(t, "missing", "-r", root)

	assert.ErrorIs(t, err, namespace.ErrUnresolvableModule)
}

func TestNames_DynamicAll(t *testing.T) {
	root := writeProject(t, map[string]string{"dyn.py": "__all__ = build()\n"})

	_, err := execute(t, "dyn", "-r", root)

	assert.ErrorIs(t, err, namespace.ErrUnresolvableNamespace)
}

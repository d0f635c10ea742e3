package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LegacyCodeHQ/unstar/analysis"
	"github.com/LegacyCodeHQ/unstar/internal/config"
	"github.com/LegacyCodeHQ/unstar/internal/walker"
	"github.com/LegacyCodeHQ/unstar/pyast"
)

// analyzeFixture runs the analyzer over a small project and adds a report
// for a file that failed to parse.
func analyzeFixture(t *testing.T) (string, []analysis.FileReport) {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"shapes.py":       "__all__ = [\"circle\", \"square\"]\ndef circle():\n    pass\ndef square():\n    pass\n",
		"helpers.py":      "value = 1\n",
		"pkg/__init__.py": "",
		"pkg/names.py":    "alpha_value = 1\nbeta_value = 2\ngamma_value = 3\ndelta_value = 4\n",
		"pkg/long.py":     "from pkg.names import *\nprint(alpha_value, beta_value, gamma_value, delta_value)\n",
		"app.py":          "import os\nfrom shapes import *\nfrom missing import *\nfrom helpers import *\ncircle()\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	filter, err := walker.NewFilter(config.DefaultExcludedDirs, nil)
	require.NoError(t, err)
	found, err := walker.Walk(root, filter)
	require.NoError(t, err)

	reports, err := analysis.New(analysis.Options{SearchPath: []string{root}}).Run(context.Background(), found)
	require.NoError(t, err)

	brokenPath := filepath.Join(root, "broken.py")
	broken := analysis.FileReport{
		Path: brokenPath,
		Err:  fmt.Errorf("failed to parse %s: %w", brokenPath, &pyast.ParseError{Pos: pyast.Position{Line: 3, Column: 1}}),
	}
	reports = append(reports[:1], append([]analysis.FileReport{broken}, reports[1:]...)...)
	return root, reports
}

func TestTextFormatter_Golden(t *testing.T) {
	root, reports := analyzeFixture(t)

	output, err := (&TextFormatter{}).Format(reports, Options{Root: root, Quiet: true})
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithNameSuffix(".gold.txt"))
	g.Assert(t, "text_report", []byte(output))
}

func TestTextFormatter_IncludesSummaryTable(t *testing.T) {
	root, reports := analyzeFixture(t)

	output, err := (&TextFormatter{}).Format(reports, Options{Root: root})
	require.NoError(t, err)

	assert.Contains(t, output, "app.py:2: from shapes import *")
	assert.Contains(t, output, "FILE")
	assert.Contains(t, output, "UNRESOLVED")
	assert.Contains(t, output, "pkg/long.py")
	assert.Contains(t, strings.ToUpper(output), "TOTAL FILES 7 (1 SKIPPED)")
	assert.NotContains(t, output, "|")
}

func TestTextFormatter_NoWildcards(t *testing.T) {
	output, err := (&TextFormatter{}).Format(nil, Options{})

	require.NoError(t, err)
	assert.Equal(t, "No wildcard imports found.\n", output)
}

func TestCount(t *testing.T) {
	_, reports := analyzeFixture(t)

	assert.Equal(t, Counts{Files: 7, Skipped: 1, Wildcards: 4, Resolved: 2, Deleted: 1, Unresolved: 1}, Count(reports))
}

func TestJSONFormatter(t *testing.T) {
	root, reports := analyzeFixture(t)

	output, err := (&JSONFormatter{}).Format(reports, Options{Root: root})
	require.NoError(t, err)

	var decoded jsonReport
	require.NoError(t, json.Unmarshal([]byte(output), &decoded))
	require.Len(t, decoded.Files, 7)

	app := decoded.Files[0]
	assert.Equal(t, "app.py", app.Path)
	assert.Equal(t, "app", app.Module)
	require.Len(t, app.Sites, 3)
	assert.Equal(t, jsonSite{
		Line:        2,
		Column:      1,
		Statement:   "from shapes import *",
		Target:      "shapes",
		Status:      "resolved",
		Names:       []string{"circle"},
		Replacement: "from shapes import circle",
	}, app.Sites[0])
	assert.Equal(t, "unresolved", app.Sites[1].Status)
	assert.Contains(t, app.Sites[1].Reason, "cannot locate module missing")
	assert.Equal(t, "deleted", app.Sites[2].Status)
	assert.Empty(t, app.Sites[2].Names)

	assert.Equal(t, "broken.py", decoded.Files[1].Path)
	assert.Equal(t, "syntax error at line 3, column 1", decoded.Files[1].Skipped)
	assert.Equal(t, 4, decoded.Summary.Wildcards)
}

func TestNewFormatter(t *testing.T) {
	text, err := NewFormatter("text")
	require.NoError(t, err)
	assert.IsType(t, &TextFormatter{}, text)

	jsonFormatter, err := NewFormatter("json")
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, jsonFormatter)

	_, err = NewFormatter("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid options: text, json")
}

func TestStatementText_JoinsContinuationLines(t *testing.T) {
	source := []byte("from pkg \\\n    import *\n")
	tree, err := pyast.Parse(source)
	require.NoError(t, err)
	stmts := pyast.WildcardImports(tree)
	require.Len(t, stmts, 1)

	assert.Equal(t, "from pkg import *", statementText(source, stmts[0]))
}

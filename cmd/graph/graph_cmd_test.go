package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("os.MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("os.WriteFile() error = %v", err)
		}
	}
	return root
}

func TestGraph_RendersWildcardEdges(t *testing.T) {
	root := writeProject(t, map[string]string{
		"pkg/__init__.py": "",
		"pkg/base.py":     "VALUE = 1\n",
		"pkg/app.py":      "from .base import *\n",
		"a.py":            "from b import *\n",
		"b.py":            "from a import *\n",
	})

	cmd := NewCommand()
	cmd.SetArgs([]string{root, "-l", "demo"})
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("cmd.Execute() error = %v", err)
	}

	output := stdout.String()
	for _, want := range []string{
		`label="demo";`,
		`"pkg.app" -> "pkg.base";`,
		`"a" -> "b" [color=red];`,
		`"b" -> "a" [color=red];`,
		`"pkg" [style=filled, fillcolor=white];`,
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in graph output, got:\n%s", want, output)
		}
	}
}

func TestGraph_DefaultLabelIsRootName(t *testing.T) {
	root := writeProject(t, map[string]string{"a.py": "x = 1\n"})

	cmd := NewCommand()
	cmd.SetArgs([]string{root, "-f", "mermaid"})
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("cmd.Execute() error = %v", err)
	}

	if !strings.HasPrefix(stdout.String(), "---\ntitle: "+filepath.Base(root)+"\n---\nflowchart LR\n") {
		t.Fatalf("unexpected mermaid output:\n%s", stdout.String())
	}
}

func TestGraph_RejectsUnknownFormat(t *testing.T) {
	cmd := NewCommand()
	cmd.SetArgs([]string{t.TempDir(), "-f", "png"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown format: png") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

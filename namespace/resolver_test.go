package namespace

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LegacyCodeHQ/unstar/pyast"
	"github.com/LegacyCodeHQ/unstar/pymodule"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func newTestResolver(t *testing.T, files map[string]string) *Resolver {
	t.Helper()
	root := writeFiles(t, files)
	locator := pymodule.NewLocator([]string{root}, nil)
	return NewResolver(locator, pyast.NewCache(os.ReadFile))
}

func TestResolve_ExplicitAll(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"m.py": `
__all__ = ["f", "x"]

def f():
    pass

x = 1
y = 2
`,
	})

	snapshot, err := resolver.ResolveName("m")

	require.NoError(t, err)
	assert.True(t, snapshot.HasAll)
	assert.Equal(t, []string{"f", "x"}, snapshot.NameList())
	name, ok := snapshot.Lookup("f")
	require.True(t, ok)
	assert.Equal(t, Explicit, name.Provenance)
	assert.False(t, snapshot.Contains("y"))
}

func TestResolve_ExplicitAllExtendedAndDeduplicated(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"m.py": `
__all__ = ("a", "b")
__all__ += ["c", "a"]
`,
	})

	snapshot, err := resolver.ResolveName("m")

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, snapshot.NameList())
}

func TestResolve_PublicNamesWithoutAll(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"m.py": `
import os
import os.path as osp
from collections import OrderedDict as OD

def g():
    inner = 1

def _hidden():
    pass

class Widget:
    attr = 1

if os.name == "nt":
    SEP = "\\"
else:
    SEP = "/"

for item in range(3):
    pass

with open(__file__) as handle:
    pass

values = [(count := n) for n in range(2)]
first, *rest = [1, 2, 3]
`,
	})

	snapshot, err := resolver.ResolveName("m")

	require.NoError(t, err)
	assert.False(t, snapshot.HasAll)
	assert.Equal(t, []string{
		"os", "osp", "OD", "g", "Widget", "SEP", "item", "handle", "count", "values", "first", "rest",
	}, snapshot.NameList())
	assert.False(t, snapshot.Contains("_hidden"))
	assert.False(t, snapshot.Contains("inner"))
	assert.False(t, snapshot.Contains("attr"))
}

func TestResolve_HiddenNamesExcluded(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"m.py": `
def g():
    pass

def _hidden():
    pass
`,
	})

	snapshot, err := resolver.ResolveName("m")

	require.NoError(t, err)
	assert.Equal(t, []string{"g"}, snapshot.NameList())
}

func TestResolve_DeleteAndRebind(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"m.py": `
a = 1
b = 2
del a
c = 3
a = 4
if b:
    del c
`,
	})

	snapshot, err := resolver.ResolveName("m")

	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, snapshot.NameList())
}

func TestResolve_Transitive(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"a.py": `
from b import *
`,
		"b.py": `
def h():
    pass
`,
	})

	snapshot, err := resolver.ResolveName("a")

	require.NoError(t, err)
	assert.Equal(t, []string{"h"}, snapshot.NameList())
	name, _ := snapshot.Lookup("h")
	assert.Equal(t, Inherited, name.Provenance)
	assert.Equal(t, "b", name.Origin)
}

func TestResolve_TransitiveOriginIsDeclaringModule(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"a.py": "from b import *\n",
		"b.py": "from c import *\nlocal = 1\n",
		"c.py": "deep = 1\n",
	})

	snapshot, err := resolver.ResolveName("a")

	require.NoError(t, err)
	assert.Equal(t, []string{"deep", "local"}, snapshot.NameList())
	deep, _ := snapshot.Lookup("deep")
	assert.Equal(t, "c", deep.Origin)
	local, _ := snapshot.Lookup("local")
	assert.Equal(t, "b", local.Origin)
}

func TestResolve_LastBindingWins(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"a.py": `
from b import *

def shared():
    pass
`,
		"b.py": "shared = 1\nother = 2\n",
	})

	snapshot, err := resolver.ResolveName("a")

	require.NoError(t, err)
	assert.Equal(t, []string{"shared", "other"}, snapshot.NameList())
	shared, _ := snapshot.Lookup("shared")
	assert.Equal(t, Declared, shared.Provenance)
	other, _ := snapshot.Lookup("other")
	assert.Equal(t, Inherited, other.Provenance)
}

func TestResolve_AllIgnoresInnerWildcards(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"a.py": `
from missing_module import *
__all__ = ["x"]
x = 1
`,
	})

	snapshot, err := resolver.ResolveName("a")

	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, snapshot.NameList())
}

func TestResolve_DynamicAll(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"computed", "__all__ = [n for n in dir() if not n.startswith('_')]\n"},
		{"append", "__all__ = ['a']\n__all__.append('b')\n"},
		{"decorator append", "__all__ = []\ndef export(fn):\n    __all__.append(fn.__name__)\n    return fn\n"},
		{"conditional", "import sys\nif sys.version_info > (3,):\n    __all__ = ['a']\n"},
		{"item assignment", "__all__ = ['a']\n__all__[0] = 'b'\n"},
		{"deleted", "__all__ = ['a']\ndel __all__\n"},
		{"imported", "from other import __all__\n"},
		{"fstring", "name = 'a'\n__all__ = [f'{name}']\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := newTestResolver(t, map[string]string{"m.py": tt.source})

			_, err := resolver.ResolveName("m")

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnresolvableNamespace)
		})
	}
}

func TestResolve_ConditionalWildcardIsNotStatic(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"a.py": `
try:
    from fast import *
except ImportError:
    from slow import *
`,
		"fast.py": "x = 1\n",
		"slow.py": "x = 1\n",
	})

	_, err := resolver.ResolveName("a")

	assert.ErrorIs(t, err, ErrUnresolvableNamespace)
}

func TestResolve_MissingInnerTarget(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"a.py": "from missing import *\n",
	})

	_, err := resolver.ResolveName("a")

	assert.ErrorIs(t, err, ErrUnresolvableNamespace)
	assert.ErrorIs(t, err, ErrUnresolvableModule)
	assert.ErrorIs(t, err, pymodule.ErrModuleNotFound)
}

func TestResolve_UnparsableInheritedModule(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"a.py":      "from broken import *\n",
		"broken.py": "def (:\n",
	})

	_, err := resolver.ResolveName("a")

	assert.ErrorIs(t, err, ErrUnresolvableNamespace)
	assert.ErrorIs(t, err, pyast.ErrParseFailure)
}

func TestResolve_UnknownModule(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{})

	_, err := resolver.ResolveName("nowhere")

	assert.ErrorIs(t, err, ErrUnresolvableModule)
}

func TestResolve_Cycle(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"a.py": "from b import *\nx = 1\n",
		"b.py": "from a import *\ny = 2\n",
	})

	first, err := resolver.ResolveName("a")
	require.NoError(t, err)
	second, err := resolver.ResolveName("b")
	require.NoError(t, err)

	assert.Equal(t, []string{"x"}, first.NameList())
	assert.Equal(t, []string{"y"}, second.NameList())
	assert.ErrorIs(t, first.CycleIssue(), ErrWildcardCycle)
	assert.ErrorIs(t, second.CycleIssue(), ErrWildcardCycle)

	cycles, err := resolver.Cycles()
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "b"}, cycles[0].Modules)
}

func TestResolve_CycleIsEntryIndependent(t *testing.T) {
	files := map[string]string{
		"a.py": "from b import *\nx = 1\n",
		"b.py": "from c import *\ny = 2\n",
		"c.py": "from a import *\nz = 3\n",
	}

	fromA := newTestResolver(t, files)
	fromC := newTestResolver(t, files)

	snapA1, err := fromA.ResolveName("a")
	require.NoError(t, err)
	_, err = fromC.ResolveName("c")
	require.NoError(t, err)
	snapA2, err := fromC.ResolveName("a")
	require.NoError(t, err)

	assert.Equal(t, snapA1.NameList(), snapA2.NameList())
	assert.Equal(t, []string{"x"}, snapA1.NameList())
}

func TestResolve_InheritsCycleIssue(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"main.py": "from a import *\n",
		"a.py":    "from a import *\nx = 1\n",
	})

	snapshot, err := resolver.ResolveName("main")

	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, snapshot.NameList())
	assert.ErrorIs(t, snapshot.CycleIssue(), ErrWildcardCycle)
}

func TestResolve_PackageSubmodules(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"pkg/__init__.py": `
from .core import *
from .helpers import tool
from . import extra
`,
		"pkg/core.py":    "def run():\n    pass\n",
		"pkg/helpers.py": "def tool():\n    pass\n",
		"pkg/extra.py":   "",
	})

	snapshot, err := resolver.ResolveName("pkg")

	require.NoError(t, err)
	assert.Equal(t, []string{"core", "run", "helpers", "tool", "extra"}, snapshot.NameList())
}

func TestResolve_RelativeWildcardInSubmodule(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"pkg/__init__.py":     "",
		"pkg/base.py":         "VALUE = 1\n",
		"pkg/sub/__init__.py": "",
		"pkg/sub/mod.py":      "from ..base import *\n",
	})

	snapshot, err := resolver.ResolveName("pkg.sub.mod")

	require.NoError(t, err)
	assert.Equal(t, []string{"VALUE"}, snapshot.NameList())
}

func TestResolve_ConcurrentCallsShareResult(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{
		"a.py": "from b import *\n",
		"b.py": "x = 1\n",
	})

	var wg sync.WaitGroup
	snapshots := make([]*Snapshot, 8)
	for i := range snapshots {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snapshot, err := resolver.ResolveName("a")
			assert.NoError(t, err)
			snapshots[i] = snapshot
		}(i)
	}
	wg.Wait()

	for _, snapshot := range snapshots {
		assert.Same(t, snapshots[0], snapshot)
	}
}

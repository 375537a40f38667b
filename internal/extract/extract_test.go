package extract

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/importanalyzer/internal/lang"
	"github.com/phobologic/importanalyzer/internal/model"
	"github.com/phobologic/importanalyzer/internal/parse"
)

type lookup struct {
	ref    string
	silent bool
}

type fakeResolver struct {
	paths map[string]string
	calls []lookup
}

func (f *fakeResolver) Resolve(ref string, _ model.Listing, silent bool) string {
	f.calls = append(f.calls, lookup{ref, silent})
	return f.paths[ref]
}

func extractSource(t *testing.T, source string, paths map[string]string) (*model.FileFacts, *fakeResolver, string) {
	t.Helper()

	tree, err := parse.Parse(context.Background(), lang.Python.NewParser(), []byte(source))
	require.NoError(t, err)
	defer tree.Close()

	var logs bytes.Buffer
	r := &fakeResolver{paths: paths}
	e := New(r, slog.New(slog.NewTextHandler(&logs, nil)))
	facts := e.Extract("test.py", model.NewListing("", nil, []string{"test.py"}), tree.Root(), tree.Source)
	return facts, r, logs.String()
}

func accessed(facts *model.FileFacts, module string) []string {
	var attrs []string
	for _, a := range facts.Accesses {
		if a.Module == module {
			attrs = append(attrs, a.Attr)
		}
	}
	return attrs
}

func TestExtractImport(t *testing.T) {
	t.Parallel()

	facts, r, logs := extractSource(t, "import os\nimport numpy as np\nimport pkg.sub\n", map[string]string{
		"pkg.sub": "pkg/sub.py",
	})
	assert.Empty(t, logs)

	require.Len(t, facts.Imports, 3)
	assert.Equal(t, []string{"os", "numpy as np", "pkg.sub"}, facts.FormattedImports())
	assert.Equal(t, []string{"os", "numpy", "pkg.sub"}, facts.Imported)
	assert.Equal(t, map[string]model.Binding{
		"os":  {Qualified: "os"},
		"np":  {Qualified: "numpy"},
		"pkg": {Qualified: "pkg.sub", Path: "pkg/sub.py"},
	}, facts.Bindings)
	assert.Equal(t, []lookup{{"os", false}, {"numpy", false}, {"pkg.sub", false}}, r.calls)
	assert.Equal(t, 1, facts.Imports[0].Line)
	assert.Equal(t, 3, facts.Imports[2].Line)
}

func TestExtractImportFrom(t *testing.T) {
	t.Parallel()

	facts, r, _ := extractSource(t, "from pkg.a import helper, other as o\nfrom pkg.a import third\n", map[string]string{
		"pkg.a": "pkg/a.py",
	})

	require.Len(t, facts.From, 1)
	assert.Equal(t, model.FromUsage{
		Module: "pkg.a",
		Path:   "pkg/a.py",
		Names:  []string{"helper", "other", "third"},
	}, facts.From[0])
	assert.Equal(t, model.Binding{Qualified: "pkg.a.helper"}, facts.Bindings["helper"])
	assert.Equal(t, model.Binding{Qualified: "pkg.a.other"}, facts.Bindings["o"])
	assert.NotContains(t, facts.Bindings, "other")
	assert.Empty(t, facts.Imported)

	assert.Equal(t, []lookup{
		{"pkg.a", false},
		{"pkg.a.helper", true},
		{"pkg.a.other", true},
		{"pkg.a", false},
		{"pkg.a.third", true},
	}, r.calls)
}

func TestExtractImportFromSubmodule(t *testing.T) {
	t.Parallel()

	facts, _, _ := extractSource(t, "from pkg import a\n\na.helper()\n", map[string]string{
		"pkg.a": "pkg/a.py",
	})

	assert.Equal(t, model.Binding{Qualified: "pkg.a", Path: "pkg/a.py"}, facts.Bindings["a"])
	assert.Equal(t, []model.AttributeAccess{{Module: "pkg.a", Attr: "helper", Path: "pkg/a.py"}}, facts.Accesses)
	require.Len(t, facts.From, 1)
	assert.Equal(t, "", facts.From[0].Path, "pkg is a directory and resolves to nothing")
}

func TestExtractAliasedFromAttribution(t *testing.T) {
	t.Parallel()

	facts, _, _ := extractSource(t, "from A import B as C\n\nC.d\n", map[string]string{
		"A.B": "A/B.py",
	})

	assert.Equal(t, []model.AttributeAccess{{Module: "A.B", Attr: "d", Path: "A/B.py"}}, facts.Accesses)
}

func TestExtractAliasTransparency(t *testing.T) {
	t.Parallel()

	paths := map[string]string{"m": "m.py"}
	plain, _, _ := extractSource(t, "import m\nm.z\n", paths)
	aliased, _, _ := extractSource(t, "import m as y\ny.z\n", paths)

	assert.Equal(t, plain.Bindings["m"], aliased.Bindings["y"])
	assert.Equal(t, plain.Accesses, aliased.Accesses)
	assert.Equal(t, []model.AttributeAccess{{Module: "m", Attr: "z", Path: "m.py"}}, aliased.Accesses)
}

func TestExtractLastBindingWins(t *testing.T) {
	t.Parallel()

	facts, _, _ := extractSource(t, "import a as x\nimport b as x\nx.attr\n", map[string]string{
		"a": "a.py",
		"b": "b.py",
	})

	assert.Equal(t, []model.AttributeAccess{{Module: "b", Attr: "attr", Path: "b.py"}}, facts.Accesses)
}

func TestExtractReservedAndUnknownNames(t *testing.T) {
	t.Parallel()

	facts, _, _ := extractSource(t, `import msg
import self

class K:
    def f(self):
        return self.value

msg.body
unknown.thing
`, nil)

	assert.Empty(t, facts.Accesses)
}

func TestExtractDeduplicatesAccesses(t *testing.T) {
	t.Parallel()

	facts, _, _ := extractSource(t, "import m\nimport m as n\nm.x\nn.x\nm.x()\n", map[string]string{"m": "m.py"})

	assert.Equal(t, []model.AttributeAccess{{Module: "m", Attr: "x", Path: "m.py"}}, facts.Accesses)
}

func TestExtractRelativeImports(t *testing.T) {
	t.Parallel()

	facts, r, logs := extractSource(t, "from . import sibling\nfrom .mod import thing\n", map[string]string{
		"mod": "mod.py",
	})

	assert.Contains(t, logs, "skipping relative import without a module name")
	require.Len(t, facts.Imports, 1)
	assert.Equal(t, "mod", facts.Imports[0].Module)
	assert.Equal(t, []model.FromUsage{{Module: "mod", Path: "mod.py", Names: []string{"thing"}}}, facts.From)
	assert.Equal(t, []lookup{{"mod", false}, {"mod.thing", true}}, r.calls)
}

func TestExtractWildcard(t *testing.T) {
	t.Parallel()

	facts, _, _ := extractSource(t, "from m import *\n", map[string]string{"m": "m.py"})

	assert.Equal(t, []model.FromUsage{{Module: "m", Path: "m.py", Names: []string{"*"}}}, facts.From)
	assert.Equal(t, model.Binding{Qualified: "m.*"}, facts.Bindings["*"])
}

func TestExtractNestedImport(t *testing.T) {
	t.Parallel()

	facts, _, _ := extractSource(t, `def f():
    if True:
        import m
        return m.lazy
`, map[string]string{"m": "m.py"})

	assert.Equal(t, []string{"lazy"}, accessed(facts, "m"))
}

func TestExtractTraversesEveryContext(t *testing.T) {
	t.Parallel()

	source := `import m

@m.deco
def f(a=m.default, *args, b: m.Type = None) -> m.Ret:
    with m.ctx() as c:
        pass
    try:
        x = [m.comp for _ in m.items if m.cond]
    except m.Error:
        raise m.Failure()
    finally:
        del x
    if (y := m.walrus):
        foo(*m.star, key=m.kw)
    elif m.elif_:
        return lambda: m.lam
    else:
        yield m.gen
    while not m.loop:
        break
    for i in m.iter_:
        continue
    return m.a + -m.b if m.c or m.d < m.e else m.f

class K(m.Base):
    attr = m.cls_attr

v = {"k": m.in_dict}
w = {k: m.in_dict_comp for k in m.dict_comp_iter}
m.target = 1
m.chain.deeper
m.call().after
z = (m.sub)[m.idx]
assert m.check, m.message
s = {m.in_set}
g = tuple(m.gen_elt for _ in ())
`
	facts, _, logs := extractSource(t, source, map[string]string{"m": "m.py"})
	assert.NotContains(t, logs, "unhandled syntax node")

	want := []string{
		"Base", "Error", "Failure", "Ret", "Type",
		"a", "b", "c", "call", "chain", "check", "cls_attr", "comp", "cond", "ctx",
		"d", "deco", "default", "dict_comp_iter", "e", "elif_", "f", "gen", "gen_elt",
		"idx", "in_set", "items", "iter_", "kw", "lam", "loop", "message", "star", "sub",
		"target", "walrus",
	}
	assert.Equal(t, want, accessed(facts, "m"))
}

func TestExtractPatterns(t *testing.T) {
	t.Parallel()

	facts, _, logs := extractSource(t, `import mm

match value:
    case mm.Point(x=1):
        pass
    case mm.ORIGIN:
        pass
    case [mm.Inner.Deep(), other.Thing()]:
        pass
`, map[string]string{"mm": "mm.py"})
	assert.NotContains(t, logs, "unhandled syntax node")
	assert.Equal(t, []string{"Inner", "ORIGIN", "Point"}, accessed(facts, "mm"))
}

func TestExtractSkipsUnhandledNodes(t *testing.T) {
	t.Parallel()

	// Parse directly so the syntax error survives into the visited tree.
	source := []byte("import m\nm.a\n)))\nm.b\n")
	tree, err := lang.Python.NewParser().ParseCtx(context.Background(), nil, source)
	require.NoError(t, err)
	defer tree.Close()

	var logs bytes.Buffer
	r := &fakeResolver{paths: map[string]string{"m": "m.py"}}
	e := New(r, slog.New(slog.NewTextHandler(&logs, nil)))
	facts := e.Extract("test.py", model.NewListing("", nil, []string{"test.py"}), tree.RootNode(), source)

	assert.Contains(t, logs.String(), "unhandled syntax node")
	assert.Contains(t, logs.String(), "type=ERROR")
	assert.Equal(t, []string{"a", "b"}, accessed(facts, "m"))
}

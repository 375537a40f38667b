package discover

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

type prefixExcluder []*regexp.Regexp

func (p prefixExcluder) Excluded(path string) bool {
	for _, re := range p {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func paths(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestDiscoverPythonFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.py", "print('hello')")
	writeFile(t, dir, "lib/util.py", "def helper(): pass")
	// Non-Python file should be ignored
	writeFile(t, dir, "readme.txt", "hello")

	entries, err := Files(Options{Root: dir, ScanDir: dir})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), paths(entries))
	}

	// Should be sorted
	if entries[0].Path != "lib/util.py" {
		t.Errorf("entry 0: got %q", entries[0].Path)
	}
	if entries[1].Path != "main.py" {
		t.Errorf("entry 1: got %q", entries[1].Path)
	}
	if entries[1].Abs != filepath.Join(dir, "main.py") {
		t.Errorf("abs: got %q", entries[1].Abs)
	}
}

func TestDiscoverListing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "pkg/a.py", "")
	writeFile(t, dir, "pkg/b.py", "")
	writeFile(t, dir, "pkg/data.json", "{}")
	writeFile(t, dir, "pkg/sub/c.py", "")
	writeFile(t, dir, "pkg/__pycache__/a.cpython-312.pyc", "")

	entries, err := Files(Options{Root: dir, ScanDir: dir})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %v", paths(entries))
	}

	l := entries[0].Listing
	if l.Dir != "pkg" {
		t.Errorf("dir = %q, want pkg", l.Dir)
	}
	if !l.HasFile("data.json") || !l.HasFile("b.py") {
		t.Errorf("files missing from listing %+v", l)
	}
	// The listing reflects the directory as is, skipped directories included.
	if !l.HasSubdir("sub") || !l.HasSubdir("__pycache__") {
		t.Errorf("subdirs missing from listing %+v", l)
	}
	if entries[0].Listing.Digest() != entries[1].Listing.Digest() {
		t.Error("files in one directory share a listing")
	}
	if entries[2].Listing.Dir != "pkg/sub" {
		t.Errorf("nested dir = %q", entries[2].Listing.Dir)
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.py", "pass")
	writeFile(t, dir, "node_modules/pkg.py", "pass")
	writeFile(t, dir, "__pycache__/cached.py", "pass")
	writeFile(t, dir, ".venv/lib/python3.12/site-packages/six.py", "pass")

	entries, err := Files(Options{Root: dir, ScanDir: dir})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %v", paths(entries))
	}
	if entries[0].Path != "main.py" {
		t.Errorf("expected main.py, got %q", entries[0].Path)
	}
}

func TestDiscoverScanDirInsideRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "top.py", "")
	writeFile(t, dir, "src/pkg/mod.py", "")

	entries, err := Files(Options{Root: dir, ScanDir: filepath.Join(dir, "src")})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "src/pkg/mod.py" {
		t.Fatalf("got %v", paths(entries))
	}
	if entries[0].Listing.Dir != "src/pkg" {
		t.Errorf("dir = %q", entries[0].Listing.Dir)
	}
}

func TestDiscoverExclusions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "keep.py", "")
	writeFile(t, dir, "build/gen.py", "")
	writeFile(t, dir, "tests/fixtures/f.py", "")
	writeFile(t, dir, "tests/test_x.py", "")

	ex := prefixExcluder{
		regexp.MustCompile("^build/"),
		regexp.MustCompile("^" + regexp.QuoteMeta(filepath.Join(dir, "tests", "fixtures"))),
	}
	entries, err := Files(Options{Root: dir, ScanDir: dir, Excluder: ex})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	got := paths(entries)
	if len(got) != 2 || got[0] != "keep.py" || got[1] != "tests/test_x.py" {
		t.Errorf("got %v", got)
	}
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "generated/\n*_pb2.py\n")
	writeFile(t, dir, "main.py", "")
	writeFile(t, dir, "api_pb2.py", "")
	writeFile(t, dir, "generated/x.py", "")

	entries, err := Files(Options{Root: dir, ScanDir: dir})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("without gitignore: got %v", paths(entries))
	}

	entries, err = Files(Options{Root: dir, ScanDir: dir, RespectGitignore: true})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "main.py" {
		t.Errorf("with gitignore: got %v", paths(entries))
	}
}

func TestDiscoverEmpty(t *testing.T) {
	t.Parallel()

	entries, err := Files(Options{Root: t.TempDir(), ScanDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %v", paths(entries))
	}
}

package resolve

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Installed describes where an installed top-level module lives.
type Installed struct {
	Name     string
	Location string
}

// Index maps installed top-level module names to their install locations.
// It is built once from package metadata on disk; nothing is imported or
// executed. The zero value and a nil *Index are empty.
type Index struct {
	entries map[string]Installed
}

// NewIndex builds an index from explicit entries. The first entry for a name wins.
func NewIndex(entries ...Installed) *Index {
	ix := &Index{entries: make(map[string]Installed, len(entries))}
	for _, e := range entries {
		ix.add(e.Name, e.Location)
	}
	return ix
}

// Lookup returns the install location of a top-level module name.
func (ix *Index) Lookup(name string) (Installed, bool) {
	if ix == nil {
		return Installed{}, false
	}
	e, ok := ix.entries[name]
	return e, ok
}

// Len returns the number of indexed names.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

func (ix *Index) add(name, location string) {
	if name == "" {
		return
	}
	if _, ok := ix.entries[name]; ok {
		return
	}
	ix.entries[name] = Installed{Name: name, Location: location}
}

// BuildIndex scans site-packages directories in order. Directories named by
// .pth files are scanned after every site directory, the way the interpreter
// appends them to its search path.
func BuildIndex(siteDirs []string, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ix := NewIndex()

	var extra []string
	for _, dir := range siteDirs {
		extra = append(extra, ix.scan(dir, true, logger)...)
	}
	for _, dir := range extra {
		ix.scan(dir, false, logger)
	}

	logger.Debug("installed package index built", "dirs", len(siteDirs), "names", ix.Len())
	return ix
}

// scan indexes one directory and returns the directories its .pth files add.
func (ix *Index) scan(dir string, site bool, logger *slog.Logger) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Debug("skipping package directory", "dir", dir, "error", err)
		return nil
	}

	var pthDirs []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || name == "__pycache__" {
			continue
		}

		if e.IsDir() {
			if strings.HasSuffix(name, ".dist-info") || strings.HasSuffix(name, ".egg-info") {
				for _, top := range readTopLevel(filepath.Join(dir, name, "top_level.txt")) {
					ix.add(top, filepath.Join(dir, top))
				}
				continue
			}
			if strings.Contains(name, ".") || strings.Contains(name, "-") {
				continue
			}
			ix.add(name, filepath.Join(dir, name))
			continue
		}

		switch ext := filepath.Ext(name); ext {
		case ".py":
			ix.add(strings.TrimSuffix(name, ext), filepath.Join(dir, name))
		case ".so", ".pyd":
			ix.add(name[:strings.Index(name, ".")], filepath.Join(dir, name))
		case ".pth":
			if site {
				pthDirs = append(pthDirs, readPth(dir, filepath.Join(dir, name))...)
			}
		}
	}
	return pthDirs
}

func readTopLevel(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" && !strings.Contains(line, "/") {
			names = append(names, line)
		}
	}
	return names
}

func readPth(siteDir, path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var dirs []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "import\t") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(siteDir, line)
		}
		if info, err := os.Stat(line); err == nil && info.IsDir() {
			dirs = append(dirs, filepath.Clean(line))
		}
	}
	return dirs
}

var sitePatterns = []string{
	"lib/python3*/site-packages",
	"lib/python3*/dist-packages",
	"lib/python3/dist-packages",
	"Lib/site-packages",
	"local/lib/python3*/site-packages",
	"local/lib/python3*/dist-packages",
}

// SiteDirs expands install prefixes into existing site-packages directories,
// preserving order and dropping duplicates. A prefix that is itself a
// site-packages directory is used as is.
func SiteDirs(prefixes []string) []string {
	seen := make(map[string]struct{})
	var out []string
	addDir := func(dir string) {
		dir = filepath.Clean(dir)
		if _, ok := seen[dir]; ok {
			return
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return
		}
		seen[dir] = struct{}{}
		out = append(out, dir)
	}

	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		if isSiteDirName(filepath.Base(prefix)) {
			addDir(prefix)
			continue
		}
		fsys := os.DirFS(prefix)
		for _, pattern := range sitePatterns {
			matches, err := doublestar.Glob(fsys, pattern)
			if err != nil {
				continue
			}
			for _, m := range matches {
				addDir(filepath.Join(prefix, filepath.FromSlash(m)))
			}
		}
	}
	return out
}

// DefaultPrefixes lists the install prefixes searched when nothing else is
// configured: the active virtualenv or conda env, virtualenvs in the project
// root, the user site and the system prefixes.
func DefaultPrefixes(root string, getenv func(string) string) []string {
	if getenv == nil {
		getenv = os.Getenv
	}
	prefixes := []string{
		getenv("VIRTUAL_ENV"),
		getenv("CONDA_PREFIX"),
		filepath.Join(root, ".venv"),
		filepath.Join(root, "venv"),
	}
	if home := getenv("HOME"); home != "" {
		prefixes = append(prefixes, filepath.Join(home, ".local"))
	}
	return append(prefixes, "/usr/local", "/usr")
}

func isSiteDirName(name string) bool {
	return name == "site-packages" || name == "dist-packages"
}

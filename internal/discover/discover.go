// Package discover enumerates the Python source files of a project together
// with a snapshot of the directory each one lives in.
package discover

import (
	"os"
	"path/filepath"
	"sort"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/importanalyzer/internal/lang"
	"github.com/phobologic/importanalyzer/internal/model"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path    string // Relative to the project root, slash separated
	Abs     string
	Listing model.Listing
}

// Excluder decides whether a path is excluded from the analysis. It is asked
// about both the absolute and the root-relative path of every file.
type Excluder interface {
	Excluded(path string) bool
}

// Options configures Files.
type Options struct {
	// Root is the absolute project root that paths are made relative to.
	Root string
	// ScanDir is the absolute directory to walk; it must be inside Root.
	ScanDir  string
	Excluder Excluder
	// RespectGitignore filters files matched by the root .gitignore.
	RespectGitignore bool
}

var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	".git":          {},
	".hg":           {},
	".svn":          {},
	".venv":         {},
	"venv":          {},
	".tox":          {},
	".nox":          {},
	".mypy_cache":   {},
	".ruff_cache":   {},
	".pytest_cache": {},
}

// Files discovers Python source files under opts.ScanDir, sorted by path.
func Files(opts Options) ([]FileEntry, error) {
	var gi *ignore.GitIgnore
	if opts.RespectGitignore {
		gi = loadGitignore(opts.Root)
	}

	var results []FileEntry

	err := filepath.WalkDir(opts.ScanDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}
		if !d.IsDir() {
			return nil
		}

		if path != opts.ScanDir {
			if _, skip := skipDirs[d.Name()]; skip {
				return filepath.SkipDir
			}
		}

		rel, err := relPath(opts.Root, path)
		if err != nil {
			return nil
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil
		}

		var subdirs, files []string
		for _, e := range entries {
			if e.IsDir() {
				subdirs = append(subdirs, e.Name())
			} else {
				files = append(files, e.Name())
			}
		}
		listing := model.NewListing(rel, subdirs, files)

		for _, name := range files {
			if !lang.Python.HasExtension(name) {
				continue
			}
			abs := filepath.Join(path, name)
			fileRel := joinRel(rel, name)

			if opts.Excluder != nil && (opts.Excluder.Excluded(abs) || opts.Excluder.Excluded(fileRel)) {
				continue
			}
			if gi != nil && gi.MatchesPath(fileRel) {
				continue
			}
			if info, err := os.Stat(abs); err != nil || !info.Mode().IsRegular() {
				continue
			}

			results = append(results, FileEntry{Path: fileRel, Abs: abs, Listing: listing})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

func relPath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

func joinRel(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}

// Package resolve maps dotted Python references to project-relative files.
package resolve

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/phobologic/importanalyzer/internal/lang"
	"github.com/phobologic/importanalyzer/internal/model"
)

// Options configures a Resolver.
type Options struct {
	// Root is the absolute project root.
	Root string
	// ExcludeTopLevel names top-level modules that are always external.
	ExcludeTopLevel []string
	// Index locates installed packages. Nil means nothing is installed.
	Index  *Index
	Logger *slog.Logger
}

type cacheKey struct {
	ref    string
	dir    string
	digest uint64
}

type cacheEntry struct {
	path      string
	candidate string
	reported  bool
}

// Resolver resolves dotted references and memoizes the results per
// (reference, directory listing). It is safe for concurrent use.
type Resolver struct {
	root     string
	excluded map[string]struct{}
	index    *Index
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[cacheKey]*cacheEntry
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	excluded := make(map[string]struct{}, len(opts.ExcludeTopLevel))
	for _, name := range opts.ExcludeTopLevel {
		excluded[name] = struct{}{}
	}
	return &Resolver{
		root:     opts.Root,
		excluded: excluded,
		index:    opts.Index,
		logger:   logger,
		cache:    make(map[cacheKey]*cacheEntry),
	}
}

// Resolve returns the project-relative, slash-separated path of the file
// that ref denotes when referenced from the directory snapshot from, or ""
// when ref is standard library, excluded, installed outside the project,
// a package directory, or not found. Unless silent is set, a reference that
// is not found is reported once.
func (r *Resolver) Resolve(ref string, from model.Listing, silent bool) string {
	key := cacheKey{ref: ref, dir: from.Dir, digest: from.Digest()}

	r.mu.Lock()
	e, ok := r.cache[key]
	r.mu.Unlock()

	if !ok {
		p, candidate := r.resolve(ref, from)
		r.mu.Lock()
		if e, ok = r.cache[key]; !ok {
			e = &cacheEntry{path: p, candidate: candidate}
			r.cache[key] = e
		}
		r.mu.Unlock()
	}

	if !silent && e.candidate != "" {
		r.mu.Lock()
		report := !e.reported
		e.reported = true
		r.mu.Unlock()
		if report {
			r.logger.Warn("unresolved import", "module", ref, "candidate", e.candidate, "dir", from.Dir)
		}
	}

	return e.path
}

// Len returns the number of memoized lookups.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// IsExcluded reports whether a top-level module name is configured as external.
func (r *Resolver) IsExcluded(name string) bool {
	_, ok := r.excluded[name]
	return ok
}

// resolve returns the resolved path, or the candidate path that was tried
// when nothing was found.
func (r *Resolver) resolve(ref string, from model.Listing) (resolved, candidate string) {
	if ref == "" {
		return "", ""
	}
	parts := strings.Split(ref, ".")
	for _, p := range parts {
		if p == "" {
			return "", ""
		}
	}
	top := parts[0]

	if IsStdlib(top) || r.IsExcluded(top) {
		return "", ""
	}

	if isSibling(top, from) {
		if from.Dir != "" {
			parts = append(strings.Split(from.Dir, "/"), parts...)
		}
	} else if inst, ok := r.index.Lookup(top); ok && r.isExternal(inst.Location) {
		return "", ""
	}

	rel := path.Join(parts...)
	abs := filepath.Join(r.root, filepath.FromSlash(rel))

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return "", ""
	}
	for _, ext := range lang.Python.Extensions {
		if info, err := os.Stat(abs + ext); err == nil && info.Mode().IsRegular() {
			return rel + ext, ""
		}
	}
	return "", rel
}

// isSibling reports whether name is a file, module or subdirectory next to
// the referencing file.
func isSibling(name string, from model.Listing) bool {
	if from.HasFile(name) || from.HasSubdir(name) {
		return true
	}
	for _, ext := range lang.Python.Extensions {
		if from.HasFile(name + ext) {
			return true
		}
	}
	return false
}

// isExternal reports whether an install location lies outside the project
// tree or inside a packages-install directory.
func (r *Resolver) isExternal(location string) bool {
	rel, err := filepath.Rel(r.root, location)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if isSiteDirName(part) {
			return true
		}
	}
	return false
}

package model

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Listing is an immutable snapshot of one directory: its project-relative
// path and the names of its subdirectories and files. Construct it with
// NewListing; the zero value is the empty project root.
type Listing struct {
	Dir     string
	subdirs []string
	files   []string
	digest  uint64
}

// NewListing snapshots a directory. The name slices are copied, sorted and
// deduplicated, so callers may reuse them afterwards.
func NewListing(dir string, subdirs, files []string) Listing {
	l := Listing{
		Dir:     dir,
		subdirs: sortedUnique(subdirs),
		files:   sortedUnique(files),
	}

	d := xxhash.New()
	_, _ = d.WriteString(dir)
	for _, s := range l.subdirs {
		_, _ = d.WriteString("\x00d")
		_, _ = d.WriteString(s)
	}
	for _, f := range l.files {
		_, _ = d.WriteString("\x00f")
		_, _ = d.WriteString(f)
	}
	l.digest = d.Sum64()

	return l
}

// Digest identifies the snapshot's content: equal listings have equal digests.
func (l Listing) Digest() uint64 {
	return l.digest
}

// HasSubdir reports whether name is a subdirectory.
func (l Listing) HasSubdir(name string) bool {
	return contains(l.subdirs, name)
}

// HasFile reports whether name is a file.
func (l Listing) HasFile(name string) bool {
	return contains(l.files, name)
}

func contains(sorted []string, name string) bool {
	i := sort.SearchStrings(sorted, name)
	return i < len(sorted) && sorted[i] == name
}

func sortedUnique(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	n := 0
	for i, s := range out {
		if i > 0 && s == out[n-1] {
			continue
		}
		out[n] = s
		n++
	}
	return out[:n]
}
